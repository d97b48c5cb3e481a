package lang

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		tag  string
		name string
	}{
		{"cmd/main.go", "go", "Go"},
		{"app/models.py", "python", "Python"},
		{"src/index.TSX", "tsx", "TypeScript/React"},
		{"deploy/main.tf", "hcl", "Terraform"},
		{"Makefile", "", ""},
	}

	for _, tt := range tests {
		l := Detect(tt.path)
		if l.Tag != tt.tag || l.Name != tt.name {
			t.Errorf("Detect(%q) = %+v, want {%s %s}", tt.path, l, tt.tag, tt.name)
		}
	}
}

func TestDisplay_Fallback(t *testing.T) {
	if got := Display("LICENSE"); got != "code" {
		t.Errorf("Display(LICENSE) = %q, want %q", got, "code")
	}
	if got := Display("main.go"); got != "Go" {
		t.Errorf("Display(main.go) = %q, want %q", got, "Go")
	}
}
