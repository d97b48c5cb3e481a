package review

import "testing"

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"info", SeverityInfo},
		{"warning", SeverityWarning},
		{"error", SeverityError},
		{"critical", SeverityInfo},
		{"WARNING", SeverityInfo},
		{"", SeverityInfo},
	}
	for _, tt := range tests {
		if got := NormalizeSeverity(tt.in); got != tt.want {
			t.Errorf("NormalizeSeverity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeverityRank_Ordering(t *testing.T) {
	if !(SeverityRank(SeverityError) > SeverityRank(SeverityWarning)) {
		t.Error("error should rank above warning")
	}
	if !(SeverityRank(SeverityWarning) > SeverityRank(SeverityInfo)) {
		t.Error("warning should rank above info")
	}
	if SeverityRank(Severity("bogus")) != 0 {
		t.Error("unknown severity should rank 0")
	}
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		sev       Severity
		threshold string
		want      bool
	}{
		{SeverityError, "none", false},
		{SeverityError, "", false},
		{SeverityInfo, "info", true},
		{SeverityWarning, "info", true},
		{SeverityInfo, "warning", false},
		{SeverityWarning, "warning", true},
		{SeverityError, "warning", true},
		{SeverityWarning, "error", false},
		{SeverityError, "error", true},
	}
	for _, tt := range tests {
		if got := MeetsThreshold(tt.sev, tt.threshold); got != tt.want {
			t.Errorf("MeetsThreshold(%q, %q) = %v, want %v", tt.sev, tt.threshold, got, tt.want)
		}
	}
}

func TestCountSeverities(t *testing.T) {
	results := []Result{
		{File: "a.go", Issues: []Issue{
			{Severity: SeverityError},
			{Severity: SeverityInfo},
		}},
		{File: "b.go", Issues: []Issue{
			{Severity: SeverityWarning},
			{Severity: Severity("unknown")}, // counted as info
		}},
		{File: "c.go"},
	}
	c := CountSeverities(results)
	if c.Error != 1 || c.Warning != 1 || c.Info != 2 {
		t.Errorf("counts = %+v, want 1/1/2", c)
	}
	if c.Total() != 4 {
		t.Errorf("Total = %d, want 4", c.Total())
	}
}
