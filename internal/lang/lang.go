// Package lang maps file extensions to canonical language tags.
package lang

import (
	"path/filepath"
	"strings"
)

// Language identifies a programming language by canonical tag and
// human-readable display name.
type Language struct {
	Tag  string
	Name string
}

var byExtension = map[string]Language{
	".go":    {"go", "Go"},
	".py":    {"python", "Python"},
	".js":    {"javascript", "JavaScript"},
	".jsx":   {"jsx", "JavaScript/React"},
	".ts":    {"typescript", "TypeScript"},
	".tsx":   {"tsx", "TypeScript/React"},
	".rs":    {"rust", "Rust"},
	".java":  {"java", "Java"},
	".rb":    {"ruby", "Ruby"},
	".cpp":   {"cpp", "C++"},
	".cc":    {"cpp", "C++"},
	".c":     {"c", "C"},
	".h":     {"c", "C/C++"},
	".cs":    {"csharp", "C#"},
	".php":   {"php", "PHP"},
	".swift": {"swift", "Swift"},
	".kt":    {"kotlin", "Kotlin"},
	".scala": {"scala", "Scala"},
	".sql":   {"sql", "SQL"},
	".sh":    {"bash", "Shell"},
	".yaml":  {"yaml", "YAML"},
	".yml":   {"yaml", "YAML"},
	".json":  {"json", "JSON"},
	".tf":    {"hcl", "Terraform"},
	".md":    {"markdown", "Markdown"},
	".html":  {"html", "HTML"},
	".css":   {"css", "CSS"},
}

// Detect returns the language for a file path based on its extension.
// Unknown extensions return a zero Language.
func Detect(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	return byExtension[ext]
}

// Display returns the human-readable name for a path's language, or a
// generic fallback when the extension is not recognized.
func Display(path string) string {
	if l := Detect(path); l.Name != "" {
		return l.Name
	}
	return "code"
}
