// Package config builds the effective revu configuration from defaults,
// the global config file, repo-local overrides, environment variables,
// and CLI flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the effective revu configuration. It is constructed once at
// startup and passed by value into the orchestrator; nothing in the core
// reads ambient global state.
type Config struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	FailOn    string `json:"failOn"`
	Format    string `json:"format"`
	MaxTokens int    `json:"maxTokens"`

	IgnoreFiles     []string `json:"ignoreFiles,omitempty"`
	IgnorePaths     []string `json:"ignorePaths,omitempty"`
	IncludePatterns []string `json:"includePatterns,omitempty"`
	ExcludePatterns []string `json:"excludePatterns,omitempty"`

	Prompts PromptConfig  `json:"prompts"`
	Privacy PrivacyConfig `json:"privacy"`
	Store   StoreConfig   `json:"store"`
}

// PromptConfig carries optional prompt template overrides. Review and
// Summary templates use {{...}} placeholder substitution.
type PromptConfig struct {
	System  string `json:"system,omitempty"`
	Review  string `json:"review,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// PrivacyConfig controls secret redaction of diff text before it is
// sent to a model backend.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// StoreConfig controls result persistence.
type StoreConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir,omitempty"`
}

// RepoConfig holds per-repo overrides loaded from .revu.toml at the
// repository root.
type RepoConfig struct {
	Provider        string   `toml:"provider"`
	Model           string   `toml:"model"`
	FailOn          string   `toml:"fail_on"`
	IgnoreFiles     []string `toml:"ignore_files"`
	IgnorePaths     []string `toml:"ignore_paths"`
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	SystemPrompt    string   `toml:"system_prompt"`
	ReviewPrompt    string   `toml:"review_prompt"`
	SummaryPrompt   string   `toml:"summary_prompt"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:  "openai",
		Model:     "gpt-4o",
		FailOn:    "none",
		Format:    "text",
		MaxTokens: 8192,
		ExcludePatterns: []string{
			"*.min.js",
			"*.lock",
			"*.sum",
			"vendor/*",
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"*.env", "*secrets*"},
		},
		Store: StoreConfig{Enabled: true},
	}
}

// ConfigDir returns the platform-appropriate config directory for revu.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "revu"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "revu"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "revu"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "revu"), nil
	default:
		return filepath.Join(home, ".config", "revu"), nil
	}
}

// ConfigPath returns the full path to the global config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the global config file. Returns zero Config
// and nil error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// LoadRepoConfig loads per-repo overrides from <repoPath>/.revu.toml.
// A missing file is not an error and returns nil.
func LoadRepoConfig(repoPath string) (*RepoConfig, error) {
	path := filepath.Join(repoPath, ".revu.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	var cfg RepoConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to the global config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging:
// defaults <- global file <- repo .revu.toml <- env <- overrides.
// repoPath may be empty to skip the repo layer; the overrides map comes
// from CLI flags (only non-zero values should be set).
func Load(repoPath string, overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)

	if repoPath != "" {
		repoCfg, err := LoadRepoConfig(repoPath)
		if err != nil {
			return Config{}, err
		}
		mergeRepo(&cfg, repoCfg)
	}

	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.FailOn != "" {
		dst.FailOn = src.FailOn
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.MaxTokens > 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if len(src.IgnoreFiles) > 0 {
		dst.IgnoreFiles = src.IgnoreFiles
	}
	if len(src.IgnorePaths) > 0 {
		dst.IgnorePaths = src.IgnorePaths
	}
	if len(src.IncludePatterns) > 0 {
		dst.IncludePatterns = src.IncludePatterns
	}
	if len(src.ExcludePatterns) > 0 {
		dst.ExcludePatterns = src.ExcludePatterns
	}
	if src.Prompts.System != "" {
		dst.Prompts.System = src.Prompts.System
	}
	if src.Prompts.Review != "" {
		dst.Prompts.Review = src.Prompts.Review
	}
	if src.Prompts.Summary != "" {
		dst.Prompts.Summary = src.Prompts.Summary
	}
	if len(src.Privacy.RedactPaths) > 0 {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}
	if src.Store.Dir != "" {
		dst.Store.Dir = src.Store.Dir
	}
}

func mergeRepo(dst *Config, src *RepoConfig) {
	if src == nil {
		return
	}
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.FailOn != "" {
		dst.FailOn = src.FailOn
	}
	if len(src.IgnoreFiles) > 0 {
		dst.IgnoreFiles = src.IgnoreFiles
	}
	if len(src.IgnorePaths) > 0 {
		dst.IgnorePaths = src.IgnorePaths
	}
	if len(src.IncludePatterns) > 0 {
		dst.IncludePatterns = src.IncludePatterns
	}
	if len(src.ExcludePatterns) > 0 {
		dst.ExcludePatterns = src.ExcludePatterns
	}
	if src.SystemPrompt != "" {
		dst.Prompts.System = src.SystemPrompt
	}
	if src.ReviewPrompt != "" {
		dst.Prompts.Review = src.ReviewPrompt
	}
	if src.SummaryPrompt != "" {
		dst.Prompts.Summary = src.SummaryPrompt
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("REVU_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("REVU_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("REVU_FAIL_ON"); v != "" {
		cfg.FailOn = v
	}
	if v := os.Getenv("REVU_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("REVU_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokens = n
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["provider"]; ok && v != "" {
		cfg.Provider = v
	}
	if v, ok := overrides["model"]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := overrides["failOn"]; ok && v != "" {
		cfg.FailOn = v
	}
	if v, ok := overrides["format"]; ok && v != "" {
		cfg.Format = v
	}
	if v, ok := overrides["maxTokens"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokens = n
		}
	}
}

// SetField sets a single config field by key name. Returns an error if
// the key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "failOn":
		cfg.FailOn = value
	case "format":
		cfg.Format = value
	case "maxTokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxTokens must be an integer: %w", err)
		}
		cfg.MaxTokens = n
	case "prompts.system":
		cfg.Prompts.System = value
	case "prompts.review":
		cfg.Prompts.Review = value
	case "prompts.summary":
		cfg.Prompts.Summary = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
