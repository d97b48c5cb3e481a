// Package store persists finished review runs as JSON files so results
// survive the process and can be inspected or cleared later.
package store

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/revu-dev/revu/internal/review"
)

// Run is one persisted review run.
type Run struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Results   []review.Result `json:"results"`
	Summary   string          `json:"summary,omitempty"`
}

// Store writes runs to a directory, one JSON file per run.
type Store struct {
	dir string
}

// New creates a Store rooted at dir; an empty dir selects the default
// platform cache location.
func New(dir string) (*Store, error) {
	if dir == "" {
		d, err := defaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveRun persists one run's results and optional summary.
func (s *Store) SaveRun(results []review.Result, summary string) error {
	run := Run{
		ID:        newRunID(),
		CreatedAt: time.Now(),
		Results:   results,
		Summary:   summary,
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run: %w", err)
	}
	path := filepath.Join(s.dir, "run-"+run.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run file: %w", err)
	}
	return nil
}

// List returns persisted runs, newest first.
func (s *Store) List() ([]Run, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading results directory: %w", err)
	}
	var runs []Run
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var run Run
		if err := json.Unmarshal(data, &run); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// Clear removes all persisted runs.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading results directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			os.Remove(filepath.Join(s.dir, e.Name()))
		}
	}
	return nil
}

// Stats summarizes the stored runs.
type Stats struct {
	Dir        string `json:"dir"`
	Runs       int    `json:"runs"`
	TotalBytes int64  `json:"totalBytes"`
}

// GetStats returns information about the store.
func (s *Store) GetStats() (Stats, error) {
	stats := Stats{Dir: s.dir}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading results directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Runs++
		stats.TotalBytes += info.Size()
	}
	return stats, nil
}

// Dir returns the store directory path.
func (s *Store) Dir() string { return s.dir }

func newRunID() string {
	h := sha256.Sum256(fmt.Appendf(nil, "%d", time.Now().UnixNano()))
	return fmt.Sprintf("%x", h[:8])
}

func defaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "revu", "results"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "revu", "results"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "revu", "results"), nil
		}
		return filepath.Join(home, "AppData", "Local", "revu", "results"), nil
	default:
		return filepath.Join(home, ".cache", "revu", "results"), nil
	}
}
