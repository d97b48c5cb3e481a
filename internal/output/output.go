// Package output renders review results for the console and for
// machine consumption.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/revu-dev/revu/internal/review"
)

// Write renders results in the given format ("text" or "json").
func Write(w io.Writer, format string, results []review.Result, summary string) error {
	switch format {
	case "", "text":
		return WriteBatch(w, results, summary)
	case "json":
		return WriteJSON(w, results, summary)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteJSON emits the canonical JSON shape of a run.
func WriteJSON(w io.Writer, results []review.Result, summary string) error {
	payload := struct {
		Results []review.Result `json:"results"`
		Summary string          `json:"summary,omitempty"`
	}{Results: results, Summary: summary}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
