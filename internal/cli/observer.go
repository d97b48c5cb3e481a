package cli

import (
	"fmt"
	"io"

	"github.com/revu-dev/revu/internal/review"
)

// consoleObserver reports run progress to a diagnostic writer, normally
// stderr, keeping the pipeline itself free of console side effects.
type consoleObserver struct {
	w io.Writer
}

func (o *consoleObserver) FileStarted(path string, index, total int) {
	fmt.Fprintf(o.w, "Reviewing %s (%d/%d)...\n", path, index, total)
}

func (o *consoleObserver) FileCompleted(path string, r review.Result, total int) {
	fmt.Fprintf(o.w, "  %s: %d issues\n", path, len(r.Issues))
}

func (o *consoleObserver) RunCompleted(results []review.Result, summary string) {
	if len(results) == 0 {
		fmt.Fprintln(o.w, "Nothing to review.")
		return
	}
	fmt.Fprintf(o.w, "Run complete: %d files, %d issues.\n",
		len(results), review.CountSeverities(results).Total())
}

func (o *consoleObserver) Error(stage string, err error) {
	fmt.Fprintf(o.w, "Error (%s): %v\n", stage, err)
}
