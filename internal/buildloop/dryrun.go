package buildloop

import (
	"fmt"
	"io"

	"github.com/vmakaev/rslph/internal/progress"
)

// PreviewDryRun loads the document at path and writes a human-readable
// preview of what the next iteration would do, without spawning the agent
// CLI. It is the entire behavior of `build --dry-run` (spec §4.E).
func PreviewDryRun(path string, w io.Writer) error {
	doc, err := progress.Load(path)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	fmt.Fprintf(w, "%s\n", doc.Name)
	fmt.Fprintf(w, "status: %s\n", doc.Status)
	fmt.Fprintf(w, "tasks: %d/%d complete\n", doc.CompletedTasks(), doc.TotalTasks())

	if doc.IsDone() {
		fmt.Fprintln(w, "would stop immediately: status already contains RALPH_DONE")
		return nil
	}
	if total := doc.TotalTasks(); total > 0 && doc.CompletedTasks() == total {
		fmt.Fprintln(w, "would stop immediately: all tasks already complete")
		return nil
	}

	if task, phase := doc.NextTask(); task != nil {
		fmt.Fprintf(w, "next task: [%s] %s\n", phase.Title, task.Description)
	} else {
		fmt.Fprintln(w, "next task: none")
	}

	if n := len(doc.RecentAttempts); n > 0 {
		fmt.Fprintf(w, "recent attempts on file: %d\n", n)
		last := doc.RecentAttempts[n-1]
		fmt.Fprintf(w, "  last: iteration %d, tried %q, result %q\n", last.Iteration, last.Tried, last.Result)
	}

	fmt.Fprintln(w, "would spawn the agent CLI with the build persona and the current document as context")
	return nil
}
