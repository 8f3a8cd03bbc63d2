package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmakaev/rslph/internal/display"
	"github.com/vmakaev/rslph/internal/progress"
)

var statusVerbose bool

var statusCmd = &cobra.Command{
	Use:   "status <progress-file>",
	Short: "Show the current state of a progress document",
	Long: `Load a progress document and print its status, task completion
count, next task, and recent attempts, without spawning the agent CLI.

Use --verbose to also print the full iteration log.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := progress.Load(args[0])
		if err != nil {
			return fmt.Errorf("load progress document: %w", err)
		}

		dsp := display.New()
		dsp.Info("Name", doc.Name)
		dsp.Info("Status", doc.Status)
		dsp.Info("Tasks", fmt.Sprintf("%d/%d complete", doc.CompletedTasks(), doc.TotalTasks()))

		if task, phase := doc.NextTask(); task != nil {
			dsp.Info("Next", fmt.Sprintf("[%s] %s", phase.Title, task.Description))
		} else if doc.IsDone() {
			dsp.Success("document reports RALPH_DONE")
		} else {
			dsp.Success("all tasks complete")
		}

		if len(doc.RecentAttempts) > 0 {
			var lines []string
			for _, a := range doc.RecentAttempts {
				line := fmt.Sprintf("iter %d: tried %q, result %q", a.Iteration, a.Tried, a.Result)
				if a.Next != nil {
					line += fmt.Sprintf(", next %q", *a.Next)
				}
				lines = append(lines, line)
			}
			dsp.Box("RECENT ATTEMPTS", lines...)
		}

		if statusVerbose && len(doc.IterationLog) > 0 {
			var lines []string
			for _, e := range doc.IterationLog {
				lines = append(lines, fmt.Sprintf("#%d started %s, took %s, %d task(s) done: %s",
					e.Iteration, e.Started, e.Duration, e.TasksCompleted, e.Notes))
			}
			dsp.Box("ITERATION LOG", lines...)
		}

		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusVerbose, "verbose", false, "print the full iteration log")
	rootCmd.AddCommand(statusCmd)
}
