package buildloop

import (
	"fmt"
	"os"
	"time"

	"github.com/vmakaev/rslph/internal/cancel"
	"github.com/vmakaev/rslph/internal/config"
	"github.com/vmakaev/rslph/internal/iteration"
	"github.com/vmakaev/rslph/internal/progress"
	"github.com/vmakaev/rslph/internal/runner"
)

// Options configures one Run invocation.
type Options struct {
	DocumentPath string
	WorkspaceDir string
	Config       *config.Config
	CancelToken  *cancel.Token

	// Once restricts the run to a single iteration regardless of
	// max_iterations.
	Once bool

	// OnLine, if set, receives every subprocess output line as it
	// arrives, for a TUI or --no-tui console to render live.
	OnLine func(runner.OutputLine)

	// OnState, if set, is called with every state transition, including
	// the terminal one.
	OnState func(State)
}

// Run drives the build loop to completion, strictly sequentially: no two
// iterations ever overlap (spec §5).
func Run(opts Options) State {
	var known State
	emit := func(s State) State {
		if s.Kind == IterationComplete {
			known = s
		} else {
			s.CompletedTasks, s.TotalTasks, s.Usage = known.CompletedTasks, known.TotalTasks, known.Usage
		}
		if opts.OnState != nil {
			opts.OnState(s)
		}
		return s
	}

	n := uint32(1)
	emit(State{Kind: Running, Iteration: n})

	for {
		if opts.CancelToken != nil && opts.CancelToken.IsCancelled() {
			return emit(State{Kind: Done, DoneReason: UserCancelled})
		}

		start := time.Now()
		outcome, err := iteration.Execute(n, iteration.Context{
			DocumentPath: opts.DocumentPath,
			WorkspaceDir: opts.WorkspaceDir,
			Config:       opts.Config,
			CancelToken:  opts.CancelToken,
			OnLine:       opts.OnLine,
		})
		if err != nil {
			return emit(State{Kind: Failed, Err: err})
		}
		if outcome.Cancelled {
			return emit(State{Kind: Done, DoneReason: UserCancelled})
		}
		if !outcome.Continuing {
			return emit(State{Kind: Done, DoneReason: DoneReason(outcome.Done)})
		}

		duration := time.Since(start).Round(time.Second)
		logIterationEntry(opts, n, start, duration, outcome.TasksCompleted)

		emit(State{
			Kind:           IterationComplete,
			Iteration:      n,
			TasksCompleted: outcome.TasksCompleted,
			CompletedTasks: outcome.CompletedTasks,
			TotalTasks:     outcome.TotalTasks,
			Usage:          outcome.Usage,
		})

		if opts.Once {
			return emit(State{Kind: Done, DoneReason: SingleIterationComplete})
		}
		if n >= uint32(opts.Config.Build.MaxIterations) {
			return emit(State{Kind: Done, DoneReason: MaxIterationsReached})
		}

		n++
		emit(State{
			Kind:           Running,
			Iteration:      n,
			CompletedTasks: outcome.CompletedTasks,
			TotalTasks:     outcome.TotalTasks,
			Usage:          outcome.Usage,
		})
	}
}

// logIterationEntry appends an IterationEntry as a second, separate atomic
// write from the document mutation the Iteration Executor already
// performed. Per spec §4.E, a logging failure is reported to stderr and
// does not roll back the iteration result.
func logIterationEntry(opts Options, n uint32, start time.Time, duration time.Duration, tasksCompleted int) {
	doc, err := progress.Load(opts.DocumentPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rslph: failed to reload document for iteration logging: %v\n", err)
		return
	}

	note := "completed"
	if tasksCompleted == 0 {
		note = "no task progress"
	}
	doc.LogIteration(n, start.UTC().Format(time.RFC3339), duration.String(), uint32(tasksCompleted), note)

	if err := doc.Write(opts.DocumentPath); err != nil {
		fmt.Fprintf(os.Stderr, "rslph: failed to write iteration log entry: %v\n", err)
	}
}
