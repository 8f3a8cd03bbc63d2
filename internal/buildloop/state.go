// Package buildloop implements the strictly sequential iteration loop that
// drives the Iteration Executor to completion (spec §4.E).
package buildloop

import (
	"fmt"

	"github.com/vmakaev/rslph/internal/stream"
)

// DoneReason enumerates why the loop stopped successfully.
type DoneReason string

const (
	RalphDone               DoneReason = "RalphDone"
	AllTasksComplete        DoneReason = "AllTasksComplete"
	MaxIterationsReached    DoneReason = "MaxIterationsReached"
	SingleIterationComplete DoneReason = "SingleIterationComplete"
	UserCancelled           DoneReason = "UserCancelled"
)

// StateKind discriminates the closed set of states the loop can be in.
type StateKind int

const (
	Starting StateKind = iota
	Running
	IterationComplete
	Done
	Failed
)

func (k StateKind) String() string {
	switch k {
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case IterationComplete:
		return "IterationComplete"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// State is the current discriminated state of the loop.
type State struct {
	Kind StateKind

	Iteration      uint32 // valid for Running, IterationComplete
	TasksCompleted int    // valid for IterationComplete

	// CompletedTasks, TotalTasks, and Usage carry the most recently known
	// document totals and agent token usage forward into every subsequent
	// state, Running included, so a status bar always has something to
	// render rather than only on IterationComplete.
	CompletedTasks int
	TotalTasks     int
	Usage          stream.UsageBlock

	DoneReason DoneReason // valid for Done
	Err        error      // valid for Failed
}

func (s State) String() string {
	switch s.Kind {
	case Running:
		return fmt.Sprintf("Running{%d}", s.Iteration)
	case IterationComplete:
		return fmt.Sprintf("IterationComplete{%d,%d}", s.Iteration, s.TasksCompleted)
	case Done:
		return fmt.Sprintf("Done{%s}", s.DoneReason)
	case Failed:
		return fmt.Sprintf("Failed{%v}", s.Err)
	default:
		return s.Kind.String()
	}
}
