// Package iteration implements the reload-invoke-parse-write cycle that
// advances a Progress Document by one iteration (spec §4.D).
package iteration

import (
	"fmt"
	"time"

	"github.com/vmakaev/rslph/internal/cancel"
	"github.com/vmakaev/rslph/internal/config"
	"github.com/vmakaev/rslph/internal/progress"
	"github.com/vmakaev/rslph/internal/prompts"
	"github.com/vmakaev/rslph/internal/runner"
	"github.com/vmakaev/rslph/internal/stream"
)

// DoneReason enumerates the terminal reasons an iteration can report
// instead of continuing the loop.
type DoneReason string

const (
	RalphDone        DoneReason = "RalphDone"
	AllTasksComplete DoneReason = "AllTasksComplete"
)

// Outcome is the result of executing one iteration.
type Outcome struct {
	// Continuing is true when the loop should proceed to the next
	// iteration. TasksCompleted is only meaningful when Continuing.
	Continuing     bool
	TasksCompleted int

	// CompletedTasks and TotalTasks are the document's totals after this
	// iteration, for the status bar's "task X/Y" display.
	CompletedTasks int
	TotalTasks     int

	// Usage is the agent invocation's final reported token usage, for the
	// status bar's context-window gauge (spec §4.G). It is the zero value
	// when the invocation never produced a usable response.
	Usage stream.UsageBlock

	// Done carries a terminal reason when Continuing is false and
	// Cancelled is false.
	Done DoneReason

	// Cancelled is true when the cancellation token fired mid-iteration;
	// the build loop should transition straight to DoneReason
	// UserCancelled without treating this as a failure.
	Cancelled bool
}

// Context bundles everything one iteration needs.
type Context struct {
	DocumentPath string
	WorkspaceDir string
	Config       *config.Config
	CancelToken  *cancel.Token
	OnLine       func(runner.OutputLine)
}

// Execute runs one iteration against ctx. A non-nil error means the failure
// is fatal for the build loop (spec §4.E "Fatal error" transition). A parse
// failure or a timeout is absorbed into the document's attempt history and
// reported as a Continuing outcome instead; a spawn failure or non-zero exit
// is also recorded as an attempt, but is then returned as a fatal error.
func Execute(iterationNum uint32, ctx Context) (Outcome, error) {
	doc, err := progress.Load(ctx.DocumentPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("reload progress document: %w", err)
	}

	if doc.IsDone() {
		return Outcome{Done: RalphDone}, nil
	}
	if total := doc.TotalTasks(); total > 0 && doc.CompletedTasks() == total {
		return Outcome{Done: AllTasksComplete}, nil
	}

	oldCompleted := doc.CompletedTasks()
	doc.ClearCompletedThisIteration()

	systemPrompt, err := prompts.Persona(ctx.WorkspaceDir, "build")
	if err != nil {
		return Outcome{}, fmt.Errorf("load build persona: %w", err)
	}

	userInput := fmt.Sprintf("## Current Progress\n\n%s\n\n## Instructions\n\nExecute the next incomplete task.", doc.ToMarkdown())

	agentCfg := ctx.Config.Agent
	args := buildArgs(agentCfg, systemPrompt, "", userInput)
	timeout := time.Duration(ctx.Config.Build.IterationTimeoutSeconds) * time.Second

	r := runner.New(agentCfg.Binary, args, ctx.WorkspaceDir)
	dec := stream.NewDecoder()

	onLine := func(l runner.OutputLine) {
		if l.Stream == runner.Stdout {
			dec.ProcessLine(l.Text)
		}
		if ctx.OnLine != nil {
			ctx.OnLine(l)
		}
	}

	_, runErr := r.RunToCompletion(timeout, ctx.CancelToken, onLine)
	if runErr != nil {
		return handleRunError(doc, ctx, iterationNum, timeout, runErr)
	}

	parsed, parseErr := progress.Parse(dec.Response.Text, ctx.DocumentPath)
	if parseErr != nil {
		next := "retry the iteration"
		doc.AddAttempt(iterationNum, fmt.Sprintf("iteration %d", iterationNum), parseErr.Error(), &next)
		doc.TrimAttempts(ctx.Config.Build.RecentThreads)
		if err := doc.Write(ctx.DocumentPath); err != nil {
			return Outcome{}, fmt.Errorf("write preserved document after parse failure: %w", err)
		}
		return Outcome{
			Continuing:     true,
			TasksCompleted: 0,
			CompletedTasks: doc.CompletedTasks(),
			TotalTasks:     doc.TotalTasks(),
			Usage:          dec.Response.Usage,
		}, nil
	}

	// The Iteration Log is append-only and owned by the build loop; keep the
	// rows already on disk rather than whatever the agent echoed back.
	parsed.IterationLog = doc.IterationLog
	if err := parsed.Write(ctx.DocumentPath); err != nil {
		return Outcome{}, fmt.Errorf("write parsed document: %w", err)
	}

	delta := parsed.CompletedTasks() - oldCompleted
	if delta < 0 {
		delta = 0
	}
	return Outcome{
		Continuing:     true,
		TasksCompleted: delta,
		CompletedTasks: parsed.CompletedTasks(),
		TotalTasks:     parsed.TotalTasks(),
		Usage:          dec.Response.Usage,
	}, nil
}

func handleRunError(doc *progress.Document, ctx Context, iterationNum uint32, timeout time.Duration, runErr error) (Outcome, error) {
	re, ok := runErr.(*runner.RunError)
	if !ok {
		return Outcome{}, runErr
	}

	switch re.Kind {
	case runner.Cancelled:
		return Outcome{Cancelled: true}, nil

	case runner.Timeout:
		next := "retry with more context budget"
		doc.AddAttempt(iterationNum, fmt.Sprintf("iteration %d", iterationNum),
			fmt.Sprintf("timeout after %s", timeout), &next)
		doc.TrimAttempts(ctx.Config.Build.RecentThreads)
		if err := doc.Write(ctx.DocumentPath); err != nil {
			return Outcome{}, fmt.Errorf("write preserved document after timeout: %w", err)
		}
		return Outcome{
			Continuing:     true,
			TasksCompleted: 0,
			CompletedTasks: doc.CompletedTasks(),
			TotalTasks:     doc.TotalTasks(),
		}, nil

	default: // SpawnFailed, NonZeroExit, or anything else
		next := "check agent CLI configuration"
		doc.AddAttempt(iterationNum, fmt.Sprintf("iteration %d", iterationNum), re.Error(), &next)
		doc.TrimAttempts(ctx.Config.Build.RecentThreads)
		if err := doc.Write(ctx.DocumentPath); err != nil {
			return Outcome{}, fmt.Errorf("write preserved document after runner error: %w", err)
		}
		return Outcome{}, re
	}
}
