// Package planning implements the Planning Flow: a single-shot agent
// invocation that produces an initial Progress Document, with an optional
// multi-round Q&A resume when the agent asks clarifying questions (spec
// §4.F).
package planning

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vmakaev/rslph/internal/cancel"
	"github.com/vmakaev/rslph/internal/config"
	"github.com/vmakaev/rslph/internal/progress"
	"github.com/vmakaev/rslph/internal/prompts"
	"github.com/vmakaev/rslph/internal/runner"
	"github.com/vmakaev/rslph/internal/stream"
)

// MaxQuestionRounds bounds the adaptive Q&A loop (spec §4.F).
const MaxQuestionRounds = 5

// Mode selects whether the flow is allowed to ask the user clarifying
// questions.
type Mode int

const (
	Basic Mode = iota
	Adaptive
)

// AnswerFunc collects one free-form multi-line answer to the given
// questions. The CLI and TUI each supply their own implementation.
type AnswerFunc func(questions []string) (string, error)

// Options configures one Run invocation.
type Options struct {
	WorkspaceDir string
	Config       *config.Config
	CancelToken  *cancel.Token

	// Persona selects the system-prompt template (typically "planner" or
	// "researcher"); the caller picks it, never the flow itself.
	Persona string

	Mode       Mode
	AnswerFunc AnswerFunc

	// TargetPath is where the resulting Progress Document is written on
	// successful parse (spec §4.F step 6).
	TargetPath string

	// OnLine, if set, receives every subprocess output line as it
	// arrives, for a TUI or --no-tui console to render live.
	OnLine func(runner.OutputLine)

	// DebugDir, if non-empty, is where a raw-text dump is written when
	// the final accumulated text fails to parse as a Progress Document.
	DebugDir string
}

// Result is what one planning invocation produced.
type Result struct {
	Document   *progress.Document
	RawText    string
	SessionID  string
	Rounds     int
	Usage      stream.UsageBlock
	Questions  []string // unanswered questions, basic mode only
	Degraded   bool
	DegradeErr error
}

// Run executes the Planning Flow against the given idea text.
func Run(idea string, opts Options) (Result, error) {
	systemPrompt, err := prompts.Persona(opts.WorkspaceDir, opts.Persona)
	if err != nil {
		return Result{}, fmt.Errorf("load persona %q: %w", opts.Persona, err)
	}

	resp, runErr := invoke(opts, systemPrompt, idea, "")
	if runErr != nil {
		return Result{}, fmt.Errorf("initial planning invocation: %w", runErr)
	}

	result := Result{
		SessionID: resp.SessionID,
		Usage:     resp.Usage,
	}

	rounds := 0
	for resp.HasQuestions() {
		if opts.Mode == Basic {
			result.Questions = resp.AllQuestions()
			break
		}
		if rounds >= MaxQuestionRounds || opts.AnswerFunc == nil {
			break
		}

		questions := resp.AllQuestions()
		answerText, err := opts.AnswerFunc(questions)
		if err != nil {
			return Result{}, fmt.Errorf("collect answers: %w", err)
		}

		formatted := formatAnswers(questions, answerText)
		next, resumeErr := invoke(opts, systemPrompt, formatted, resp.SessionID)
		if resumeErr != nil {
			result.Degraded = true
			result.DegradeErr = resumeErr
			result.RawText = resp.Text
			result.Rounds = rounds
			return result, nil
		}

		rounds++
		result.Usage = sumUsage(result.Usage, next.Usage)
		resp = next
	}

	result.Rounds = rounds
	result.RawText = resp.Text
	result.SessionID = resp.SessionID

	doc, parseErr := progress.Parse(resp.Text, opts.TargetPath)
	if parseErr != nil {
		if opts.DebugDir != "" {
			dumpPath := debugDumpPath(opts.DebugDir)
			_ = writeDebugDump(dumpPath, resp.Text)
			return result, fmt.Errorf("parse planning output (raw text preserved at %s): %w", dumpPath, parseErr)
		}
		return result, fmt.Errorf("parse planning output: %w", parseErr)
	}

	if opts.TargetPath != "" {
		if err := doc.Write(opts.TargetPath); err != nil {
			return result, fmt.Errorf("write progress document: %w", err)
		}
	}

	result.Document = doc
	return result, nil
}

func invoke(opts Options, systemPrompt, userInput, resumeSessionID string) (stream.StreamResponse, error) {
	args := buildArgs(opts.Config.Agent, systemPrompt, resumeSessionID, userInput)
	timeout := time.Duration(opts.Config.Build.IterationTimeoutSeconds) * time.Second

	r := runner.New(opts.Config.Agent.Binary, args, opts.WorkspaceDir)
	dec := stream.NewDecoder()

	onLine := func(l runner.OutputLine) {
		if l.Stream == runner.Stdout {
			dec.ProcessLine(l.Text)
		}
		if opts.OnLine != nil {
			opts.OnLine(l)
		}
	}

	interactive, err := r.SpawnInteractive()
	if err != nil {
		return stream.StreamResponse{}, err
	}
	// The agent CLI blocks on stdin EOF in planning mode; the runner
	// opens stdin and closes it immediately (spec §4.F step 2).
	if err := interactive.CloseStdin(); err != nil {
		return stream.StreamResponse{}, err
	}
	if _, err := interactive.Wait(timeout, opts.CancelToken, onLine); err != nil {
		return stream.StreamResponse{}, err
	}

	return dec.Response, nil
}

// buildArgs mirrors the build loop's flag composition (spec §6 wire
// contract); planning and build share the same opaque argument template.
func buildArgs(agent config.AgentConfig, systemPrompt, resumeSessionID, userInput string) []string {
	var args []string

	if agent.InternetFlag != "" {
		args = append(args, agent.InternetFlag)
	}
	if agent.PrintFlag != "" {
		args = append(args, agent.PrintFlag)
	}
	if agent.VerboseFlag != "" {
		args = append(args, agent.VerboseFlag)
	}
	if agent.OutputFormatFlag != "" {
		args = append(args, agent.OutputFormatFlag, agent.OutputFormatValue)
	}
	if agent.Model != "" && agent.ModelFlag != "" {
		args = append(args, agent.ModelFlag, agent.Model)
	}
	if agent.SystemPromptFlag != "" {
		args = append(args, agent.SystemPromptFlag, systemPrompt)
	}
	if resumeSessionID != "" && agent.ResumeFlag != "" {
		args = append(args, agent.ResumeFlag, resumeSessionID)
	}
	args = append(args, userInput)

	return args
}

func formatAnswers(questions []string, answerText string) string {
	s := "Here are my answers to your questions:\n\n"
	for i, q := range questions {
		s += fmt.Sprintf("Q%d: %s\n", i+1, q)
	}
	s += fmt.Sprintf("\nMy answers:\n%s\n", answerText)
	return s
}

func sumUsage(a, b stream.UsageBlock) stream.UsageBlock {
	return stream.UsageBlock{
		InputTokens:         a.InputTokens + b.InputTokens,
		OutputTokens:        a.OutputTokens + b.OutputTokens,
		CacheCreationTokens: a.CacheCreationTokens + b.CacheCreationTokens,
		CacheReadTokens:     a.CacheReadTokens + b.CacheReadTokens,
	}
}

func debugDumpPath(dir string) string {
	return dir + "/planning-parse-failure-" + uuid.NewString() + ".txt"
}

func writeDebugDump(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}
