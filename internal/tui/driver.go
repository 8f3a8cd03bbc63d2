package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/vmakaev/rslph/internal/buildloop"
	"github.com/vmakaev/rslph/internal/cancel"
	"github.com/vmakaev/rslph/internal/config"
	"github.com/vmakaev/rslph/internal/planning"
	"github.com/vmakaev/rslph/internal/runner"
)

// send delivers msg without blocking the driver when the TUI is slow to
// drain its channel; a dropped status update is never fatal.
func send(ch chan<- tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	default:
	}
}

// drainCommands applies every pending user command without blocking,
// cancelling token on stopCmd.
func drainCommands(cmdCh <-chan any, token *cancel.Token) {
	for {
		select {
		case cmd := <-cmdCh:
			if _, ok := cmd.(stopCmd); ok {
				token.Cancel()
			}
		default:
			return
		}
	}
}

// RunBuild drives a build loop in the background while a Bubble Tea
// program renders its progress, returning the loop's final state.
func RunBuild(docPath, wsDir string, cfg *config.Config, once bool) buildloop.State {
	msgCh := make(chan tea.Msg, 64)
	cmdCh := make(chan any, 4)
	token := cancel.New()
	stop := token.NotifyOnInterrupt()
	defer stop()

	var final buildloop.State
	done := make(chan struct{})
	go func() {
		defer close(done)
		final = buildloop.Run(buildloop.Options{
			DocumentPath: docPath,
			WorkspaceDir: wsDir,
			Config:       cfg,
			CancelToken:  token,
			Once:         once,
			OnLine: func(l runner.OutputLine) {
				if l.Stream == runner.Stdout {
					send(msgCh, AgentOutputMsg{Text: l.Text})
				}
			},
			OnState: func(s buildloop.State) {
				drainCommands(cmdCh, token)
				send(msgCh, LoopStateMsg{State: s})
			},
		})
		send(msgCh, DoneMsg{Err: final.Err})
		close(msgCh)
	}()

	_ = Run(msgCh, cmdCh, cfg, wsDir)
	<-done
	return final
}

// RunPlan drives the planning flow in the background, routing its
// clarifying questions through the TUI instead of the terminal's stdin.
func RunPlan(idea string, opts planning.Options) (planning.Result, error) {
	msgCh := make(chan tea.Msg, 64)
	cmdCh := make(chan any, 4)
	if opts.CancelToken == nil {
		opts.CancelToken = cancel.New()
	}
	token := opts.CancelToken

	opts.AnswerFunc = func(questions []string) (string, error) {
		send(msgCh, QuestionsAsked{Questions: questions})
		for {
			select {
			case cmd := <-cmdCh:
				switch c := cmd.(type) {
				case Answers:
					return c.Text, nil
				case stopCmd:
					token.Cancel()
					return "", nil
				}
			case <-token.Done():
				return "", nil
			}
		}
	}

	var result planning.Result
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, runErr = planning.Run(idea, opts)
		send(msgCh, DoneMsg{Err: runErr})
		close(msgCh)
	}()

	_ = Run(msgCh, cmdCh, opts.Config, opts.WorkspaceDir)
	<-done
	return result, runErr
}
