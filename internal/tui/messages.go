// Package tui is the Bubble Tea v2 TUI Coordinator (spec §4.G): a single
// screen showing the running build loop's output alongside a status bar,
// with a Q&A mode for the planning flow's clarifying questions.
package tui

import "github.com/vmakaev/rslph/internal/buildloop"

// QuestionsAsked is sent on msgCh when the planning flow needs an answer.
// The model switches into answering mode until the user submits, then sends
// an Answers back on the command channel.
type QuestionsAsked struct {
	Questions []string
	SessionID string
}

// Answers carries the user's free-form reply back to the planning flow.
type Answers struct {
	Text string
}

// AgentOutputMsg carries one line of driven-agent output for the
// scrollable viewport.
type AgentOutputMsg struct {
	Text string
}

// LoopStateMsg mirrors a buildloop.State transition for the status bar.
type LoopStateMsg struct {
	State buildloop.State
}

// DoneMsg signals the background loop has finished (successfully or not)
// and the program should quit after rendering the final frame.
type DoneMsg struct {
	Err error
}

// stopCmd is sent from the model to the background driver to request a
// cooperative cancellation (on ctrl+c).
type stopCmd struct{}
