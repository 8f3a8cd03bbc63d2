package tui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/vmakaev/rslph/internal/buildloop"
	"github.com/vmakaev/rslph/internal/config"
	"github.com/vmakaev/rslph/internal/stream"
)

func testModel() (Model, chan tea.Msg, chan any) {
	msgCh := make(chan tea.Msg, 8)
	cmdCh := make(chan any, 8)
	cfg := config.DefaultConfig()
	return New(msgCh, cmdCh, cfg, "/work/widget"), msgCh, cmdCh
}

func TestUpdateAppendsAgentOutput(t *testing.T) {
	m, _, _ := testModel()

	updated, _ := m.Update(AgentOutputMsg{Text: "hello\nworld"})
	m = updated.(Model)

	if len(m.lines) != 2 || m.lines[0] != "hello" || m.lines[1] != "world" {
		t.Fatalf("lines = %v, want [hello world]", m.lines)
	}
}

func TestUpdateTracksLoopState(t *testing.T) {
	m, _, _ := testModel()

	state := buildloop.State{
		Kind:           buildloop.IterationComplete,
		Iteration:      3,
		TasksCompleted: 2,
		CompletedTasks: 5,
		TotalTasks:     8,
	}
	updated, _ := m.Update(LoopStateMsg{State: state})
	m = updated.(Model)

	want := "iteration 3/20 complete │ task 5/8 │ claude │ widget"
	if got := m.statusLine(); got != want {
		t.Errorf("statusLine() = %q, want %q", got, want)
	}
}

func TestStatusLineRendersContextUsageBarWhenWindowConfigured(t *testing.T) {
	m, _, _ := testModel()
	m.cfg.Agent.Model = "claude-sonnet-4-5"
	m.cfg.ContextWindows = map[string]int{"claude-sonnet-4-5": 200000}

	state := buildloop.State{
		Kind: buildloop.Running,
		Usage: stream.UsageBlock{
			InputTokens:     1000,
			CacheReadTokens: 99000,
		},
	}
	updated, _ := m.Update(LoopStateMsg{State: state})
	m = updated.(Model)

	got := m.statusLine()
	if !strings.Contains(got, "ctx [") || !strings.Contains(got, "50%") {
		t.Errorf("statusLine() = %q, want a 50%% context-usage bar", got)
	}
}

func TestStatusLineOmitsContextUsageBarWithoutWindow(t *testing.T) {
	m, _, _ := testModel()

	got := m.statusLine()
	if strings.Contains(got, "ctx [") {
		t.Errorf("statusLine() = %q, want no context-usage bar without a configured window", got)
	}
}

func TestUpdateQuestionsAskedEntersAnsweringMode(t *testing.T) {
	m, _, _ := testModel()

	updated, _ := m.Update(QuestionsAsked{Questions: []string{"which database?"}, SessionID: "abc"})
	m = updated.(Model)

	if !m.answering {
		t.Fatal("expected answering = true after QuestionsAsked")
	}
	if len(m.questions) != 1 || m.questions[0] != "which database?" {
		t.Errorf("questions = %v", m.questions)
	}
}

func TestAnsweringAccumulatesLinesAndSubmitsOnEmptyLine(t *testing.T) {
	m, _, cmdCh := testModel()
	updated, _ := m.Update(QuestionsAsked{Questions: []string{"q1"}})
	m = updated.(Model)

	m.answerLines = append(m.answerLines, "postgres")
	updated, _ = m.updateAnswering(tea.KeyPressMsg{Code: tea.KeyEnter})
	m = updated.(Model)
	if m.answering {
		t.Fatal("expected answering = false after submitting on an empty line")
	}

	select {
	case cmd := <-cmdCh:
		ans, ok := cmd.(Answers)
		if !ok || ans.Text != "postgres" {
			t.Fatalf("cmd = %#v, want Answers{Text: postgres}", cmd)
		}
	default:
		t.Fatal("expected an Answers command on cmdCh")
	}
}

func TestUpdateDoneMsgQuits(t *testing.T) {
	m, _, _ := testModel()

	updated, cmd := m.Update(DoneMsg{})
	m = updated.(Model)

	if !m.done {
		t.Fatal("expected done = true")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}
