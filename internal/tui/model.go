package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/vmakaev/rslph/internal/buildloop"
	"github.com/vmakaev/rslph/internal/config"
)

const statusBarHeight = 1

type keyMap struct {
	Quit  key.Binding
	Enter key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:  key.NewBinding(key.WithKeys("ctrl+c")),
		Enter: key.NewBinding(key.WithKeys("enter")),
	}
}

// answering is set while the model is collecting a reply to a
// QuestionsAsked message; outside of it the model only renders output.
type Model struct {
	keys keyMap

	cfg   *config.Config
	wsDir string

	width, height int

	vp         viewport.Model
	lines      []string
	autoScroll bool

	state   buildloop.State
	hasRun  bool
	done    bool
	doneErr error

	answering   bool
	questions   []string
	sessionID   string
	answerInput textinput.Model
	answerLines []string

	msgCh <-chan tea.Msg
	cmdCh chan<- any
}

// New builds the root model. msgCh delivers events from the background
// driver (build loop or planning flow); cmdCh carries user actions back to
// it (stopCmd, and Answers during planning Q&A). cfg and wsDir feed the status bar's model
// name, folder, and context-usage gauge; cfg may be nil when the model name
// and usage gauge are not meaningful (e.g. the planning flow).
func New(msgCh <-chan tea.Msg, cmdCh chan<- any, cfg *config.Config, wsDir string) Model {
	vp := viewport.New()
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true

	ti := textinput.New()
	ti.Placeholder = "type your answer, Enter to add a line, Enter on an empty line to submit"

	return Model{
		keys:        defaultKeyMap(),
		cfg:         cfg,
		wsDir:       wsDir,
		vp:          vp,
		autoScroll:  true,
		answerInput: ti,
		msgCh:       msgCh,
		cmdCh:       cmdCh,
	}
}

func (m Model) Init() tea.Cmd {
	return m.listen()
}

// listen blocks for the next message from the driver and re-subscribes
// itself after delivering it, so the Bubble Tea event loop never misses a
// background event.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.msgCh
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

func (m Model) send(cmd any) {
	select {
	case m.cmdCh <- cmd:
	default:
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.vp.SetWidth(m.width)
		m.vp.SetHeight(m.height - statusBarHeight - 1)
		m.answerInput.SetWidth(m.width - 2)
		m.refreshViewport()
		return m, nil

	case tea.KeyPressMsg:
		if m.answering {
			return m.updateAnswering(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.send(stopCmd{})
			return m, nil
		}
		return m, nil

	case QuestionsAsked:
		m.answering = true
		m.questions = msg.Questions
		m.sessionID = msg.SessionID
		m.answerLines = nil
		m.answerInput.Reset()
		m.answerInput.Focus()
		return m, m.listen()

	case AgentOutputMsg:
		m.hasRun = true
		m.lines = append(m.lines, strings.Split(strings.TrimRight(msg.Text, "\n"), "\n")...)
		m.refreshViewport()
		return m, m.listen()

	case LoopStateMsg:
		m.state = msg.State
		return m, m.listen()

	case DoneMsg:
		m.done = true
		m.doneErr = msg.Err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m Model) updateAnswering(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.answerInput.Value() == "" {
			answer := strings.Join(m.answerLines, "\n")
			m.send(Answers{Text: answer})
			m.answering = false
			m.answerLines = nil
			m.answerInput.Reset()
			m.answerInput.Blur()
			return m, m.listen()
		}
		m.answerLines = append(m.answerLines, m.answerInput.Value())
		m.answerInput.Reset()
		return m, nil
	case "ctrl+c":
		m.send(stopCmd{})
		return m, nil
	}
	var cmd tea.Cmd
	m.answerInput, cmd = m.answerInput.Update(msg)
	return m, cmd
}

func (m *Model) refreshViewport() {
	m.vp.SetContent(strings.Join(m.lines, "\n"))
	if m.autoScroll {
		m.vp.GotoBottom()
	}
}

// statusLine renders the single-line status bar: iteration X/Y, task X/Y,
// model name, folder, and a context-usage bar against the configured
// context window (spec §4.G).
func (m Model) statusLine() string {
	var phase string
	switch m.state.Kind {
	case buildloop.Running:
		phase = fmt.Sprintf("iteration %d/%d running", m.state.Iteration, m.maxIterations())
	case buildloop.IterationComplete:
		phase = fmt.Sprintf("iteration %d/%d complete", m.state.Iteration, m.maxIterations())
	case buildloop.Done:
		phase = fmt.Sprintf("done: %s", m.state.DoneReason)
	case buildloop.Failed:
		phase = fmt.Sprintf("failed: %v", m.state.Err)
	default:
		phase = "starting"
	}

	fields := []string{phase}
	if m.state.TotalTasks > 0 {
		fields = append(fields, fmt.Sprintf("task %d/%d", m.state.CompletedTasks, m.state.TotalTasks))
	}
	if model := m.modelName(); model != "" {
		fields = append(fields, model)
	}
	if m.wsDir != "" {
		fields = append(fields, filepath.Base(m.wsDir))
	}
	if bar := m.contextUsageBar(); bar != "" {
		fields = append(fields, bar)
	}

	return strings.Join(fields, " │ ")
}

func (m Model) maxIterations() int {
	if m.cfg == nil {
		return 0
	}
	return m.cfg.Build.MaxIterations
}

func (m Model) modelName() string {
	if m.cfg == nil {
		return ""
	}
	if m.cfg.Agent.Model != "" {
		return m.cfg.Agent.Model
	}
	return filepath.Base(m.cfg.Agent.Binary)
}

// contextUsageBar renders the cumulative context tokens consumed by the
// last agent invocation (input + cache tokens, the full context the agent
// saw) against the context window configured for the current model. It
// renders nothing when no window is configured, so the bar simply does not
// appear rather than showing a meaningless ratio.
func (m Model) contextUsageBar() string {
	if m.cfg == nil || m.cfg.ContextWindows == nil {
		return ""
	}
	window, ok := m.cfg.ContextWindows[m.cfg.Agent.Model]
	if !ok || window <= 0 {
		return ""
	}

	used := m.state.Usage.InputTokens + m.state.Usage.CacheCreationTokens + m.state.Usage.CacheReadTokens
	frac := float64(used) / float64(window)
	if frac > 1 {
		frac = 1
	}

	const slots = 10
	filled := int(frac * slots)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", slots-filled)

	return fmt.Sprintf("ctx [%s] %d%% (%d/%dk)", bar, int(frac*100), used/1000, window/1000)
}

func (m Model) View() tea.View {
	var b strings.Builder
	if m.answering {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Agent questions:"))
		b.WriteString("\n")
		for i, q := range m.questions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, q)
		}
		for _, l := range m.answerLines {
			b.WriteString("  " + l + "\n")
		}
		b.WriteString(m.answerInput.View())
		b.WriteString("\n\n")
	}
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Reverse(true).Width(m.width).Render(" " + m.statusLine() + " "))

	v := tea.NewView(b.String())
	v.WindowTitle = "rslph"
	return v
}

// Run starts the Bubble Tea v2 program driving msgCh/cmdCh.
func Run(msgCh <-chan tea.Msg, cmdCh chan<- any, cfg *config.Config, wsDir string) error {
	p := tea.NewProgram(New(msgCh, cmdCh, cfg, wsDir))
	_, err := p.Run()
	return err
}
