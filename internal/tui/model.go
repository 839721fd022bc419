package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agora-ai/agora/internal/core"
)

// Driver runs debate operations on behalf of the view. The api service
// satisfies it; tests substitute fakes.
type Driver interface {
	Create(ctx context.Context, topic string) (*core.DebateState, error)
	Advance(ctx context.Context, id string) (*core.RoundResult, *core.DebateState, error)
	Finalize(ctx context.Context, id string) (*core.DebateState, error)
}

// phase tracks where the view is in the debate lifecycle.
type phase int

const (
	phaseStarting phase = iota
	phaseRunning
	phaseFailed
	phaseDone
)

// Model is the bubbletea model for a live debate run.
type Model struct {
	driver Driver
	topic  string

	debateID string
	state    *core.DebateState
	phase    phase
	lastErr  error

	transcript []string
	spinner    spinner.Model
	viewport   viewport.Model
	width      int
	height     int
	ready      bool

	summary string
}

// NewModel creates a debate view that will start a debate on topic.
func NewModel(driver Driver, topic string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return Model{
		driver:  driver,
		topic:   topic,
		phase:   phaseStarting,
		spinner: sp,
	}
}

// Init starts the spinner and kicks off debate creation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCmd())
}

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		state, err := m.driver.Create(context.Background(), m.topic)
		if err != nil {
			return debateErrMsg{err: err}
		}
		return debateStartedMsg{state: state}
	}
}

func (m Model) advanceCmd() tea.Cmd {
	id := m.debateID
	return func() tea.Msg {
		result, state, err := m.driver.Advance(context.Background(), id)
		if err != nil {
			return debateErrMsg{err: err}
		}
		return roundMsg{result: result, state: state}
	}
}

func (m Model) finalizeCmd() tea.Cmd {
	id := m.debateID
	return func() tea.Msg {
		state, err := m.driver.Finalize(context.Background(), id)
		if err != nil {
			return debateErrMsg{err: err}
		}
		return finalizedMsg{state: state}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			// Soft failures leave the debate intact; retry resumes it
			if m.phase == phaseFailed && m.debateID != "" && core.IsRetryable(m.lastErr) {
				m.phase = phaseRunning
				m.lastErr = nil
				return m, tea.Batch(m.spinner.Tick, m.advanceCmd())
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 6
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case debateStartedMsg:
		m.state = msg.state
		m.debateID = msg.state.ID
		m.phase = phaseRunning
		m.appendLine(StatusStyle.Render("FOR: ") + msg.state.Stance.For)
		m.appendLine(StatusStyle.Render("AGAINST: ") + msg.state.Stance.Against)
		m.appendLine("")
		return m, m.advanceCmd()

	case roundMsg:
		m.state = msg.state
		for _, note := range msg.result.Messages {
			m.appendTurn(note)
		}
		if msg.result.Turn != nil {
			m.appendTurn(*msg.result.Turn)
		}
		if msg.result.Outcome == core.OutcomeClosed {
			m.phase = phaseDone
			m.summary = msg.result.Summary
			return m, nil
		}
		return m, m.advanceCmd()

	case finalizedMsg:
		m.state = msg.state
		m.phase = phaseDone
		m.summary = msg.state.FinalSummary
		return m, nil

	case debateErrMsg:
		m.phase = phaseFailed
		m.lastErr = msg.err
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) appendTurn(turn core.Turn) {
	label := SideLabel(turn.Side)
	if turn.Kind != core.TurnArgument {
		label += ModeratorLabelStyle.Render(" (" + string(turn.Kind) + ")")
	}
	m.appendLine(label)
	m.appendLine(TurnTextStyle.Render(turn.Text))
	m.appendLine("")
}

func (m *Model) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

// View renders the debate.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Debate: "+m.topic) + "\n")

	if m.ready {
		b.WriteString(m.viewport.View() + "\n")
	} else {
		b.WriteString(strings.Join(m.transcript, "\n") + "\n")
	}

	switch m.phase {
	case phaseStarting:
		b.WriteString(m.spinner.View() + StatusStyle.Render(" preparing stances..."))
	case phaseRunning:
		b.WriteString(m.spinner.View() + StatusStyle.Render(fmt.Sprintf(" round %d of %d, %s speaking...",
			m.roundNumber(), m.maxRounds(), m.currentSide())))
	case phaseFailed:
		b.WriteString(ErrorStyle.Render("error: " + errText(m.lastErr)))
		if core.IsRetryable(m.lastErr) && m.debateID != "" {
			b.WriteString(WarnStyle.Render("  (press r to retry the round)"))
		}
	case phaseDone:
		if m.summary != "" {
			b.WriteString(SummaryBoxStyle.Render(RenderMarkdown(
				SummaryMarkdown(m.topic, m.summary, m.roundsCompleted()), m.contentWidth())))
		}
	}

	b.WriteString("\n" + FooterStyle.Render("q quit"))
	return b.String()
}

func (m Model) roundNumber() int {
	if m.state == nil {
		return 1
	}
	return m.state.RoundCount + 1
}

func (m Model) roundsCompleted() int {
	if m.state == nil {
		return 0
	}
	return m.state.RoundCount
}

func (m Model) maxRounds() int {
	if m.state == nil {
		return 0
	}
	return m.state.MaxRounds
}

func (m Model) currentSide() string {
	if m.state == nil {
		return ""
	}
	return strings.ToUpper(m.state.CurrentSide.String())
}

func (m Model) contentWidth() int {
	if m.width > 8 {
		return m.width - 8
	}
	return 72
}

// Summary returns the closing summary once the debate is done.
func (m Model) Summary() string {
	return m.summary
}

// State returns the latest debate state the view has seen.
func (m Model) State() *core.DebateState {
	return m.state
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	var domErr *core.DomainError
	if errors.As(err, &domErr) {
		return domErr.Message
	}
	return err.Error()
}
