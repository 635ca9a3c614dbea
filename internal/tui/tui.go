// Package tui is the terminal front end for a game session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/twentyfour/internal/deck"
	"github.com/lox/twentyfour/internal/expr"
	"github.com/lox/twentyfour/internal/game"
)

const helpText = "Enter check • Ctrl+N deal • Ctrl+S solve • Ctrl+R reset • Ctrl+T time limit • Esc quit"

type tickMsg time.Time

type expiredMsg struct {
	state game.State
}

// Model is the Bubble Tea model for a game session.
type Model struct {
	ctx     context.Context
	session *game.Session
	logger  *log.Logger

	logViewport viewport.Model
	answerInput textinput.Model

	state    game.State
	gameLog  []string
	expired  chan game.State
	quitting bool

	width  int
	height int
}

// NewModel creates a model driving session. ctx bounds dealing.
func NewModel(ctx context.Context, session *game.Session, logger *log.Logger) *Model {
	vp := viewport.New(60, 6)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Type an expression using all four cards, e.g. (8 - 2) * (3 + 1)"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		ctx:         ctx,
		session:     session,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		answerInput: ti,
		state:       session.Snapshot(),
		expired:     make(chan game.State, 1),
	}

	session.OnExpire(func(st game.State) {
		select {
		case m.expired <- st:
		default:
		}
	})

	m.AddLogEntry("Press Ctrl+N to deal.")
	return m
}

// Init starts the countdown ticker and the expiry listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick(), m.listenForExpiry())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// listenForExpiry waits for the next expired round. It gives up, returning no
// message, once the model's context is done.
func (m *Model) listenForExpiry() tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-m.expired:
			return expiredMsg{state: st}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logViewport.Width = max(msg.Width-4, 1)

	case tickMsg:
		m.state = m.session.Snapshot()
		return m, tick()

	case expiredMsg:
		m.state = msg.state
		m.AddLogEntry(WarningStyle.Render("Time's up! Solution: " + msg.state.Solution + " = 24"))
		return m, m.listenForExpiry()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.check(strings.TrimSpace(m.answerInput.Value()))
			return m, nil
		case "ctrl+n":
			m.deal()
			return m, nil
		case "ctrl+s":
			m.reveal()
			return m, nil
		case "ctrl+r":
			m.reset()
			return m, nil
		case "ctrl+t":
			m.cycleTimeLimit()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.answerInput, cmd = m.answerInput.Update(msg)
	cmds = append(cmds, cmd)

	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) deal() {
	st, err := m.session.Start(m.ctx)
	if err != nil {
		m.logger.Error("Failed to deal", "error", err)
		m.AddLogEntry(ErrorStyle.Render("Could not deal: " + err.Error()))
		return
	}
	m.state = st
	m.answerInput.SetValue("")
	m.AddLogEntry(fmt.Sprintf("Round %d: make 24 from %s", st.Round, st.Hand))
}

func (m *Model) check(answer string) {
	if answer == "" {
		return
	}

	res, err := m.session.Check(answer)
	switch {
	case errors.Is(err, game.ErrNoHand):
		m.AddLogEntry(WarningStyle.Render("Please deal cards first!"))
		return
	case errors.Is(err, game.ErrRoundOver):
		m.AddLogEntry(WarningStyle.Render("Round is over. Press Ctrl+N to deal again."))
		return
	case err != nil:
		m.AddLogEntry(ErrorStyle.Render(err.Error()))
		return
	}
	m.state = res.State

	switch res.Verdict {
	case expr.Correct:
		line := fmt.Sprintf("Correct! %s = 24 (+%d)", answer, res.Points)
		if res.NewHighScore {
			line += " New high score!"
		}
		m.AddLogEntry(SuccessStyle.Render(line))
		m.answerInput.SetValue("")
	case expr.WrongNumbers:
		m.AddLogEntry(ErrorStyle.Render("Use each card exactly once."))
	case expr.WrongValue:
		m.AddLogEntry(ErrorStyle.Render(fmt.Sprintf("%s = %g, not 24.", answer, res.Value)))
	case expr.Malformed:
		m.AddLogEntry(ErrorStyle.Render("Invalid expression: " + res.Err.Error()))
	}
}

func (m *Model) reveal() {
	solution, err := m.session.Reveal()
	if errors.Is(err, game.ErrNoHand) {
		m.AddLogEntry(WarningStyle.Render("Please deal cards first!"))
		return
	}
	m.state = m.session.Snapshot()
	m.AddLogEntry("Solution: " + solution + " = 24")
}

func (m *Model) reset() {
	m.state = m.session.Reset()
	m.gameLog = nil
	m.answerInput.SetValue("")
	m.AddLogEntry("Game reset. Press Ctrl+N to deal.")
}

func (m *Model) cycleTimeLimit() {
	limit, err := m.session.CycleTimeLimit()
	if errors.Is(err, game.ErrRoundRunning) {
		m.AddLogEntry(WarningStyle.Render("Finish the round before changing the time limit."))
		return
	}
	m.state = m.session.Snapshot()
	m.AddLogEntry(fmt.Sprintf("Time limit set to %s.", limit))
}

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("24"))
	b.WriteString("\n\n")
	b.WriteString(m.renderCards())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.logViewport.View())
	b.WriteString("\n")
	b.WriteString(m.answerInput.View())
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(helpText))
	return b.String()
}

func (m *Model) renderCards() string {
	boxes := make([]string, deck.HandSize)
	for i := range boxes {
		if m.state.Hand.IsZero() {
			boxes[i] = EmptyCardStyle.Render("?")
			continue
		}
		card := m.state.Hand.Cards[i]
		style := CardStyle
		if card.IsFaceCard() {
			style = FaceCardStyle
		}
		boxes[i] = style.Render(card.String())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m *Model) renderStatus() string {
	remaining := m.state.Remaining
	if m.state.Running() {
		remaining = m.session.Remaining()
	}

	timer := TimerStyle
	if m.state.Running() && remaining < 10*time.Second {
		timer = ErrorStyle
	}

	parts := []string{
		timer.Render(fmt.Sprintf("Time: %ds", int(remaining.Round(time.Second)/time.Second))),
		ScoreStyle.Render(fmt.Sprintf("Score: %d", m.state.Score)),
		ScoreStyle.Render(fmt.Sprintf("High: %d", m.state.HighScore)),
		ScoreStyle.Render(fmt.Sprintf("Combo: %d", m.state.Combo)),
		InfoStyle.Render(fmt.Sprintf("Limit: %s", m.state.TimeLimit)),
	}
	if times := m.state.SolveTimes; times.Count > 0 {
		parts = append(parts, InfoStyle.Render(fmt.Sprintf("Best: %.1fs  Avg: %.1fs",
			times.Best.Seconds(), times.Mean.Seconds())))
	}
	return strings.Join(parts, "  ")
}

// AddLogEntry appends a line to the message log and scrolls to it.
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

// State returns the last session state the model rendered.
func (m *Model) State() game.State {
	return m.state
}
