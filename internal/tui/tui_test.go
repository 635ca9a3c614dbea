package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/twentyfour/internal/dealer"
	"github.com/lox/twentyfour/internal/game"
	"github.com/lox/twentyfour/internal/randutil"
	"github.com/lox/twentyfour/solver"
)

func newTestModel(t *testing.T) (*Model, *quartz.Mock) {
	t.Helper()

	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	mock := quartz.NewMock(t)
	session, err := game.NewSession(dealer.New(randutil.New(7)), nil, game.WithClock(mock))
	require.NoError(t, err)
	return NewModel(context.Background(), session, logger), mock
}

func press(m *Model, key tea.KeyType) {
	m.Update(tea.KeyMsg{Type: key})
}

func lastLog(m *Model) string {
	return m.gameLog[len(m.gameLog)-1]
}

func TestModelRequiresDealBeforeChecking(t *testing.T) {
	m, _ := newTestModel(t)

	m.answerInput.SetValue("1+2+3+4")
	press(m, tea.KeyEnter)
	assert.Contains(t, lastLog(m), "Please deal cards first!")

	press(m, tea.KeyCtrlS)
	assert.Contains(t, lastLog(m), "Please deal cards first!")
}

func TestModelPlaysRound(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, tea.KeyCtrlN)
	st := m.State()
	require.Equal(t, game.Playing, st.Phase)
	assert.Contains(t, m.View(), st.Hand.Cards[0].String())

	m.answerInput.SetValue("0")
	press(m, tea.KeyEnter)
	assert.Contains(t, lastLog(m), "Use each card exactly once.")
	assert.Equal(t, "0", m.answerInput.Value(), "wrong answers stay editable")

	answer, ok, err := solver.Solve(st.Hand.Values(), st.Hand.Numerals())
	require.NoError(t, err)
	require.True(t, ok)

	m.answerInput.SetValue(answer)
	press(m, tea.KeyEnter)
	assert.Contains(t, lastLog(m), "Correct!")
	assert.Empty(t, m.answerInput.Value())
	assert.Equal(t, game.Solved, m.State().Phase)
	assert.Equal(t, 10, m.State().Score)
	assert.Contains(t, m.View(), "Best: 0.0s")

	m.answerInput.SetValue(answer)
	press(m, tea.KeyEnter)
	assert.Contains(t, lastLog(m), "Round is over")
}

func TestModelRevealAndReset(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, tea.KeyCtrlN)
	press(m, tea.KeyCtrlS)
	assert.True(t, strings.HasPrefix(lastLog(m), "Solution: "))
	assert.True(t, strings.HasSuffix(lastLog(m), " = 24"))
	assert.Equal(t, game.Revealed, m.State().Phase)

	press(m, tea.KeyCtrlR)
	assert.Equal(t, game.Idle, m.State().Phase)
	assert.True(t, m.State().Hand.IsZero())
	assert.Len(t, m.gameLog, 1)
}

func TestModelCyclesTimeLimit(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, tea.KeyCtrlT)
	assert.Equal(t, 90*time.Second, m.State().TimeLimit)
	assert.Contains(t, lastLog(m), "1m30s")

	press(m, tea.KeyCtrlN)
	press(m, tea.KeyCtrlT)
	assert.Contains(t, lastLog(m), "Finish the round")
	assert.Equal(t, 90*time.Second, m.State().TimeLimit)
}

func TestModelReportsExpiry(t *testing.T) {
	m, mock := newTestModel(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	press(m, tea.KeyCtrlN)
	mock.Advance(60 * time.Second).MustWait(ctx)

	msg := m.listenForExpiry()()
	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.Equal(t, game.Expired, m.State().Phase)
	assert.Contains(t, lastLog(m), "Time's up!")
}

func TestModelStopsListeningWhenContextDone(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	session, err := game.NewSession(dealer.New(randutil.New(7)), nil, game.WithClock(quartz.NewMock(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	m := NewModel(ctx, session, logger)

	done := make(chan tea.Msg, 1)
	go func() { done <- m.listenForExpiry()() }()
	cancel()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("expiry listener did not return after cancel")
	}
}

func TestModelTickRefreshesState(t *testing.T) {
	m, mock := newTestModel(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	press(m, tea.KeyCtrlN)
	mock.Advance(15 * time.Second).MustWait(ctx)

	_, cmd := m.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, 45*time.Second, m.State().Remaining)
	assert.Contains(t, m.View(), "Time: 45s")
}

func TestModelQuits(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
