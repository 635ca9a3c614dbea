package game

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/twentyfour/internal/dealer"
	"github.com/lox/twentyfour/internal/expr"
	"github.com/lox/twentyfour/internal/highscore"
	"github.com/lox/twentyfour/internal/randutil"
	"github.com/lox/twentyfour/internal/statistics"
	"github.com/lox/twentyfour/solver"
)

func newTestSession(t *testing.T, clock quartz.Clock, store *highscore.Store, opts ...Option) *Session {
	t.Helper()

	d := dealer.New(randutil.New(42))
	opts = append([]Option{WithClock(clock)}, opts...)
	s, err := NewSession(d, store, opts...)
	require.NoError(t, err)
	return s
}

// answerFor solves the dealt hand the way a player would type it.
func answerFor(t *testing.T, st State) string {
	t.Helper()

	answer, ok, err := solver.Solve(st.Hand.Values(), st.Hand.Numerals())
	require.NoError(t, err)
	require.True(t, ok, "dealt hand %s must be solvable", st.Hand)
	return answer
}

func TestScoringPoints(t *testing.T) {
	t.Parallel()

	s := Scoring{Base: 10, FirstTryBonus: 5, ComboBonus: 2, TimeBonusPerSecond: 1}
	assert.Equal(t, 10+5+0+30, s.Points(0, true, 30500*time.Millisecond))
	assert.Equal(t, 10+0+6+0, s.Points(3, false, 0))
	assert.Equal(t, 10, DefaultScoring().Points(0, false, time.Minute))
}

func TestSessionCorrectAnswer(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	s := newTestSession(t, mock, nil)

	st, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Playing, st.Phase)
	assert.Equal(t, 60*time.Second, st.Remaining)
	assert.Empty(t, st.Solution, "solution must stay hidden while playing")
	assert.True(t, st.FirstTry)

	res, err := s.Check(answerFor(t, st))
	require.NoError(t, err)
	assert.True(t, res.Correct())
	assert.Equal(t, 15, res.Points)
	assert.True(t, res.NewHighScore)
	assert.Equal(t, Solved, res.State.Phase)
	assert.Equal(t, 15, res.State.Score)
	assert.Equal(t, 15, res.State.HighScore)
	assert.Equal(t, 1, res.State.Combo)
	assert.NotEmpty(t, res.State.Solution)

	_, err = s.Check(answerFor(t, st))
	assert.ErrorIs(t, err, ErrRoundOver)
}

func TestSessionComboAndFirstTry(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	s := newTestSession(t, mock, nil)
	ctx := context.Background()

	// Two clean rounds build a combo.
	for range 2 {
		st, err := s.Start(ctx)
		require.NoError(t, err)
		_, err = s.Check(answerFor(t, st))
		require.NoError(t, err)
	}
	st := s.Snapshot()
	assert.Equal(t, 2, st.Combo)
	assert.Equal(t, 15+17, st.Score)

	// A wrong answer loses the first-try bonus and the combo.
	st, err := s.Start(ctx)
	require.NoError(t, err)
	res, err := s.Check("0")
	require.NoError(t, err)
	assert.Equal(t, expr.WrongNumbers, res.Verdict)
	assert.Zero(t, res.Points)
	assert.False(t, res.State.FirstTry)
	assert.Zero(t, res.State.Combo)
	assert.Equal(t, Playing, res.State.Phase)

	res, err = s.Check("((")
	require.NoError(t, err)
	assert.Equal(t, expr.Malformed, res.Verdict)
	assert.Error(t, res.Err)
	assert.Equal(t, 2, res.State.Attempts)

	res, err = s.Check(answerFor(t, st))
	require.NoError(t, err)
	assert.True(t, res.Correct())
	assert.Equal(t, 10, res.Points)
	assert.Equal(t, 1, res.State.Combo)
}

func TestSessionTimeBonus(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mock := quartz.NewMock(t)
	s := newTestSession(t, mock, nil, WithScoring(Scoring{Base: 10, TimeBonusPerSecond: 1}))

	st, err := s.Start(ctx)
	require.NoError(t, err)

	mock.Advance(20 * time.Second).MustWait(ctx)
	assert.Equal(t, 40*time.Second, s.Remaining())

	res, err := s.Check(answerFor(t, st))
	require.NoError(t, err)
	assert.Equal(t, 50, res.Points)
	assert.Equal(t, statistics.Summary{
		Count:  1,
		Best:   20 * time.Second,
		Mean:   20 * time.Second,
		Median: 20 * time.Second,
	}, res.State.SolveTimes)

	// The clock stops once the round is solved.
	mock.Advance(10 * time.Second).MustWait(ctx)
	assert.Equal(t, 40*time.Second, s.Remaining())
}

func TestSessionExpires(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mock := quartz.NewMock(t)
	s := newTestSession(t, mock, nil, WithTimeLimits(30*time.Second))

	expired := make(chan State, 1)
	s.OnExpire(func(st State) { expired <- st })

	st, err := s.Start(ctx)
	require.NoError(t, err)
	_, err = s.Check(answerFor(t, st))
	require.NoError(t, err)

	_, err = s.Start(ctx)
	require.NoError(t, err)
	mock.Advance(30 * time.Second).MustWait(ctx)

	select {
	case st := <-expired:
		assert.Equal(t, Expired, st.Phase)
		assert.Zero(t, st.Combo)
		assert.Zero(t, st.Remaining)
		assert.NotEmpty(t, st.Solution)
	case <-ctx.Done():
		t.Fatal("round never expired")
	}

	_, err = s.Check("1+1")
	assert.ErrorIs(t, err, ErrRoundOver)
}

func TestSessionRestartDoesNotExpireNewRound(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mock := quartz.NewMock(t)
	s := newTestSession(t, mock, nil)

	expired := make(chan State, 2)
	s.OnExpire(func(st State) { expired <- st })

	_, err := s.Start(ctx)
	require.NoError(t, err)
	mock.Advance(45 * time.Second).MustWait(ctx)

	_, err = s.Start(ctx)
	require.NoError(t, err)
	mock.Advance(30 * time.Second).MustWait(ctx)

	assert.Equal(t, Playing, s.Snapshot().Phase)
	assert.Equal(t, 30*time.Second, s.Remaining())
	assert.Empty(t, expired)
}

func TestSessionReveal(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	s := newTestSession(t, mock, nil)

	_, err := s.Reveal()
	assert.ErrorIs(t, err, ErrNoHand)
	_, err = s.Check("1")
	assert.ErrorIs(t, err, ErrNoHand)

	st, err := s.Start(context.Background())
	require.NoError(t, err)

	solution, err := s.Reveal()
	require.NoError(t, err)
	v, err := expr.Evaluate(solution)
	require.NoError(t, err)
	assert.True(t, solver.IsTarget(v))

	after := s.Snapshot()
	assert.Equal(t, Revealed, after.Phase)
	assert.Equal(t, solution, after.Solution)
	assert.Zero(t, after.Score)
	assert.Equal(t, st.Hand, after.Hand)

	again, err := s.Reveal()
	require.NoError(t, err)
	assert.Equal(t, solution, again)
}

func TestSessionReset(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	s := newTestSession(t, mock, nil)

	st, err := s.Start(context.Background())
	require.NoError(t, err)
	_, err = s.Check(answerFor(t, st))
	require.NoError(t, err)

	st = s.Reset()
	assert.Equal(t, Idle, st.Phase)
	assert.True(t, st.Hand.IsZero())
	assert.Zero(t, st.Score)
	assert.Zero(t, st.Combo)
	assert.Equal(t, 15, st.HighScore)
	assert.Equal(t, 60*time.Second, st.Remaining)
	assert.Zero(t, st.SolveTimes.Count)

	_, err = s.Check("1")
	assert.ErrorIs(t, err, ErrNoHand)
}

func TestSessionTimeLimits(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	s := newTestSession(t, mock, nil)

	require.NoError(t, s.SetTimeLimit(90*time.Second))
	assert.Equal(t, 90*time.Second, s.Snapshot().TimeLimit)
	assert.Equal(t, 90*time.Second, s.Remaining())

	err := s.SetTimeLimit(45 * time.Second)
	assert.ErrorIs(t, err, ErrInvalidTimeLimit)

	limit, err := s.CycleTimeLimit()
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, limit)
	limit, err = s.CycleTimeLimit()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, limit)

	_, err = s.Start(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetTimeLimit(60*time.Second), ErrRoundRunning)
	_, err = s.CycleTimeLimit()
	assert.ErrorIs(t, err, ErrRoundRunning)
}

func TestWithTimeLimitsAddsLimitToChoices(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, quartz.NewMock(t), nil, WithTimeLimits(45*time.Second, 30*time.Second, 60*time.Second))
	assert.Equal(t, []time.Duration{30 * time.Second, 45 * time.Second, 60 * time.Second}, s.TimeChoices())
}

func TestSessionPersistsHighScore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "highscore.txt")
	require.NoError(t, highscore.NewStore(path).Save(12))

	mock := quartz.NewMock(t)
	s := newTestSession(t, mock, highscore.NewStore(path))
	assert.Equal(t, 12, s.Snapshot().HighScore)

	st, err := s.Start(context.Background())
	require.NoError(t, err)
	res, err := s.Check(answerFor(t, st))
	require.NoError(t, err)
	assert.True(t, res.NewHighScore)

	best, err := highscore.NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 15, best)
}

func TestNewSessionRejectsCorruptHighScore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "highscore.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a number\n"), 0o644))

	_, err := NewSession(dealer.New(randutil.New(1)), highscore.NewStore(path))
	assert.Error(t, err)
}

func TestSessionsSharingStoreReportStoredHighScore(t *testing.T) {
	t.Parallel()

	store := highscore.NewStore(filepath.Join(t.TempDir(), "highscore.txt"))
	a := newTestSession(t, quartz.NewMock(t), store)
	b := newTestSession(t, quartz.NewMock(t), store)

	for range 2 {
		st, err := b.Start(context.Background())
		require.NoError(t, err)
		res, err := b.Check(answerFor(t, st))
		require.NoError(t, err)
		require.True(t, res.NewHighScore)
	}
	require.Equal(t, 32, b.Snapshot().HighScore)
	assert.Equal(t, 32, a.Snapshot().HighScore, "idle session sees the stored best")

	st, err := a.Start(context.Background())
	require.NoError(t, err)
	res, err := a.Check(answerFor(t, st))
	require.NoError(t, err)
	assert.True(t, res.Correct())
	assert.Equal(t, 15, res.State.Score)
	assert.False(t, res.NewHighScore)
	assert.Equal(t, 32, res.State.HighScore)

	best, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 32, best)
}

// stalledTimers delays every timer by an hour so the clock can pass a round's
// deadline before the expiry callback runs.
type stalledTimers struct {
	quartz.Clock
}

func (c stalledTimers) AfterFunc(d time.Duration, f func(), tags ...string) *quartz.Timer {
	return c.Clock.AfterFunc(d+time.Hour, f, tags...)
}

func TestSessionRejectsAnswerAfterDeadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mock := quartz.NewMock(t)
	s := newTestSession(t, stalledTimers{mock}, nil)

	expired := make(chan State, 1)
	s.OnExpire(func(st State) { expired <- st })

	st, err := s.Start(ctx)
	require.NoError(t, err)
	mock.Advance(60 * time.Second).MustWait(ctx)
	require.Zero(t, s.Remaining())

	_, err = s.Check(answerFor(t, st))
	assert.ErrorIs(t, err, ErrRoundOver)

	select {
	case st := <-expired:
		assert.Equal(t, Expired, st.Phase)
		assert.NotEmpty(t, st.Solution)
	default:
		t.Fatal("late answer did not expire the round")
	}

	snap := s.Snapshot()
	assert.Equal(t, Expired, snap.Phase)
	assert.Zero(t, snap.Score)
	assert.Zero(t, snap.HighScore)
}
