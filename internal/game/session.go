// Package game runs a timed round-based game of 24 on top of the dealer: a
// Session deals solvable hands, counts down the round, checks answers and
// keeps the score, combo and persisted high score.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/twentyfour/internal/dealer"
	"github.com/lox/twentyfour/internal/deck"
	"github.com/lox/twentyfour/internal/expr"
	"github.com/lox/twentyfour/internal/highscore"
	"github.com/lox/twentyfour/internal/statistics"
)

var (
	// ErrNoHand is returned when an answer or reveal is attempted before any
	// hand has been dealt.
	ErrNoHand = errors.New("no hand has been dealt")
	// ErrRoundOver is returned when an answer arrives after the round ended.
	ErrRoundOver = errors.New("round is over")
	// ErrInvalidTimeLimit is returned for a time limit outside the allowed
	// choices.
	ErrInvalidTimeLimit = errors.New("time limit is not one of the allowed choices")
	// ErrRoundRunning is returned when the time limit is changed mid-round.
	ErrRoundRunning = errors.New("cannot change the time limit while a round is running")
)

// Phase is where the current round stands.
type Phase uint8

const (
	Idle Phase = iota
	Playing
	Solved
	Revealed
	Expired
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Solved:
		return "solved"
	case Revealed:
		return "revealed"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Scoring are the points awarded for a correct answer.
type Scoring struct {
	Base               int
	FirstTryBonus      int
	ComboBonus         int
	TimeBonusPerSecond int
}

// DefaultScoring returns the built-in scoring.
func DefaultScoring() Scoring {
	return Scoring{Base: 10, FirstTryBonus: 5, ComboBonus: 2}
}

// Points returns the award for a correct answer given the combo before it,
// whether it was the first attempt, and the time left on the clock.
func (s Scoring) Points(combo int, firstTry bool, remaining time.Duration) int {
	points := s.Base + s.ComboBonus*combo
	if firstTry {
		points += s.FirstTryBonus
	}
	if remaining > 0 {
		points += int(remaining/time.Second) * s.TimeBonusPerSecond
	}
	return points
}

// State is a point-in-time copy of a session.
type State struct {
	Phase     Phase
	Hand      deck.Hand
	Round     int
	TimeLimit time.Duration
	Remaining time.Duration
	Score     int
	HighScore int
	Combo     int
	FirstTry  bool
	Attempts  int
	// Solution is only filled in once the round is over.
	Solution string
	// SolveTimes covers the rounds solved since the last reset.
	SolveTimes statistics.Summary
}

// Running reports whether a round is in progress.
func (s State) Running() bool {
	return s.Phase == Playing
}

// Result is the outcome of checking one answer.
type Result struct {
	Verdict expr.Verdict
	// Err explains a malformed answer.
	Err          error
	Points       int
	NewHighScore bool
	State        State
}

// Correct reports whether the answer solved the round.
func (r Result) Correct() bool {
	return r.Verdict == expr.Correct
}

// Session is a single player's game. It is safe for concurrent use; the round
// timer fires on its own goroutine.
type Session struct {
	mu sync.Mutex

	dealer  *dealer.Dealer
	store   *highscore.Store
	clock   quartz.Clock
	logger  *log.Logger
	scoring Scoring
	choices []time.Duration
	limit   time.Duration

	phase     Phase
	deal      dealer.Deal
	round     int
	timer     *quartz.Timer
	deadline  time.Time
	remaining time.Duration
	score     int
	highScore int
	combo     int
	firstTry  bool
	attempts  int
	times     statistics.SolveTimes

	onExpire func(State)
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock driving round countdowns.
func WithClock(clock quartz.Clock) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		s.logger = logger.WithPrefix("game")
	}
}

// WithScoring overrides DefaultScoring.
func WithScoring(scoring Scoring) Option {
	return func(s *Session) {
		s.scoring = scoring
	}
}

// WithTimeLimits sets the round duration and the durations it may be changed
// to. The limit is added to choices if missing.
func WithTimeLimits(limit time.Duration, choices ...time.Duration) Option {
	return func(s *Session) {
		s.limit = limit
		if len(choices) > 0 {
			s.choices = slices.Clone(choices)
		}
		if !slices.Contains(s.choices, limit) {
			s.choices = append(s.choices, limit)
			slices.Sort(s.choices)
		}
	}
}

// DefaultTimeChoices are the selectable round durations.
var DefaultTimeChoices = []time.Duration{30 * time.Second, 60 * time.Second, 90 * time.Second, 120 * time.Second}

// NewSession creates a session dealing from d and recording high scores in
// store. The stored high score is loaded immediately.
func NewSession(d *dealer.Dealer, store *highscore.Store, opts ...Option) (*Session, error) {
	s := &Session{
		dealer:  d,
		store:   store,
		clock:   quartz.NewReal(),
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		scoring: DefaultScoring(),
		choices: slices.Clone(DefaultTimeChoices),
		limit:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = highscore.NewStore("")
	}

	best, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	s.highScore = best
	s.remaining = s.limit
	return s, nil
}

// OnExpire registers fn to be called, outside the session lock, whenever a
// round runs out of time.
func (s *Session) OnExpire(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// Start deals a new hand and starts the countdown. A round still in progress
// is abandoned, which breaks the combo.
func (s *Session) Start(ctx context.Context) (State, error) {
	d, err := s.dealer.Deal(ctx)
	if err != nil {
		return State{}, fmt.Errorf("deal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == Playing {
		s.logger.Debug("Abandoning round", "round", s.round, "hand", s.deal.Hand.String())
		s.combo = 0
	}
	s.stopTimerLocked()

	s.round++
	s.deal = d
	s.phase = Playing
	s.firstTry = true
	s.attempts = 0
	s.deadline = s.clock.Now().Add(s.limit)
	s.remaining = s.limit

	round := s.round
	s.timer = s.clock.AfterFunc(s.limit, func() { s.expire(round) }, "game", "round")

	s.logger.Info("Round started", "round", round, "hand", d.Hand.String(), "limit", s.limit)
	return s.snapshotLocked(), nil
}

func (s *Session) expire(round int) {
	s.mu.Lock()
	if s.round != round || s.phase != Playing {
		s.mu.Unlock()
		return
	}
	s.timer = nil // already fired
	state, fn := s.expireLocked()
	s.mu.Unlock()

	s.notifyExpired(state, fn)
}

// expireLocked ends the running round as out of time. The returned callback
// must be run with notifyExpired once the lock is released.
func (s *Session) expireLocked() (State, func(State)) {
	s.phase = Expired
	s.combo = 0
	s.remaining = 0
	s.stopTimerLocked()
	return s.snapshotLocked(), s.onExpire
}

func (s *Session) notifyExpired(state State, fn func(State)) {
	s.logger.Info("Round expired", "round", state.Round, "solution", state.Solution)
	if fn != nil {
		fn(state)
	}
}

// Check grades answer against the current hand.
func (s *Session) Check(answer string) (Result, error) {
	s.mu.Lock()
	// The deadline may pass before the timer callback gets the lock.
	if s.phase == Playing && s.remainingLocked() == 0 {
		state, fn := s.expireLocked()
		s.mu.Unlock()
		s.notifyExpired(state, fn)
		return Result{}, ErrRoundOver
	}
	defer s.mu.Unlock()

	if s.deal.Hand.IsZero() {
		return Result{}, ErrNoHand
	}
	if s.phase != Playing {
		return Result{}, ErrRoundOver
	}

	s.attempts++
	r := expr.Check(answer, s.deal.Hand.Ints())
	result := Result{Verdict: r.Verdict, Err: r.Err}

	if !r.OK() {
		s.firstTry = false
		s.combo = 0
		s.logger.Debug("Wrong answer", "round", s.round, "answer", answer, "verdict", r.Verdict)
		result.State = s.snapshotLocked()
		return result, nil
	}

	remaining := s.remainingLocked()
	result.Points = s.scoring.Points(s.combo, s.firstTry, remaining)
	s.score += result.Points
	s.combo++
	s.phase = Solved
	s.remaining = remaining
	s.stopTimerLocked()
	s.times.Add(s.limit - remaining)

	// The store may be shared with other sessions.
	best, improved, err := s.store.Submit(s.score)
	if err != nil {
		s.logger.Warn("Failed to save high score", "error", err)
		best, improved = s.highScore, s.score > s.highScore
	}
	s.highScore = max(s.highScore, best, s.score)
	result.NewHighScore = improved

	s.logger.Info("Round solved", "round", s.round, "points", result.Points, "score", s.score, "combo", s.combo)
	result.State = s.snapshotLocked()
	return result, nil
}

// Reveal ends the round without points and returns a solution.
func (s *Session) Reveal() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deal.Hand.IsZero() {
		return "", ErrNoHand
	}
	if s.phase == Playing {
		s.phase = Revealed
		s.combo = 0
		s.remaining = s.remainingLocked()
		s.stopTimerLocked()
		s.logger.Info("Solution revealed", "round", s.round, "solution", s.deal.Solution)
	}
	return s.deal.Solution, nil
}

// Reset clears the score, combo and hand. The high score is kept.
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.round++
	s.phase = Idle
	s.deal = dealer.Deal{}
	s.score = 0
	s.combo = 0
	s.firstTry = false
	s.attempts = 0
	s.remaining = s.limit
	s.times = statistics.SolveTimes{}

	s.logger.Info("Session reset")
	return s.snapshotLocked()
}

// SetTimeLimit changes the duration of future rounds.
func (s *Session) SetTimeLimit(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == Playing {
		return ErrRoundRunning
	}
	if !slices.Contains(s.choices, d) {
		return fmt.Errorf("%w: %s", ErrInvalidTimeLimit, d)
	}
	s.limit = d
	if s.phase == Idle {
		s.remaining = d
	}
	return nil
}

// CycleTimeLimit switches to the next allowed time limit, wrapping around.
func (s *Session) CycleTimeLimit() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == Playing {
		return s.limit, ErrRoundRunning
	}
	i := slices.Index(s.choices, s.limit)
	s.limit = s.choices[(i+1)%len(s.choices)]
	if s.phase == Idle {
		s.remaining = s.limit
	}
	return s.limit, nil
}

// TimeChoices returns the allowed time limits.
func (s *Session) TimeChoices() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.choices)
}

// Remaining returns the time left in the current round.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) remainingLocked() time.Duration {
	if s.phase != Playing {
		return s.remaining
	}
	return max(s.deadline.Sub(s.clock.Now()), 0)
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) snapshotLocked() State {
	if best, err := s.store.Load(); err == nil && best > s.highScore {
		s.highScore = best
	}

	st := State{
		Phase:     s.phase,
		Hand:      s.deal.Hand,
		Round:     s.round,
		TimeLimit: s.limit,
		Remaining: s.remainingLocked(),
		Score:     s.score,
		HighScore: s.highScore,
		Combo:     s.combo,
		FirstTry:  s.firstTry,
		Attempts:  s.attempts,

		SolveTimes: s.times.Summary(),
	}
	if s.phase != Playing && s.phase != Idle {
		st.Solution = s.deal.Solution
	}
	return st
}
