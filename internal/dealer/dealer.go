// Package dealer deals random hands that are guaranteed to be solvable.
package dealer

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/twentyfour/internal/deck"
	"github.com/lox/twentyfour/solver"
)

// DefaultMaxAttempts bounds how many hands Deal samples before giving up.
// Roughly three in four random hands are solvable, so this is never reached
// in practice.
const DefaultMaxAttempts = 1000

// ErrNoSolvableHand is returned when MaxAttempts hands were drawn and none
// could be solved.
var ErrNoSolvableHand = errors.New("dealer: no solvable hand found")

// Deal is a solvable hand together with the solution that proved it.
type Deal struct {
	Hand     deck.Hand
	Solution string
	// Attempts is how many hands were sampled, including this one.
	Attempts int
}

// Dealer samples hands from an explicitly owned generator. It is safe for
// concurrent use.
type Dealer struct {
	mu          sync.Mutex
	rng         *rand.Rand
	logger      *log.Logger
	maxAttempts int
}

// Option configures a Dealer.
type Option func(*Dealer)

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dealer) {
		d.logger = logger.WithPrefix("dealer")
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(d *Dealer) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// New creates a dealer drawing from rng.
func New(rng *rand.Rand, opts ...Option) *Dealer {
	d := &Dealer{
		rng:         rng,
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Draw samples four cards uniformly from Ace..King, with replacement. The hand
// may not be solvable.
func (d *Dealer) Draw() deck.Hand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drawLocked()
}

func (d *Dealer) drawLocked() deck.Hand {
	cards := make([]deck.Card, deck.HandSize)
	for i := range cards {
		cards[i] = deck.Card(d.rng.IntN(int(deck.MaxCard)) + 1)
	}
	h, err := deck.NewHand(cards...)
	if err != nil {
		// cards are always in range
		panic(err)
	}
	return h
}

// Deal draws hands until the solver finds a solution for one. The solution is
// written with decimal numerals so it can be typed back as an answer.
func (d *Dealer) Deal(ctx context.Context) (Deal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Deal{}, err
		}

		h := d.drawLocked()
		expr, ok, err := solver.Solve(h.Values(), h.Numerals())
		if err != nil {
			return Deal{}, fmt.Errorf("solving %s: %w", h, err)
		}
		if !ok {
			d.logger.Debug("Discarding unsolvable hand", "hand", h.String(), "attempt", attempt)
			continue
		}

		d.logger.Debug("Dealt hand", "hand", h.String(), "attempts", attempt)
		return Deal{Hand: h, Solution: expr, Attempts: attempt}, nil
	}

	return Deal{}, fmt.Errorf("%w after %d attempts", ErrNoSolvableHand, d.maxAttempts)
}
