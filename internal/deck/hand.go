package deck

import (
	"errors"
	"strings"
)

// HandSize is the number of cards in a hand.
const HandSize = 4

// ErrCardCount is returned when a line does not hold exactly four tokens.
var ErrCardCount = errors.New("exactly 4 numbers required")

// Hand is four cards, along with the tokens they were written as.
type Hand struct {
	Cards  [HandSize]Card
	tokens [HandSize]string
}

// NewHand builds a hand from card values, using display tokens.
func NewHand(cards ...Card) (Hand, error) {
	if len(cards) != HandSize {
		return Hand{}, ErrCardCount
	}

	var h Hand
	for i, c := range cards {
		if !c.Valid() {
			return Hand{}, &InvalidCardError{Token: c.Numeral()}
		}
		h.Cards[i] = c
		h.tokens[i] = c.String()
	}
	return h, nil
}

// ParseHand parses four whitespace separated card tokens. The token count is
// checked before any token, and the first invalid token is reported.
func ParseHand(line string) (Hand, error) {
	fields := strings.Fields(line)
	if len(fields) != HandSize {
		return Hand{}, ErrCardCount
	}

	var h Hand
	for i, tok := range fields {
		c, err := ParseCard(tok)
		if err != nil {
			return Hand{}, err
		}
		h.Cards[i] = c
		h.tokens[i] = tok
	}
	return h, nil
}

// MustParseHand is like ParseHand but panics on invalid input.
func MustParseHand(line string) Hand {
	h, err := ParseHand(line)
	if err != nil {
		panic(err)
	}
	return h
}

// Values returns the card values as solver operands.
func (h Hand) Values() []float64 {
	out := make([]float64, HandSize)
	for i, c := range h.Cards {
		out[i] = float64(c)
	}
	return out
}

// Ints returns the card values.
func (h Hand) Ints() []int {
	out := make([]int, HandSize)
	for i, c := range h.Cards {
		out[i] = int(c)
	}
	return out
}

// Tokens returns the tokens the hand was written as.
func (h Hand) Tokens() []string {
	return h.tokens[:]
}

// Numerals returns the cards in decimal.
func (h Hand) Numerals() []string {
	out := make([]string, HandSize)
	for i, c := range h.Cards {
		out[i] = c.Numeral()
	}
	return out
}

// IsZero reports whether h is the zero Hand.
func (h Hand) IsZero() bool {
	return h.Cards[0] == 0
}

func (h Hand) String() string {
	return strings.Join(h.Tokens(), " ")
}
