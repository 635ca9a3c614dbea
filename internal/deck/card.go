// Package deck maps playing-card tokens to the values used in a 24 hand.
package deck

import (
	"fmt"
	"strconv"
)

// Card is a card value from Ace (1) to King (13). Suits play no part in the
// game.
type Card int

const (
	Ace   Card = 1
	Jack  Card = 11
	Queen Card = 12
	King  Card = 13
)

// MinCard and MaxCard bound the values a dealt card can take.
const (
	MinCard = Ace
	MaxCard = King
)

// tokens maps every accepted input token to its card. Both "A" and "1" are an
// Ace.
var tokens = map[string]Card{
	"A": Ace, "1": Ace,
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": Jack, "Q": Queen, "K": King,
}

// ValidTokens lists the accepted card tokens in display order.
func ValidTokens() []string {
	return []string{"A", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
}

// InvalidCardError reports a token that is not a card.
type InvalidCardError struct {
	Token string
}

func (e *InvalidCardError) Error() string {
	return fmt.Sprintf("%s is not a valid card value", e.Token)
}

// ParseCard converts a token such as "A", "7" or "Q" into a Card. Tokens are
// case sensitive.
func ParseCard(token string) (Card, error) {
	c, ok := tokens[token]
	if !ok {
		return 0, &InvalidCardError{Token: token}
	}
	return c, nil
}

// MustParseCard is like ParseCard but panics on an invalid token.
func MustParseCard(token string) Card {
	c, err := ParseCard(token)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether c is between Ace and King.
func (c Card) Valid() bool {
	return c >= MinCard && c <= MaxCard
}

// Value returns the numeric value of the card.
func (c Card) Value() int {
	return int(c)
}

// String returns the display token: A, 2..10, J, Q or K.
func (c Card) String() string {
	switch c {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	if c.Valid() {
		return strconv.Itoa(int(c))
	}
	return "?"
}

// Numeral returns the card's value in decimal, the form players type.
func (c Card) Numeral() string {
	return strconv.Itoa(int(c))
}

// IsFaceCard returns true for J, Q and K.
func (c Card) IsFaceCard() bool {
	return c >= Jack && c <= King
}
