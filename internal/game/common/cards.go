package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCard is returned when a card id falls outside 0..51 or a card
// string cannot be parsed.
var ErrInvalidCard = errors.New("invalid card")

const DeckSize = 52

type Suit string

// Suit order matches the card id layout: id / 13 indexes into Suits.
const (
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
	Clubs    Suit = "clubs"
	Diamonds Suit = "diamonds"
)

var Suits = []Suit{Spades, Hearts, Clubs, Diamonds}

func (s Suit) Letter() string {
	return strings.ToUpper(string(s[:1]))
}

const (
	Ace   = 1
	Jack  = 11
	Queen = 12
	King  = 13
)

// Card is identified by its id alone; Collected is the only mutable part and
// flips once a player sweeps the card off the board.
type Card struct {
	ID        int  `json:"id"`
	Collected bool `json:"collected"`
}

func NewCard(id int) (*Card, error) {
	if id < 0 || id >= DeckSize {
		return nil, fmt.Errorf("%w: id %d", ErrInvalidCard, id)
	}
	return &Card{ID: id}, nil
}

func (c *Card) SuitIndex() int { return c.ID / 13 }

func (c *Card) Suit() Suit { return Suits[c.SuitIndex()] }

// Number is the numeric rank 1..13 (1 = Ace, 11 = Jack).
func (c *Card) Number() int { return c.ID%13 + 1 }

// Rank is the face label shown to players.
func (c *Card) Rank() string {
	switch c.Number() {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return fmt.Sprintf("%d", c.Number())
	}
}

func (c *Card) SetCollected() { c.Collected = true }

func (c *Card) Equal(o *Card) bool {
	return c != nil && o != nil && c.ID == o.ID
}

func (c *Card) String() string {
	return c.Rank() + c.Suit().Letter()
}

// ParseCard accepts the short notation produced by String ("QH", "10C", "AS")
// and returns the matching card id.
func ParseCard(s string) (int, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if len(s) < 2 {
		return 0, ErrInvalidCard
	}
	suitIdx := -1
	for i, suit := range Suits {
		if suit.Letter() == s[len(s)-1:] {
			suitIdx = i
			break
		}
	}
	if suitIdx < 0 {
		return 0, fmt.Errorf("%w: suit %q", ErrInvalidCard, s[len(s)-1:])
	}
	rankStr := s[:len(s)-1]
	var n int
	switch rankStr {
	case "A":
		n = Ace
	case "J":
		n = Jack
	case "Q":
		n = Queen
	case "K":
		n = King
	default:
		var err error
		n, err = strconv.Atoi(rankStr)
		// The digits must be the whole rank: no sign, padding or trailing text.
		if err != nil || n < 2 || n > 10 || strconv.Itoa(n) != rankStr {
			return 0, fmt.Errorf("%w: rank %q", ErrInvalidCard, rankStr)
		}
	}
	return suitIdx*13 + n - 1, nil
}
