package pasur

import (
	"fmt"

	"pasur-go/internal/game/common"
)

type Kind int

const (
	KindPlayer Kind = iota
	KindDeck
	KindBoard
)

func (k Kind) String() string {
	switch k {
	case KindDeck:
		return "deck"
	case KindBoard:
		return "board"
	default:
		return "player"
	}
}

// Identifiers used by the deck and board in snapshots.
const (
	DeckIdentifier  = "Deck"
	BoardIdentifier = "Board"
)

// Holder owns a set of cards. Deck, board and players share this one type;
// Kind decides which rules apply. A card is held by exactly one holder.
type Holder struct {
	Identifier string
	Kind       Kind
	cards      []*common.Card
}

func NewPlayer(name string) *Holder {
	return &Holder{Identifier: name, Kind: KindPlayer}
}

func NewBoard() *Holder {
	return &Holder{Identifier: BoardIdentifier, Kind: KindBoard}
}

func NewDeck() *Holder {
	return &Holder{Identifier: DeckIdentifier, Kind: KindDeck}
}

// NewFreshDeck returns a deck holding all 52 cards, none collected.
func NewFreshDeck() *Holder {
	d := NewDeck()
	d.cards = make([]*common.Card, 0, common.DeckSize)
	for id := 0; id < common.DeckSize; id++ {
		d.cards = append(d.cards, &common.Card{ID: id})
	}
	return d
}

func (h *Holder) String() string {
	return fmt.Sprintf("<%s: %s (%d cards)>", h.Kind, h.Identifier, len(h.cards))
}

func (h *Holder) index(id int) int {
	for i, c := range h.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (h *Holder) Has(card *common.Card) bool {
	return card != nil && h.index(card.ID) >= 0
}

// Get returns the resident card with the given id, or nil.
func (h *Holder) Get(id int) *common.Card {
	if i := h.index(id); i >= 0 {
		return h.cards[i]
	}
	return nil
}

func (h *Holder) AddCard(card *common.Card) error {
	if h.Has(card) {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateCard, card, h.Identifier)
	}
	h.cards = append(h.cards, card)
	return nil
}

// MoveCard transfers card to another holder. Both ownership checks run before
// anything changes, so a failure leaves both holders untouched.
func (h *Holder) MoveCard(card *common.Card, to *Holder) error {
	i := -1
	if card != nil {
		i = h.index(card.ID)
	}
	if i < 0 {
		return fmt.Errorf("%w: %v not in %s", ErrNotOwned, card, h.Identifier)
	}
	if to.Has(card) {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateCard, card, to.Identifier)
	}
	c := h.cards[i]
	h.cards = append(h.cards[:i:i], h.cards[i+1:]...)
	to.cards = append(to.cards, c)
	return nil
}

// Cards returns a copy of the resident cards in insertion order.
func (h *Holder) Cards() []*common.Card {
	return append([]*common.Card(nil), h.cards...)
}

func (h *Holder) CardCount() int { return len(h.cards) }

func (h *Holder) HasKnight() bool {
	return h.firstOfNumber(common.Jack) != nil
}

func (h *Holder) firstOfNumber(n int) *common.Card {
	for _, c := range h.cards {
		if c.Number() == n {
			return c
		}
	}
	return nil
}

func (h *Holder) ClubsCount() int {
	n := 0
	for _, c := range h.cards {
		if c.Suit() == common.Clubs {
			n++
		}
	}
	return n
}

func (h *Holder) InHandCount() int {
	n := 0
	for _, c := range h.cards {
		if !c.Collected {
			n++
		}
	}
	return n
}

func (h *Holder) CollectedCount() int {
	return len(h.cards) - h.InHandCount()
}

func (h *Holder) InHandCards() []*common.Card {
	var out []*common.Card
	for _, c := range h.cards {
		if !c.Collected {
			out = append(out, c)
		}
	}
	return out
}

func (h *Holder) CollectedCards() []*common.Card {
	var out []*common.Card
	for _, c := range h.cards {
		if c.Collected {
			out = append(out, c)
		}
	}
	return out
}

// PopCard moves a uniformly chosen card to another holder.
func (h *Holder) PopCard(src common.Source, to *Holder) (*common.Card, error) {
	if len(h.cards) == 0 {
		return nil, ErrEmptyDeck
	}
	c := h.cards[src.Intn(len(h.cards))]
	if err := h.MoveCard(c, to); err != nil {
		return nil, err
	}
	return c, nil
}
