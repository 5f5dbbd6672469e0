package pasur

import "pasur-go/internal/game/common"

// Holders is the ordered registry of every card holder in one game.
type Holders []*Holder

func (hs Holders) Get(identifier string) *Holder {
	for _, h := range hs {
		if h.Identifier == identifier {
			return h
		}
	}
	return nil
}

func (hs Holders) byKind(k Kind) *Holder {
	for _, h := range hs {
		if h.Kind == k {
			return h
		}
	}
	return nil
}

func (hs Holders) Deck() *Holder  { return hs.byKind(KindDeck) }
func (hs Holders) Board() *Holder { return hs.byKind(KindBoard) }

// Players returns the players in registration order, skipping exclude.
func (hs Holders) Players(exclude ...*Holder) []*Holder {
	var out []*Holder
next:
	for _, h := range hs {
		if h.Kind != KindPlayer {
			continue
		}
		for _, x := range exclude {
			if x == h {
				continue next
			}
		}
		out = append(out, h)
	}
	return out
}

// Card finds a card by id in any holder.
func (hs Holders) Card(id int) *common.Card {
	for _, h := range hs {
		if c := h.Get(id); c != nil {
			return c
		}
	}
	return nil
}

// Owner returns the holder that currently holds card id.
func (hs Holders) Owner(id int) *Holder {
	for _, h := range hs {
		if h.Get(id) != nil {
			return h
		}
	}
	return nil
}

func (hs Holders) TotalCards() int {
	n := 0
	for _, h := range hs {
		n += h.CardCount()
	}
	return n
}
