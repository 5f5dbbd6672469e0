package pasur

import (
	"errors"
	"testing"

	"pasur-go/internal/game/common"
)

func TestFreshDeckHoldsEveryCard(t *testing.T) {
	d := NewFreshDeck()
	if d.CardCount() != common.DeckSize {
		t.Fatalf("expected %d cards, got %d", common.DeckSize, d.CardCount())
	}
	for id := 0; id < common.DeckSize; id++ {
		c := d.Get(id)
		if c == nil {
			t.Fatalf("card %d missing", id)
		}
		if c.Collected {
			t.Fatalf("card %d should not be collected", id)
		}
	}
}

func TestAddCardRejectsDuplicate(t *testing.T) {
	h := NewPlayer("a")
	if err := h.AddCard(card(3)); err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	if err := h.AddCard(card(3)); !errors.Is(err, ErrDuplicateCard) {
		t.Fatalf("expected ErrDuplicateCard, got %v", err)
	}
}

func TestMoveCard(t *testing.T) {
	from := NewPlayer("a")
	to := NewBoard()
	c := card(7)
	_ = from.AddCard(c)

	if err := to.MoveCard(c, from); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned, got %v", err)
	}
	if err := from.MoveCard(c, to); err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if from.Has(c) || !to.Has(c) {
		t.Fatalf("card should now be on the board only")
	}
}

func TestMoveCardLeavesHoldersUntouchedOnConflict(t *testing.T) {
	a := NewPlayer("a")
	b := NewPlayer("b")
	_ = a.AddCard(card(1))
	_ = b.AddCard(card(1))
	if err := a.MoveCard(card(1), b); !errors.Is(err, ErrDuplicateCard) {
		t.Fatalf("expected ErrDuplicateCard, got %v", err)
	}
	if a.CardCount() != 1 || b.CardCount() != 1 {
		t.Fatalf("holders changed after failed move: a=%d b=%d", a.CardCount(), b.CardCount())
	}
}

func TestHasKnightAndClubsCount(t *testing.T) {
	h := NewPlayer("a")
	for _, id := range []int{0, 26, 27, 36} { // AS, AC, 2C, JC
		_ = h.AddCard(card(id))
	}
	if !h.HasKnight() {
		t.Fatalf("expected a knight")
	}
	if got := h.ClubsCount(); got != 3 {
		t.Fatalf("ClubsCount = %d, want 3", got)
	}
	b := NewBoard()
	_ = b.AddCard(card(11))
	if b.HasKnight() {
		t.Fatalf("queen is not a knight")
	}
}

func TestPlayerHandAndPileViews(t *testing.T) {
	p := NewPlayer("a")
	_ = p.AddCard(card(1))
	_ = p.AddCard(&common.Card{ID: 2, Collected: true})
	_ = p.AddCard(&common.Card{ID: 3, Collected: true})
	if p.InHandCount() != 1 || p.CollectedCount() != 2 {
		t.Fatalf("hand=%d pile=%d", p.InHandCount(), p.CollectedCount())
	}
	if len(p.InHandCards()) != 1 || p.InHandCards()[0].ID != 1 {
		t.Fatalf("unexpected hand %v", p.InHandCards())
	}
	if len(p.CollectedCards()) != 2 {
		t.Fatalf("unexpected pile %v", p.CollectedCards())
	}
}

func TestPopCard(t *testing.T) {
	d := NewFreshDeck()
	p := NewPlayer("a")
	for i := 0; i < common.DeckSize; i++ {
		if _, err := d.PopCard(common.NewCryptoSource(), p); err != nil {
			t.Fatalf("PopCard %d: %v", i, err)
		}
	}
	if p.CardCount() != common.DeckSize || d.CardCount() != 0 {
		t.Fatalf("player=%d deck=%d", p.CardCount(), d.CardCount())
	}
	if _, err := d.PopCard(common.NewCryptoSource(), p); !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
}

func TestHoldersLookup(t *testing.T) {
	g := NewGame()
	a := mustAddPlayer(t, g, "a")
	b := mustAddPlayer(t, g, "b")
	hs := g.Holders()
	if hs.Deck() == nil || hs.Board() == nil {
		t.Fatalf("deck and board must be registered")
	}
	if hs.Get("a") != a {
		t.Fatalf("Get(a) mismatch")
	}
	others := hs.Players(a)
	if len(others) != 1 || others[0] != b {
		t.Fatalf("Players(exclude a) = %v", others)
	}
	if hs.Card(51) == nil || hs.Owner(51) != hs.Deck() {
		t.Fatalf("card 51 should be in the deck")
	}
}
