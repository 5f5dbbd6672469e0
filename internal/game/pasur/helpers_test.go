package pasur

import (
	"testing"

	"pasur-go/internal/game/common"
)

// drawSequence makes the deck hand out the given card ids in order.
func drawSequence(t *testing.T, g *Game, ids ...int) common.Source {
	t.Helper()
	queue := append([]int(nil), ids...)
	return common.SourceFunc(func(n int) int {
		if len(queue) == 0 {
			t.Fatalf("draw sequence exhausted")
		}
		id := queue[0]
		queue = queue[1:]
		for i, c := range g.Deck().cards {
			if c.ID == id {
				return i
			}
		}
		t.Fatalf("card %d is not in the deck", id)
		return 0
	})
}

// dealTwoPlayers deals a first round with fixed cards to players "1" and "2".
func dealTwoPlayers(t *testing.T, p1, p2, board []int) *Game {
	t.Helper()
	g := NewGame()
	mustAddPlayer(t, g, "1")
	mustAddPlayer(t, g, "2")
	seq := append(append(append([]int(nil), p1...), p2...), board...)
	g.SetSource(drawSequence(t, g, seq...))
	if err := g.DealCards(); err != nil {
		t.Fatalf("DealCards: %v", err)
	}
	return g
}

func mustAddPlayer(t *testing.T, g *Game, name string) *Holder {
	t.Helper()
	p, err := g.AddPlayer(name)
	if err != nil {
		t.Fatalf("AddPlayer(%q): %v", name, err)
	}
	return p
}

func mustLoad(t *testing.T, s Snapshot) *Game {
	t.Helper()
	g, err := Load(s)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return g
}

func card(id int) *common.Card { return &common.Card{ID: id} }

func cards(ids ...int) []*common.Card {
	out := make([]*common.Card, len(ids))
	for i, id := range ids {
		out[i] = card(id)
	}
	return out
}

// layout builds a snapshot where every card not listed in held sits with rest.
func layout(status Status, players []string, held map[string][]int, collected map[int]bool, rest string) Snapshot {
	s := Snapshot{Players: players, Status: status}
	owner := map[int]string{}
	for name, ids := range held {
		for _, id := range ids {
			owner[id] = name
		}
	}
	for id := 0; id < common.DeckSize; id++ {
		name, ok := owner[id]
		if !ok {
			name = rest
		}
		s.Cards = append(s.Cards, CardEntry{CardID: id, Collected: collected[id], Identifier: name})
	}
	return s
}

func assertPartition(t *testing.T, g *Game) {
	t.Helper()
	seen := map[int]string{}
	for _, h := range g.Holders() {
		for _, c := range h.Cards() {
			if prev, ok := seen[c.ID]; ok {
				t.Fatalf("card %d held by both %s and %s", c.ID, prev, h.Identifier)
			}
			seen[c.ID] = h.Identifier
		}
		if h.Kind == KindPlayer && h.InHandCount()+h.CollectedCount() != h.CardCount() {
			t.Fatalf("%s: hand %d + pile %d != %d", h.Identifier, h.InHandCount(), h.CollectedCount(), h.CardCount())
		}
	}
	if len(seen) != common.DeckSize {
		t.Fatalf("expected %d cards across holders, got %d", common.DeckSize, len(seen))
	}
}
