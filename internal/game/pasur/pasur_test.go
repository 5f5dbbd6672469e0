package pasur

import (
	"errors"
	"testing"

	"pasur-go/internal/game/common"
)

func TestNewRequiresDeckAndBoard(t *testing.T) {
	if _, err := New(Holders{NewBoard()}); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected illegal action without deck, got %v", err)
	}
	if _, err := New(Holders{NewDeck()}); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected illegal action without board, got %v", err)
	}
	g := NewGame()
	if g.Status != StatusPending || g.Deck().CardCount() != common.DeckSize || g.Board().CardCount() != 0 {
		t.Fatalf("unexpected fresh game: status=%s deck=%d board=%d", g.Status, g.Deck().CardCount(), g.Board().CardCount())
	}
	if g.Type() != GameType {
		t.Fatalf("Type() = %q", g.Type())
	}
}

func TestAddPlayer(t *testing.T) {
	g := NewGame()
	a := mustAddPlayer(t, g, "a")
	if again := mustAddPlayer(t, g, "a"); again != a {
		t.Fatalf("adding the same player twice should return the existing player")
	}
	for _, name := range []string{"", DeckIdentifier, BoardIdentifier} {
		if _, err := g.AddPlayer(name); !errors.Is(err, ErrIllegalAction) {
			t.Errorf("AddPlayer(%q): expected illegal action, got %v", name, err)
		}
	}
	mustAddPlayer(t, g, "b")
	g.SetSource(common.SourceFunc(func(int) int { return 0 }))
	if err := g.DealCards(); err != nil {
		t.Fatalf("DealCards: %v", err)
	}
	if _, err := g.AddPlayer("c"); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("joining after the deal should fail, got %v", err)
	}
}

func TestGiveCardFromDeck(t *testing.T) {
	g := NewGame()
	p := mustAddPlayer(t, g, "1")
	mustAddPlayer(t, g, "2")
	for i := 0; i < common.DeckSize; i++ {
		if _, err := g.GiveCardFromDeck(p); err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
	}
	if p.CardCount() != common.DeckSize || g.Deck().CardCount() != 0 {
		t.Fatalf("player=%d deck=%d", p.CardCount(), g.Deck().CardCount())
	}
	if _, err := g.GiveCardFromDeck(p); !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
	if _, err := g.GiveCardFromDeck(NewPlayer("stranger")); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected illegal action for unknown holder, got %v", err)
	}
}

func TestDealCards(t *testing.T) {
	for _, n := range []int{2, 3, 4} {
		g := NewGame(WithSource(common.SourceFunc(func(int) int { return 0 })))
		for i := 0; i < n; i++ {
			mustAddPlayer(t, g, string(rune('a'+i)))
		}
		if err := g.DealCards(); err != nil {
			t.Fatalf("%d players: DealCards: %v", n, err)
		}
		if g.Status != StatusOngoing {
			t.Fatalf("%d players: status = %s", n, g.Status)
		}
		if g.Board().CardCount() != 4 {
			t.Fatalf("%d players: board holds %d", n, g.Board().CardCount())
		}
		if g.Board().HasKnight() {
			t.Fatalf("%d players: board should not hold a knight", n)
		}
		for _, p := range g.Players() {
			if p.InHandCount() != 4 {
				t.Fatalf("%d players: %s holds %d", n, p.Identifier, p.InHandCount())
			}
		}
		if want := common.DeckSize - 4 - 4*n; g.Deck().CardCount() != want {
			t.Fatalf("%d players: deck holds %d, want %d", n, g.Deck().CardCount(), want)
		}
		assertPartition(t, g)
	}
}

func TestDealCardsPreconditions(t *testing.T) {
	g := NewGame()
	mustAddPlayer(t, g, "a")
	if err := g.DealCards(); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("one player: expected illegal action, got %v", err)
	}
	for _, name := range []string{"b", "c", "d", "e"} {
		mustAddPlayer(t, g, name)
	}
	if err := g.DealCards(); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("five players: expected illegal action, got %v", err)
	}

	g = dealTwoPlayers(t, []int{8, 1, 9, 2}, []int{4, 5, 6, 7}, []int{3, 14, 27, 40})
	before := g.Deck().CardCount()
	if err := g.DealCards(); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("dealing with cards in hand: expected illegal action, got %v", err)
	}
	if g.Deck().CardCount() != before {
		t.Fatalf("failed deal changed the deck")
	}
}

func TestDealCardsEmptyDeckFinishes(t *testing.T) {
	held := map[string][]int{"a": {}, "b": {}}
	collected := map[int]bool{}
	for id := 0; id < common.DeckSize; id++ {
		held["a"] = append(held["a"], id)
		collected[id] = true
	}
	g := mustLoad(t, layout(StatusOngoing, []string{"a", "b"}, held, collected, DeckIdentifier))
	if err := g.DealCards(); err != nil {
		t.Fatalf("DealCards: %v", err)
	}
	if g.Status != StatusFinished {
		t.Fatalf("status = %s, want finished", g.Status)
	}
}

func TestDealCardsReplacesBoardKnight(t *testing.T) {
	g := NewGame()
	mustAddPlayer(t, g, "1")
	mustAddPlayer(t, g, "2")
	// Board draws JS (10) first; it goes back and 5H (17) replaces it.
	g.SetSource(drawSequence(t, g, 4, 5, 6, 7, 8, 9, 12, 13, 10, 0, 1, 2, 17))
	if err := g.DealCards(); err != nil {
		t.Fatalf("DealCards: %v", err)
	}
	if g.Status != StatusOngoing {
		t.Fatalf("status = %s", g.Status)
	}
	if g.Board().Get(10) != nil || g.Deck().Get(10) == nil {
		t.Fatalf("knight should be back in the deck")
	}
	if g.Board().Get(17) == nil || g.Board().CardCount() != 4 {
		t.Fatalf("replacement card missing from board: %v", g.Board().Cards())
	}
	assertPartition(t, g)
}

func TestDealCardsDoubleKnightCancels(t *testing.T) {
	g := NewGame()
	mustAddPlayer(t, g, "1")
	mustAddPlayer(t, g, "2")
	g.SetSource(drawSequence(t, g, 4, 5, 6, 7, 8, 9, 12, 13, 10, 0, 1, 2, 23))
	if err := g.DealCards(); err != nil {
		t.Fatalf("DealCards: %v", err)
	}
	if g.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", g.Status)
	}
	if err := g.DealCards(); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("dealing a cancelled game should fail, got %v", err)
	}
}

func TestPlayCardCollect3And8(t *testing.T) {
	g := dealTwoPlayers(t, []int{7, 1, 9, 3}, []int{4, 5, 6, 8}, []int{2, 14, 27, 40})
	p := g.Player("1")

	if err := g.PlayCard(p, card(7), nil); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("8 must collect the 3, got %v", err)
	}
	if err := g.PlayCard(p, card(7), cards(2)); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if p.CollectedCount() != 2 {
		t.Fatalf("collected %d, want 2", p.CollectedCount())
	}
	for _, id := range []int{7, 2} {
		if c := p.Get(id); c == nil || !c.Collected {
			t.Fatalf("card %d should be in the pile", id)
		}
	}
	if g.LastCollector != p || g.LastPlayedCard.ID != 7 || len(g.LastCollectedCards) != 1 {
		t.Fatalf("last move not recorded: %+v", g.Snapshot())
	}
	if len(g.Surs) != 0 {
		t.Fatalf("board not cleared, no sur expected")
	}
	if g.PlayerInTurn() != g.Player("2") {
		t.Fatalf("player 2 should be in turn")
	}
	assertPartition(t, g)
}

func TestPlayCardCollectKing(t *testing.T) {
	g := dealTwoPlayers(t, []int{12, 1, 9, 3}, []int{4, 5, 6, 8}, []int{25, 2, 27, 40})
	p := g.Player("1")
	if err := g.PlayCard(p, card(12), cards(2)); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("king cannot collect a 3, got %v", err)
	}
	if err := g.PlayCard(p, card(12), cards(25)); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if p.CollectedCount() != 2 || !p.Get(25).Collected {
		t.Fatalf("king pair not collected")
	}
}

func TestPlayCardCollect3And6And2(t *testing.T) {
	g := dealTwoPlayers(t, []int{2, 7, 9, 3}, []int{4, 27, 6, 8}, []int{5, 1, 25, 40})
	p := g.Player("1")
	if err := g.PlayCard(p, card(2), cards(5, 1)); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if p.CollectedCount() != 3 {
		t.Fatalf("collected %d, want 3", p.CollectedCount())
	}
}

func TestPlayCardRejectsWithoutMutation(t *testing.T) {
	g := dealTwoPlayers(t, []int{7, 1, 9, 3}, []int{4, 5, 6, 8}, []int{2, 14, 27, 40})
	p1, p2 := g.Player("1"), g.Player("2")
	before := g.Snapshot()

	tests := []struct {
		name    string
		player  *Holder
		card    *common.Card
		collect []*common.Card
	}{
		{"out of turn", p2, card(4), nil},
		{"card not in hand", p1, card(4), nil},
		{"collect card not on board", p1, card(7), cards(30)},
		{"collect card named twice", p1, card(7), cards(2, 2)},
		{"wrong sum", p1, card(7), cards(14)},
		{"unknown player", NewPlayer("x"), card(7), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.PlayCard(tt.player, tt.card, tt.collect); !errors.Is(err, ErrIllegalAction) {
				t.Fatalf("expected illegal action, got %v", err)
			}
			after := g.Snapshot()
			if len(after.Cards) != len(before.Cards) {
				t.Fatalf("card count changed")
			}
			for i := range before.Cards {
				if before.Cards[i] != after.Cards[i] {
					t.Fatalf("card %d changed: %+v -> %+v", i, before.Cards[i], after.Cards[i])
				}
			}
		})
	}
}

func TestPlayCardRequiresOngoingGame(t *testing.T) {
	g := NewGame()
	p := mustAddPlayer(t, g, "1")
	mustAddPlayer(t, g, "2")
	if err := g.PlayCard(p, card(0), nil); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected illegal action before dealing, got %v", err)
	}
}

func TestPlayCardSur(t *testing.T) {
	held := map[string][]int{"a": {7}, "b": {20}, BoardIdentifier: {2}}
	g := mustLoad(t, layout(StatusOngoing, []string{"a", "b"}, held, nil, DeckIdentifier))
	a := g.Player("a")
	if err := g.PlayCard(a, card(7), cards(2)); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if len(g.Surs) != 1 || g.Surs[0] != a {
		t.Fatalf("expected a sur for a, got %v", g.Surs)
	}
}

func TestPlayCardNoSurWithKnightOrEmptyDeck(t *testing.T) {
	held := map[string][]int{"a": {10}, "b": {20}, BoardIdentifier: {2}}
	g := mustLoad(t, layout(StatusOngoing, []string{"a", "b"}, held, nil, DeckIdentifier))
	if err := g.PlayCard(g.Player("a"), card(10), cards(2)); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if len(g.Surs) != 0 {
		t.Fatalf("knight sweeps do not count as sur")
	}

	// Last cards of the hand: the deck is empty, so clearing the board is no sur.
	held = map[string][]int{"a": {7}, "b": {20}, BoardIdentifier: {2}}
	collected := map[int]bool{}
	for id := 0; id < common.DeckSize; id++ {
		if id != 7 && id != 20 && id != 2 {
			collected[id] = true
		}
	}
	g = mustLoad(t, layout(StatusOngoing, []string{"a", "b"}, held, collected, "b"))
	if err := g.PlayCard(g.Player("a"), card(7), cards(2)); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if len(g.Surs) != 0 {
		t.Fatalf("no sur once the deck is empty")
	}
}

func TestPlayCardWithoutCollectClearsLastCollected(t *testing.T) {
	g := dealTwoPlayers(t, []int{7, 1, 9, 3}, []int{4, 5, 6, 8}, []int{2, 14, 27, 40})
	if err := g.PlayCard(g.Player("1"), card(7), cards(2)); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	// 6S (5) on 2H, 2C, 2D: no combination reaches 11.
	if err := g.PlayCard(g.Player("2"), card(5), nil); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if len(g.LastCollectedCards) != 0 || g.LastPlayedCard.ID != 5 {
		t.Fatalf("last move not updated: %+v", g.Snapshot())
	}
	if g.LastCollector != g.Player("1") {
		t.Fatalf("last collector should still be player 1")
	}
}

func TestPlayerInTurnFollowsRotation(t *testing.T) {
	held := map[string][]int{
		"P1":            {11, 12},
		"P2":            {24, 25},
		"P3":            {37, 38},
		BoardIdentifier: {4},
	}
	g := mustLoad(t, layout(StatusOngoing, []string{"P1", "P2", "P3"}, held, nil, DeckIdentifier))
	p1, p2, p3 := g.Player("P1"), g.Player("P2"), g.Player("P3")

	if g.PlayerInTurn() != p1 {
		t.Fatalf("starter should act first")
	}
	if err := g.PlayCard(p1, card(11), nil); err != nil {
		t.Fatalf("P1: %v", err)
	}
	if g.PlayerInTurn() != p2 {
		t.Fatalf("P2 should be in turn, got %v", g.PlayerInTurn())
	}
	if err := g.PlayCard(p3, card(38), nil); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("P3 out of turn: expected illegal action, got %v", err)
	}
	if err := g.PlayCard(p2, card(25), nil); err != nil {
		t.Fatalf("P2: %v", err)
	}
	if g.PlayerInTurn() != p3 {
		t.Fatalf("P3 should be in turn")
	}
	if err := g.PlayCard(p3, card(37), nil); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("QC must collect QS, got %v", err)
	}
	if err := g.PlayCard(p3, card(37), cards(11)); err != nil {
		t.Fatalf("P3: %v", err)
	}
	if g.PlayerInTurn() != p1 {
		t.Fatalf("rotation should return to P1")
	}
}

func TestPlayersInPlayOrderWrapsFromStarter(t *testing.T) {
	g := NewGame()
	for _, name := range []string{"a", "b", "c", "d"} {
		mustAddPlayer(t, g, name)
	}
	g.Starter = g.Player("c")
	var got []string
	for _, p := range g.PlayersInPlayOrder() {
		got = append(got, p.Identifier)
	}
	want := []string{"c", "d", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if g.PlayerInTurn() != g.Player("c") {
		t.Fatalf("with equal hands the starter is in turn")
	}
}

func TestNextGameRotatesStarter(t *testing.T) {
	g := NewGame()
	for _, name := range []string{"a", "b", "c"} {
		mustAddPlayer(t, g, name)
	}
	if _, err := g.NextGame(); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("pending game cannot move on, got %v", err)
	}
	g.Terminate()
	next, err := g.NextGame()
	if err != nil {
		t.Fatalf("NextGame: %v", err)
	}
	if next.StartingPlayer().Identifier != "b" {
		t.Fatalf("starter = %s, want b", next.StartingPlayer().Identifier)
	}
	if len(next.Players()) != 3 || next.Status != StatusPending || next.Deck().CardCount() != common.DeckSize {
		t.Fatalf("next game not fresh: %+v", next.Snapshot())
	}
}

func TestFullHandKeepsInvariants(t *testing.T) {
	for _, n := range []int{2, 3, 4} {
		for _, difficulty := range []BotDifficulty{BotEasy, BotMedium} {
			g := playFullHand(t, n, difficulty)
			points, err := g.CountPoints()
			if err != nil {
				t.Fatalf("CountPoints: %v", err)
			}
			if g.Status != StatusFinished {
				t.Fatalf("status = %s", g.Status)
			}
			if g.Board().CardCount() != 0 {
				t.Fatalf("board should be swept to the last collector")
			}
			assertPartition(t, g)

			total := 0
			for _, v := range points {
				total += v
			}
			for _, v := range surBonus(g.Players(), g.Surs) {
				total -= v
			}
			if total != 13 && total != 13+ClubsWinPoints {
				t.Fatalf("%d players: card points total %d", n, total)
			}
		}
	}
}

func playFullHand(t *testing.T, players int, difficulty BotDifficulty) *Game {
	t.Helper()
	for attempt := 0; attempt < 20; attempt++ {
		g := NewGame()
		for i := 0; i < players; i++ {
			mustAddPlayer(t, g, string(rune('a'+i)))
		}
		for {
			if err := g.DealCards(); err != nil {
				t.Fatalf("DealCards: %v", err)
			}
			if g.Status != StatusOngoing {
				break
			}
			for !g.NoPlayerHasCardsInHand() {
				p := g.PlayerInTurn()
				m, err := g.ChooseMove(p, difficulty)
				if err != nil {
					t.Fatalf("ChooseMove: %v", err)
				}
				if err := g.PlayCard(p, m.Card, m.Collect); err != nil {
					t.Fatalf("PlayCard(%s, %s, %v): %v", p.Identifier, m.Card, m.Collect, err)
				}
				assertPartition(t, g)
			}
		}
		if g.Status == StatusFinished {
			return g
		}
	}
	t.Fatalf("every attempt was cancelled")
	return nil
}
