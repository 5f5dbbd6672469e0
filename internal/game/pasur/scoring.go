package pasur

import (
	"sort"

	"pasur-go/internal/game/common"
)

const (
	ClubsWinPoints   = 7
	ClubsTwoPoints   = 2
	DiamondsTenPoint = 3
	AcePoints        = 1
	JackPoints       = 1
	SurPoints        = 5
)

var (
	twoOfClubsID    = 2*13 + 1
	tenOfDiamondsID = 3*13 + 9
)

// CountPoints closes the hand: leftover board cards go to the last collector,
// then clubs majority, card bonuses and surs are scored. The result is the
// points earned in this hand only.
func (g *Game) CountPoints() (map[string]int, error) {
	if g.Deck().CardCount() > 0 {
		return nil, illegal("cannot count points, deck has cards left")
	}
	if !g.NoPlayerHasCardsInHand() {
		return nil, illegal("cannot count points, player still has cards left")
	}

	board := g.Board()
	if g.isPlayer(g.LastCollector) {
		for _, c := range board.Cards() {
			if err := board.MoveCard(c, g.LastCollector); err != nil {
				return nil, err
			}
			c.SetCollected()
		}
	}

	players := g.Players()
	points := make(map[string]int, len(players))
	for _, p := range players {
		points[p.Identifier] = 0
	}

	if winner := clubsWinner(players); winner != nil {
		points[winner.Identifier] += ClubsWinPoints
	}

	for _, p := range players {
		for _, c := range p.CollectedCards() {
			points[p.Identifier] += cardPoints(c)
		}
	}

	for name, extra := range surBonus(players, g.Surs) {
		points[name] += extra
	}

	g.Status = StatusFinished
	return points, nil
}

// clubsWinner returns the player with strictly more clubs than anyone else.
func clubsWinner(players []*Holder) *Holder {
	if len(players) == 0 {
		return nil
	}
	ranked := append([]*Holder(nil), players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ClubsCount() > ranked[j].ClubsCount()
	})
	top := ranked[0].ClubsCount()
	second := 0
	if len(ranked) > 1 {
		second = ranked[1].ClubsCount()
	}
	if top == second {
		return nil
	}
	return ranked[0]
}

func cardPoints(c *common.Card) int {
	switch {
	case c.Number() == common.Ace:
		return AcePoints
	case c.Number() == common.Jack:
		return JackPoints
	case c.ID == twoOfClubsID:
		return ClubsTwoPoints
	case c.ID == tenOfDiamondsID:
		return DiamondsTenPoint
	}
	return 0
}

// surBonus pays SurPoints for every sur a player has beyond the lowest count.
func surBonus(players []*Holder, surs []*Holder) map[string]int {
	out := map[string]int{}
	if len(players) == 0 {
		return out
	}
	counts := make(map[string]int, len(players))
	for _, p := range players {
		counts[p.Identifier] = 0
	}
	for _, s := range surs {
		if s == nil {
			continue
		}
		if _, ok := counts[s.Identifier]; ok {
			counts[s.Identifier]++
		}
	}
	lowest := -1
	for _, n := range counts {
		if lowest < 0 || n < lowest {
			lowest = n
		}
	}
	for name, n := range counts {
		out[name] = (n - lowest) * SurPoints
	}
	return out
}
