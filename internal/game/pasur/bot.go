package pasur

import (
	"pasur-go/internal/game/common"
)

type BotDifficulty string

const (
	BotEasy   BotDifficulty = "easy"
	BotMedium BotDifficulty = "medium"
)

// Move is a card to play plus the board cards it collects (empty for a plain
// discard to the board).
type Move struct {
	Card    *common.Card
	Collect []*common.Card
}

// LegalMoves returns one legal move for every card in the player's hand. When
// a card can collect, the move collects; otherwise it is a plain discard.
func (g *Game) LegalMoves(player *Holder) []Move {
	if !g.isPlayer(player) {
		return nil
	}
	var out []Move
	for _, c := range player.InHandCards() {
		out = append(out, Move{Card: c, Collect: g.collectionFor(c)})
	}
	return out
}

func (g *Game) collectionFor(card *common.Card) []*common.Card {
	board := g.Board().Cards()
	n := card.Number()
	switch {
	case n <= 10:
		var small []*common.Card
		for _, c := range board {
			if c.Number() <= 10 {
				small = append(small, c)
			}
		}
		return largestSubset11(n, small)
	case n == common.Jack:
		var out []*common.Card
		for _, c := range board {
			if c.Number() <= common.Jack {
				out = append(out, c)
			}
		}
		return out
	default:
		for _, c := range board {
			if c.Number() == n {
				return []*common.Card{c}
			}
		}
	}
	return nil
}

// largestSubset11 returns the biggest subset of cards that brings sum to 11,
// or nil when none exists.
func largestSubset11(sum int, cards []*common.Card) []*common.Card {
	var best []*common.Card
	var walk func(sum int, rest []*common.Card, picked []*common.Card)
	walk = func(sum int, rest []*common.Card, picked []*common.Card) {
		if sum == targetSum {
			if len(picked) > len(best) {
				best = append([]*common.Card(nil), picked...)
			}
			return
		}
		if sum > targetSum {
			return
		}
		for i, c := range rest {
			walk(sum+c.Number(), rest[i+1:], append(picked, c))
		}
	}
	walk(sum, cards, nil)
	return best
}

// ChooseMove picks a move for an automated player.
func (g *Game) ChooseMove(player *Holder, difficulty BotDifficulty) (Move, error) {
	moves := g.LegalMoves(player)
	if len(moves) == 0 {
		return Move{}, illegal("player has no cards in hand")
	}
	switch difficulty {
	case BotMedium:
		return g.bestMove(moves), nil
	default:
		return moves[g.src.Intn(len(moves))], nil
	}
}

func (g *Game) bestMove(moves []Move) Move {
	boardCount := g.Board().CardCount()
	bestIdx := 0
	bestScore := -1 << 30
	for i, m := range moves {
		score := 0
		if len(m.Collect) > 0 {
			score += 10 * (cardPoints(m.Card) + 1)
			for _, c := range m.Collect {
				score += 10*cardPoints(c) + 2
				if c.Suit() == common.Clubs {
					score++
				}
			}
			if len(m.Collect) == boardCount && m.Card.Number() != common.Jack {
				score += 10 * SurPoints
			}
		} else {
			// Discard the card worth least to the opponents.
			score -= 10 * cardPoints(m.Card)
			if m.Card.Suit() == common.Clubs {
				score--
			}
			if m.Card.Number() == common.Jack {
				score -= 5
			}
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return moves[bestIdx]
}
