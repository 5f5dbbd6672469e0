package pasur

import "pasur-go/internal/game/common"

const targetSum = 11

// ValidateMove reports whether playing card with the proposed collection is
// legal on the current board. Collect cards that are not on the board are an
// error rather than an illegal move.
func (g *Game) ValidateMove(card *common.Card, collect []*common.Card) (bool, error) {
	board := g.Board()
	for _, c := range collect {
		if !board.Has(c) {
			return false, illegal("not allowed to collect card %v that is not on the board", c)
		}
	}
	onBoard := board.Cards()
	n := card.Number()

	if len(collect) > 0 {
		switch {
		case n <= 10:
			sum := n
			for _, c := range collect {
				if c.Number() > 10 {
					return false, nil
				}
				sum += c.Number()
			}
			return sum == targetSum, nil
		case n == common.Jack:
			proposed := map[int]bool{}
			for _, c := range collect {
				proposed[c.ID] = true
			}
			for _, c := range onBoard {
				if c.Number() > common.Jack {
					if proposed[c.ID] {
						return false, nil
					}
				} else if !proposed[c.ID] {
					return false, nil
				}
			}
			return true, nil
		default:
			return len(collect) == 1 && collect[0].Number() == n, nil
		}
	}

	switch {
	case n <= 10:
		if FindPossible11(n, numbers(onBoard)) {
			return false, nil
		}
	case n == common.Jack:
		for _, c := range onBoard {
			if c.Number() <= 10 {
				return false, nil
			}
		}
	default:
		for _, c := range onBoard {
			if c.Number() == n {
				return false, nil
			}
		}
	}
	return true, nil
}

// FindPossible11 reports whether some subset of ranks added to sum reaches
// exactly 11. Branches are cut as soon as the running sum passes 11.
func FindPossible11(sum int, ranks []int) bool {
	if sum == targetSum {
		return true
	}
	if sum > targetSum {
		return false
	}
	for i, r := range ranks {
		if FindPossible11(sum+r, ranks[i+1:]) {
			return true
		}
	}
	return false
}

func numbers(cards []*common.Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.Number()
	}
	return out
}
