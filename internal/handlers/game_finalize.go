package handlers

import (
	"fmt"
	"sort"
	"strings"

	"pasur-go/internal/game/pasur"
	"pasur-go/internal/models"
)

// countPoints scores the finished game and records the result. Each game is
// scored once; the second attempt fails with ErrScoresAlreadyRecorded.
func (s *actionState) countPoints() error {
	// Leftover board cards are swept to the last collector while counting.
	var swept []int
	if s.game.LastCollector != nil {
		for _, c := range s.game.Board().Cards() {
			swept = append(swept, c.ID)
		}
	}
	points, err := s.game.CountPoints()
	if err != nil {
		return err
	}
	if err := models.InsertGameScoresTx(s.ctx, s.tx, s.gameID, points); err != nil {
		return err
	}
	s.points = points

	s.record(models.GameMove{
		MoveType:       models.MoveCount,
		CardsCollected: swept,
		Message:        pointsMessage(points),
	})

	standings, err := models.CountPlayerPoints(s.ctx, s.tx, s.match.ID, s.gameID)
	if err != nil {
		return err
	}
	if models.GoalReached(standings, s.match.GoalPoints) {
		s.messages = append(s.messages, "Match finished, "+leaderMessage(standings))
	}
	return nil
}

// nextGame opens the following hand of the match. A finished hand must be
// scored first; a cancelled one can be skipped right away.
func (s *actionState) nextGame() error {
	if s.game.Status == pasur.StatusFinished {
		scored, err := models.HasGameScores(s.ctx, s.tx, s.gameID)
		if err != nil {
			return err
		}
		if !scored {
			return &pasur.IllegalActionError{Reason: "count the points before starting the next game"}
		}
	}
	next, err := s.game.NextGame()
	if err != nil {
		return err
	}
	state, err := next.MarshalJSON()
	if err != nil {
		return err
	}
	id, err := models.CreateGameTx(s.ctx, s.tx, s.match.ID, string(state), next.Status)
	if err != nil {
		return err
	}
	s.gameID = id
	s.game = next
	s.record(models.GameMove{MoveType: models.MoveNextGame, Message: startMessage(next)})
	return nil
}

func pointsMessage(points map[string]int) string {
	names := make([]string, 0, len(points))
	for name := range points {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %d", name, points[name]))
	}
	return "Points counted: " + strings.Join(parts, ", ")
}

func leaderMessage(standings []models.PlayerPoints) string {
	if len(standings) == 0 {
		return "no players"
	}
	best := standings[0]
	for _, p := range standings[1:] {
		if p.Total > best.Total {
			best = p
		}
	}
	return fmt.Sprintf("%s wins with %d points", best.Player, best.Total)
}

func startMessage(g *pasur.Game) string {
	if s := g.StartingPlayer(); s != nil {
		return "Started next game, " + s.Identifier + " starts"
	}
	return "Started next game"
}
