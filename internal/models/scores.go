package models

import (
	"context"
	"database/sql"
	"sort"
)

// InsertGameScoresTx records the points of one finished game. A game is
// scored once; a second call reports ErrScoresAlreadyRecorded.
func InsertGameScoresTx(ctx context.Context, tx *sql.Tx, gameID int64, points map[string]int) error {
	scored, err := HasGameScores(ctx, tx, gameID)
	if err != nil {
		return err
	}
	if scored {
		return ErrScoresAlreadyRecorded
	}

	names := make([]string, 0, len(points))
	for name := range points {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_scores(game_id, player, points) VALUES (?, ?, ?)`,
			gameID, name, points[name],
		); err != nil {
			return err
		}
	}
	return nil
}

func HasGameScores(ctx context.Context, q DBTX, gameID int64) (bool, error) {
	var n int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_scores WHERE game_id = ?`, gameID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// PlayerPoints is a player's standing in a match: the running total over all
// scored games and the points from the current game.
type PlayerPoints struct {
	Player  string `json:"player"`
	Total   int64  `json:"total"`
	Current int64  `json:"current"`
}

// CountPlayerPoints returns standings for every match player in seat order.
// Players without scores yet report zero.
func CountPlayerPoints(ctx context.Context, q DBTX, matchID, currentGameID int64) ([]PlayerPoints, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT p.name,
		        COALESCE(SUM(s.points), 0),
		        COALESCE(SUM(CASE WHEN s.game_id = ? THEN s.points END), 0)
		 FROM match_players p
		 LEFT JOIN games g ON g.match_id = p.match_id
		 LEFT JOIN game_scores s ON s.game_id = g.id AND s.player = p.name
		 WHERE p.match_id = ?
		 GROUP BY p.name, p.position
		 ORDER BY p.position`,
		currentGameID, matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PlayerPoints{}
	for rows.Next() {
		var pp PlayerPoints
		if err := rows.Scan(&pp.Player, &pp.Total, &pp.Current); err != nil {
			return nil, err
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}

// GoalReached reports whether any standing meets goal.
func GoalReached(points []PlayerPoints, goal int64) bool {
	for _, p := range points {
		if p.Total >= goal {
			return true
		}
	}
	return false
}
