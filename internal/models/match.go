package models

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pasur-go/internal/game/pasur"
)

type MatchStatus string

const (
	MatchJoinable MatchStatus = "joinable"
	MatchOngoing  MatchStatus = "ongoing"
	MatchFinished MatchStatus = "finished"
)

type Match struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	GoalPoints int64         `json:"goal_points"`
	Status     MatchStatus   `json:"status"`
	Players    []MatchPlayer `json:"players"`
	CreatedAt  time.Time     `json:"created_at"`
}

func CreateMatchTx(ctx context.Context, tx *sql.Tx, name string, goalPoints int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO matches(name, goal_points) VALUES (?, ?)`, name, goalPoints)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetMatch loads a match with its players and derived status.
func GetMatch(ctx context.Context, q DBTX, id int64) (*Match, error) {
	var m Match
	err := q.QueryRowContext(ctx,
		`SELECT id, name, goal_points, created_at FROM matches WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.GoalPoints, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := fillMatch(ctx, q, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func ListMatches(ctx context.Context, q DBTX, limit, offset int64) ([]Match, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, goal_points, created_at FROM matches ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Name, &m.GoalPoints, &m.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, m)
	}
	// Close before the per-match queries: in-memory databases run on a single connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := fillMatch(ctx, q, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fillMatch(ctx context.Context, q DBTX, m *Match) error {
	players, err := ListMatchPlayers(ctx, q, m.ID)
	if err != nil {
		return err
	}
	m.Players = players
	status, err := matchStatus(ctx, q, m)
	if err != nil {
		return err
	}
	m.Status = status
	return nil
}

// matchStatus is joinable while the only game has not been dealt and seats
// remain, finished once any player's total reaches the goal, ongoing otherwise.
func matchStatus(ctx context.Context, q DBTX, m *Match) (MatchStatus, error) {
	var best sql.NullInt64
	if err := q.QueryRowContext(ctx,
		`SELECT MAX(total) FROM (
		   SELECT SUM(s.points) AS total
		   FROM game_scores s JOIN games g ON g.id = s.game_id
		   WHERE g.match_id = ? GROUP BY s.player)`,
		m.ID,
	).Scan(&best); err != nil {
		return "", err
	}
	if best.Valid && best.Int64 >= m.GoalPoints {
		return MatchFinished, nil
	}

	var games int64
	var latest sql.NullString
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*), (SELECT status FROM games WHERE match_id = ? ORDER BY id DESC LIMIT 1) FROM games WHERE match_id = ?`,
		m.ID, m.ID,
	).Scan(&games, &latest); err != nil {
		return "", err
	}
	if games <= 1 && (!latest.Valid || latest.String == string(pasur.StatusPending)) && len(m.Players) < pasur.MaxPlayers {
		return MatchJoinable, nil
	}
	return MatchOngoing, nil
}
