package models

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pasur-go/internal/game/pasur"
)

// Game is one hand within a match. Its engine state lives in state_json.
type Game struct {
	ID         int64        `json:"id"`
	MatchID    int64        `json:"match_id"`
	Status     pasur.Status `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

func CreateGameTx(ctx context.Context, tx *sql.Tx, matchID int64, stateJSON string, status pasur.Status) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO games(match_id, status, state_json) VALUES (?, ?, ?)`,
		matchID, string(status), stateJSON,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func GetGameByID(ctx context.Context, q DBTX, id int64) (*Game, error) {
	return scanGame(q.QueryRowContext(ctx,
		`SELECT id, match_id, status, created_at, finished_at FROM games WHERE id = ?`, id))
}

// GetLatestGame returns the current (most recent) game of a match.
func GetLatestGame(ctx context.Context, q DBTX, matchID int64) (*Game, error) {
	return scanGame(q.QueryRowContext(ctx,
		`SELECT id, match_id, status, created_at, finished_at FROM games WHERE match_id = ? ORDER BY id DESC LIMIT 1`, matchID))
}

func ListGamesByMatch(ctx context.Context, q DBTX, matchID int64) ([]Game, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, match_id, status, created_at, finished_at FROM games WHERE match_id = ? ORDER BY id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*Game, error) {
	var g Game
	var status string
	var finished sql.NullTime
	err := row.Scan(&g.ID, &g.MatchID, &status, &g.CreatedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.Status = pasur.Status(status)
	if finished.Valid {
		v := finished.Time
		g.FinishedAt = &v
	}
	return &g, nil
}

// GetGameStateJSON returns the persisted snapshot of a game.
// ok=false when the row exists but holds no state.
func GetGameStateJSON(ctx context.Context, q DBTX, gameID int64) (stateJSON string, ok bool, err error) {
	var s sql.NullString
	if err := q.QueryRowContext(ctx, `SELECT state_json FROM games WHERE id = ?`, gameID).Scan(&s); errors.Is(err, sql.ErrNoRows) {
		return "", false, ErrNotFound
	} else if err != nil {
		return "", false, err
	}
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return "", false, nil
	}
	return s.String, true, nil
}
