package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pasur-go/internal/game/pasur"
)

type MatchPlayer struct {
	MatchID       int64     `json:"match_id"`
	Name          string    `json:"name"`
	Position      int64     `json:"position"`
	IsBot         bool      `json:"is_bot"`
	BotDifficulty *string   `json:"bot_difficulty,omitempty"`
	JoinedAt      time.Time `json:"joined_at"`
}

// AddMatchPlayerTx seats name at the next free position. Joining twice with
// the same name is a no-op that returns the existing seat.
func AddMatchPlayerTx(ctx context.Context, tx *sql.Tx, matchID int64, name string, botDifficulty *string) (*MatchPlayer, error) {
	if name == "" || name == pasur.DeckIdentifier || name == pasur.BoardIdentifier {
		return nil, ErrInvalidPlayer
	}
	if p, err := getMatchPlayer(ctx, tx, matchID, name); err == nil {
		return p, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Single insert attempt; sqlite aborts the transaction on a constraint
	// violation, so retries belong to the caller with a fresh transaction.
	res, err := tx.ExecContext(ctx,
		`INSERT INTO match_players(match_id, name, position, is_bot, bot_difficulty)
		 SELECT ?, ?, COALESCE(MAX(position), -1) + 1, ?, ?
		 FROM match_players WHERE match_id = ?
		 HAVING COALESCE(MAX(position), -1) + 1 < ?`,
		matchID, name, boolToInt(botDifficulty != nil), botDifficulty, matchID, pasur.MaxPlayers,
	)
	if IsUniqueConstraint(err) {
		// Another writer took the seat first.
		return nil, fmt.Errorf("%w: seat taken concurrently", ErrMatchNotJoinable)
	}
	if err != nil {
		return nil, err
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if ra == 0 {
		return nil, ErrMatchFull
	}
	return getMatchPlayer(ctx, tx, matchID, name)
}

func getMatchPlayer(ctx context.Context, q DBTX, matchID int64, name string) (*MatchPlayer, error) {
	var p MatchPlayer
	var isBot int
	var difficulty sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT match_id, name, position, is_bot, bot_difficulty, joined_at FROM match_players WHERE match_id = ? AND name = ?`,
		matchID, name,
	).Scan(&p.MatchID, &p.Name, &p.Position, &isBot, &difficulty, &p.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.IsBot = isBot != 0
	if difficulty.Valid {
		v := difficulty.String
		p.BotDifficulty = &v
	}
	return &p, nil
}

// ListMatchPlayers returns players in registration order.
func ListMatchPlayers(ctx context.Context, q DBTX, matchID int64) ([]MatchPlayer, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT match_id, name, position, is_bot, bot_difficulty, joined_at FROM match_players WHERE match_id = ? ORDER BY position`,
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MatchPlayer{}
	for rows.Next() {
		var p MatchPlayer
		var isBot int
		var difficulty sql.NullString
		if err := rows.Scan(&p.MatchID, &p.Name, &p.Position, &isBot, &difficulty, &p.JoinedAt); err != nil {
			return nil, err
		}
		p.IsBot = isBot != 0
		if difficulty.Valid {
			v := difficulty.String
			p.BotDifficulty = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
