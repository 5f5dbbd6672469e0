package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	MoveDeal     = "deal_cards"
	MovePlay     = "play_card"
	MoveCount    = "count_points"
	MoveNextGame = "next_game"
	MoveGiveCard = "give_card"
	MoveJoin     = "join"
)

// GameMove is one entry of a game's action log.
type GameMove struct {
	ID             int64     `json:"id"`
	GameID         int64     `json:"game_id"`
	Player         *string   `json:"player,omitempty"`
	MoveType       string    `json:"move_type"`
	CardPlayed     *int      `json:"card_played,omitempty"`
	CardsCollected []int     `json:"cards_collected"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

func InsertMoveTx(ctx context.Context, tx *sql.Tx, m GameMove) error {
	collected := m.CardsCollected
	if collected == nil {
		collected = []int{}
	}
	b, err := json.Marshal(collected)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO game_moves(game_id, player, move_type, card_played, cards_collected, message) VALUES (?, ?, ?, ?, ?, ?)`,
		m.GameID, m.Player, m.MoveType, m.CardPlayed, string(b), m.Message,
	)
	return err
}

// ListMovesByGame returns the newest moves first.
func ListMovesByGame(ctx context.Context, q DBTX, gameID int64, limit int64) ([]GameMove, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := q.QueryContext(ctx,
		`SELECT id, game_id, player, move_type, card_played, cards_collected, message, created_at
		 FROM game_moves WHERE game_id = ? ORDER BY id DESC LIMIT ?`,
		gameID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameMove{}
	for rows.Next() {
		var m GameMove
		var player sql.NullString
		var card sql.NullInt64
		var collected string
		if err := rows.Scan(&m.ID, &m.GameID, &player, &m.MoveType, &card, &collected, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		if player.Valid {
			v := player.String
			m.Player = &v
		}
		if card.Valid {
			v := int(card.Int64)
			m.CardPlayed = &v
		}
		if err := json.Unmarshal([]byte(collected), &m.CardsCollected); err != nil {
			return nil, fmt.Errorf("move %d: %w", m.ID, ErrInvalidJSON)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
