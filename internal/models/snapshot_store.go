package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pasur-go/internal/game/pasur"
)

// SnapshotStore persists engine snapshots in the games table. Bind it to a
// transaction with WithTx to save as part of an action.
type SnapshotStore struct {
	q DBTX
}

func NewSnapshotStore(q DBTX) *SnapshotStore {
	return &SnapshotStore{q: q}
}

func (s *SnapshotStore) WithTx(q DBTX) *SnapshotStore {
	return &SnapshotStore{q: q}
}

func (s *SnapshotStore) Save(ctx context.Context, gameID int64, snap pasur.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	res, err := s.q.ExecContext(ctx,
		`UPDATE games SET state_json = ?, status = ?,
		   finished_at = CASE WHEN ? AND finished_at IS NULL THEN CURRENT_TIMESTAMP ELSE finished_at END
		 WHERE id = ?`,
		string(b), string(snap.Status), snap.Status.Terminal(), gameID,
	)
	if err != nil {
		return err
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if ra == 0 {
		return ErrNotFound
	}
	return nil
}

// Load rebuilds the game stored under gameID.
func (s *SnapshotStore) Load(ctx context.Context, gameID int64, opts ...pasur.Option) (*pasur.Game, error) {
	raw, ok, err := GetGameStateJSON(ctx, s.q, gameID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGameStateMissing
	}
	g, err := pasur.LoadJSON([]byte(raw), opts...)
	if err != nil {
		if errors.Is(err, pasur.ErrInvalidSnapshot) {
			return nil, fmt.Errorf("game %d: %w", gameID, err)
		}
		return nil, fmt.Errorf("game %d: %w: %w", gameID, ErrGameStateMissing, err)
	}
	return g, nil
}
