package models

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidJSON           = errors.New("invalid json")
	ErrInvalidPlayer         = errors.New("invalid player")
	ErrMatchFull             = errors.New("match full")
	ErrMatchNotJoinable      = errors.New("match not joinable")
	ErrMatchFinished         = errors.New("match finished")
	ErrPlayerNotInMatch      = errors.New("player not in match")
	ErrGameStateMissing      = errors.New("persisted game state missing")
	ErrUnknownAction         = errors.New("unknown action")
	ErrScoresAlreadyRecorded = errors.New("scores already recorded")
)

func IsUniqueConstraint(err error) bool {
	// sqlite3 driver error strings are stable enough for this check.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// DBTX is satisfied by both *sql.DB and *sql.Tx so reads can run inside or
// outside an action transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
