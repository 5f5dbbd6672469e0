package handlers

import "sync"

// GameManager serializes writers per match. Every mutating action on a match
// runs under its lock, so the engine itself never sees concurrent callers.
type GameManager struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewGameManager() *GameManager {
	return &GameManager{locks: map[int64]*sync.Mutex{}}
}

// Lock blocks until the match is free and returns its unlock func.
func (m *GameManager) Lock(matchID int64) func() {
	m.mu.Lock()
	l, ok := m.locks[matchID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[matchID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
