package game

import (
	"sync"

	"pasur-go/internal/game/pasur"
)

// Registry allows registering game engine factories by type.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func() Game
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]func() Game{}}
}

// DefaultRegistry returns a registry with every built-in engine registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pasur.GameType, func() Game { return pasur.NewGame() })
	return r
}

func (r *Registry) Register(gameType string, factory func() Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[gameType] = factory
}

func (r *Registry) New(gameType string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[gameType]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Types lists the registered engine types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	return out
}
