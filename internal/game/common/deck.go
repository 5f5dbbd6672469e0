package common

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

// Source picks uniformly in [0, n). Card draws go through a Source so tests can
// force a deterministic sequence.
type Source interface {
	Intn(n int) int
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(n int) int

func (f SourceFunc) Intn(n int) int { return f(n) }

// CryptoSource draws with crypto/rand. If crypto/rand fails it falls back to a
// time-seeded LCG so dealing keeps working.
type CryptoSource struct {
	mu   sync.Mutex
	seed int64
}

func NewCryptoSource() *CryptoSource {
	return &CryptoSource{seed: time.Now().UnixNano()}
}

func (s *CryptoSource) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return s.fallback(n)
	}
	return int(v.Int64())
}

func (s *CryptoSource) fallback(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed = (s.seed*6364136223846793005 + 1) & 0x7fffffffffffffff
	return int(s.seed % int64(n))
}
