package game

import (
	"math/rand"
	"sync"
)

const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
const roomCodeLength = 5

// Idgen hands out short room codes, collision-checked against every code
// still in use.
type Idgen struct {
	mu    sync.Mutex
	taken map[string]struct{}
	rng   *rand.Rand
}

func NewIdGen(seed int64) *Idgen {
	return &Idgen{
		taken: make(map[string]struct{}),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (g *Idgen) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeAlphabet[g.rng.Intn(len(roomCodeAlphabet))]
		}
		id := string(code)
		if _, used := g.taken[id]; used {
			continue
		}
		g.taken[id] = struct{}{}
		return id
	}
}

func (g *Idgen) Dispose(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.taken, id)
}
