package game

import (
	"math/rand"
	"sync"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type randomLetters struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewLetterGenerator(seed int64) LetterGenerator {
	return &randomLetters{rng: rand.New(rand.NewSource(seed))}
}

// Pair returns two distinct uppercase letters, e.g. "QR".
func (g *randomLetters) Pair() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	first := g.rng.Intn(len(alphabet))
	second := first
	for second == first {
		second = g.rng.Intn(len(alphabet))
	}
	return string(alphabet[first]) + string(alphabet[second])
}
