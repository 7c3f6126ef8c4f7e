// Package names synthesizes human-readable service names.
package names

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

var adjectives = []string{
	"amber", "brave", "calm", "crimson", "dusty", "eager", "frozen", "gentle",
	"golden", "hollow", "idle", "jolly", "keen", "lively", "mellow", "nimble",
	"obsidian", "plain", "quiet", "rapid", "silent", "silver", "tidy", "verdant",
	"wandering", "young", "zesty",
}

var nouns = []string{
	"anchor", "badger", "canyon", "delta", "ember", "falcon", "glacier", "harbor",
	"island", "juniper", "kettle", "lantern", "meadow", "nebula", "orchard", "pebble",
	"quarry", "river", "summit", "thicket", "umbra", "valley", "willow", "yarrow",
	"zephyr",
}

// Generator produces dashed adjective-noun names such as "quiet-harbor".
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator with the given seed. The same seed yields the same sequence.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewRandom creates a Generator seeded from the clock.
func NewRandom() *Generator {
	return New(time.Now().UnixNano())
}

// Next returns the next name.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	adj := adjectives[g.rng.Intn(len(adjectives))]
	noun := nouns[g.rng.Intn(len(nouns))]
	return strings.Join([]string{adj, noun}, "-")
}
