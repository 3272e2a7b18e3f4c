package engine

import "math/rand"

// DefaultSpawn4Prob is the chance that a spawned tile is a 4 instead of a 2.
const DefaultSpawn4Prob = 0.10

// Spawner places new tiles on empty cells using its own random source.
type Spawner struct {
	rng        *rand.Rand
	spawn4Prob float64
}

// NewSpawner creates a spawner. A nil rng gets a source seeded with 0.
func NewSpawner(rng *rand.Rand, spawn4Prob float64) *Spawner {
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	return &Spawner{rng: rng, spawn4Prob: spawn4Prob}
}

// Spawn fills min(count, empty cells) distinct empty cells and returns the
// grid. Cells are picked by shuffling the empty list and taking a prefix;
// each new tile is 4 with probability spawn4Prob, otherwise 2.
func (s *Spawner) Spawn(g Grid, count int) Grid {
	empty := EmptyCells(g)
	if len(empty) == 0 || count <= 0 {
		return g
	}

	s.rng.Shuffle(len(empty), func(i, j int) {
		empty[i], empty[j] = empty[j], empty[i]
	})

	n := min(count, len(empty))
	for _, cell := range empty[:n] {
		g[cell.Row][cell.Col] = s.tileValue()
	}
	return g
}

// tileValue draws the value of one new tile.
func (s *Spawner) tileValue() int {
	if s.rng.Float64() < s.spawn4Prob {
		return 4
	}
	return 2
}

// Intn exposes the spawner's random source to callers that need extra draws
// in the same deterministic sequence (initial tile count, spawn count).
func (s *Spawner) Intn(n int) int {
	return s.rng.Intn(n)
}

// Float64 draws from the spawner's random source.
func (s *Spawner) Float64() float64 {
	return s.rng.Float64()
}
