// Package session owns a single 2048 game: the live grid, score, game-over
// flag and the one-slot undo buffer. It persists both through a small
// key-value interface so any store can back it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/vovakirdan/t2048/internal/engine"
)

// Persisted slot names.
const (
	StateSlot = "game2048_state"
	UndoSlot  = "game2048_undo"
)

// ErrNoSavedState is returned when a slot is empty or holds a record that
// cannot be used as a game state.
var ErrNoSavedState = errors.New("session: no saved state")

// KV is the persistence surface the controller writes through.
type KV interface {
	Put(key string, value []byte) error
	Get(key string) ([]byte, error)
}

// State is a complete game position.
type State struct {
	Grid     engine.Grid
	Score    int
	GameOver bool
}

// record is the persisted shape of a State.
type record struct {
	Grid     [][]int `json:"grid"`
	Score    int     `json:"score"`
	GameOver bool    `json:"gameOver"`
}

// MarshalJSON encodes the grid as nested rows.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(record{
		Grid:     s.Grid.Rows(),
		Score:    s.Score,
		GameOver: s.GameOver,
	})
}

// UnmarshalJSON decodes and validates a persisted state.
func (s *State) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.Grid == nil {
		return errors.New("session: state has no grid")
	}
	g, ok := engine.FromRows(rec.Grid)
	if !ok {
		return fmt.Errorf("session: grid is not a %dx%d board of tile values", engine.Size, engine.Size)
	}
	if rec.Score < 0 {
		return fmt.Errorf("session: negative score %d", rec.Score)
	}
	*s = State{Grid: g, Score: rec.Score, GameOver: rec.GameOver}
	return nil
}

// LoadState reads and decodes the state stored under key.
// Any failure is reported as ErrNoSavedState.
func LoadState(kv KV, key string) (State, error) {
	data, err := kv.Get(key)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrNoSavedState, err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrNoSavedState, err)
	}
	return st, nil
}

// MemoryKV is an in-process KV. The zero value is not usable; call NewMemoryKV.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Put stores a copy of value.
func (m *MemoryKV) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Get returns the value stored under key.
func (m *MemoryKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("session: key %q not set", key)
	}
	return append([]byte(nil), v...), nil
}
