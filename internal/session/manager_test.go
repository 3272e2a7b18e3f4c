package session

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/vovakirdan/t2048/internal/engine"
)

func newTestManager() *Manager {
	m := NewManager(DefaultRules(), nil, quietLogger())
	m.SetRandSource(func(string) *rand.Rand { return rand.New(rand.NewSource(1)) })
	return m
}

func TestManagerLazyRestore(t *testing.T) {
	stores := map[string]*MemoryKV{"alice": NewMemoryKV()}
	saved := State{Grid: engine.Grid{{2, 2, 0, 0}}, Score: 40}
	data, _ := saved.MarshalJSON()
	stores["alice"].Put(StateSlot, data)

	m := NewManager(DefaultRules(), func(profile string) KV {
		if kv, ok := stores[profile]; ok {
			return kv
		}
		return NewMemoryKV()
	}, quietLogger())

	if st := m.State("alice"); st != saved {
		t.Errorf("State(alice) = %+v, want %+v", st, saved)
	}
	if st := m.State("bob"); st.Score != 0 || engine.TileCount(st.Grid) < 2 {
		t.Errorf("State(bob) should be a fresh game, got %+v", st)
	}
}

func TestManagerIsolatesProfiles(t *testing.T) {
	m := newTestManager()

	_, err := m.Do("alice", func(c *Controller) error {
		c.state = State{Grid: engine.Grid{{2, 2, 0, 0}}}
		c.Move(engine.Left)
		return nil
	})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}

	if got := m.State("alice").Score; got != 4 {
		t.Errorf("alice score = %d, want 4", got)
	}
	if got := m.State("bob").Score; got != 0 {
		t.Errorf("bob score = %d, want 0", got)
	}

	profiles := m.Profiles()
	if len(profiles) != 2 || profiles[0] != "alice" || profiles[1] != "bob" {
		t.Errorf("Profiles() = %v", profiles)
	}
}

func TestManagerDefaultProfile(t *testing.T) {
	m := newTestManager()
	m.Do("", func(c *Controller) error { return nil })

	profiles := m.Profiles()
	if len(profiles) != 1 || profiles[0] != DefaultProfile {
		t.Errorf("Profiles() = %v, want [%s]", profiles, DefaultProfile)
	}
}

func TestManagerNotifiesObservers(t *testing.T) {
	m := newTestManager()

	var got []string
	m.OnChange(func(profile string, st State) {
		got = append(got, profile)
	})

	m.Do("alice", func(c *Controller) error {
		c.NewGame()
		return nil
	})
	m.State("alice")

	if len(got) != 1 || got[0] != "alice" {
		t.Errorf("observer calls = %v, want [alice]", got)
	}
}

func TestManagerSerialisesCommands(t *testing.T) {
	m := newTestManager()
	m.Do("shared", func(c *Controller) error {
		c.state = State{}
		return nil
	})

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				m.Do("shared", func(c *Controller) error {
					c.state.Score++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	if got := m.State("shared").Score; got != workers*perWorker {
		t.Errorf("Score = %d, want %d", got, workers*perWorker)
	}
}
