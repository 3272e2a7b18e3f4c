package session

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultProfile names the session used when no profile is given.
const DefaultProfile = "local"

// ChangeFunc observes the state of a profile after a command ran.
type ChangeFunc func(profile string, st State)

// Manager hands out one Controller per profile and serialises the commands
// issued against each of them. Controllers are restored from their KV on
// first use.
type Manager struct {
	rules  Rules
	kvFor  func(profile string) KV
	rngFor func(profile string) *rand.Rand
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]*managed
	watchers []ChangeFunc
}

type managed struct {
	mu   sync.Mutex
	ctrl *Controller
}

// NewManager creates a manager. kvFor returns the store for a profile; nil
// keeps every profile in memory.
func NewManager(rules Rules, kvFor func(profile string) KV, logger *log.Logger) *Manager {
	if kvFor == nil {
		kvFor = func(string) KV { return NewMemoryKV() }
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		rules:    rules,
		kvFor:    kvFor,
		logger:   logger,
		sessions: make(map[string]*managed),
	}
}

// SetRandSource overrides how controllers get their random source.
// Must be called before the first command.
func (m *Manager) SetRandSource(fn func(profile string) *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rngFor = fn
}

// OnChange registers an observer called after every Do.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, fn)
}

// Do runs fn against the profile's controller while holding its lock, then
// notifies observers with the resulting state.
func (m *Manager) Do(profile string, fn func(c *Controller) error) (State, error) {
	profile = normalize(profile)
	st, err := m.run(profile, fn)

	m.mu.Lock()
	watchers := append([]ChangeFunc(nil), m.watchers...)
	m.mu.Unlock()
	for _, w := range watchers {
		w(profile, st)
	}
	return st, err
}

// State returns the profile's current position without notifying observers.
func (m *Manager) State(profile string) State {
	st, _ := m.run(normalize(profile), nil)
	return st
}

// Profiles lists the profiles with a live controller.
func (m *Manager) Profiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) run(profile string, fn func(c *Controller) error) (State, error) {
	s := m.session(profile)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		m.mu.Lock()
		rngFor := m.rngFor
		m.mu.Unlock()

		var rng *rand.Rand
		if rngFor != nil {
			rng = rngFor(profile)
		}
		s.ctrl = NewController(m.rules, m.kvFor(profile), rng, m.logger.With("profile", profile))
		if s.ctrl.Restore() {
			m.logger.Debug("resumed saved game", "profile", profile)
		}
	}

	var err error
	if fn != nil {
		err = fn(s.ctrl)
	}
	return s.ctrl.State(), err
}

func (m *Manager) session(profile string) *managed {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[profile]
	if !ok {
		s = &managed{}
		m.sessions[profile] = s
	}
	return s
}

func normalize(profile string) string {
	if profile == "" {
		return DefaultProfile
	}
	return profile
}
