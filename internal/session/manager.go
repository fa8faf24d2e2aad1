// Package session keeps one yard per dashboard page load. Each session owns a
// seeded engine, its interaction surface and a journal of move attempts, and
// serialises every call into them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yard-planner/backend/internal/interaction"
	"github.com/yard-planner/backend/internal/models"
	"github.com/yard-planner/backend/internal/yard"
	"go.uber.org/zap"
)

// DefaultMaxSessions limits concurrent sessions to prevent memory exhaustion
const DefaultMaxSessions = 100

// SessionKeepAliveWindow is how long a recently used session is protected from cleanup
const SessionKeepAliveWindow = 5 * time.Minute

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Seed is the fixture a new session starts from.
type Seed struct {
	Name    string
	Records []models.ContainerRecord
}

// Options configures a Manager.
type Options struct {
	Layout        yard.Layout
	ToastDuration time.Duration
	MaxSessions   int
	Logger        *zap.Logger
	Now           func() time.Time
}

// Info is the public summary of a session.
type Info struct {
	ID           string          `json:"id"`
	SeedName     string          `json:"seedName,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastAccessed time.Time       `json:"lastAccessed"`
	Seed         yard.SeedReport `json:"seed"`
	Moves        int             `json:"moves"`
}

// YardSession is one live yard. Its methods are only safe inside Manager.With,
// and fn must not call back into the Manager for the same session.
type YardSession struct {
	id        string
	seedName  string
	createdAt time.Time
	report    yard.SeedReport

	mu      sync.Mutex
	engine  *yard.Engine
	surface *interaction.Surface
	journal []models.MoveRecord

	// guarded by Manager.mu
	lastAccessed time.Time
}

// ID returns the session id.
func (s *YardSession) ID() string { return s.id }

// Engine returns the session's placement engine.
func (s *YardSession) Engine() *yard.Engine { return s.engine }

// Surface returns the session's drag-and-drop surface.
func (s *YardSession) Surface() *interaction.Surface { return s.surface }

// Journal returns a copy of the recorded move attempts, oldest first.
func (s *YardSession) Journal() []models.MoveRecord {
	return append([]models.MoveRecord(nil), s.journal...)
}

func (s *YardSession) record(at time.Time, intent interaction.Intent, result interaction.DropResult) {
	to, _ := intent.To.Holder()
	rec := models.MoveRecord{
		At:      at,
		UnitID:  intent.UnitID,
		From:    intent.From,
		To:      to,
		Outcome: models.MoveAccepted,
	}
	if !result.Accepted {
		rec.Outcome = models.MoveRejected
		rec.Reason = string(result.Reason)
		rec.Message = result.Message
	}
	s.journal = append(s.journal, rec)
}

// Manager handles active yard sessions.
type Manager struct {
	sessions map[string]*YardSession
	mu       sync.RWMutex

	layout      yard.Layout
	toastFor    time.Duration
	maxSessions int
	log         *zap.Logger
	now         func() time.Time
}

// NewManager creates a session manager. The layout is validated once here so
// Create only fails on seed problems.
func NewManager(opts Options) (*Manager, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = interaction.DefaultToastDuration
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		sessions:    make(map[string]*YardSession),
		layout:      opts.Layout,
		toastFor:    opts.ToastDuration,
		maxSessions: opts.MaxSessions,
		log:         opts.Logger,
		now:         opts.Now,
	}, nil
}

// Layout returns the yard layout new sessions are built with.
func (m *Manager) Layout() yard.Layout { return m.layout }

// Create builds a fresh yard from seed and registers it under a new id.
func (m *Manager) Create(seed Seed) (Info, error) {
	engine, err := yard.NewEngine(m.layout)
	if err != nil {
		return Info{}, fmt.Errorf("creating engine: %w", err)
	}
	report, err := engine.Seed(seed.Records)
	if err != nil {
		return Info{}, fmt.Errorf("seeding yard: %w", err)
	}

	now := m.now()
	s := &YardSession{
		id:           uuid.New().String(),
		seedName:     seed.Name,
		createdAt:    now,
		report:       report,
		engine:       engine,
		lastAccessed: now,
	}
	s.surface = interaction.NewSurface(engine,
		interaction.WithToastDuration(m.toastFor),
		interaction.WithClock(m.now),
		interaction.WithMoveObserver(func(intent interaction.Intent, result interaction.DropResult) {
			s.record(m.now(), intent, result)
			if !result.Accepted {
				m.log.Debug("move rejected",
					zap.String("session", shortID(s.id)),
					zap.String("unit", intent.UnitID),
					zap.String("reason", string(result.Reason)))
			}
		}),
	)

	m.mu.Lock()
	m.evictLocked()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.log.Info("session created",
		zap.String("session", shortID(s.id)),
		zap.String("seed", seed.Name),
		zap.Int("registered", report.Registered),
		zap.Int("placed", report.Placed),
		zap.Int("unassigned", report.Unassigned),
		zap.Int("issues", len(report.Issues)))

	return m.info(s), nil
}

// Get returns the summary of a session.
func (m *Manager) Get(id string) (Info, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return Info{}, false
	}
	return m.info(s), true
}

// List returns all sessions, most recently used first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	all := make([]*YardSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	out := make([]Info, 0, len(all))
	for _, s := range all {
		out = append(out, m.info(s))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAccessed.After(out[j].LastAccessed)
	})
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Touch updates the LastAccessed timestamp for a session.
// This should be called whenever a session is actively being used
// to prevent it from being cleaned up.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.lastAccessed = m.now()
	return true
}

// Delete drops a session.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.log.Info("session deleted", zap.String("session", shortID(id)))
	return true
}

// With runs fn with exclusive access to the session's engine and surface.
// Calls on the same session are serialised; different sessions run in parallel.
func (m *Manager) With(id string, fn func(*YardSession) error) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		s.lastAccessed = m.now()
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

// Journal returns the move journal of a session.
func (m *Manager) Journal(id string) ([]models.MoveRecord, error) {
	var out []models.MoveRecord
	err := m.With(id, func(s *YardSession) error {
		out = s.Journal()
		return nil
	})
	return out, err
}

// CleanupOldSessions removes sessions idle for longer than maxAge, but keeps
// sessions that have been accessed within SessionKeepAliveWindow. It returns
// the number of sessions removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	removed := 0
	for id, s := range m.sessions {
		if s.lastAccessed.After(keepAliveCutoff) {
			continue
		}
		if s.lastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
			m.log.Info("cleaned up aged session",
				zap.String("session", shortID(id)),
				zap.Duration("idle", now.Sub(s.lastAccessed).Round(time.Second)))
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval, maxAge time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.CleanupOldSessions(maxAge); n > 0 {
				m.log.Debug("session sweep", zap.Int("removed", n), zap.Int("remaining", m.Len()))
			}
		}
	}
}

// evictLocked removes least recently used sessions until there is room for
// one more. m.mu must be held.
func (m *Manager) evictLocked() {
	for len(m.sessions) >= m.maxSessions {
		var oldestID string
		var oldest time.Time
		for id, s := range m.sessions {
			if oldestID == "" || s.lastAccessed.Before(oldest) {
				oldestID, oldest = id, s.lastAccessed
			}
		}
		delete(m.sessions, oldestID)
		m.log.Info("evicted least recently used session", zap.String("session", shortID(oldestID)))
	}
}

func (m *Manager) info(s *YardSession) Info {
	m.mu.RLock()
	last := s.lastAccessed
	m.mu.RUnlock()

	s.mu.Lock()
	moves := len(s.journal)
	s.mu.Unlock()

	return Info{
		ID:           s.id,
		SeedName:     s.seedName,
		CreatedAt:    s.createdAt,
		LastAccessed: last,
		Seed:         s.report,
		Moves:        moves,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
