// Package sessions keeps one workspace per browser session and reaps the ones
// that go idle.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rmitchellscott/stippler/internal/logging"
	"github.com/rmitchellscott/stippler/internal/orchestrator"
)

// ErrTooManySessions is returned when the manager is at MaxSessions
var ErrTooManySessions = errors.New("too many active sessions")

// Factory builds the orchestrator for a new session
type Factory func(id uuid.UUID) (*orchestrator.Orchestrator, error)

// Session is one browser's workspace
type Session struct {
	ID           uuid.UUID
	Orchestrator *orchestrator.Orchestrator
	CreatedAt    time.Time

	cancel   context.CancelFunc
	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last request for this session
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Options configures a Manager
type Options struct {
	IdleTimeout time.Duration
	// MaxSessions caps live sessions; 0 means no cap
	MaxSessions int
	// OnClose, if set, is called after a session is closed
	OnClose func(id uuid.UUID)
}

// Manager owns all live sessions
type Manager struct {
	ctx     context.Context
	factory Factory
	opts    Options

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a manager. Session loops stop when ctx is cancelled.
func NewManager(ctx context.Context, factory Factory, opts Options) *Manager {
	return &Manager{
		ctx:      ctx,
		factory:  factory,
		opts:     opts,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Get returns the live session with id and marks it as used
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if ok {
		s.touch(time.Now())
	}
	return s, ok
}

// GetOrCreate returns the session with id, starting a fresh one if it does
// not exist. uuid.Nil always creates a session with a new id. Starting a
// session past MaxSessions fails with ErrTooManySessions.
func (m *Manager) GetOrCreate(id uuid.UUID) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != uuid.Nil {
		if s, ok := m.sessions[id]; ok {
			s.touch(time.Now())
			return s, false, nil
		}
	} else {
		id = uuid.New()
	}

	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return nil, false, ErrTooManySessions
	}

	orch, err := m.factory(id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create workspace: %w", err)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	now := time.Now()
	s := &Session{
		ID:           id,
		Orchestrator: orch,
		CreatedAt:    now,
		cancel:       cancel,
		lastSeen:     now,
	}
	m.sessions[id] = s
	go orch.Run(ctx)

	logging.InfoWithComponent(logging.ComponentSessions, "Session started", "session_id", id, "active", len(m.sessions))
	return s, true, nil
}

// Close stops the session's loop and forgets it
func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok {
		m.stop(s)
	}
}

func (m *Manager) stop(s *Session) {
	s.cancel()
	<-s.Orchestrator.Done()
	if m.opts.OnClose != nil {
		m.opts.OnClose(s.ID)
	}
}

// Reap closes sessions idle since before now minus the idle timeout and
// returns how many were closed
func (m *Manager) Reap(now time.Time) int {
	cutoff := now.Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.stop(s)
		logging.InfoWithComponent(logging.ComponentSessions, "Session expired", "session_id", s.ID,
			"age", now.Sub(s.CreatedAt).Round(time.Second))
	}
	if len(idle) > 0 {
		logging.DebugWithComponent(logging.ComponentSessions, "Reaped idle sessions",
			"reaped", len(idle), "active", m.Count())
	}
	return len(idle)
}

// ReapRoutine calls Reap every interval until ctx is done
func (m *Manager) ReapRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Reap(now)
		}
	}
}

// Shutdown closes every session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.stop(s)
	}
	logging.InfoWithComponent(logging.ComponentShutdown, "Sessions closed", "count", len(all))
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
