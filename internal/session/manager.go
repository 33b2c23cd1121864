// Package session implements the conversational session layer: sessions
// keyed by opaque id with LRU eviction under capacity pressure, a lazy
// background expiry sweep, bounded per-session history and serialized turn
// processing.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/netscout/internal/observe"
	"github.com/MrWong99/netscout/internal/orchestrator"
	"github.com/MrWong99/netscout/pkg/types"
)

const (
	// defaultMaxSessions is the capacity before LRU eviction kicks in.
	defaultMaxSessions = 10

	// defaultIdleTimeout is the inactivity threshold for the expiry sweep.
	defaultIdleTimeout = time.Hour

	// sweepInterval is the expiry sweep cadence.
	sweepInterval = 5 * time.Minute

	// maxHistoryTurns bounds a session's conversation history.
	maxHistoryTurns = 20

	// keepLeadingSystem is how many leading system turns survive trimming.
	keepLeadingSystem = 2
)

// Session is one conversation's state. Turns within a session are
// serialized by its mutex; different sessions proceed concurrently.
type Session struct {
	// ID is the opaque session identifier.
	ID string

	// CreatedAt is the session creation time.
	CreatedAt time.Time

	// mu serializes turns; held for the whole of ProcessMessage.
	mu      sync.Mutex
	history []types.Message
	orch    *orchestrator.Orchestrator
	metrics *observe.Metrics

	// activityMu guards lastActivity separately so the eviction sweep never
	// blocks behind an in-flight turn.
	activityMu   sync.Mutex
	lastActivity time.Time
}

// LastActivity returns the last time this session processed or was looked
// up.
func (s *Session) LastActivity() time.Time {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	return s.lastActivity
}

// touch refreshes the activity timestamp.
func (s *Session) touch() {
	s.activityMu.Lock()
	s.lastActivity = time.Now()
	s.activityMu.Unlock()
}

// TurnResponse is the structured outcome of ProcessMessage.
type TurnResponse struct {
	Content   string
	Thinking  string
	ToolsUsed []orchestrator.ToolUse
}

// ProcessMessage runs one conversation turn: append the user turn, run the
// orchestrator under the timeout, append the assistant turn, and enforce
// the history bound. Turns on the same session are serialized.
func (s *Session) ProcessMessage(ctx context.Context, prompt string, includeThinking bool, timeout time.Duration) (*TurnResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	turnCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := s.orch.ProcessTurn(turnCtx, s.history, prompt)
	if err != nil {
		s.metrics.RecordSessionTurn(ctx, "error")
		return nil, err
	}

	s.history = trimHistory(resp.History)
	s.touch()
	s.metrics.RecordSessionTurn(ctx, "ok")

	out := &TurnResponse{
		Content:   resp.Content,
		ToolsUsed: resp.ToolsUsed,
	}
	if includeThinking {
		out.Thinking = resp.Thinking
	}
	return out, nil
}

// History returns a copy of the bounded conversation history.
func (s *Session) History() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Message(nil), s.history...)
}

// trimHistory enforces the history bound: when the conversation exceeds
// maxHistoryTurns, the leading system prompts are kept and the most recent
// turns fill the remainder.
func trimHistory(history []types.Message) []types.Message {
	if len(history) <= maxHistoryTurns {
		return history
	}

	var lead []types.Message
	for _, m := range history {
		if m.Role != "system" || len(lead) == keepLeadingSystem {
			break
		}
		lead = append(lead, m)
	}

	keep := maxHistoryTurns - len(lead)
	tail := history[len(history)-keep:]
	return append(append([]types.Message(nil), lead...), tail...)
}

// Manager owns the session table. All methods are safe for concurrent use;
// the expiry sweep starts lazily with the first session and stops with
// [Manager.Shutdown].
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	maxSessions int
	idleTimeout time.Duration
	orch        *orchestrator.Orchestrator
	metrics     *observe.Metrics

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

// ManagerConfig tunes a [Manager].
type ManagerConfig struct {
	// Orchestrator drives each session's turns. Required.
	Orchestrator *orchestrator.Orchestrator

	// MaxSessions caps live sessions (default 10).
	MaxSessions int

	// IdleTimeout is the sweep eviction threshold (default 1h).
	IdleTimeout time.Duration

	// Metrics records session counts; nil disables recording.
	Metrics *observe.Metrics
}

// NewManager creates a Manager from cfg.
func NewManager(cfg ManagerConfig) *Manager {
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		idleTimeout: idle,
		orch:        cfg.Orchestrator,
		metrics:     cfg.Metrics,
	}
}

// GetOrCreate returns the session with the given id, creating a new one
// when the id is empty or unknown. Both paths refresh last activity.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureSweepLocked()

	if id != "" {
		if s, ok := m.sessions[id]; ok {
			s.touch()
			return s
		}
	}
	return m.createLocked()
}

// Create always creates a fresh session, evicting the least recently active
// one when at capacity.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureSweepLocked()
	return m.createLocked()
}

// createLocked creates a session with m.mu held.
func (m *Manager) createLocked() *Session {
	if len(m.sessions) >= m.maxSessions {
		m.evictOldestLocked()
	}

	now := time.Now()
	s := &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		lastActivity: now,
		orch:         m.orch,
		metrics:      m.metrics,
	}
	m.sessions[s.ID] = s
	m.metrics.SessionOpened(context.Background())
	slog.Info("session created", "session_id", s.ID, "live_sessions", len(m.sessions))
	return s
}

// Get returns an existing session, refreshing its activity.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Count returns the live session count.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// evictOldestLocked removes the session with the oldest activity.
func (m *Manager) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, s := range m.sessions {
		if t := s.LastActivity(); oldestID == "" || t.Before(oldest) {
			oldestID = id
			oldest = t
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		m.metrics.SessionClosed(context.Background())
		slog.Info("session evicted (capacity)", "session_id", oldestID)
	}
}

// ensureSweepLocked starts the expiry sweep on first use.
func (m *Manager) ensureSweepLocked() {
	if m.sweepCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.sweepCancel = cancel
	done := make(chan struct{})
	m.sweepDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweepExpired()
			}
		}
	}()
}

// sweepExpired evicts sessions idle past the timeout.
func (m *Manager) sweepExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.idleTimeout)
	for id, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			delete(m.sessions, id)
			m.metrics.SessionClosed(context.Background())
			slog.Info("session expired", "session_id", id)
		}
	}
}

// Shutdown stops the sweep and drops all sessions.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	cancel := m.sweepCancel
	done := m.sweepDone
	m.sweepCancel = nil
	m.sweepDone = nil
	for id := range m.sessions {
		delete(m.sessions, id)
		m.metrics.SessionClosed(context.Background())
	}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
