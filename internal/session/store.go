// Package session implements per-session conversation memory for the
// assistant. Sessions are created lazily, bounded by LRU eviction and an
// idle TTL, and destroyed only by an explicit clear or eviction.
package session

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/szaher/cxassist/internal/llm"
)

// Session owns one conversation's ordered history. The embedded mutex
// serializes whole exchanges on the same session: the agent loop holds it
// from history snapshot to final append so concurrent requests for one
// session cannot interleave their turns.
type Session struct {
	sync.Mutex

	id      string
	history []llm.Message

	// guarded by the owning store's mutex
	lastActive time.Time
	elem       *list.Element
}

// ID returns the caller-supplied session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the history. Callers must hold the session lock.
func (s *Session) Snapshot() []llm.Message {
	cp := make([]llm.Message, len(s.history))
	copy(cp, s.history)
	return cp
}

// Append commits an exchange's turns in one step. Callers must hold the
// session lock; a partially appended exchange is never observable.
func (s *Session) Append(msgs ...llm.Message) {
	s.history = append(s.history, msgs...)
}

// Len returns the number of turns. Callers must hold the session lock.
func (s *Session) Len() int { return len(s.history) }

// Store maps session identifiers to conversation history. It is safe for
// concurrent use; lookups for different sessions never block each other
// beyond the brief checkout.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	lru         *list.List // front = most recently used, values are *Session
	maxSessions int
	ttl         time.Duration
	logger      *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithMaxSessions bounds the number of live sessions; the least recently
// used session is evicted when the bound is exceeded. 0 means unbounded.
func WithMaxSessions(n int) Option {
	return func(s *Store) { s.maxSessions = n }
}

// WithTTL sets the idle timeout after which Sweep evicts a session.
// 0 means no expiry.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithLogger sets the logger used by the sweeper.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		lru:      list.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the session for id, creating it on first use.
// Repeated calls with the same id return the same handle, so appends are
// visible across requests.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{id: id}
		sess.elem = s.lru.PushFront(sess)
		s.sessions[id] = sess
		if s.maxSessions > 0 && len(s.sessions) > s.maxSessions {
			s.evictOldestLocked()
		}
	} else {
		s.lru.MoveToFront(sess.elem)
	}
	sess.lastActive = time.Now()
	return sess
}

// Clear removes a session. It reports whether a session existed; clearing
// an unknown id is not an error.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	s.lru.Remove(sess.elem)
	delete(s.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the TTL and returns how many were
// removed. A no-op when no TTL is configured.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	// Walk from the back: least recently used first.
	for e := s.lru.Back(); e != nil; {
		sess := e.Value.(*Session)
		if sess.lastActive.After(cutoff) {
			break
		}
		prev := e.Prev()
		s.lru.Remove(e)
		delete(s.sessions, sess.id)
		removed++
		e = prev
	}
	return removed
}

// StartSweeper runs Sweep on the given cron schedule (e.g. "@every 5m").
// It returns a stop function.
func (s *Store) StartSweeper(schedule string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Info("swept expired sessions", "evicted", n, "live", s.Len())
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return func() { c.Stop() }, nil
}

// evictOldestLocked drops the least recently used session. Caller holds s.mu.
func (s *Store) evictOldestLocked() {
	e := s.lru.Back()
	if e == nil {
		return
	}
	sess := e.Value.(*Session)
	s.lru.Remove(e)
	delete(s.sessions, sess.id)
	s.logger.Info("evicted least recently used session", "session_id", sess.id)
}
