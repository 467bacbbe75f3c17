// Package linking implements the Telegram account linking flow: an
// in-memory store of in-progress attempts and the state machine that
// drives the code-request/verify protocol against the provider.
package linking

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blastline/panel-server-go/internal/telegram"
)

// Attempt is one in-progress linking flow. It owns its provider
// connection exclusively; whoever removes the attempt from the store
// becomes responsible for closing the connection.
type Attempt struct {
	Conn     telegram.Conn
	Phone    string
	CodeHash string
}

type entry struct {
	attempt *Attempt
	touched time.Time
}

// AttemptStore holds at most one Attempt per user ID. It is safe for
// concurrent use from multiple in-flight requests. Attempts idle longer
// than the TTL are swept and their connections released, so abandoned
// flows don't pin provider connections forever.
type AttemptStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	done    chan struct{}
}

func NewAttemptStore(ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
}

// Put inserts or replaces the attempt for userID. A replaced attempt's
// connection is closed; last write wins.
func (s *AttemptStore) Put(userID string, attempt *Attempt) {
	s.mu.Lock()
	prev := s.entries[userID]
	s.entries[userID] = &entry{attempt: attempt, touched: time.Now()}
	s.mu.Unlock()

	if prev != nil {
		closeConn(userID, prev.attempt)
	}
}

// Get returns the attempt for userID, or nil. A hit refreshes the idle
// timer so an active verify loop isn't swept out from under the user.
func (s *AttemptStore) Get(userID string) *Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return nil
	}
	e.touched = time.Now()
	return e.attempt
}

// Remove deletes the entry without closing its connection; the caller
// owns the connection at that point (the success path closes it after
// persisting).
func (s *AttemptStore) Remove(userID string) {
	s.mu.Lock()
	delete(s.entries, userID)
	s.mu.Unlock()
}

// Abandon deletes the entry and closes its connection. Used on explicit
// cancellation and when a user is suspended mid-flow.
func (s *AttemptStore) Abandon(userID string) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	delete(s.entries, userID)
	s.mu.Unlock()

	if ok {
		closeConn(userID, e.attempt)
	}
}

func (s *AttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes attempts idle longer than the TTL and closes their
// connections. Returns the number of attempts evicted.
func (s *AttemptStore) Sweep() int {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var stale []*entry
	for userID, e := range s.entries {
		if e.touched.Before(cutoff) {
			stale = append(stale, e)
			delete(s.entries, userID)
		}
	}
	s.mu.Unlock()

	for _, e := range stale {
		closeConn("", e.attempt)
	}

	return len(stale)
}

// Start runs the sweep loop until Stop is called.
func (s *AttemptStore) Start(interval time.Duration) {
	go s.run(interval)
	log.Info().Dur("ttl", s.ttl).Dur("interval", interval).Msg("link attempt sweeper started")
}

func (s *AttemptStore) Stop() {
	close(s.done)

	// Release whatever is still pending so provider connections don't
	// outlive the process's graceful shutdown.
	s.mu.Lock()
	remaining := make([]*entry, 0, len(s.entries))
	for userID, e := range s.entries {
		remaining = append(remaining, e)
		delete(s.entries, userID)
	}
	s.mu.Unlock()

	for _, e := range remaining {
		closeConn("", e.attempt)
	}

	log.Info().Msg("link attempt sweeper stopped")
}

func (s *AttemptStore) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if count := s.Sweep(); count > 0 {
				log.Info().Int("count", count).Msg("swept stale link attempts")
			}
		}
	}
}

func closeConn(userID string, attempt *Attempt) {
	if err := attempt.Conn.Close(); err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("failed to close provider connection")
	}
}
