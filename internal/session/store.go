package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/genegpt-qa-server/internal/domain"
)

type entry struct {
	state      *domain.ClinicalState
	lastAccess time.Time
}

// Store holds per-session clinical state with TTL-based expiry, working
// from an in-memory map and writing snapshots through to a Backend.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	backend   Backend
	ttl       time.Duration
	maxScore  int
	decayStep int
	log       *logrus.Logger
	now       func() time.Time
}

// NewStore creates a store over the given backend.
func NewStore(backend Backend, cfg domain.SessionConfig, log *logrus.Logger) *Store {
	return &Store{
		entries:   make(map[string]*entry),
		backend:   backend,
		ttl:       cfg.TTL,
		maxScore:  cfg.MaxScore,
		decayStep: cfg.DecayStep,
		log:       log,
		now:       time.Now,
	}
}

// Get returns a copy of the session's clinical state, creating the
// default state for unseen sessions. Access refreshes the TTL clock.
func (s *Store) Get(ctx context.Context, sessionID string) *domain.ClinicalState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked(ctx)

	e := s.loadLocked(ctx, sessionID)
	e.lastAccess = s.now()
	return copyState(e.state)
}

// Update merges a partial update into the session's state and persists
// the new snapshot.
func (s *Store) Update(ctx context.Context, sessionID string, update domain.StateUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked(ctx)

	e := s.loadLocked(ctx, sessionID)
	Merge(e.state, update, s.maxScore, s.decayStep)
	e.lastAccess = s.now()

	if err := s.backend.Save(ctx, sessionID, e.state, e.lastAccess); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to persist session state")
		return err
	}
	return nil
}

// Delete removes a session entirely.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	return s.backend.Delete(ctx, sessionID)
}

// Close flushes nothing (saves are write-through) and closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// loadLocked returns the live entry for a session, pulling it from the
// backend or creating defaults as needed. Caller holds the lock.
func (s *Store) loadLocked(ctx context.Context, sessionID string) *entry {
	if e, ok := s.entries[sessionID]; ok {
		return e
	}

	state, lastAccess, err := s.backend.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to load session state, starting fresh")
		}
		state = domain.NewClinicalState()
		lastAccess = s.now()
	} else if s.ttl > 0 && s.now().Sub(lastAccess) > s.ttl {
		// Persisted snapshot outlived the TTL.
		if delErr := s.backend.Delete(ctx, sessionID); delErr != nil {
			s.log.WithError(delErr).WithField("session_id", sessionID).Warn("failed to drop expired session")
		}
		state = domain.NewClinicalState()
		lastAccess = s.now()
	}

	e := &entry{state: state, lastAccess: lastAccess}
	s.entries[sessionID] = e
	return e
}

// cleanupExpiredLocked drops sessions idle past the TTL. Caller holds
// the lock.
func (s *Store) cleanupExpiredLocked(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.entries {
		if e.lastAccess.Before(cutoff) {
			delete(s.entries, id)
			if err := s.backend.Delete(ctx, id); err != nil {
				s.log.WithError(err).WithField("session_id", id).Warn("failed to drop expired session")
			}
		}
	}
}

func copyState(state *domain.ClinicalState) *domain.ClinicalState {
	out := *state
	out.TopicsDiscussed = append([]string{}, state.TopicsDiscussed...)
	out.UnresolvedQuestions = append([]string{}, state.UnresolvedQuestions...)
	out.RecentFacts = append([]domain.ScoredItem{}, state.RecentFacts...)
	out.UserConcerns = append([]domain.ScoredItem{}, state.UserConcerns...)
	return &out
}
