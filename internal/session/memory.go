package session

import (
	"context"
	"sync"
	"time"

	"github.com/genegpt-qa-server/internal/domain"
)

type memorySnapshot struct {
	state      *domain.ClinicalState
	lastAccess time.Time
}

// MemoryBackend keeps snapshots in process memory. Used in tests and in
// setups that don't need state to survive a restart.
type MemoryBackend struct {
	mu        sync.RWMutex
	snapshots map[string]memorySnapshot
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{snapshots: make(map[string]memorySnapshot)}
}

// Load implements Backend
func (b *MemoryBackend) Load(_ context.Context, sessionID string) (*domain.ClinicalState, time.Time, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap, ok := b.snapshots[sessionID]
	if !ok {
		return nil, time.Time{}, domain.ErrSessionNotFound
	}
	return copyState(snap.state), snap.lastAccess, nil
}

// Save implements Backend
func (b *MemoryBackend) Save(_ context.Context, sessionID string, state *domain.ClinicalState, lastAccess time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snapshots[sessionID] = memorySnapshot{state: copyState(state), lastAccess: lastAccess}
	return nil
}

// Delete implements Backend
func (b *MemoryBackend) Delete(_ context.Context, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.snapshots, sessionID)
	return nil
}

// Close implements Backend
func (b *MemoryBackend) Close() error {
	return nil
}
