package session

import (
	"context"
	"time"

	"github.com/genegpt-qa-server/internal/domain"
)

// Backend persists clinical-state snapshots between process restarts.
// Load returns domain.ErrSessionNotFound for unknown sessions.
type Backend interface {
	Load(ctx context.Context, sessionID string) (*domain.ClinicalState, time.Time, error)
	Save(ctx context.Context, sessionID string, state *domain.ClinicalState, lastAccess time.Time) error
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
