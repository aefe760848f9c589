package repositories

import (
	"context"
	"time"
)

// SessionStore maps opaque session ids to user ids with an expiry.
type SessionStore interface {
	Save(ctx context.Context, id string, userID uint, ttl time.Duration) error
	// Get returns apperrors.ErrNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (uint, error)
	Delete(ctx context.Context, id string) error
}
