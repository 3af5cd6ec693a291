package apikey

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, key *APIKey) (*APIKey, error)

	// FindByHash is the hot lookup path for every authenticated request.
	// Returns ierr.ErrAPIKeyNotFound when no key has the given hash.
	FindByHash(ctx context.Context, keyHash string) (*APIKey, error)

	// FindByUser lists a user's keys, newest first.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*APIKey, error)

	// Revoke sets is_active=false on the key only if it exists and belongs
	// to userID. Returns false for both unknown and foreign keys so callers
	// cannot distinguish the two.
	Revoke(ctx context.Context, keyID, userID uuid.UUID) (bool, error)

	// UpdateLastUsed is best-effort; a failure must never fail the
	// authentication path.
	UpdateLastUsed(ctx context.Context, keyID uuid.UUID, lastUsed time.Time) error

	// DisableExpired deactivates keys whose expires_at has passed and
	// returns the number of keys affected.
	DisableExpired(ctx context.Context, now time.Time) (int64, error)
}
