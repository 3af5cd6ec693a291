package memstorage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/ierr"
)

// APIKeyRepository is an in-memory apikey.Repository used by tests. It
// mirrors the postgres implementation's contract, including the uniqueness
// constraint on key_hash and the indistinguishable not-found/not-owned
// revoke outcome.
type APIKeyRepository struct {
	mu     sync.RWMutex
	keys   map[uuid.UUID]*apikey.APIKey
	byHash map[string]uuid.UUID
}

func NewAPIKeyRepository() *APIKeyRepository {
	return &APIKeyRepository{
		keys:   make(map[uuid.UUID]*apikey.APIKey),
		byHash: make(map[string]uuid.UUID),
	}
}

var _ apikey.Repository = (*APIKeyRepository)(nil)

func (r *APIKeyRepository) Create(_ context.Context, key *apikey.APIKey) (*apikey.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHash[key.KeyHash]; exists {
		return nil, ierr.ErrConflict
	}

	now := time.Now().UTC()
	created := *key
	created.ID = uuid.New()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.keys[created.ID] = &created
	r.byHash[created.KeyHash] = created.ID

	out := created
	return &out, nil
}

func (r *APIKeyRepository) FindByHash(_ context.Context, keyHash string) (*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHash[keyHash]
	if !ok {
		return nil, ierr.ErrAPIKeyNotFound
	}
	out := *r.keys[id]
	return &out, nil
}

func (r *APIKeyRepository) FindByUser(_ context.Context, userID uuid.UUID) ([]*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]*apikey.APIKey, 0)
	for _, key := range r.keys {
		if key.UserID == userID {
			out := *key
			keys = append(keys, &out)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (r *APIKeyRepository) Revoke(_ context.Context, keyID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[keyID]
	if !ok || key.UserID != userID {
		return false, nil
	}

	key.IsActive = false
	key.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *APIKeyRepository) UpdateLastUsed(_ context.Context, keyID uuid.UUID, lastUsed time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[keyID]
	if !ok {
		return nil
	}
	t := lastUsed
	key.LastUsedAt = &t
	return nil
}

func (r *APIKeyRepository) DisableExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for _, key := range r.keys {
		if key.IsActive && key.ExpiresAt != nil && !key.ExpiresAt.After(now) {
			key.IsActive = false
			key.UpdatedAt = now
			affected++
		}
	}
	return affected, nil
}
