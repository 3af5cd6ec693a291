package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateKeyRequest struct {
	Name      string     `json:"name" binding:"omitempty,max=100"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateKeyResponse carries the full key. It is returned exactly once, at
// creation; no other read path ever includes the plaintext.
type CreateKeyResponse struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	CreatedAt time.Time `json:"created_at"`
}

type KeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type KeyListResponse struct {
	Keys []KeyResponse `json:"keys"`
}
