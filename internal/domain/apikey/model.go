package apikey

import (
	"time"

	"github.com/google/uuid"
)

type APIKey struct {
	ID         uuid.UUID  `db:"id"`
	UserID     uuid.UUID  `db:"user_id"`
	KeyHash    string     `db:"key_hash"`
	Name       string     `db:"name"`
	Prefix     string     `db:"prefix"`
	IsActive   bool       `db:"is_active"`
	LastUsedAt *time.Time `db:"last_used_at"`
	ExpiresAt  *time.Time `db:"expires_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

const (
	// KeyLiteralPrefix is the fixed leading part of every issued key. The
	// first KeyDisplayLen characters of the full key are stored as the
	// display prefix.
	KeyLiteralPrefix = "nb_live_"
	KeySecretHexLen  = 32
	KeyTotalLen      = 40
	KeyDisplayLen    = 8

	DefaultKeyName = "Default Key"
)
