package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
)

// GenerateAPIKey mints a new opaque key. The full key is
// "nb_live_" + 32 lowercase hex characters (40 characters total) and is the
// only place the plaintext ever exists; callers persist keyHash and the
// display prefix, never the key itself.
func GenerateAPIKey() (fullKey string, keyHash string, prefix string, err error) {
	secret := make([]byte, apikey.KeySecretHexLen/2)
	if _, err := rand.Read(secret); err != nil {
		return "", "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	fullKey = apikey.KeyLiteralPrefix + hex.EncodeToString(secret)
	keyHash = HashAPIKey(fullKey)
	prefix = fullKey[:apikey.KeyDisplayLen]

	return fullKey, keyHash, prefix, nil
}

// HashAPIKey returns the hex SHA-256 digest of the full key. The same digest
// is used at issuance and at authentication so the plaintext is never stored
// or compared directly.
func HashAPIKey(fullKey string) string {
	hashBytes := sha256.Sum256([]byte(fullKey))
	return hex.EncodeToString(hashBytes[:])
}

// ValidKeyFormat reports whether s looks like an issued key: the literal
// prefix followed by exactly 32 lowercase hex characters. It is cheap and
// runs before any database access.
func ValidKeyFormat(s string) bool {
	if len(s) != apikey.KeyTotalLen {
		return false
	}
	if s[:len(apikey.KeyLiteralPrefix)] != apikey.KeyLiteralPrefix {
		return false
	}
	for i := len(apikey.KeyLiteralPrefix); i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
