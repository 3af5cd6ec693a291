package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
)

func TestGenerateAPIKey(t *testing.T) {
	fullKey, keyHash, prefix, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.Len(t, fullKey, apikey.KeyTotalLen)
	assert.Equal(t, apikey.KeyLiteralPrefix, fullKey[:len(apikey.KeyLiteralPrefix)])
	assert.Equal(t, fullKey[:apikey.KeyDisplayLen], prefix)
	assert.True(t, ValidKeyFormat(fullKey))

	assert.Equal(t, HashAPIKey(fullKey), keyHash)
	assert.Len(t, keyHash, 64)
	assert.NotContains(t, keyHash, fullKey)
}

func TestGenerateAPIKey_Unique(t *testing.T) {
	seenKeys := make(map[string]struct{})
	seenHashes := make(map[string]struct{})

	for i := 0; i < 1000; i++ {
		fullKey, keyHash, _, err := GenerateAPIKey()
		require.NoError(t, err)

		_, dupKey := seenKeys[fullKey]
		_, dupHash := seenHashes[keyHash]
		require.False(t, dupKey, "duplicate key generated")
		require.False(t, dupHash, "duplicate hash generated")

		seenKeys[fullKey] = struct{}{}
		seenHashes[keyHash] = struct{}{}
	}
}

func TestHashAPIKey_Deterministic(t *testing.T) {
	const key = "nb_live_0123456789abcdef0123456789abcdef"
	assert.Equal(t, HashAPIKey(key), HashAPIKey(key))
	assert.NotEqual(t, HashAPIKey(key), HashAPIKey(key+"x"))
}

func TestValidKeyFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid", "nb_live_0123456789abcdef0123456789abcdef", true},
		{"empty", "", false},
		{"too short", "nb_live_0123456789abcdef", false},
		{"too long", "nb_live_0123456789abcdef0123456789abcdef00", false},
		{"wrong prefix", "nb_test_0123456789abcdef0123456789abcdef", false},
		{"uppercase hex", "nb_live_0123456789ABCDEF0123456789abcdef", false},
		{"non-hex suffix", "nb_live_0123456789abcdxf0123456789abcdeg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidKeyFormat(tt.key))
		})
	}
}
