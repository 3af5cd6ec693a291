package generate

import (
	"context"
	"encoding/base64"
)

// Uploader stores a generated image and returns a public URL. A nil or
// failing uploader is not an error: callers fall back to a base64 data URL
// so a missing object store never blocks generation.
type Uploader interface {
	Upload(ctx context.Context, imageBytes []byte, filename string) (string, error)
}

// Base64URL renders image bytes as an inline PNG data URL, the fallback
// when no uploader is configured or the upload fails.
func Base64URL(imageBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageBytes)
}
