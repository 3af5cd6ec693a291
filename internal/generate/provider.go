package generate

import "context"

// Provider produces raw image bytes for a prompt. Implementations call a
// third-party model; the rest of the service only depends on this contract.
type Provider interface {
	Generate(ctx context.Context, prompt, style string) ([]byte, error)
}
