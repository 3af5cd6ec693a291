package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/config"
	"github.com/carboni123/nanobanana/internal/ierr"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:predict"

// GeminiProvider generates images through the Google Generative Language
// REST API (Imagen models).
type GeminiProvider struct {
	apiKey string
	model  string
	client *http.Client
	logger *zap.Logger
}

func NewGeminiProvider(cfg *config.GenerationConfig, logger *zap.Logger) *GeminiProvider {
	return &GeminiProvider{
		apiKey: cfg.GoogleAPIKey,
		model:  cfg.Model,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger.Named("GeminiProvider"),
	}
}

var _ Provider = (*GeminiProvider)(nil)

type geminiPredictRequest struct {
	Instances  []geminiInstance `json:"instances"`
	Parameters geminiParameters `json:"parameters"`
}

type geminiInstance struct {
	Prompt string `json:"prompt"`
}

type geminiParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type geminiPredictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt, style string) ([]byte, error) {
	if p.apiKey == "" {
		return nil, ierr.ErrGenerationNotConfigured
	}

	fullPrompt := prompt
	if style == "artistic" {
		fullPrompt = "artistic style: " + prompt
	}

	body, err := json.Marshal(geminiPredictRequest{
		Instances:  []geminiInstance{{Prompt: fullPrompt}},
		Parameters: geminiParameters{SampleCount: 1, AspectRatio: "1:1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	url := fmt.Sprintf(geminiEndpoint, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("Generation API call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ierr.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger.Error("Generation API returned non-200 status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, fmt.Errorf("%w: upstream status %d", ierr.ErrGenerationFailed, resp.StatusCode)
	}

	var predictResp geminiPredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&predictResp); err != nil {
		return nil, fmt.Errorf("%w: malformed upstream response: %v", ierr.ErrGenerationFailed, err)
	}

	if len(predictResp.Predictions) == 0 || predictResp.Predictions[0].BytesBase64Encoded == "" {
		return nil, fmt.Errorf("%w: no images returned", ierr.ErrGenerationFailed)
	}

	imageBytes, err := base64.StdEncoding.DecodeString(predictResp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable image payload: %v", ierr.ErrGenerationFailed, err)
	}

	return imageBytes, nil
}
