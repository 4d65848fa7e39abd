// Package scaledown provides a context compression adapter using the
// ScaleDown API.
//
// Compression is strictly best-effort: every provider failure degrades
// to returning the input unchanged, so the query pipeline never fails
// because of compression.
package scaledown

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/logger"
)

// Ensure CompressionProvider implements the interface.
var _ driven.CompressionProvider = (*CompressionProvider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.scaledown.xyz/compress/raw/"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the ScaleDown compression provider.
type Config struct {
	// APIKey is the ScaleDown API key (required).
	APIKey string

	// BaseURL is the compression endpoint URL.
	BaseURL string

	// Model is the downstream model hint sent with each request.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// CompressionProvider compresses context through the ScaleDown API.
type CompressionProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// compressRequest is the ScaleDown request format.
type compressRequest struct {
	Context   string          `json:"context"`
	Prompt    string          `json:"prompt"`
	Model     string          `json:"model"`
	ScaleDown scaleDownParams `json:"scaledown"`
}

type scaleDownParams struct {
	Rate float64 `json:"rate"`
}

// compressResponse is the ScaleDown response format. The compressed
// text has appeared under different keys across API revisions, so
// several are tried.
type compressResponse struct {
	Results          json.RawMessage `json:"results"`
	CompressedPrompt string          `json:"compressed_prompt"`
	Content          string          `json:"content"`
	Detail           string          `json:"detail"`
}

// resultObject is the nested result shape of newer API revisions.
type resultObject struct {
	CompressedPrompt string `json:"compressed_prompt"`
	Content          string `json:"content"`
}

// NewCompressionProvider creates a new ScaleDown compression provider.
func NewCompressionProvider(cfg Config) (*CompressionProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("scaledown: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &CompressionProvider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Compress returns a condensed version of contextText relevant to
// queryText. On any provider failure the original context comes back
// unchanged; the only error returned is context cancellation.
func (p *CompressionProvider) Compress(ctx context.Context, contextText, queryText string, targetRate float64) (string, error) {
	if contextText == "" {
		return "", nil
	}
	if targetRate <= 0 || targetRate >= 1 {
		targetRate = 0.5
	}

	compressed, err := p.call(ctx, contextText, queryText, targetRate)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Warn("Compression failed, passing context through: %v", err)
		return contextText, nil
	}
	if compressed == "" {
		logger.Warn("Compression returned empty text, passing context through")
		return contextText, nil
	}

	logger.Debug("Compressed %d -> %d chars (%.1f%%)",
		len(contextText), len(compressed),
		float64(len(compressed))/float64(len(contextText))*100)
	return compressed, nil
}

// call performs the actual API request.
func (p *CompressionProvider) call(ctx context.Context, contextText, queryText string, targetRate float64) (string, error) {
	reqBody := compressRequest{
		Context:   contextText,
		Prompt:    queryText,
		Model:     p.model,
		ScaleDown: scaleDownParams{Rate: targetRate},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scaledown status %d: %s", resp.StatusCode, string(body))
	}

	var compResp compressResponse
	if err := json.Unmarshal(body, &compResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if compResp.Detail != "" {
		return "", fmt.Errorf("scaledown error: %s", compResp.Detail)
	}

	return extractCompressed(compResp)
}

// extractCompressed pulls the compressed text out of whichever field
// the API revision put it in.
func extractCompressed(resp compressResponse) (string, error) {
	if len(resp.Results) > 0 {
		// "results" may be an object or a list.
		var obj resultObject
		if err := json.Unmarshal(resp.Results, &obj); err == nil {
			if obj.CompressedPrompt != "" {
				return obj.CompressedPrompt, nil
			}
			if obj.Content != "" {
				return obj.Content, nil
			}
		}
		var list []resultObject
		if err := json.Unmarshal(resp.Results, &list); err == nil && len(list) > 0 {
			if list[0].CompressedPrompt != "" {
				return list[0].CompressedPrompt, nil
			}
			if list[0].Content != "" {
				return list[0].Content, nil
			}
		}
	}
	if resp.CompressedPrompt != "" {
		return resp.CompressedPrompt, nil
	}
	if resp.Content != "" {
		return resp.Content, nil
	}
	return "", fmt.Errorf("scaledown: no compressed text in response")
}
