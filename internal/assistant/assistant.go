// Package assistant delegates natural-language queries about wallets to an
// external LLM-backed service.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"walletscore/internal/config"
)

// ErrNotConfigured is returned when no assistant endpoint is set.
var ErrNotConfigured = errors.New("assistant endpoint is not configured")

// Agent answers free-text questions. Failures are returned as errors for
// the caller to surface; they never crash the request path.
type Agent interface {
	Query(ctx context.Context, query string) (string, error)
	Configured() bool
}

// New returns an HTTP-backed agent, or a disabled one when no endpoint is
// configured.
func New(cfg *config.Config) Agent {
	if cfg.AssistantEndpoint == "" {
		return disabledAgent{}
	}
	return &httpAgent{
		endpoint: cfg.AssistantEndpoint,
		httpClient: &http.Client{
			Timeout: cfg.AssistantTimeout,
		},
	}
}

type disabledAgent struct{}

func (disabledAgent) Query(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (disabledAgent) Configured() bool { return false }

type httpAgent struct {
	endpoint   string
	httpClient *http.Client
}

type agentRequest struct {
	Query string `json:"query"`
}

type agentResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (a *httpAgent) Configured() bool { return true }

func (a *httpAgent) Query(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(agentRequest{Query: query})
	if err != nil {
		return "", fmt.Errorf("encode assistant request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build assistant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read assistant response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant returned status %d", resp.StatusCode)
	}

	var parsed agentResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("assistant error: %s", parsed.Error)
	}
	return parsed.Response, nil
}
