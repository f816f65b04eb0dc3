// Package transferindex fetches asset transfers from an Alchemy-compatible
// transfer-indexing API.
package transferindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"walletscore/internal/config"
	"walletscore/internal/metrics"
	"walletscore/internal/providers"
	"walletscore/internal/throttle"
)

const maxTransfers = 100

// Client handles communication with the transfer-indexing API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *throttle.Throttle
}

// NewClient creates a new transfer-index client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.AlchemyBaseURL,
		apiKey:     cfg.AlchemyAPIKey,
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
		limiter:    throttle.New(cfg.ProviderMinInterval),
	}
}

type transferRequest struct {
	FromBlock   string   `json:"fromBlock"`
	ToBlock     string   `json:"toBlock"`
	FromAddress string   `json:"fromAddress"`
	Category    []string `json:"category"`
	MaxCount    string   `json:"maxCount"`
}

type transferResponse struct {
	Result struct {
		Transfers []providers.Transfer `json:"transfers"`
	} `json:"result"`
}

// FetchTransfers fetches indexed asset transfers originating from the
// address. Failures are normalized into the result, never returned.
func (c *Client) FetchTransfers(ctx context.Context, address string) providers.TransferResult {
	if !providers.ValidAddress(address) {
		return providers.TransferResult{Result: providers.Failure(providers.ErrInvalidAddress.Error())}
	}
	if c.apiKey == "" {
		metrics.RecordProviderRequest(providers.NameTransferIndex, 0, "not_configured")
		return providers.TransferResult{Result: providers.Unconfigured("transfer-index API key not configured")}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return providers.TransferResult{Result: providers.Failure(fmt.Sprintf("throttle wait: %v", err))}
	}

	start := time.Now()

	payload := transferRequest{
		FromBlock:   "0x0",
		ToBlock:     "latest",
		FromAddress: address,
		Category:    []string{"external", "internal", "erc20", "erc721", "erc1155"},
		MaxCount:    fmt.Sprintf("%d", maxTransfers),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.TransferResult{Result: providers.Failure(fmt.Sprintf("encode request: %v", err))}
	}

	u := fmt.Sprintf("%s/%s/getAssetTransfers", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return providers.TransferResult{Result: providers.Failure(fmt.Sprintf("create request: %v", err))}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(providers.NameTransferIndex, time.Since(start), "error")
		return providers.TransferResult{Result: providers.Failure(fmt.Sprintf("execute request: %v", err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		metrics.RecordProviderRequest(providers.NameTransferIndex, time.Since(start), "error")
		return providers.TransferResult{Result: providers.Failure(fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(respBody)))}
	}

	var data transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		metrics.RecordProviderRequest(providers.NameTransferIndex, time.Since(start), "error")
		return providers.TransferResult{Result: providers.Failure(fmt.Sprintf("decode response: %v", err))}
	}

	metrics.RecordProviderRequest(providers.NameTransferIndex, time.Since(start), "success")
	return providers.TransferResult{Result: providers.OK(), Transfers: data.Result.Transfers}
}
