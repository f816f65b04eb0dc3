// Package subgraph fetches DeFi swap activity from a Graph-protocol
// subgraph endpoint.
package subgraph

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

const swapQuery = `{
  swaps(where: {to: %q}, orderBy: timestamp, orderDirection: desc, first: 100) {
    id
    timestamp
    pair { token0 { symbol } token1 { symbol } }
    amount0In
    amount1In
    amount0Out
    amount1Out
  }
}`

// Client handles communication with the subgraph API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *throttle.Throttle
}

// NewClient creates a new subgraph client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.TheGraphBaseURL,
		apiKey:     cfg.TheGraphAPIKey,
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
		limiter:    throttle.New(cfg.ProviderMinInterval),
	}
}

type swapEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Pair      struct {
		Token0 struct {
			Symbol string `json:"symbol"`
		} `json:"token0"`
		Token1 struct {
			Symbol string `json:"symbol"`
		} `json:"token1"`
	} `json:"pair"`
	Amount0In  string `json:"amount0In"`
	Amount1In  string `json:"amount1In"`
	Amount0Out string `json:"amount0Out"`
	Amount1Out string `json:"amount1Out"`
}

type swapResponse struct {
	Data struct {
		Swaps []swapEntry `json:"swaps"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchSwaps fetches recent swaps routed to the address. Failures are
// normalized into the result, never returned.
func (c *Client) FetchSwaps(ctx context.Context, address string) providers.SwapResult {
	if !providers.ValidAddress(address) {
		return providers.SwapResult{Result: providers.Failure(providers.ErrInvalidAddress.Error())}
	}
	if c.apiKey == "" {
		metrics.RecordProviderRequest(providers.NameSubgraph, 0, "not_configured")
		return providers.SwapResult{Result: providers.Unconfigured("subgraph API key not configured")}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return providers.SwapResult{Result: providers.Failure(fmt.Sprintf("throttle wait: %v", err))}
	}

	start := time.Now()

	body, err := json.Marshal(map[string]string{"query": fmt.Sprintf(swapQuery, address)})
	if err != nil {
		return providers.SwapResult{Result: providers.Failure(fmt.Sprintf("encode query: %v", err))}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return providers.SwapResult{Result: providers.Failure(fmt.Sprintf("create request: %v", err))}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(providers.NameSubgraph, time.Since(start), "error")
		return providers.SwapResult{Result: providers.Failure(fmt.Sprintf("execute request: %v", err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		metrics.RecordProviderRequest(providers.NameSubgraph, time.Since(start), "error")
		return providers.SwapResult{Result: providers.Failure(fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(respBody)))}
	}

	var data swapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		metrics.RecordProviderRequest(providers.NameSubgraph, time.Since(start), "error")
		return providers.SwapResult{Result: providers.Failure(fmt.Sprintf("decode response: %v", err))}
	}

	if len(data.Errors) > 0 {
		metrics.RecordProviderRequest(providers.NameSubgraph, time.Since(start), "error")
		return providers.SwapResult{Result: providers.Failure(fmt.Sprintf("subgraph error: %s", data.Errors[0].Message))}
	}

	swaps := make([]providers.Swap, 0, len(data.Data.Swaps))
	for _, entry := range data.Data.Swaps {
		swaps = append(swaps, providers.Swap{
			ID:         entry.ID,
			Timestamp:  entry.Timestamp,
			Token0:     entry.Pair.Token0.Symbol,
			Token1:     entry.Pair.Token1.Symbol,
			Amount0In:  entry.Amount0In,
			Amount1In:  entry.Amount1In,
			Amount0Out: entry.Amount0Out,
			Amount1Out: entry.Amount1Out,
		})
	}

	metrics.RecordProviderRequest(providers.NameSubgraph, time.Since(start), "success")
	return providers.SwapResult{Result: providers.OK(), Swaps: swaps}
}
