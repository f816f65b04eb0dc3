// Package explorer fetches transaction history from an Etherscan-compatible
// block explorer API.
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"walletscore/internal/config"
	"walletscore/internal/metrics"
	"walletscore/internal/providers"
	"walletscore/internal/throttle"
)

// Default block range when the caller does not narrow it.
const (
	DefaultStartBlock = 0
	DefaultEndBlock   = 99999999
)

// Client handles communication with the block explorer API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *throttle.Throttle
}

// NewClient creates a new explorer client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.EtherscanBaseURL,
		apiKey:     cfg.EtherscanAPIKey,
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
		limiter:    throttle.New(cfg.ProviderMinInterval),
	}
}

type txListResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// FetchTransactions fetches the transaction list for an address. The result
// is always a providers.TxResult; transport and upstream failures are
// normalized into it rather than returned as errors. A "no transactions
// found" business rejection becomes an empty successful result with the
// upstream message preserved in Rejected.
func (c *Client) FetchTransactions(ctx context.Context, address string, startBlock, endBlock int64) providers.TxResult {
	if !providers.ValidAddress(address) {
		return providers.TxResult{Result: providers.Failure(providers.ErrInvalidAddress.Error())}
	}
	if c.apiKey == "" {
		metrics.RecordProviderRequest(providers.NameExplorer, 0, "not_configured")
		return providers.TxResult{Result: providers.Unconfigured("explorer API key not configured")}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return providers.TxResult{Result: providers.Failure(fmt.Sprintf("throttle wait: %v", err))}
	}

	start := time.Now()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return providers.TxResult{Result: providers.Failure(fmt.Sprintf("parse URL: %v", err))}
	}

	q := u.Query()
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", strconv.FormatInt(startBlock, 10))
	q.Set("endblock", strconv.FormatInt(endBlock, 10))
	q.Set("sort", "desc")
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return providers.TxResult{Result: providers.Failure(fmt.Sprintf("create request: %v", err))}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(providers.NameExplorer, time.Since(start), "error")
		return providers.TxResult{Result: providers.Failure(fmt.Sprintf("execute request: %v", err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		metrics.RecordProviderRequest(providers.NameExplorer, time.Since(start), "error")
		return providers.TxResult{Result: providers.Failure(fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)))}
	}

	var data txListResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		metrics.RecordProviderRequest(providers.NameExplorer, time.Since(start), "error")
		return providers.TxResult{Result: providers.Failure(fmt.Sprintf("decode response: %v", err))}
	}

	if data.Status != "1" {
		// Status "0" with this message is a business-level empty result, not
		// an outage; callers that asked for this single source still see the
		// upstream message via Rejected.
		if strings.EqualFold(data.Message, "No transactions found") {
			metrics.RecordProviderRequest(providers.NameExplorer, time.Since(start), "success")
			return providers.TxResult{
				Result:       providers.OK(),
				Transactions: []providers.Transaction{},
				Rejected:     data.Message,
			}
		}
		metrics.RecordProviderRequest(providers.NameExplorer, time.Since(start), "error")
		msg := data.Message
		if msg == "" {
			msg = "unknown explorer error"
		}
		return providers.TxResult{Result: providers.Failure(msg)}
	}

	var txs []providers.Transaction
	if err := json.Unmarshal(data.Result, &txs); err != nil {
		metrics.RecordProviderRequest(providers.NameExplorer, time.Since(start), "error")
		return providers.TxResult{Result: providers.Failure(fmt.Sprintf("decode transactions: %v", err))}
	}

	metrics.RecordProviderRequest(providers.NameExplorer, time.Since(start), "success")
	return providers.TxResult{Result: providers.OK(), Transactions: txs}
}
