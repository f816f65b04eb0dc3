// Package rpc reads native balances straight from a JSON-RPC node.
package rpc

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"

	"walletscore/internal/config"
	"walletscore/internal/metrics"
	"walletscore/internal/providers"
	"walletscore/internal/throttle"
)

// Client reads native balances from the configured JSON-RPC endpoints.
// Connections are dialed lazily per network and reused.
type Client struct {
	urls    map[config.Network]string
	limiter *throttle.Throttle

	mu    sync.Mutex
	conns map[config.Network]*ethclient.Client
}

// NewClient creates a new RPC balance client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		urls:    cfg.RPCURLs,
		limiter: throttle.New(cfg.ProviderMinInterval),
		conns:   make(map[config.Network]*ethclient.Client),
	}
}

func (c *Client) conn(ctx context.Context, network config.Network) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[network]; ok {
		return conn, nil
	}

	conn, err := ethclient.DialContext(ctx, c.urls[network])
	if err != nil {
		return nil, err
	}
	c.conns[network] = conn
	return conn, nil
}

// FetchBalance reads the native balance for an address on one network.
// Failures are normalized into the result, never returned.
func (c *Client) FetchBalance(ctx context.Context, address string, network config.Network) providers.BalanceResult {
	if !providers.ValidAddress(address) {
		return providers.BalanceResult{Result: providers.Failure(providers.ErrInvalidAddress.Error())}
	}

	url, ok := c.urls[network]
	if !ok {
		return providers.BalanceResult{Result: providers.Failure(fmt.Sprintf("unsupported network: %s", network))}
	}
	if url == "" {
		metrics.RecordProviderRequest(providers.NameBalance, 0, "not_configured")
		return providers.BalanceResult{Result: providers.Unconfigured(fmt.Sprintf("%s RPC URL not configured", network))}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return providers.BalanceResult{Result: providers.Failure(fmt.Sprintf("throttle wait: %v", err))}
	}

	start := time.Now()

	conn, err := c.conn(ctx, network)
	if err != nil {
		metrics.RecordProviderRequest(providers.NameBalance, time.Since(start), "error")
		return providers.BalanceResult{Result: providers.Failure(fmt.Sprintf("dial %s node: %v", network, err))}
	}

	wei, err := conn.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		metrics.RecordProviderRequest(providers.NameBalance, time.Since(start), "error")
		return providers.BalanceResult{Result: providers.Failure(fmt.Sprintf("get balance: %v", err))}
	}

	metrics.RecordProviderRequest(providers.NameBalance, time.Since(start), "success")
	return providers.BalanceResult{
		Result:      providers.OK(),
		Network:     string(network),
		Address:     address,
		Balance:     weiToEther(wei),
		BalanceWei:  wei.String(),
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
}

// weiToEther renders a wei amount as a decimal ether string without
// trailing zeros.
func weiToEther(wei *big.Int) string {
	ether := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	s := ether.Text('f', 18)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		s = "0"
	}
	return s
}
