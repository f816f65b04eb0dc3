package analyzer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"walletscore/internal/config"
	"walletscore/internal/providers"
	"walletscore/internal/providers/explorer"
)

// ExplorerSource fetches raw transactions from a block explorer API.
type ExplorerSource interface {
	FetchTransactions(ctx context.Context, address string, startBlock, endBlock int64) providers.TxResult
}

// TransferSource fetches asset transfer history from a transfer index.
type TransferSource interface {
	FetchTransfers(ctx context.Context, address string) providers.TransferResult
}

// SwapSource fetches DeFi swap activity from a subgraph.
type SwapSource interface {
	FetchSwaps(ctx context.Context, address string) providers.SwapResult
}

// BalanceSource fetches the native token balance over RPC.
type BalanceSource interface {
	FetchBalance(ctx context.Context, address string, network config.Network) providers.BalanceResult
}

// Aggregator fans out to every provider concurrently and merges the
// results into a Snapshot. Individual provider failures never fail the
// aggregation; they are recorded in their result slot.
type Aggregator struct {
	explorer  ExplorerSource
	transfers TransferSource
	defi      SwapSource
	balance   BalanceSource
	deadline  time.Duration
	log       *logrus.Logger
}

func NewAggregator(exp ExplorerSource, tr TransferSource, sw SwapSource, bal BalanceSource, deadline time.Duration, log *logrus.Logger) *Aggregator {
	return &Aggregator{
		explorer:  exp,
		transfers: tr,
		defi:      sw,
		balance:   bal,
		deadline:  deadline,
		log:       log,
	}
}

// GetWalletData assembles a snapshot for the address on the given network.
// The address is validated once here, before any provider is contacted.
func (a *Aggregator) GetWalletData(ctx context.Context, address string, network config.Network) (*Snapshot, error) {
	if !providers.ValidAddress(address) {
		return nil, providers.ErrInvalidAddress
	}

	ctx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	snap := &Snapshot{
		Address:   address,
		Network:   string(network),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Explorer = a.explorer.FetchTransactions(gctx, address, explorer.DefaultStartBlock, explorer.DefaultEndBlock)
		return nil
	})
	g.Go(func() error {
		snap.TransferIndex = a.transfers.FetchTransfers(gctx, address)
		return nil
	})
	g.Go(func() error {
		snap.DeFi = a.defi.FetchSwaps(gctx, address)
		return nil
	})
	g.Go(func() error {
		snap.Balance = a.balance.FetchBalance(gctx, address, network)
		return nil
	})
	_ = g.Wait()

	snap.Summary = buildSummary(snap)

	a.log.WithFields(logrus.Fields{
		"address":      address,
		"network":      network,
		"transactions": snap.Summary.TotalTransactions,
		"transfers":    snap.Summary.TotalTransfers,
		"defi":         snap.Summary.DeFiTransactions,
		"has_balance":  snap.Summary.HasBalance,
	}).Debug("Wallet snapshot assembled")

	return snap, nil
}
