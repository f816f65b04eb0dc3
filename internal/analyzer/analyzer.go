// Package analyzer assembles provider data into wallet snapshots and scores
// them. The Service is the cache-fronted entry point used by the HTTP layer.
package analyzer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"walletscore/internal/cache"
	"walletscore/internal/config"
	"walletscore/internal/metrics"
	"walletscore/internal/providers"
	"walletscore/internal/providers/explorer"
)

// Analysis is the full scored result for one wallet. It is what gets cached
// and what the API serves.
type Analysis struct {
	WalletAddress string         `json:"wallet_address"`
	Network       string         `json:"network"`
	Timestamp     string         `json:"timestamp"`
	TrustScore    int            `json:"trust_score"`
	Risk          RiskAssessment `json:"risk_assessment"`
	Anomalies     []Anomaly      `json:"anomalies"`
	Snapshot      *Snapshot      `json:"snapshot"`
}

// Service runs the analysis pipeline: cache lookup, provider fan-out,
// pattern analysis, scoring and anomaly detection, cache write.
type Service struct {
	agg      *Aggregator
	explorer ExplorerSource
	defi     SwapSource
	balance  BalanceSource
	cache    *cache.Cache
	cfg      *config.Config
	log      *logrus.Logger
}

func NewService(exp ExplorerSource, tr TransferSource, sw SwapSource, bal BalanceSource, c *cache.Cache, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		agg:      NewAggregator(exp, tr, sw, bal, cfg.RequestDeadline, log),
		explorer: exp,
		defi:     sw,
		balance:  bal,
		cache:    c,
		cfg:      cfg,
		log:      log,
	}
}

// AnalyzeWallet returns the scored analysis for the address, serving from
// cache when a live entry exists. The boolean reports whether the result
// came from cache.
func (s *Service) AnalyzeWallet(ctx context.Context, address, network string) (*Analysis, bool, error) {
	if !providers.ValidAddress(address) {
		return nil, false, providers.ErrInvalidAddress
	}

	start := time.Now()
	key := cache.WalletAnalysisKey(network, address)

	var cached Analysis
	if s.cache.GetJSON(ctx, key, &cached) {
		metrics.RecordAnalysis(network, "cached", time.Since(start))
		return &cached, true, nil
	}

	snap, err := s.agg.GetWalletData(ctx, address, config.Network(network))
	if err != nil {
		metrics.RecordAnalysis(network, "failed", time.Since(start))
		return nil, false, err
	}

	features := AnalyzePatterns(snap.Explorer.Transactions)
	input := ScoreInput{
		Patterns:         features,
		DeFiTransactions: snap.Summary.DeFiTransactions,
		Balance:          snap.Balance.BalanceFloat(),
		HasBalance:       snap.Summary.HasBalance,
	}
	risk := AssessRisk(input)
	trust := ComputeTrustScore(risk, input)
	anomalies := DetectAnomalies(snap.Explorer.Transactions, snap.Summary.DeFiTransactions)

	analysis := &Analysis{
		WalletAddress: address,
		Network:       network,
		Timestamp:     snap.Timestamp,
		TrustScore:    trust,
		Risk:          risk,
		Anomalies:     anomalies,
		Snapshot:      snap,
	}

	s.cache.SetJSON(ctx, key, analysis, s.cfg.WalletAnalysisTTL)
	metrics.RecordAnalysis(network, "success", time.Since(start))
	metrics.TrustScores.Observe(float64(trust))

	s.log.WithFields(logrus.Fields{
		"address":     address,
		"network":     network,
		"trust_score": trust,
		"risk_level":  risk.RiskLevel,
		"anomalies":   len(anomalies),
	}).Info("Wallet analysis completed")

	return analysis, false, nil
}

// Transactions returns the raw explorer transaction history for the
// address, cached on success. Results the upstream rejected (for example
// "No transactions found") are never cached.
func (s *Service) Transactions(ctx context.Context, address, network string) (providers.TxResult, bool, error) {
	if !providers.ValidAddress(address) {
		return providers.TxResult{}, false, providers.ErrInvalidAddress
	}

	key := cache.TransactionsKey(network, address)
	var cached providers.TxResult
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, true, nil
	}

	result := s.explorer.FetchTransactions(ctx, address, explorer.DefaultStartBlock, explorer.DefaultEndBlock)
	if result.Success && result.Rejected == "" {
		s.cache.SetJSON(ctx, key, result, s.cfg.TransactionTTL)
	}
	return result, false, nil
}

// Balance returns the native balance for the address. Balances are always
// fetched fresh.
func (s *Service) Balance(ctx context.Context, address, network string) (providers.BalanceResult, error) {
	if !providers.ValidAddress(address) {
		return providers.BalanceResult{}, providers.ErrInvalidAddress
	}
	return s.balance.FetchBalance(ctx, address, config.Network(network)), nil
}

// DeFiActivity returns the subgraph swap history for the address, cached on
// success. DeFi activity is keyed by address alone since the subgraph is
// network-specific already.
func (s *Service) DeFiActivity(ctx context.Context, address string) (providers.SwapResult, bool, error) {
	if !providers.ValidAddress(address) {
		return providers.SwapResult{}, false, providers.ErrInvalidAddress
	}

	key := cache.DeFiActivityKey(address)
	var cached providers.SwapResult
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, true, nil
	}

	result := s.defi.FetchSwaps(ctx, address)
	if result.Success {
		s.cache.SetJSON(ctx, key, result, s.cfg.DeFiTTL)
	}
	return result, false, nil
}
