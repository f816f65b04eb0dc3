package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"walletscore/internal/cache"
	"walletscore/internal/config"
	"walletscore/internal/providers"
)

func testConfig() *config.Config {
	return &config.Config{
		RequestDeadline:   5 * time.Second,
		WalletAnalysisTTL: time.Hour,
		TransactionTTL:    30 * time.Minute,
		DeFiTTL:           30 * time.Minute,
	}
}

func newTestService(exp *fakeExplorer, tr *fakeTransfers, sw *fakeSwaps, bal *fakeBalance) *Service {
	log := testLogger()
	return NewService(exp, tr, sw, bal, cache.New(cache.NewMemoryStore(), log), testConfig(), log)
}

func TestAnalyzeWalletInactiveAddress(t *testing.T) {
	// Explorer reports zero transactions, every other source unconfigured.
	svc := newTestService(
		&fakeExplorer{result: providers.TxResult{Result: providers.OK()}},
		&fakeTransfers{result: providers.TransferResult{Result: providers.Unconfigured("no key")}},
		&fakeSwaps{result: providers.SwapResult{Result: providers.Unconfigured("no key")}},
		&fakeBalance{result: providers.BalanceResult{Result: providers.Unconfigured("no rpc url")}},
	)

	analysis, cached, err := svc.AnalyzeWallet(context.Background(), testAddress, "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached {
		t.Error("first analysis reported as cached")
	}

	if analysis.Risk.RiskLevel != RiskLow {
		t.Errorf("RiskLevel = %q, want low", analysis.Risk.RiskLevel)
	}
	if analysis.Risk.RiskScore != 0 {
		t.Errorf("RiskScore = %v, want 0", analysis.Risk.RiskScore)
	}
	if len(analysis.Anomalies) != 0 {
		t.Errorf("Anomalies = %v, want none", analysis.Anomalies)
	}
	if analysis.Snapshot.Summary.TotalTransactions != 0 {
		t.Errorf("TotalTransactions = %d, want 0", analysis.Snapshot.Summary.TotalTransactions)
	}
	// Inactivity penalty keeps trust below the 80 an active low-risk
	// wallet would get.
	if analysis.TrustScore != 70 {
		t.Errorf("TrustScore = %d, want 70", analysis.TrustScore)
	}
}

func TestAnalyzeWalletCachesResult(t *testing.T) {
	exp := &fakeExplorer{result: providers.TxResult{
		Result: providers.OK(),
		Transactions: []providers.Transaction{
			tx("0x1", testAddress, "0xb", "1", "1700000000"),
		},
	}}
	tr := &fakeTransfers{result: providers.TransferResult{Result: providers.OK()}}
	sw := &fakeSwaps{result: providers.SwapResult{Result: providers.OK()}}
	bal := &fakeBalance{result: providers.BalanceResult{Result: providers.OK(), Balance: "2.5"}}
	svc := newTestService(exp, tr, sw, bal)

	first, cached, err := svc.AnalyzeWallet(context.Background(), testAddress, "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached {
		t.Fatal("first call reported as cached")
	}

	second, cached, err := svc.AnalyzeWallet(context.Background(), testAddress, "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cached {
		t.Fatal("second call not served from cache")
	}
	if exp.calls != 1 {
		t.Errorf("explorer called %d times, want 1", exp.calls)
	}
	if second.TrustScore != first.TrustScore {
		t.Errorf("cached TrustScore = %d, want %d", second.TrustScore, first.TrustScore)
	}
	if second.Risk.RiskScore != first.Risk.RiskScore {
		t.Errorf("cached RiskScore = %v, want %v", second.Risk.RiskScore, first.Risk.RiskScore)
	}
}

func TestAnalyzeWalletCacheKeyedByNetwork(t *testing.T) {
	exp := &fakeExplorer{result: providers.TxResult{Result: providers.OK()}}
	svc := newTestService(
		exp,
		&fakeTransfers{result: providers.TransferResult{Result: providers.OK()}},
		&fakeSwaps{result: providers.SwapResult{Result: providers.OK()}},
		&fakeBalance{result: providers.BalanceResult{Result: providers.OK()}},
	)

	if _, _, err := svc.AnalyzeWallet(context.Background(), testAddress, "ethereum"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, cached, err := svc.AnalyzeWallet(context.Background(), testAddress, "polygon"); err != nil || cached {
		t.Fatalf("polygon analysis cached=%v err=%v, want fresh", cached, err)
	}
	if exp.calls != 2 {
		t.Errorf("explorer called %d times, want 2", exp.calls)
	}
}

func TestAnalyzeWalletInvalidAddress(t *testing.T) {
	exp := &fakeExplorer{}
	svc := newTestService(exp, &fakeTransfers{}, &fakeSwaps{}, &fakeBalance{})

	_, _, err := svc.AnalyzeWallet(context.Background(), "0xnope", "ethereum")
	if !errors.Is(err, providers.ErrInvalidAddress) {
		t.Fatalf("err = %v, want ErrInvalidAddress", err)
	}
	if exp.calls != 0 {
		t.Errorf("explorer called %d times for invalid address, want 0", exp.calls)
	}
}

func TestTransactionsRejectedNotCached(t *testing.T) {
	exp := &fakeExplorer{result: providers.TxResult{
		Result:   providers.OK(),
		Rejected: "No transactions found",
	}}
	svc := newTestService(exp, &fakeTransfers{}, &fakeSwaps{}, &fakeBalance{})

	for i := 0; i < 2; i++ {
		result, cached, err := svc.Transactions(context.Background(), testAddress, "ethereum")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cached {
			t.Fatal("rejected result served from cache")
		}
		if result.Rejected == "" {
			t.Fatal("Rejected message lost")
		}
	}
	if exp.calls != 2 {
		t.Errorf("explorer called %d times, want 2 (rejected results must not be cached)", exp.calls)
	}
}

func TestTransactionsSuccessCached(t *testing.T) {
	exp := &fakeExplorer{result: providers.TxResult{
		Result:       providers.OK(),
		Transactions: []providers.Transaction{tx("0x1", "0xa", "0xb", "1", "1700000000")},
	}}
	svc := newTestService(exp, &fakeTransfers{}, &fakeSwaps{}, &fakeBalance{})

	if _, cached, _ := svc.Transactions(context.Background(), testAddress, "ethereum"); cached {
		t.Fatal("first call reported as cached")
	}
	result, cached, err := svc.Transactions(context.Background(), testAddress, "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cached {
		t.Fatal("second call not served from cache")
	}
	if len(result.Transactions) != 1 {
		t.Errorf("cached transactions = %d, want 1", len(result.Transactions))
	}
	if exp.calls != 1 {
		t.Errorf("explorer called %d times, want 1", exp.calls)
	}
}

func TestDeFiActivityCachedByAddressOnly(t *testing.T) {
	sw := &fakeSwaps{result: providers.SwapResult{
		Result: providers.OK(),
		Swaps:  []providers.Swap{{ID: "1"}},
	}}
	svc := newTestService(&fakeExplorer{}, &fakeTransfers{}, sw, &fakeBalance{})

	if _, cached, _ := svc.DeFiActivity(context.Background(), testAddress); cached {
		t.Fatal("first call reported as cached")
	}
	if _, cached, _ := svc.DeFiActivity(context.Background(), testAddress); !cached {
		t.Fatal("second call not served from cache")
	}
	if sw.calls != 1 {
		t.Errorf("subgraph called %d times, want 1", sw.calls)
	}
}
