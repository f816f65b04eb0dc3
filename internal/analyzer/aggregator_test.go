package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"walletscore/internal/config"
	"walletscore/internal/providers"
)

const testAddress = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"

type fakeExplorer struct {
	calls  int
	result providers.TxResult
}

func (f *fakeExplorer) FetchTransactions(_ context.Context, _ string, _, _ int64) providers.TxResult {
	f.calls++
	return f.result
}

type fakeTransfers struct {
	calls  int
	result providers.TransferResult
}

func (f *fakeTransfers) FetchTransfers(_ context.Context, _ string) providers.TransferResult {
	f.calls++
	return f.result
}

type fakeSwaps struct {
	calls  int
	result providers.SwapResult
}

func (f *fakeSwaps) FetchSwaps(_ context.Context, _ string) providers.SwapResult {
	f.calls++
	return f.result
}

type fakeBalance struct {
	calls  int
	result providers.BalanceResult
}

func (f *fakeBalance) FetchBalance(_ context.Context, _ string, _ config.Network) providers.BalanceResult {
	f.calls++
	return f.result
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestAggregator(exp *fakeExplorer, tr *fakeTransfers, sw *fakeSwaps, bal *fakeBalance) *Aggregator {
	return NewAggregator(exp, tr, sw, bal, 5*time.Second, testLogger())
}

func TestGetWalletDataInvalidAddressNoProviderCalls(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{name: "empty", address: ""},
		{name: "missing prefix", address: "d8dA6BF26964aF9D7eEd9e03E53415D37aA96045"},
		{name: "too short", address: "0xd8dA6BF26964aF9D7eEd9e03E5"},
		{name: "too long", address: testAddress + "ab"},
		{name: "non-hex characters", address: "0xZZdA6BF26964aF9D7eEd9e03E53415D37aA96045"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := &fakeExplorer{}
			tr := &fakeTransfers{}
			sw := &fakeSwaps{}
			bal := &fakeBalance{}
			agg := newTestAggregator(exp, tr, sw, bal)

			_, err := agg.GetWalletData(context.Background(), tt.address, config.NetworkEthereum)
			if !errors.Is(err, providers.ErrInvalidAddress) {
				t.Fatalf("err = %v, want ErrInvalidAddress", err)
			}
			if total := exp.calls + tr.calls + sw.calls + bal.calls; total != 0 {
				t.Errorf("providers called %d times for invalid address, want 0", total)
			}
		})
	}
}

func TestGetWalletDataSummaryCounts(t *testing.T) {
	tests := []struct {
		name     string
		explorer providers.TxResult
		transfer providers.TransferResult
		swaps    providers.SwapResult
		balance  providers.BalanceResult
		expected Summary
	}{
		{
			name: "all sources succeed",
			explorer: providers.TxResult{
				Result:       providers.OK(),
				Transactions: []providers.Transaction{{Hash: "0x1"}, {Hash: "0x2"}},
			},
			transfer: providers.TransferResult{
				Result:    providers.OK(),
				Transfers: []providers.Transfer{{Hash: "0x1"}},
			},
			swaps: providers.SwapResult{
				Result: providers.OK(),
				Swaps:  []providers.Swap{{ID: "1"}, {ID: "2"}, {ID: "3"}},
			},
			balance: providers.BalanceResult{Result: providers.OK(), Balance: "1.5"},
			expected: Summary{
				TotalTransactions: 2,
				TotalTransfers:    1,
				DeFiTransactions:  3,
				HasBalance:        true,
			},
		},
		{
			name:     "all sources fail",
			explorer: providers.TxResult{Result: providers.Failure("explorer down")},
			transfer: providers.TransferResult{Result: providers.Unconfigured("no key")},
			swaps:    providers.SwapResult{Result: providers.Failure("subgraph down")},
			balance:  providers.BalanceResult{Result: providers.Unconfigured("no rpc url")},
			expected: Summary{},
		},
		{
			name: "mixed outcomes count only successes",
			explorer: providers.TxResult{
				Result:       providers.OK(),
				Transactions: []providers.Transaction{{Hash: "0x1"}},
			},
			transfer: providers.TransferResult{
				Result:    providers.Failure("timeout"),
				Transfers: []providers.Transfer{{Hash: "stale"}},
			},
			swaps:   providers.SwapResult{Result: providers.OK()},
			balance: providers.BalanceResult{Result: providers.Failure("dial error")},
			expected: Summary{
				TotalTransactions: 1,
				TotalTransfers:    0,
				DeFiTransactions:  0,
				HasBalance:        false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := newTestAggregator(
				&fakeExplorer{result: tt.explorer},
				&fakeTransfers{result: tt.transfer},
				&fakeSwaps{result: tt.swaps},
				&fakeBalance{result: tt.balance},
			)

			snap, err := agg.GetWalletData(context.Background(), testAddress, config.NetworkEthereum)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if snap.Summary != tt.expected {
				t.Errorf("Summary = %+v, want %+v", snap.Summary, tt.expected)
			}
			if snap.Address != testAddress {
				t.Errorf("Address = %q, want %q", snap.Address, testAddress)
			}
			if snap.Network != string(config.NetworkEthereum) {
				t.Errorf("Network = %q, want %q", snap.Network, config.NetworkEthereum)
			}
		})
	}
}

func TestGetWalletDataAllProvidersCalledOnce(t *testing.T) {
	exp := &fakeExplorer{result: providers.TxResult{Result: providers.OK()}}
	tr := &fakeTransfers{result: providers.TransferResult{Result: providers.OK()}}
	sw := &fakeSwaps{result: providers.SwapResult{Result: providers.OK()}}
	bal := &fakeBalance{result: providers.BalanceResult{Result: providers.OK()}}
	agg := newTestAggregator(exp, tr, sw, bal)

	if _, err := agg.GetWalletData(context.Background(), testAddress, config.NetworkEthereum); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, calls := range map[string]int{
		"explorer":  exp.calls,
		"transfers": tr.calls,
		"swaps":     sw.calls,
		"balance":   bal.calls,
	} {
		if calls != 1 {
			t.Errorf("%s called %d times, want 1", name, calls)
		}
	}
}
