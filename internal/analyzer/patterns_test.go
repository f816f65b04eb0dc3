package analyzer

import (
	"math"
	"testing"

	"walletscore/internal/providers"
)

func tx(hash, from, to, value, timestamp string) providers.Transaction {
	return providers.Transaction{Hash: hash, From: from, To: to, Value: value, TimeStamp: timestamp}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyzePatterns(t *testing.T) {
	tests := []struct {
		name     string
		txs      []providers.Transaction
		expected Features
	}{
		{
			name:     "empty transaction list",
			txs:      nil,
			expected: Features{},
		},
		{
			name: "single transaction",
			txs: []providers.Transaction{
				tx("0xa", "0x1", "0x2", "1.5", "1700000000"),
			},
			expected: Features{
				TotalTransactions:        1,
				TotalValue:               1.5,
				AverageValue:             1.5,
				AverageDailyTransactions: 1, // 1 / (0 + 1)
				UniqueToAddresses:        1,
				UniqueFromAddresses:      1,
				SpanDays:                 0,
			},
		},
		{
			name: "two transactions one day apart",
			txs: []providers.Transaction{
				tx("0xa", "0x1", "0x2", "1", "1700086400"),
				tx("0xb", "0x1", "0x3", "3", "1700000000"),
			},
			expected: Features{
				TotalTransactions:        2,
				TotalValue:               4,
				AverageValue:             2,
				AverageDailyTransactions: 1, // 2 / (1 + 1)
				UniqueToAddresses:        2,
				UniqueFromAddresses:      1,
				SpanDays:                 1,
			},
		},
		{
			name: "checksummed and lowercase forms of one address count once",
			txs: []providers.Transaction{
				tx("0xa", "0xAbC", "0xDeF", "1", "1700000000"),
				tx("0xb", "0xabc", "0xdef", "1", "1700000060"),
			},
			expected: Features{
				TotalTransactions:        2,
				TotalValue:               2,
				AverageValue:             1,
				AverageDailyTransactions: 2 / (60.0/86400.0 + 1),
				UniqueToAddresses:        1,
				UniqueFromAddresses:      1,
				SpanDays:                 60.0 / 86400.0,
			},
		},
		{
			name: "malformed values and timestamps count as zero",
			txs: []providers.Transaction{
				tx("0xa", "0x1", "0x2", "not-a-number", "not-a-time"),
				tx("0xb", "0x1", "0x3", "2", "1700000000"),
			},
			expected: Features{
				TotalTransactions:        2,
				TotalValue:               2,
				AverageValue:             1,
				AverageDailyTransactions: 2 / (1700000000.0/86400.0 + 1),
				UniqueToAddresses:        2,
				UniqueFromAddresses:      1,
				SpanDays:                 1700000000.0 / 86400.0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzePatterns(tt.txs)
			if got.TotalTransactions != tt.expected.TotalTransactions {
				t.Errorf("TotalTransactions = %d, want %d", got.TotalTransactions, tt.expected.TotalTransactions)
			}
			if !almostEqual(got.TotalValue, tt.expected.TotalValue) {
				t.Errorf("TotalValue = %v, want %v", got.TotalValue, tt.expected.TotalValue)
			}
			if !almostEqual(got.AverageValue, tt.expected.AverageValue) {
				t.Errorf("AverageValue = %v, want %v", got.AverageValue, tt.expected.AverageValue)
			}
			if !almostEqual(got.AverageDailyTransactions, tt.expected.AverageDailyTransactions) {
				t.Errorf("AverageDailyTransactions = %v, want %v", got.AverageDailyTransactions, tt.expected.AverageDailyTransactions)
			}
			if got.UniqueToAddresses != tt.expected.UniqueToAddresses {
				t.Errorf("UniqueToAddresses = %d, want %d", got.UniqueToAddresses, tt.expected.UniqueToAddresses)
			}
			if got.UniqueFromAddresses != tt.expected.UniqueFromAddresses {
				t.Errorf("UniqueFromAddresses = %d, want %d", got.UniqueFromAddresses, tt.expected.UniqueFromAddresses)
			}
			if !almostEqual(got.SpanDays, tt.expected.SpanDays) {
				t.Errorf("SpanDays = %v, want %v", got.SpanDays, tt.expected.SpanDays)
			}
		})
	}
}

func TestAnalyzePatternsDeterministic(t *testing.T) {
	txs := []providers.Transaction{
		tx("0xa", "0x1", "0x2", "1.25", "1700000000"),
		tx("0xb", "0x3", "0x4", "0.5", "1700050000"),
		tx("0xc", "0x1", "0x4", "9", "1700100000"),
	}
	first := AnalyzePatterns(txs)
	for i := 0; i < 10; i++ {
		if got := AnalyzePatterns(txs); got != first {
			t.Fatalf("run %d produced %+v, want %+v", i, got, first)
		}
	}
}
