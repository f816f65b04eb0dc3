package analyzer

import (
	"strings"

	"walletscore/internal/providers"
)

// Features holds the behavioral metrics derived from an address's raw
// transaction list. All values are deterministic functions of the input.
type Features struct {
	TotalTransactions        int     `json:"total_transactions"`
	TotalValue               float64 `json:"total_value"`
	AverageValue             float64 `json:"average_value"`
	AverageDailyTransactions float64 `json:"average_daily_transactions"`
	UniqueToAddresses        int     `json:"unique_to_addresses"`
	UniqueFromAddresses      int     `json:"unique_from_addresses"`
	SpanDays                 float64 `json:"span_days"`
}

// AnalyzePatterns computes features from raw transactions. An empty input
// yields the zero Features value. Unparseable values and timestamps count
// as zero rather than aborting the analysis.
func AnalyzePatterns(txs []providers.Transaction) Features {
	f := Features{TotalTransactions: len(txs)}
	if len(txs) == 0 {
		return f
	}

	to := make(map[string]struct{})
	from := make(map[string]struct{})
	var minTS, maxTS int64
	for i, tx := range txs {
		f.TotalValue += tx.ValueFloat()
		if tx.To != "" {
			to[strings.ToLower(tx.To)] = struct{}{}
		}
		if tx.From != "" {
			from[strings.ToLower(tx.From)] = struct{}{}
		}
		ts := tx.TimestampUnix()
		if i == 0 || ts < minTS {
			minTS = ts
		}
		if i == 0 || ts > maxTS {
			maxTS = ts
		}
	}

	f.AverageValue = f.TotalValue / float64(len(txs))
	f.UniqueToAddresses = len(to)
	f.UniqueFromAddresses = len(from)
	if len(txs) > 1 {
		f.SpanDays = float64(maxTS-minTS) / 86400.0
	}
	// The +1 keeps single-day wallets from dividing by zero and means a
	// wallet's daily rate is averaged over whole days of observed life.
	f.AverageDailyTransactions = float64(len(txs)) / (f.SpanDays + 1)

	return f
}
