package cache

import (
	"fmt"
	"strings"
)

// Key builders. Addresses are lowercased so checksummed and plain forms of
// the same address share one entry.

func WalletAnalysisKey(network, address string) string {
	return fmt.Sprintf("wallet_analysis:%s:%s", network, strings.ToLower(address))
}

func TransactionsKey(network, address string) string {
	return fmt.Sprintf("transactions:%s:%s", network, strings.ToLower(address))
}

func DeFiActivityKey(address string) string {
	return fmt.Sprintf("defi_activity:%s", strings.ToLower(address))
}

func RateMinuteKey(clientHash string, bucket int64) string {
	return fmt.Sprintf("rate_limit:minute:%s:%d", clientHash, bucket)
}

func RateHourKey(clientHash string, bucket int64) string {
	return fmt.Sprintf("rate_limit:hour:%s:%d", clientHash, bucket)
}
