// Package providers defines the shared result shapes for the external data
// sources and the address validation applied before any outbound call.
package providers

import (
	"errors"
	"regexp"
	"strconv"
)

// Provider names as recorded in snapshots and metrics.
const (
	NameExplorer      = "explorer"
	NameTransferIndex = "transfer_index"
	NameSubgraph      = "subgraph"
	NameBalance       = "balance"
)

// ErrInvalidAddress is returned before any network call when the input does
// not look like an EVM address.
var ErrInvalidAddress = errors.New("invalid wallet address")

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidAddress reports whether addr is a 0x-prefixed 40-hex-char address.
func ValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// Result is the uniform outcome of one provider call. A payload is either
// wholly present (Success true) or absent; there is no partially valid state.
type Result struct {
	Success       bool   `json:"success"`
	NotConfigured bool   `json:"not_configured,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Failure builds a failed Result with the given message.
func Failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Unconfigured builds the distinguishable missing-credential Result.
func Unconfigured(msg string) Result {
	return Result{Success: false, NotConfigured: true, Error: msg}
}

// OK builds a successful Result.
func OK() Result {
	return Result{Success: true}
}

// Transaction is a single on-chain transaction as reported by the block
// explorer. Fields are kept as the decimal strings the upstream returns;
// values are native units (wei for the value field's base representation is
// not assumed — the explorer reports native-unit decimal strings).
type Transaction struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	TimeStamp string `json:"timeStamp"`
	Gas       string `json:"gas"`
}

// ValueFloat parses the transaction value, returning 0 for malformed input.
func (t Transaction) ValueFloat() float64 {
	v, err := strconv.ParseFloat(t.Value, 64)
	if err != nil {
		return 0
	}
	return v
}

// TimestampUnix parses the transaction timestamp, returning 0 for malformed
// input.
func (t Transaction) TimestampUnix() int64 {
	ts, err := strconv.ParseInt(t.TimeStamp, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// Transfer is an asset transfer reported by the transfer-indexing API.
type Transfer struct {
	Hash     string  `json:"hash"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Value    float64 `json:"value"`
	Asset    string  `json:"asset"`
	Category string  `json:"category"`
}

// Swap is a DeFi swap reported by the subgraph.
type Swap struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	Token0     string `json:"token0"`
	Token1     string `json:"token1"`
	Amount0In  string `json:"amount0In"`
	Amount1In  string `json:"amount1In"`
	Amount0Out string `json:"amount0Out"`
	Amount1Out string `json:"amount1Out"`
}

// TxResult is the explorer provider outcome. Rejected carries an upstream
// business message ("No transactions found") that aggregation treats as an
// empty success but single-source callers surface as a failure.
type TxResult struct {
	Result
	Transactions []Transaction `json:"transactions"`
	Rejected     string        `json:"-"`
}

// TransferResult is the transfer-index provider outcome.
type TransferResult struct {
	Result
	Transfers []Transfer `json:"transfers"`
}

// SwapResult is the subgraph provider outcome.
type SwapResult struct {
	Result
	Swaps []Swap `json:"defi_transactions"`
}

// BalanceResult is the RPC balance provider outcome. Balances are reported
// both in base units (wei) and human units (ether) as decimal strings.
type BalanceResult struct {
	Result
	Network     string `json:"network,omitempty"`
	Address     string `json:"address,omitempty"`
	Balance     string `json:"native_balance,omitempty"`
	BalanceWei  string `json:"native_balance_wei,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// BalanceFloat parses the human-unit balance, returning 0 for malformed or
// absent values.
func (b BalanceResult) BalanceFloat() float64 {
	v, err := strconv.ParseFloat(b.Balance, 64)
	if err != nil {
		return 0
	}
	return v
}
