package analyzer

import (
	"walletscore/internal/providers"
)

// Snapshot is the merged point-in-time view of all provider results for one
// address/network pair. It is assembled once per analysis and valid even
// when every source failed.
type Snapshot struct {
	Address       string                   `json:"wallet_address"`
	Network       string                   `json:"network"`
	Timestamp     string                   `json:"timestamp"`
	Explorer      providers.TxResult       `json:"explorer"`
	TransferIndex providers.TransferResult `json:"transfer_index"`
	DeFi          providers.SwapResult     `json:"subgraph"`
	Balance       providers.BalanceResult  `json:"balance"`
	Summary       Summary                  `json:"summary"`
}

// Summary counts what each source contributed. Counts equal the payload
// length for successful sources and 0 for failed or unconfigured ones.
type Summary struct {
	TotalTransactions int  `json:"total_transactions"`
	TotalTransfers    int  `json:"total_transfers"`
	DeFiTransactions  int  `json:"defi_transactions"`
	HasBalance        bool `json:"has_balance"`
}

func buildSummary(snap *Snapshot) Summary {
	s := Summary{HasBalance: snap.Balance.Success}
	if snap.Explorer.Success {
		s.TotalTransactions = len(snap.Explorer.Transactions)
	}
	if snap.TransferIndex.Success {
		s.TotalTransfers = len(snap.TransferIndex.Transfers)
	}
	if snap.DeFi.Success {
		s.DeFiTransactions = len(snap.DeFi.Swaps)
	}
	return s
}
