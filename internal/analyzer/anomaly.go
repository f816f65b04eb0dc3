package analyzer

import (
	"fmt"
	"math"
	"sort"

	"walletscore/internal/metrics"
	"walletscore/internal/providers"
)

// Severity grades how notable an anomaly is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	anomalyUnusualValue    = "unusual_value"
	anomalyRapidSuccession = "rapid_succession"
	anomalyHeavyDeFiUsage  = "heavy_defi_usage"
)

// Anomaly is an informational flag attached to an analysis. Anomalies never
// affect the risk or trust score.
type Anomaly struct {
	Type            string   `json:"type"`
	Description     string   `json:"description"`
	Severity        Severity `json:"severity"`
	TransactionHash string   `json:"transaction_hash,omitempty"`
}

// DetectAnomalies scans the transaction list for statistical outliers and
// suspicious timing, plus unusually heavy DeFi activity. An empty
// transaction list yields an empty anomaly list.
func DetectAnomalies(txs []providers.Transaction, defiCount int) []Anomaly {
	anomalies := []Anomaly{}

	if len(txs) > 0 {
		anomalies = append(anomalies, detectValueOutliers(txs)...)
		if rapid := detectRapidSuccession(txs); rapid != nil {
			anomalies = append(anomalies, *rapid)
		}
	}

	if defiCount > 100 {
		anomalies = append(anomalies, Anomaly{
			Type:        anomalyHeavyDeFiUsage,
			Description: fmt.Sprintf("Heavy DeFi usage: %d transactions via DeFi protocols", defiCount),
			Severity:    SeverityMedium,
		})
	}

	for _, a := range anomalies {
		metrics.AnomaliesDetected.WithLabelValues(a.Type).Inc()
	}
	return anomalies
}

// detectValueOutliers flags every transaction whose value exceeds
// mean + 2 standard deviations of the value distribution.
func detectValueOutliers(txs []providers.Transaction) []Anomaly {
	values := make([]float64, len(txs))
	var sum float64
	for i, tx := range txs {
		values[i] = tx.ValueFloat()
		sum += values[i]
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(len(values)))
	threshold := mean + 2*stddev

	var out []Anomaly
	for i, v := range values {
		if v > threshold {
			out = append(out, Anomaly{
				Type:            anomalyUnusualValue,
				Description:     fmt.Sprintf("Transaction value %.4f exceeds typical range for this wallet", v),
				Severity:        SeverityMedium,
				TransactionHash: txs[i].Hash,
			})
		}
	}
	return out
}

// detectRapidSuccession reports one aggregate anomaly when any pair of
// consecutive transactions landed less than 60 seconds apart.
func detectRapidSuccession(txs []providers.Transaction) *Anomaly {
	if len(txs) < 2 {
		return nil
	}
	stamps := make([]int64, len(txs))
	for i, tx := range txs {
		stamps[i] = tx.TimestampUnix()
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	pairs := 0
	for i := 1; i < len(stamps); i++ {
		if stamps[i]-stamps[i-1] < 60 {
			pairs++
		}
	}
	if pairs == 0 {
		return nil
	}
	return &Anomaly{
		Type:        anomalyRapidSuccession,
		Description: fmt.Sprintf("%d pairs of transactions occurred less than 60 seconds apart", pairs),
		Severity:    SeverityLow,
	}
}
