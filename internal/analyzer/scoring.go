package analyzer

// RiskLevel classifies a risk score into a coarse bucket.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is the output of the risk rule ladder: a bounded score, a
// level derived from it, and the labels of every rule that fired.
type RiskAssessment struct {
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskScore       float64   `json:"risk_score"`
	Factors         []string  `json:"factors"`
	PatternAnalysis Features  `json:"pattern_analysis"`
}

// ScoreInput bundles everything the scorers consume. HasBalance is false
// when the balance provider failed or was never configured, in which case
// the balance rules are skipped entirely rather than treating 0 as real.
type ScoreInput struct {
	Patterns         Features
	DeFiTransactions int
	Balance          float64
	HasBalance       bool
}

// AssessRisk runs the rule ladder over the input and returns a score in
// [0,100]. The ladder is deterministic: identical input always produces an
// identical score and factor list. The thresholds and deltas are part of
// the scoring contract and must not drift between releases, since cached
// results from older runs are compared against fresh ones.
//
// Rules derived from transaction history are skipped when the wallet has
// no transactions, so an empty wallet scores 0 rather than being flagged
// as "recently created".
func AssessRisk(in ScoreInput) RiskAssessment {
	score := 0.0
	factors := []string{}

	p := in.Patterns
	if p.TotalTransactions > 0 {
		if p.AverageDailyTransactions > 10 {
			score += 20
			factors = append(factors, "High transaction frequency")
		} else if p.AverageDailyTransactions > 5 {
			score += 10
			factors = append(factors, "Elevated transaction frequency")
		}

		if p.AverageValue > 10 {
			score += 15
			factors = append(factors, "High average transaction value")
		} else if p.AverageValue < 0.001 {
			score += 5
			factors = append(factors, "Dust-level average transaction value")
		}

		if p.UniqueToAddresses > 100 {
			score += 15
			factors = append(factors, "Very high recipient diversity")
		} else if p.UniqueToAddresses < 5 {
			score += 5
			factors = append(factors, "Low recipient diversity")
		}
	}

	if in.DeFiTransactions > 50 {
		score += 10
		factors = append(factors, "Heavy DeFi usage")
	} else if in.DeFiTransactions > 10 {
		score += 5
		factors = append(factors, "Moderate DeFi usage")
	}

	if p.TotalTransactions > 0 {
		if p.SpanDays < 30 {
			score += 20
			factors = append(factors, "Recently created wallet")
		} else if p.SpanDays < 90 {
			score += 10
			factors = append(factors, "Young wallet")
		} else if p.SpanDays > 365 {
			score -= 10
			factors = append(factors, "Established wallet history")
		}
	}

	if in.HasBalance {
		if in.Balance > 100 {
			score += 5
			factors = append(factors, "Large native balance")
		} else if in.Balance < 0.01 {
			score += 10
			factors = append(factors, "Near-empty balance")
		}
	}

	score = clamp(score, 0, 100)

	return RiskAssessment{
		RiskLevel:       riskLevel(score),
		RiskScore:       score,
		Factors:         factors,
		PatternAnalysis: p,
	}
}

func riskLevel(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ComputeTrustScore derives a trust score in [0,100] from the risk
// assessment plus activity and balance signals. Trust moves inversely to
// risk; span bonuses only apply to wallets with transaction history, while
// the low-activity penalty applies regardless so inactive wallets read as
// less trustworthy than proven ones.
func ComputeTrustScore(risk RiskAssessment, in ScoreInput) int {
	score := 50.0

	switch {
	case risk.RiskScore < 30:
		score += 30
	case risk.RiskScore > 70:
		score -= 30
	default:
		score -= (risk.RiskScore - 50) * 0.6
	}

	p := in.Patterns
	if p.TotalTransactions > 0 {
		if p.SpanDays > 365 {
			score += 10
		} else if p.SpanDays < 30 {
			score -= 15
		}
	}

	if p.TotalTransactions > 100 {
		score += 5
	} else if p.TotalTransactions < 5 {
		score -= 10
	}

	if in.HasBalance {
		if in.Balance >= 0.1 && in.Balance <= 100 {
			score += 5
		} else if in.Balance < 0.001 {
			score -= 5
		}
	}

	return int(clamp(score, 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
