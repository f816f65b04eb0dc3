package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"walletscore/internal/analyzer"
	"walletscore/internal/assistant"
	"walletscore/internal/config"
	"walletscore/internal/metrics"
	"walletscore/internal/providers"
)

// HealthProber is implemented by backing stores that can report liveness.
type HealthProber interface {
	Ping(ctx context.Context) error
}

// Handlers holds the dependencies of the HTTP endpoints.
type Handlers struct {
	analyzer *analyzer.Service
	agent    assistant.Agent
	cfg      *config.Config
	log      *logrus.Logger
	prober   HealthProber
	started  time.Time
}

func NewHandlers(svc *analyzer.Service, agent assistant.Agent, prober HealthProber, cfg *config.Config, log *logrus.Logger) *Handlers {
	return &Handlers{
		analyzer: svc,
		agent:    agent,
		cfg:      cfg,
		log:      log,
		prober:   prober,
		started:  time.Now(),
	}
}

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Cached    bool   `json:"cached"`
	RequestID string `json:"request_id"`
}

type errorEnvelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any, cached bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success:   true,
		Data:      data,
		Cached:    cached,
		RequestID: RequestID(r.Context()),
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Success:   false,
		Error:     msg,
		RequestID: RequestID(r.Context()),
	})
}

// walletProfile is the API projection of an analysis.
type walletProfile struct {
	Address            string               `json:"address"`
	Network            string               `json:"network"`
	Score              int                  `json:"score"`
	RiskLevel          string               `json:"riskLevel"`
	RiskScore          float64              `json:"riskScore"`
	RiskFactors        []string             `json:"riskFactors"`
	Anomalies          []analyzer.Anomaly   `json:"anomalies"`
	RecentTransactions []profileTransaction `json:"recentTransactions"`
	TotalValue         string               `json:"totalValue"`
	TransactionCount   int                  `json:"transactionCount"`
	AvgTransaction     string               `json:"avgTransaction"`
	ActiveSince        string               `json:"activeSince"`
}

type profileTransaction struct {
	Hash         string `json:"hash"`
	Type         string `json:"type"`
	Value        string `json:"value"`
	Timestamp    string `json:"timestamp"`
	Counterparty string `json:"counterparty"`
}

func (h *Handlers) network(r *http.Request) (string, bool) {
	network := r.URL.Query().Get("network")
	if network == "" {
		network = string(config.NetworkEthereum)
	}
	return network, h.cfg.SupportedNetwork(network)
}

func (h *Handlers) handleWallet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	network, ok := h.network(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "unsupported network: "+network)
		return
	}

	analysis, cached, err := h.analyzer.AnalyzeWallet(r.Context(), address, network)
	if err != nil {
		if errors.Is(err, providers.ErrInvalidAddress) {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		h.log.WithError(err).WithField("address", address).Error("Wallet analysis failed")
		respondError(w, r, http.StatusInternalServerError, "analysis failed")
		return
	}

	respondJSON(w, r, http.StatusOK, buildProfile(analysis), cached)
}

func buildProfile(a *analyzer.Analysis) walletProfile {
	profile := walletProfile{
		Address:            a.WalletAddress,
		Network:            a.Network,
		Score:              a.TrustScore,
		RiskLevel:          string(a.Risk.RiskLevel),
		RiskScore:          a.Risk.RiskScore,
		RiskFactors:        a.Risk.Factors,
		Anomalies:          a.Anomalies,
		RecentTransactions: []profileTransaction{},
		TransactionCount:   a.Snapshot.Summary.TotalTransactions,
	}

	txs := a.Snapshot.Explorer.Transactions
	features := a.Risk.PatternAnalysis
	profile.TotalValue = formatAmount(features.TotalValue)
	profile.AvgTransaction = formatAmount(features.AverageValue)

	var oldest int64
	for i, tx := range txs {
		ts := tx.TimestampUnix()
		if i == 0 || ts < oldest {
			oldest = ts
		}
	}
	if len(txs) > 0 && oldest > 0 {
		profile.ActiveSince = time.Unix(oldest, 0).UTC().Format("2006-01-02")
	}

	// Explorer results arrive newest first.
	for _, tx := range txs {
		if len(profile.RecentTransactions) == 10 {
			break
		}
		direction := "in"
		counterparty := tx.From
		if strings.EqualFold(tx.From, a.WalletAddress) {
			direction = "out"
			counterparty = tx.To
		}
		profile.RecentTransactions = append(profile.RecentTransactions, profileTransaction{
			Hash:         tx.Hash,
			Type:         direction,
			Value:        tx.Value,
			Timestamp:    tx.TimeStamp,
			Counterparty: counterparty,
		})
	}

	return profile
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (h *Handlers) handleTransactions(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	network, ok := h.network(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "unsupported network: "+network)
		return
	}

	result, cached, err := h.analyzer.Transactions(r.Context(), address, network)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if result.Rejected != "" {
		respondError(w, r, http.StatusBadRequest, result.Rejected)
		return
	}
	if !result.Success {
		respondError(w, r, http.StatusBadGateway, result.Error)
		return
	}
	respondJSON(w, r, http.StatusOK, result, cached)
}

func (h *Handlers) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	network, ok := h.network(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "unsupported network: "+network)
		return
	}

	result, err := h.analyzer.Balance(r.Context(), address, network)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !result.Success {
		respondError(w, r, http.StatusBadGateway, result.Error)
		return
	}
	respondJSON(w, r, http.StatusOK, result, false)
}

func (h *Handlers) handleDeFi(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	result, cached, err := h.analyzer.DeFiActivity(r.Context(), address)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !result.Success {
		respondError(w, r, http.StatusBadGateway, result.Error)
		return
	}
	respondJSON(w, r, http.StatusOK, result, cached)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	deps := map[string]string{}

	if h.prober != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.prober.Ping(ctx); err != nil {
			status = "degraded"
			deps["store"] = err.Error()
		} else {
			deps["store"] = "ok"
		}
	}

	healthy := status == "healthy"
	metrics.RecordHealthCheck(healthy)

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, r, code, map[string]any{
		"status":         status,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"dependencies":   deps,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}, false)
}

func (h *Handlers) handleAPIKeyStatus(w http.ResponseWriter, r *http.Request) {
	keys := map[string]bool{
		"etherscan": h.cfg.EtherscanAPIKey != "",
		"alchemy":   h.cfg.AlchemyAPIKey != "",
		"the_graph": h.cfg.TheGraphAPIKey != "",
		"assistant": h.agent.Configured(),
	}
	configured := 0
	for _, ok := range keys {
		if ok {
			configured++
		}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"keys":             keys,
		"configured_count": configured,
		"total_count":      len(keys),
	}, false)
}

type assistantQuery struct {
	Query string `json:"query"`
}

func (h *Handlers) handleAssistantQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}

	var q assistantQuery
	if err := json.Unmarshal(body, &q); err != nil || strings.TrimSpace(q.Query) == "" {
		respondError(w, r, http.StatusBadRequest, "body must be JSON with a non-empty query field")
		return
	}

	answer, err := h.agent.Query(r.Context(), q.Query)
	if err != nil {
		if errors.Is(err, assistant.ErrNotConfigured) {
			respondError(w, r, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.log.WithError(err).Error("Assistant query failed")
		respondError(w, r, http.StatusBadGateway, "assistant query failed: "+err.Error())
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"response": answer}, false)
}
