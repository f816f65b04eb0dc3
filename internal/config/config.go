package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"walletscore/internal/secrets"
)

// Network identifies a supported blockchain network.
type Network string

const (
	NetworkEthereum Network = "ethereum"
	NetworkPolygon  Network = "polygon"
	NetworkBSC      Network = "bsc"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// HTTP server
	ServerHost      string
	ServerPort      int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string

	// Database (optional; the in-memory store backs cache and rate limiting when empty)
	DatabaseDSN         string
	DatabaseMaxConns    int
	DatabaseMaxIdleTime time.Duration

	// Provider endpoints and credentials
	EtherscanBaseURL string
	EtherscanAPIKey  string
	AlchemyBaseURL   string
	AlchemyAPIKey    string
	TheGraphBaseURL  string
	TheGraphAPIKey   string
	RPCURLs          map[Network]string

	// Provider behaviour
	ProviderMinInterval time.Duration // process-wide spacing between calls to one upstream
	ProviderTimeout     time.Duration // transport timeout for a single provider call
	RequestDeadline     time.Duration // overall budget for one analysis fan-out

	// Inbound rate limiting
	RateLimitPerMinute int
	RateLimitPerHour   int

	// Cache TTLs
	WalletAnalysisTTL time.Duration
	TransactionTTL    time.Duration
	DeFiTTL           time.Duration

	// Assistant collaborator
	AssistantEndpoint string
	AssistantTimeout  time.Duration

	// ML model (loaded at startup when set; not part of the scoring path)
	ModelPath string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "production"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		ServerHost:          getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:          getEnvInt("SERVER_PORT", 8000),
		ReadTimeout:         getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:        getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:         getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:     getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		DatabaseDSN:         getEnv("DATABASE_DSN", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMaxIdleTime: time.Duration(getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", 5)) * time.Minute,
		EtherscanBaseURL:    getEnv("ETHERSCAN_BASE_URL", "https://api.etherscan.io/api"),
		EtherscanAPIKey:     secrets.GetOptionalSecret("ETHERSCAN_API_KEY", ""),
		AlchemyBaseURL:      getEnv("ALCHEMY_BASE_URL", "https://eth-mainnet.alchemyapi.io/v2"),
		AlchemyAPIKey:       secrets.GetOptionalSecret("ALCHEMY_API_KEY", ""),
		TheGraphBaseURL:     getEnv("THE_GRAPH_BASE_URL", "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2"),
		TheGraphAPIKey:      secrets.GetOptionalSecret("THE_GRAPH_API_KEY", ""),
		ProviderMinInterval: getEnvDuration("PROVIDER_MIN_INTERVAL", 100*time.Millisecond),
		ProviderTimeout:     getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		RequestDeadline:     getEnvDuration("REQUEST_DEADLINE", 45*time.Second),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitPerHour:    getEnvInt("RATE_LIMIT_PER_HOUR", 1000),
		WalletAnalysisTTL:   getEnvDuration("WALLET_ANALYSIS_TTL", time.Hour),
		TransactionTTL:      getEnvDuration("TRANSACTION_TTL", 30*time.Minute),
		DeFiTTL:             getEnvDuration("DEFI_TTL", 30*time.Minute),
		AssistantEndpoint:   getEnv("ASSISTANT_ENDPOINT", ""),
		AssistantTimeout:    getEnvDuration("ASSISTANT_TIMEOUT", 60*time.Second),
		ModelPath:           getEnv("MODEL_PATH", ""),
	}

	cfg.RPCURLs = map[Network]string{
		NetworkEthereum: getEnv("ETHEREUM_RPC_URL", ""),
		NetworkPolygon:  getEnv("POLYGON_RPC_URL", ""),
		NetworkBSC:      getEnv("BSC_RPC_URL", ""),
	}

	if origins := getEnv("SERVER_ALLOWED_ORIGINS", ""); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT %d is out of range", c.ServerPort)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RateLimitPerHour < c.RateLimitPerMinute {
		return fmt.Errorf("RATE_LIMIT_PER_HOUR must be at least RATE_LIMIT_PER_MINUTE")
	}
	if c.ProviderMinInterval < 0 {
		return fmt.Errorf("PROVIDER_MIN_INTERVAL must not be negative")
	}
	return nil
}

// SupportedNetwork reports whether the service knows the given network name.
func (c *Config) SupportedNetwork(network string) bool {
	switch Network(network) {
	case NetworkEthereum, NetworkPolygon, NetworkBSC:
		return true
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
