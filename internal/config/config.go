// Package config loads environment-driven configuration. A .env file
// is honored when present; real environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"swing-trade-lab/internal/domain"
)

// Config is the full application configuration, loaded once and passed
// into constructors. No package-level mutable state.
type Config struct {
	// Broker credentials and safety toggles. Live trading requires
	// AllowLiveTrading plus an explicit CLI confirmation on top.
	BrokerBaseURL    string
	BrokerStreamURL  string
	BrokerAPIKey     string
	BrokerSecretKey  string
	PaperTrading     bool
	AllowLiveTrading bool

	// Storage DSNs. Empty values keep the corresponding store in memory.
	PostgresDSN   string
	ClickhouseDSN string

	Run    domain.RunConfig
	Limits domain.RiskLimits
}

// Load reads configuration from the environment. A missing .env file is
// not an error; a malformed one is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	run := domain.DefaultRunConfig()
	run.InitialCapital = envFloat("INITIAL_CAPITAL", run.InitialCapital)
	run.CommissionPerTrade = envFloat("COMMISSION_PER_TRADE", run.CommissionPerTrade)
	run.SlippagePct = envFloat("SLIPPAGE_PCT", run.SlippagePct)
	run.MaxPositionPct = envFloat("MAX_POSITION_SIZE_PCT", run.MaxPositionPct)
	run.MaxRiskPct = envFloat("MAX_RISK_PER_TRADE_PCT", run.MaxRiskPct)

	limits := domain.DefaultRiskLimits()
	limits.MaxPositions = envInt("MAX_POSITIONS", limits.MaxPositions)
	limits.MaxPositionPct = run.MaxPositionPct
	limits.MaxRiskPct = run.MaxRiskPct
	limits.MinStockPrice = envFloat("MIN_STOCK_PRICE", limits.MinStockPrice)
	limits.MinAvgDollarVolume = envFloat("MIN_AVG_DOLLAR_VOLUME", limits.MinAvgDollarVolume)
	limits.LeverageAllowed = envBool("LEVERAGE_ALLOWED", limits.LeverageAllowed)

	cfg := &Config{
		BrokerBaseURL:    envString("BROKER_BASE_URL", "https://paper-api.alpaca.markets"),
		BrokerStreamURL:  envString("BROKER_STREAM_URL", "wss://stream.data.alpaca.markets/v2/iex"),
		BrokerAPIKey:     os.Getenv("BROKER_API_KEY"),
		BrokerSecretKey:  os.Getenv("BROKER_SECRET_KEY"),
		PaperTrading:     envBool("PAPER_TRADING", true),
		AllowLiveTrading: envBool("ALLOW_LIVE_TRADING", false),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:    os.Getenv("CLICKHOUSE_DSN"),
		Run:              run,
		Limits:           limits,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants beyond the per-run checks.
func (c *Config) Validate() error {
	if err := c.Run.Validate(); err != nil {
		return err
	}
	if c.Run.MaxPositionPct <= 0 || c.Run.MaxPositionPct > 1 {
		return fmt.Errorf("MAX_POSITION_SIZE_PCT must be in (0, 1], got %v", c.Run.MaxPositionPct)
	}
	if c.Run.MaxRiskPct <= 0 || c.Run.MaxRiskPct > 0.1 {
		return fmt.Errorf("MAX_RISK_PER_TRADE_PCT must be in (0, 0.1], got %v", c.Run.MaxRiskPct)
	}
	if c.Limits.MaxPositions < 1 {
		return fmt.Errorf("MAX_POSITIONS must be at least 1, got %d", c.Limits.MaxPositions)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
