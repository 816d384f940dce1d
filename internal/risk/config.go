package risk

import (
	"context"
	"encoding/json"
	"os"

	"cryptoFuturesBot/internal/ports"
)

// Config holds the risk budget settings.
type Config struct {
	// RiskPerTrade maps a symbol to the fraction of the balance risked per
	// trade, overriding the default.
	RiskPerTrade map[string]float64 `json:"risk_per_trade"`
	// DefaultRiskPerTrade is the fraction used for symbols without an override.
	DefaultRiskPerTrade float64 `json:"default_risk_per_trade_percent"`
	// MaxDrawdown is the fractional balance decline at which new trades halt.
	MaxDrawdown float64 `json:"max_drawdown"`
}

// DefaultConfig returns the built-in risk settings used when no configuration
// file is available.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade: map[string]float64{
			"BTCUSDT": 0.01,
			"ETHUSDT": 0.005,
			"BNBUSDT": 0.01,
			"SOLUSDT": 0.015,
			"ADAUSDT": 0.012,
		},
		DefaultRiskPerTrade: 0.01,
		MaxDrawdown:         0.2,
	}
}

// LoadConfig reads the risk configuration JSON file. A missing or malformed
// file is logged as an error and falls back to the built-in defaults; it is
// never fatal.
func LoadConfig(ctx context.Context, path string, logger ports.Logger) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error(ctx, err, "Risk config file not readable, using default risk settings", map[string]interface{}{"path": path})
		return DefaultConfig()
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Error(ctx, err, "Risk config file is not valid JSON, using default risk settings", map[string]interface{}{"path": path})
		return DefaultConfig()
	}

	if cfg.RiskPerTrade == nil {
		cfg.RiskPerTrade = map[string]float64{}
	}
	if cfg.DefaultRiskPerTrade <= 0 {
		cfg.DefaultRiskPerTrade = DefaultConfig().DefaultRiskPerTrade
	}
	if cfg.MaxDrawdown <= 0 {
		cfg.MaxDrawdown = DefaultConfig().MaxDrawdown
	}

	logger.Info(ctx, "Risk configuration loaded", map[string]interface{}{
		"path":        path,
		"overrides":   len(cfg.RiskPerTrade),
		"defaultRisk": cfg.DefaultRiskPerTrade,
		"maxDrawdown": cfg.MaxDrawdown,
	})
	return cfg
}
