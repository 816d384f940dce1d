package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cryptoFuturesBot/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Trading Parameters
	Symbols      []string
	Interval     string
	PollInterval time.Duration
	Leverage     int
	BaseAsset    string

	// MinExitGap is the minimum fractional distance of stop-loss and
	// take-profit from the entry price (e.g., 0.04 for 4%).
	MinExitGap float64

	// CloseProfitThreshold closes a position once its unrealized profit in
	// the base asset reaches this value. Zero disables the check.
	CloseProfitThreshold float64

	// Strategy Parameters
	StrategyRSIPeriod     int     // e.g., 14
	StrategyRSIOverbought float64 // e.g., 70.0
	StrategyRSIOversold   float64 // e.g., 30.0
	StrategyStopLoss      float64 // stop distance fraction, e.g., 0.05
	StrategyTakeProfit    float64 // take-profit distance fraction, e.g., 0.05

	// Entry fill-price polling
	EntryPriceAttempts int
	EntryPriceDelay    time.Duration

	// Persistence
	DBPath         string
	LedgerPath     string
	RiskConfigPath string
	HistoryCSVPath string // empty disables the CSV trade history

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string          // "text" (stdlib) or "json" (zap)
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Trading Parameters
	cfg.Symbols = splitList(getEnv("SYMBOLS", "BTCUSDT"))
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must list at least one symbol")
	}

	cfg.Interval = getEnv("INTERVAL", "1h")

	pollSeconds := getEnvAsInt("POLL_INTERVAL_SECONDS", 60)
	if pollSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	cfg.Leverage, err = getEnvAsIntRequired("LEVERAGE", 1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LEVERAGE: %v", err))
	} else if cfg.Leverage < 0 {
		errs = append(errs, "LEVERAGE cannot be negative")
	}

	cfg.BaseAsset = getEnv("BASE_ASSET", "USDT")

	cfg.MinExitGap, err = getEnvAsFloatRequired("MIN_EXIT_GAP", 0.04)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_EXIT_GAP: %v", err))
	} else if cfg.MinExitGap <= 0 || cfg.MinExitGap >= 1.0 {
		errs = append(errs, "MIN_EXIT_GAP must be between 0.0 and 1.0 (exclusive)")
	}

	cfg.CloseProfitThreshold, err = getEnvAsFloatRequired("CLOSE_PROFIT_THRESHOLD", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CLOSE_PROFIT_THRESHOLD: %v", err))
	} else if cfg.CloseProfitThreshold < 0 {
		errs = append(errs, "CLOSE_PROFIT_THRESHOLD cannot be negative")
	}

	// Strategy Parameters (using defaults if not set)
	cfg.StrategyRSIPeriod = getEnvAsInt("STRATEGY_RSI_PERIOD", 14)
	cfg.StrategyRSIOverbought = getEnvAsFloat("STRATEGY_RSI_OVERBOUGHT", 70.0)
	cfg.StrategyRSIOversold = getEnvAsFloat("STRATEGY_RSI_OVERSOLD", 30.0)
	cfg.StrategyStopLoss = getEnvAsFloat("STRATEGY_STOP_LOSS", 0.05)
	cfg.StrategyTakeProfit = getEnvAsFloat("STRATEGY_TAKE_PROFIT", 0.05)

	if cfg.StrategyRSIPeriod <= 0 {
		errs = append(errs, "STRATEGY_RSI_PERIOD must be positive")
	}
	if cfg.StrategyRSIOverbought <= cfg.StrategyRSIOversold || cfg.StrategyRSIOverbought > 100 || cfg.StrategyRSIOversold < 0 {
		errs = append(errs, "invalid RSI thresholds (Overbought must be > Oversold, between 0-100)")
	}
	if cfg.StrategyStopLoss <= 0 || cfg.StrategyTakeProfit <= 0 {
		errs = append(errs, "STRATEGY_STOP_LOSS and STRATEGY_TAKE_PROFIT must be positive")
	}

	// Entry fill-price polling
	cfg.EntryPriceAttempts = getEnvAsInt("ENTRY_PRICE_ATTEMPTS", 3)
	if cfg.EntryPriceAttempts <= 0 {
		errs = append(errs, "ENTRY_PRICE_ATTEMPTS must be positive")
	}
	entryDelaySeconds := getEnvAsInt("ENTRY_PRICE_DELAY_SECONDS", 2)
	if entryDelaySeconds <= 0 {
		errs = append(errs, "ENTRY_PRICE_DELAY_SECONDS must be positive")
	}
	cfg.EntryPriceDelay = time.Duration(entryDelaySeconds) * time.Second

	// Persistence
	cfg.DBPath = getEnv("DB_PATH", "./data/trading_bot.db")
	cfg.LedgerPath = getEnv("LEDGER_PATH", "./data/ledger.json")
	cfg.RiskConfigPath = getEnv("RISK_CONFIG_PATH", "./risk_config.json")
	cfg.HistoryCSVPath = getEnv("TRADE_HISTORY_CSV", "")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	if cfg.LedgerPath == "" {
		errs = append(errs, "LEDGER_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be 'text' or 'json'")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Log warning? For non-required fields, default is often acceptable.
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
