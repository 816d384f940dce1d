// Package risk converts an account-balance risk budget into position sizes
// and guards new entries behind a maximum-drawdown limit.
package risk

import (
	"context"
	"fmt"
	"math"
	"sync"

	"cryptoFuturesBot/internal/ports"
)

// Sizer sizes positions from the configured risk fraction of the account
// balance and the stop-loss distance.
type Sizer struct {
	cfg    Config
	logger ports.Logger

	mu             sync.Mutex
	accountBalance float64
	initialBalance float64 // seeded by the first positive balance update
}

// NewSizer creates a risk sizer with the given configuration.
func NewSizer(cfg Config, logger ports.Logger) (*Sizer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for risk sizer")
	}
	if cfg.DefaultRiskPerTrade <= 0 || cfg.DefaultRiskPerTrade >= 1 {
		return nil, fmt.Errorf("default risk per trade must be between 0 and 1, got %f", cfg.DefaultRiskPerTrade)
	}
	if cfg.MaxDrawdown <= 0 || cfg.MaxDrawdown >= 1 {
		return nil, fmt.Errorf("max drawdown must be between 0 and 1, got %f", cfg.MaxDrawdown)
	}
	return &Sizer{cfg: cfg, logger: logger}, nil
}

// Size computes the base-asset quantity that risks the symbol's configured
// fraction of the account balance between the current price and the stop-loss
// price. Invalid inputs yield a zero quantity, not an error, so the caller can
// skip the trade cycle for that symbol.
func (s *Sizer) Size(ctx context.Context, symbol string, currentPrice, stopLossPrice float64) float64 {
	if currentPrice <= 0 || stopLossPrice <= 0 {
		s.logger.Error(ctx, nil, "Position sizing rejected: prices must be greater than zero", map[string]interface{}{
			"symbol":        symbol,
			"currentPrice":  currentPrice,
			"stopLossPrice": stopLossPrice,
		})
		return 0
	}
	stopDistance := math.Abs(currentPrice - stopLossPrice)
	if stopDistance == 0 {
		s.logger.Error(ctx, nil, "Position sizing rejected: stop-loss distance is zero", map[string]interface{}{
			"symbol": symbol,
			"price":  currentPrice,
		})
		return 0
	}

	s.mu.Lock()
	balance := s.accountBalance
	s.mu.Unlock()

	fraction := s.riskFraction(symbol)
	riskAmount := balance * fraction
	quantity := riskAmount / stopDistance

	s.logger.Info(ctx, "Position size calculated", map[string]interface{}{
		"symbol":       symbol,
		"riskFraction": fraction,
		"riskAmount":   riskAmount,
		"stopDistance": stopDistance,
		"quantity":     quantity,
	})
	return quantity
}

// riskFraction looks up the per-symbol override, else the configured default.
func (s *Sizer) riskFraction(symbol string) float64 {
	if f, ok := s.cfg.RiskPerTrade[symbol]; ok && f > 0 {
		return f
	}
	return s.cfg.DefaultRiskPerTrade
}

// CheckDrawdownLimit reports whether new trades are still allowed. It returns
// false once the decline from the initial balance exceeds the configured
// maximum. Before the initial balance is known it fails open and allows
// trading, with a warning.
func (s *Sizer) CheckDrawdownLimit(ctx context.Context) bool {
	s.mu.Lock()
	balance := s.accountBalance
	initial := s.initialBalance
	s.mu.Unlock()

	if initial <= 0 {
		s.logger.Warn(ctx, "Initial balance is zero or less, cannot calculate drawdown; allowing trades")
		return true
	}
	drawdown := 1 - balance/initial
	if drawdown > s.cfg.MaxDrawdown {
		s.logger.Error(ctx, nil, "Max drawdown limit exceeded, halting new trades", map[string]interface{}{
			"balance":     balance,
			"initial":     initial,
			"drawdown":    drawdown,
			"maxDrawdown": s.cfg.MaxDrawdown,
		})
		return false
	}
	s.logger.Debug(ctx, "Drawdown within limit", map[string]interface{}{
		"drawdown":    drawdown,
		"maxDrawdown": s.cfg.MaxDrawdown,
	})
	return true
}

// UpdateAccountBalance records a fresh balance figure. Negative values are
// rejected and logged. The first positive update also seeds the initial
// balance so drawdown is measured against the first observed real balance.
func (s *Sizer) UpdateAccountBalance(ctx context.Context, newBalance float64) {
	if newBalance < 0 {
		s.logger.Error(ctx, nil, "Rejected attempt to set account balance to a negative value", map[string]interface{}{
			"newBalance": newBalance,
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if newBalance != s.accountBalance {
		s.logger.Info(ctx, "Account balance updated", map[string]interface{}{
			"previous": s.accountBalance,
			"current":  newBalance,
		})
	}
	s.accountBalance = newBalance
	if s.initialBalance <= 0 && newBalance > 0 {
		s.initialBalance = newBalance
		s.logger.Info(ctx, "Initial balance seeded for drawdown tracking", map[string]interface{}{
			"initialBalance": newBalance,
		})
	}
}

// AccountBalance returns the last recorded balance.
func (s *Sizer) AccountBalance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountBalance
}
