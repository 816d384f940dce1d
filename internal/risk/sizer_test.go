package risk

import (
	"context"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestSizer(t *testing.T, cfg Config) *Sizer {
	t.Helper()
	sizer, err := NewSizer(cfg, nopLogger{})
	if err != nil {
		t.Fatalf("NewSizer returned error: %v", err)
	}
	return sizer
}

func TestSizeFromRiskBudget(t *testing.T) {
	sizer := newTestSizer(t, Config{
		RiskPerTrade:        map[string]float64{"BTCUSDT": 0.01},
		DefaultRiskPerTrade: 0.02,
		MaxDrawdown:         0.2,
	})
	ctx := context.Background()
	sizer.UpdateAccountBalance(ctx, 10000)

	// risk_amount = 10000 * 0.01 = 100; stop distance = 800
	quantity := sizer.Size(ctx, "BTCUSDT", 70750, 69950)
	if quantity != 0.125 {
		t.Errorf("Expected quantity 0.125, got %v", quantity)
	}

	// Unknown symbol falls back to the default fraction.
	quantity = sizer.Size(ctx, "XRPUSDT", 70750, 69950)
	if quantity != 0.25 {
		t.Errorf("Expected quantity 0.25 with default fraction, got %v", quantity)
	}
}

func TestSizeRejectsInvalidInputs(t *testing.T) {
	sizer := newTestSizer(t, Config{DefaultRiskPerTrade: 0.01, MaxDrawdown: 0.2})
	ctx := context.Background()
	sizer.UpdateAccountBalance(ctx, 10000)

	cases := []struct {
		name          string
		currentPrice  float64
		stopLossPrice float64
	}{
		{"zero current price", 0, 69950},
		{"zero stop price", 70750, 0},
		{"negative price", -1, 69950},
		{"zero stop distance", 70750, 70750},
	}
	for _, tc := range cases {
		if got := sizer.Size(ctx, "BTCUSDT", tc.currentPrice, tc.stopLossPrice); got != 0 {
			t.Errorf("%s: expected zero quantity, got %v", tc.name, got)
		}
	}
}

func TestCheckDrawdownLimit(t *testing.T) {
	sizer := newTestSizer(t, Config{DefaultRiskPerTrade: 0.01, MaxDrawdown: 0.2})
	ctx := context.Background()

	// No initial balance yet: fail open.
	if !sizer.CheckDrawdownLimit(ctx) {
		t.Error("Expected drawdown check to allow trades before initial balance is known")
	}

	sizer.UpdateAccountBalance(ctx, 1000) // seeds initial balance

	sizer.UpdateAccountBalance(ctx, 850) // drawdown 0.15 <= 0.2
	if !sizer.CheckDrawdownLimit(ctx) {
		t.Error("Expected trades allowed at 15% drawdown with a 20% limit")
	}

	sizer.UpdateAccountBalance(ctx, 750) // drawdown 0.25 > 0.2
	if sizer.CheckDrawdownLimit(ctx) {
		t.Error("Expected trades halted at 25% drawdown with a 20% limit")
	}
}

func TestUpdateAccountBalance(t *testing.T) {
	sizer := newTestSizer(t, Config{DefaultRiskPerTrade: 0.01, MaxDrawdown: 0.2})
	ctx := context.Background()

	// Negative values are rejected without touching state.
	sizer.UpdateAccountBalance(ctx, -50)
	if got := sizer.AccountBalance(); got != 0 {
		t.Errorf("Expected balance unchanged after negative update, got %v", got)
	}

	// The first positive update seeds the initial balance; later updates do not reseed.
	sizer.UpdateAccountBalance(ctx, 1000)
	sizer.UpdateAccountBalance(ctx, 2000)
	sizer.UpdateAccountBalance(ctx, 790) // 21% below the 1000 seed
	if sizer.CheckDrawdownLimit(ctx) {
		t.Error("Expected drawdown measured against the first observed balance, not a later peak")
	}
}

func TestNewSizerValidatesConfig(t *testing.T) {
	if _, err := NewSizer(Config{DefaultRiskPerTrade: 0, MaxDrawdown: 0.2}, nopLogger{}); err == nil {
		t.Error("Expected error for zero default risk fraction")
	}
	if _, err := NewSizer(Config{DefaultRiskPerTrade: 1.5, MaxDrawdown: 0.2}, nopLogger{}); err == nil {
		t.Error("Expected error for risk fraction above 1")
	}
	if _, err := NewSizer(Config{DefaultRiskPerTrade: 0.01, MaxDrawdown: 0}, nopLogger{}); err == nil {
		t.Error("Expected error for zero max drawdown")
	}
	if _, err := NewSizer(Config{DefaultRiskPerTrade: 0.01, MaxDrawdown: 0.2}, nil); err == nil {
		t.Error("Expected error for nil logger")
	}
}
