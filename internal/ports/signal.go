package ports

import (
	"context"

	"cryptoFuturesBot/internal/domain"
)

// MarketSnapshot is the input handed to a signal producer for one decision.
type MarketSnapshot struct {
	Symbol    string
	Klines    []*domain.Kline
	LastPrice float64
}

// SignalProducer is the pluggable decision producer. Implementations range
// from simple indicator rules to online-learning models; all of them expose
// the same predict/learn capability pair so the trading core can feed realized
// outcomes back without knowing the model internals.
type SignalProducer interface {
	// Predict derives a trading decision and price targets from a market
	// snapshot. The returned feature map is carried through the trade's
	// lifetime and handed back to Learn on closure. Targets and features are
	// meaningless when the decision is HOLD.
	Predict(ctx context.Context, snapshot MarketSnapshot) (domain.Decision, domain.PriceTargets, map[string]float64, error)

	// Learn feeds one realized outcome back into the model. The label is 1
	// for a profitable trade and 0 otherwise.
	Learn(ctx context.Context, features map[string]float64, label int) error
}
