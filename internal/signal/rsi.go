// Package signal contains the built-in signal producers. The RSI producer is
// the baseline rule-based model; model-backed producers plug into the same
// ports.SignalProducer interface.
package signal

import (
	"context"
	"fmt"
	"sync"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/ports"
)

// RSIConfig holds configuration for the RSI signal producer.
type RSIConfig struct {
	Period     int     // Lookback period for Wilder's smoothing (default 14)
	Overbought float64 // RSI level at or above which a SELL signal fires (default 70)
	Oversold   float64 // RSI level at or below which a BUY signal fires (default 30)
	StopLoss   float64 // Stop distance as a fraction of entry price (default 0.05)
	TakeProfit float64 // Take-profit distance as a fraction of entry price (default 0.05)
	Logger     ports.Logger
}

// RSIProducer derives BUY/SELL/HOLD decisions from the Relative Strength Index.
type RSIProducer struct {
	cfg    RSIConfig
	logger ports.Logger

	mu       sync.Mutex
	outcomes int
	wins     int
}

// NewRSIProducer creates an RSI producer, applying defaults for unset fields.
func NewRSIProducer(cfg RSIConfig) (*RSIProducer, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for RSI producer")
	}
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.Overbought <= 0 {
		cfg.Overbought = 70
	}
	if cfg.Oversold <= 0 {
		cfg.Oversold = 30
	}
	if cfg.Oversold >= cfg.Overbought {
		return nil, fmt.Errorf("oversold threshold (%.2f) must be below overbought threshold (%.2f)", cfg.Oversold, cfg.Overbought)
	}
	if cfg.StopLoss <= 0 {
		cfg.StopLoss = 0.05
	}
	if cfg.TakeProfit <= 0 {
		cfg.TakeProfit = 0.05
	}
	return &RSIProducer{cfg: cfg, logger: cfg.Logger}, nil
}

// Predict computes the RSI over the snapshot's klines and maps oversold to BUY
// and overbought to SELL. Exit targets are fixed fractions of the last price.
func (p *RSIProducer) Predict(ctx context.Context, snapshot ports.MarketSnapshot) (domain.Decision, domain.PriceTargets, map[string]float64, error) {
	rsi, err := calculateRSI(snapshot.Klines, p.cfg.Period)
	if err != nil {
		return domain.DecisionHold, domain.PriceTargets{}, nil, err
	}
	if snapshot.LastPrice <= 0 {
		return domain.DecisionHold, domain.PriceTargets{}, nil, fmt.Errorf("invalid last price %.8f for symbol %s", snapshot.LastPrice, snapshot.Symbol)
	}

	features := map[string]float64{
		"rsi":        rsi,
		"last_price": snapshot.LastPrice,
	}

	var decision domain.Decision
	var targets domain.PriceTargets
	switch {
	case rsi <= p.cfg.Oversold:
		decision = domain.DecisionBuy
		targets = domain.PriceTargets{
			Entry:      snapshot.LastPrice,
			StopLoss:   snapshot.LastPrice * (1 - p.cfg.StopLoss),
			TakeProfit: snapshot.LastPrice * (1 + p.cfg.TakeProfit),
		}
	case rsi >= p.cfg.Overbought:
		decision = domain.DecisionSell
		targets = domain.PriceTargets{
			Entry:      snapshot.LastPrice,
			StopLoss:   snapshot.LastPrice * (1 + p.cfg.StopLoss),
			TakeProfit: snapshot.LastPrice * (1 - p.cfg.TakeProfit),
		}
	default:
		return domain.DecisionHold, domain.PriceTargets{}, nil, nil
	}

	p.logger.Debug(ctx, "RSI signal produced", map[string]interface{}{
		"symbol": snapshot.Symbol, "rsi": rsi, "decision": decision,
		"entry": targets.Entry, "stopLoss": targets.StopLoss, "takeProfit": targets.TakeProfit,
	})
	return decision, targets, features, nil
}

// Learn records the realized outcome. The RSI rule has no parameters to
// update, so outcomes are only tracked for hit-rate logging.
func (p *RSIProducer) Learn(ctx context.Context, features map[string]float64, label int) error {
	p.mu.Lock()
	p.outcomes++
	if label == 1 {
		p.wins++
	}
	outcomes, wins := p.outcomes, p.wins
	p.mu.Unlock()

	p.logger.Info(ctx, "Trade outcome recorded", map[string]interface{}{
		"label": label, "outcomes": outcomes, "wins": wins,
	})
	return nil
}

// calculateRSI computes the Relative Strength Index using Wilder's smoothing.
func calculateRSI(klines []*domain.Kline, period int) (float64, error) {
	if len(klines) <= period {
		return 0, fmt.Errorf("not enough data (%d) to calculate RSI for period %d", len(klines), period)
	}

	changes := make([]float64, 0, len(klines)-1)
	for i := 1; i < len(klines); i++ {
		changes = append(changes, klines[i].Close-klines[i-1].Close)
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		if changes[i] > 0 {
			avgGain += changes[i]
		} else {
			avgLoss -= changes[i]
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period; i < len(changes); i++ {
		if changes[i] > 0 {
			avgGain = (avgGain*float64(period-1) + changes[i]) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - changes[i]) / float64(period)
		}
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil // Neutral if no change
		}
		return 100, nil // Max RSI if only gains
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))
	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi, nil
}
