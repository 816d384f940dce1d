// Package trading contains the order lifecycle engine: bracket order
// placement, the open-trade ledger, the reconciliation loop that detects
// closures, and outcome reporting back to the signal producer.
package trading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/ports"
	"cryptoFuturesBot/internal/precision"
	"cryptoFuturesBot/internal/retry"
	"cryptoFuturesBot/internal/risk"
)

// Config holds the trading service's tunables and dependencies.
type Config struct {
	Logger    ports.Logger
	Exchange  ports.ExchangeClient
	Precision *precision.Resolver
	Sizer     *risk.Sizer
	Store     ports.LedgerStore
	Signals   ports.SignalProducer
	History   ports.TradeHistoryRepository
	Notifier  ports.Notifier

	Symbols      []string      // symbols to trade
	Interval     string        // kline interval for market snapshots (e.g., "1h")
	PollInterval time.Duration // reconcile/decide cycle period (default 60s)
	BaseAsset    string        // balance asset (default "USDT")
	Leverage     int           // leverage applied per symbol at startup (0 skips)

	// MinExitGap is the minimum fractional distance between the entry price
	// and each protective order; too-tight caller targets are widened to it.
	MinExitGap float64

	// CloseProfitThreshold closes a position at market once its unrealized
	// profit in the balance asset reaches this value. Zero disables the check.
	CloseProfitThreshold float64

	// SnapshotLimit is the number of klines handed to the signal producer.
	SnapshotLimit int

	// EntryPriceRetry bounds the polling for an entry fill price when the
	// order response does not carry one.
	EntryPriceRetry retry.Policy

	// HistoryCSVPath appends closed trades to a CSV file when set.
	HistoryCSVPath string
}

// Service drives the trading loop. All ledger-mutating operations (placement
// and reconciliation) are serialized behind one mutex, preserving the
// at-most-one-open-trade-per-(symbol, side) invariant even if an external
// signal path calls into placement concurrently with the polling loop.
type Service struct {
	cfg       Config
	logger    ports.Logger
	exchange  ports.ExchangeClient
	precision *precision.Resolver
	sizer     *risk.Sizer
	signals   ports.SignalProducer
	history   ports.TradeHistoryRepository
	notifier  ports.Notifier

	mu     sync.Mutex
	ledger *Ledger
}

// NewService creates the trading service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Exchange == nil {
		return nil, fmt.Errorf("exchange client is required")
	}
	if cfg.Precision == nil {
		return nil, fmt.Errorf("precision resolver is required")
	}
	if cfg.Sizer == nil {
		return nil, fmt.Errorf("risk sizer is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if cfg.Signals == nil {
		return nil, fmt.Errorf("signal producer is required")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	if cfg.Interval == "" {
		cfg.Interval = "1h"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.BaseAsset == "" {
		cfg.BaseAsset = "USDT"
	}
	if cfg.MinExitGap <= 0 {
		cfg.MinExitGap = 0.04
	}
	if cfg.SnapshotLimit <= 0 {
		cfg.SnapshotLimit = 100
	}
	if cfg.EntryPriceRetry.MaxAttempts <= 0 {
		cfg.EntryPriceRetry = retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second}
	}

	return &Service{
		cfg:       cfg,
		logger:    cfg.Logger,
		exchange:  cfg.Exchange,
		precision: cfg.Precision,
		sizer:     cfg.Sizer,
		signals:   cfg.Signals,
		history:   cfg.History,
		notifier:  cfg.Notifier,
		ledger:    NewLedger(cfg.Store, cfg.Logger),
	}, nil
}

// Run starts the trading loop and blocks until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.exchange.SetServerTime(ctx); err != nil {
		return fmt.Errorf("failed to synchronize server time: %w", err)
	}

	s.mu.Lock()
	err := s.ledger.Load(ctx)
	open := s.ledger.Len()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to load trade ledger: %w", err)
	}
	s.logger.Info(ctx, "Trade ledger restored", map[string]interface{}{"openTrades": open})

	for _, symbol := range s.cfg.Symbols {
		if s.cfg.Leverage > 0 {
			if err := s.exchange.SetLeverage(ctx, symbol, s.cfg.Leverage); err != nil {
				s.logger.Warn(ctx, "Failed to set leverage, keeping exchange default", map[string]interface{}{
					"symbol": symbol, "leverage": s.cfg.Leverage, "error": err.Error(),
				})
			}
		}
	}

	s.notify(ctx, fmt.Sprintf("Trading service started for %v (interval %s)", s.cfg.Symbols, s.cfg.Interval))

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Trading service stopping", map[string]interface{}{"reason": ctx.Err().Error()})
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one iteration of the polling loop: refresh account state,
// reconcile open trades, then evaluate entry signals per symbol.
func (s *Service) cycle(ctx context.Context) {
	balance, err := s.exchange.GetAccountBalance(ctx, s.cfg.BaseAsset)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to fetch account balance, skipping cycle")
		return
	}
	s.sizer.UpdateAccountBalance(ctx, balance)

	s.Reconcile(ctx)

	if !s.sizer.CheckDrawdownLimit(ctx) {
		// Existing trades keep being reconciled; only new entries halt.
		return
	}

	for _, symbol := range s.cfg.Symbols {
		if err := s.evaluateSymbol(ctx, symbol); err != nil {
			s.logger.Error(ctx, err, "Symbol evaluation failed", map[string]interface{}{"symbol": symbol})
		}
	}
}

// evaluateSymbol asks the signal producer for a decision on one symbol and
// turns a BUY/SELL into a bracket order.
func (s *Service) evaluateSymbol(ctx context.Context, symbol string) error {
	klines, err := s.exchange.GetKlines(ctx, symbol, s.cfg.Interval, s.cfg.SnapshotLimit)
	if err != nil {
		return fmt.Errorf("fetching klines: %w", err)
	}
	lastPrice, err := s.exchange.GetTickerPrice(ctx, symbol)
	if err != nil {
		return fmt.Errorf("fetching ticker price: %w", err)
	}

	decision, targets, features, err := s.signals.Predict(ctx, ports.MarketSnapshot{
		Symbol:    symbol,
		Klines:    klines,
		LastPrice: lastPrice,
	})
	if err != nil {
		return fmt.Errorf("signal prediction: %w", err)
	}
	if decision == domain.DecisionHold {
		return nil
	}

	side := domain.Buy
	if decision == domain.DecisionSell {
		side = domain.Sell
	}

	quantity := s.sizer.Size(ctx, symbol, targets.Entry, targets.StopLoss)
	if quantity <= 0 {
		return nil
	}

	result := s.PlaceBracketOrder(ctx, BracketRequest{
		Symbol:          symbol,
		Side:            side,
		Quantity:        quantity,
		EntryPrice:      targets.Entry,
		StopLossPrice:   targets.StopLoss,
		TakeProfitPrice: targets.TakeProfit,
		Features:        features,
	})
	switch result.Outcome {
	case OutcomePlaced:
		s.logger.Info(ctx, "Bracket order placed", map[string]interface{}{
			"symbol": symbol, "side": side, "quantity": result.Trade.Quantity,
			"entryPrice": result.Trade.EntryPrice,
		})
	case OutcomeRejected:
		s.logger.Debug(ctx, "Bracket order rejected", map[string]interface{}{
			"symbol": symbol, "side": side, "reason": result.Reason,
		})
	case OutcomeFailed:
		return fmt.Errorf("bracket order placement: %w", result.Err)
	}
	return nil
}

// OpenTrades returns a snapshot of the current open trades.
func (s *Service) OpenTrades() []*domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Open()
}

func (s *Service) notify(ctx context.Context, message string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, message)
	}
}
