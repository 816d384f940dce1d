package trading

import (
	"context"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/ports"
)

type ledgerKey struct {
	symbol string
	side   domain.TradeSide
}

// Ledger is the in-memory map of open trades keyed by (symbol, side), mirrored
// to a LedgerStore after every mutation. It is not safe for concurrent use on
// its own; the trading service serializes all access behind its mutex.
type Ledger struct {
	store  ports.LedgerStore
	logger ports.Logger
	trades map[ledgerKey]*domain.Trade
}

// NewLedger creates an empty ledger backed by the given store.
func NewLedger(store ports.LedgerStore, logger ports.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger,
		trades: make(map[ledgerKey]*domain.Trade),
	}
}

// Load rebuilds the in-memory ledger from the persisted form. Called once at
// startup so a restart does not lose track of open risk.
func (l *Ledger) Load(ctx context.Context) error {
	trades, err := l.store.Load(ctx)
	if err != nil {
		return err
	}
	l.trades = make(map[ledgerKey]*domain.Trade, len(trades))
	for _, t := range trades {
		if !t.IsOpen() {
			l.logger.Warn(ctx, "Skipping non-open trade found in persisted ledger", map[string]interface{}{
				"tradeID": t.ID, "symbol": t.Symbol, "status": t.Status,
			})
			continue
		}
		l.trades[ledgerKey{symbol: t.Symbol, side: t.Side}] = t
	}
	return nil
}

// Get returns the open trade for (symbol, side), or nil.
func (l *Ledger) Get(symbol string, side domain.TradeSide) *domain.Trade {
	return l.trades[ledgerKey{symbol: symbol, side: side}]
}

// Open returns the open trades as a new slice, safe to iterate while trades
// are removed.
func (l *Ledger) Open() []*domain.Trade {
	out := make([]*domain.Trade, 0, len(l.trades))
	for _, t := range l.trades {
		out = append(out, t)
	}
	return out
}

// Len returns the number of open trades.
func (l *Ledger) Len() int {
	return len(l.trades)
}

// Add records a new open trade and persists the ledger.
func (l *Ledger) Add(ctx context.Context, trade *domain.Trade) {
	l.trades[ledgerKey{symbol: trade.Symbol, side: trade.Side}] = trade
	l.persist(ctx)
}

// Remove deletes a trade and persists the ledger. Removing a trade that is
// already gone is a no-op, which keeps reconciliation idempotent.
func (l *Ledger) Remove(ctx context.Context, trade *domain.Trade) {
	key := ledgerKey{symbol: trade.Symbol, side: trade.Side}
	if _, ok := l.trades[key]; !ok {
		return
	}
	delete(l.trades, key)
	l.persist(ctx)
}

// persist rewrites the backing store. A failed write is logged but not fatal:
// the in-memory ledger stays authoritative for the rest of the process
// lifetime, and the file remains consistent at its last successful write.
func (l *Ledger) persist(ctx context.Context) {
	if err := l.store.Save(ctx, l.Open()); err != nil {
		l.logger.Error(ctx, err, "Failed to persist ledger; in-memory state remains authoritative", map[string]interface{}{
			"openTrades": len(l.trades),
		})
	}
}
