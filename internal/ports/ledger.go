package ports

import (
	"context"

	"cryptoFuturesBot/internal/domain"
)

// LedgerStore persists the set of open trades. The whole set is rewritten on
// every save so the on-disk form is always a consistent snapshot.
type LedgerStore interface {
	// Load reads all persisted open trades. A missing backing file yields an
	// empty slice, not an error.
	Load(ctx context.Context) ([]*domain.Trade, error)
	// Save replaces the persisted set with the given trades.
	Save(ctx context.Context, trades []*domain.Trade) error
}
