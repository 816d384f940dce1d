package ports

import (
	"context"

	"cryptoFuturesBot/internal/domain"
)

// TradeHistoryRepository defines the interface for archiving and querying
// closed trades.
type TradeHistoryRepository interface {
	// Archive saves a closed trade record and returns its assigned ID.
	Archive(ctx context.Context, trade *domain.ClosedTrade) (int64, error)
	// FindBySymbol retrieves the most recent closed trades for a given symbol, up to a limit.
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.ClosedTrade, error)
	// CountTodayBySymbol counts the number of trades closed today for a given symbol.
	CountTodayBySymbol(ctx context.Context, symbol string) (int, error)
	// TotalProfit calculates the sum of PNL over all archived trades.
	TotalProfit(ctx context.Context) (float64, error)
}
