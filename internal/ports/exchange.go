package ports

import (
	"context"
	"time"

	"cryptoFuturesBot/internal/domain"
)

// OrderResponse represents the essential details returned for an order.
type OrderResponse struct {
	OrderID       int64     // Exchange's order ID
	Symbol        string    // Symbol for the order
	ClientOrderID string    // User-defined order ID
	Price         float64   // Price of the order (might be 0 for market orders initially)
	AvgPrice      float64   // Average filled price
	OrigQuantity  float64   // Original quantity requested
	ExecutedQty   float64   // Quantity filled
	Status        string    // Order status (e.g., NEW, FILLED, CANCELED)
	Type          string    // Order type (e.g., MARKET, STOP_MARKET)
	Side          string    // Order side (BUY, SELL)
	ReduceOnly    bool      // Whether the order may only reduce an existing position
	Timestamp     time.Time // Time the order response was generated
}

// IsFilled reports whether the order has been completely filled.
func (o *OrderResponse) IsFilled() bool {
	return o != nil && o.Status == "FILLED"
}

// PositionRisk represents the risk details for an open position.
type PositionRisk struct {
	Symbol           string  // Symbol of the position
	PositionAmt      float64 // Current position amount (positive for long, negative for short)
	EntryPrice       float64 // Average entry price of the position
	MarkPrice        float64 // Current mark price
	UnRealizedProfit float64 // Unrealized profit/loss
	LiquidationPrice float64 // Estimated liquidation price
	Leverage         int     // Current leverage for the position
}

// MatchesSide reports whether the exchange position is in the given direction.
func (p *PositionRisk) MatchesSide(side domain.TradeSide) bool {
	if p == nil {
		return false
	}
	if side == domain.Long {
		return p.PositionAmt > 0
	}
	return p.PositionAmt < 0
}

// SymbolFilters carries the instrument trading constraints from exchange
// metadata. Step values are kept as the exchange's decimal strings so rounding
// can use exact arithmetic.
type SymbolFilters struct {
	Symbol       string
	QuantityStep string // LOT_SIZE stepSize, e.g. "0.001"
	PriceStep    string // PRICE_FILTER tickSize, e.g. "0.10"
	MinQuantity  string // LOT_SIZE minQty
	MaxQuantity  string // LOT_SIZE maxQty
}

// AccountTrade represents a single fill from the account trade history.
type AccountTrade struct {
	ID       int64
	OrderID  int64
	Symbol   string
	Side     domain.OrderSide
	Price    float64
	Quantity float64
	Time     time.Time
}

// ExchangeClient defines the interface for interacting with a cryptocurrency exchange.
// This abstraction allows decoupling the core trading logic from specific exchange implementations.
type ExchangeClient interface {
	// SetServerTime synchronizes the client's time with the server's time.
	SetServerTime(ctx context.Context) error

	// GetTickerPrice retrieves the last ticker price for a given symbol.
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)

	// GetAccountBalance retrieves the balance for a specific asset (e.g., "USDT").
	GetAccountBalance(ctx context.Context, asset string) (float64, error)

	// SetLeverage sets the leverage for a specific symbol.
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// GetSymbolFilters retrieves the instrument metadata (step sizes, quantity
	// bounds) for a symbol. Returns ErrSymbolNotFound when the exchange does
	// not list the symbol.
	GetSymbolFilters(ctx context.Context, symbol string) (*SymbolFilters, error)

	// PlaceMarketOrder places a market order. An empty clientOrderID lets the
	// exchange assign one.
	PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, reduceOnly bool, clientOrderID string) (*OrderResponse, error)

	// PlaceStopMarketOrder places a stop-market order triggered at stopPrice.
	PlaceStopMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, stopPrice string, reduceOnly bool) (*OrderResponse, error)

	// PlaceTakeProfitMarketOrder places a take-profit-market order triggered at stopPrice.
	PlaceTakeProfitMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, stopPrice string, reduceOnly bool) (*OrderResponse, error)

	// GetOrder retrieves the current status of an order by its ID.
	GetOrder(ctx context.Context, symbol string, orderID int64) (*OrderResponse, error)

	// GetPositionRisk retrieves the open position for a symbol.
	// Returns nil, nil when no position exists.
	GetPositionRisk(ctx context.Context, symbol string) (*PositionRisk, error)

	// GetAccountTrades retrieves recent account fills for a symbol since the
	// given time, newest last, up to limit entries.
	GetAccountTrades(ctx context.Context, symbol string, since time.Time, limit int) ([]*AccountTrade, error)

	// CancelOrder cancels an existing open order by its ID.
	CancelOrder(ctx context.Context, symbol string, orderID int64) (*OrderResponse, error)

	// GetKlines retrieves historical klines/candlestick data for the given symbol.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error)
}
