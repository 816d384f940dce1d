package domain

import "time"

// Trade is the ledger record of one in-flight bracket trade. It is created
// right after the entry order fills and removed the moment the trade closes;
// the closed outcome is archived separately as a ClosedTrade.
type Trade struct {
	ID                string             `json:"id"`
	Symbol            string             `json:"symbol"`
	Side              TradeSide          `json:"side"`
	Quantity          float64            `json:"quantity"`
	EntryPrice        float64            `json:"entry_price"` // 0 when the fill price could not be resolved
	StopLossPrice     float64            `json:"stop_loss_price"`
	TakeProfitPrice   float64            `json:"take_profit_price"`
	EntryOrderID      int64              `json:"entry_order_id"`
	StopLossOrderID   int64              `json:"stop_loss_order_id"`
	TakeProfitOrderID int64              `json:"take_profit_order_id"`
	OpenedAt          time.Time          `json:"opened_at"`
	Features          map[string]float64 `json:"features,omitempty"`
	Status            TradeStatus        `json:"status"`
}

// EntrySide returns the order side that opened the trade.
func (t *Trade) EntrySide() OrderSide {
	if t.Side == Long {
		return Buy
	}
	return Sell
}

// CloseSide returns the order side that closes the trade.
func (t *Trade) CloseSide() OrderSide {
	return t.EntrySide().Opposite()
}

// ProfitAt returns the realized profit for the full quantity if the trade
// closed at the given price.
func (t *Trade) ProfitAt(closePrice float64) float64 {
	if t.Side == Long {
		return (closePrice - t.EntryPrice) * t.Quantity
	}
	return (t.EntryPrice - closePrice) * t.Quantity
}

// IsOpen checks if the trade status is open.
func (t *Trade) IsOpen() bool {
	return t.Status == StatusOpen
}

// ClosedTrade is the archived outcome of a closed trade.
type ClosedTrade struct {
	ID          int64       // Unique identifier (usually from DB)
	Symbol      string      // Trading symbol (e.g., "BTCUSDT")
	Side        TradeSide   // Direction of the closed trade
	EntryPrice  float64     // Price at which the trade was entered
	ExitPrice   float64     // Price at which the trade was closed
	Quantity    float64     // Size of the trade
	PNL         float64     // Realized profit and loss
	Label       int         // Binary learning label (1 if PNL > 0)
	OpenedAt    time.Time   // Timestamp when the trade was entered
	ClosedAt    time.Time   // Timestamp when the trade was closed
	CloseReason CloseReason // Why the trade was closed (SL, TP, etc.)
}
