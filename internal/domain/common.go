package domain

// OrderSide represents the side of an exchange order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Opposite returns the closing side for an order side.
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

// TradeSide represents the direction of an open trade.
type TradeSide string

const (
	Long  TradeSide = "LONG"
	Short TradeSide = "SHORT"
)

// SideFromOrder derives the trade direction from the entry order side.
func SideFromOrder(side OrderSide) TradeSide {
	if side == Buy {
		return Long
	}
	return Short
}

// TradeStatus represents the lifecycle state of a tracked trade.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
)

// CloseReason indicates why a trade was closed.
type CloseReason string

const (
	CloseReasonStopLoss     CloseReason = "SL"
	CloseReasonTakeProfit   CloseReason = "TP"
	CloseReasonProfitTarget CloseReason = "PROFIT_TARGET"
	CloseReasonManual       CloseReason = "MANUAL"
	CloseReasonUnknown      CloseReason = "UNKNOWN"
)

// Decision is the output of a signal producer for one market snapshot.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionHold Decision = "HOLD"
)

// PriceTargets carries the proposed entry and exit levels for a decision.
type PriceTargets struct {
	Entry      float64
	StopLoss   float64
	TakeProfit float64
}
