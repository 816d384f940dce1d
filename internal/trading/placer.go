package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/ports"
	"cryptoFuturesBot/internal/precision"
	"cryptoFuturesBot/internal/retry"
)

// Outcome classifies a placement attempt so callers branch on data rather
// than on error types.
type Outcome string

const (
	OutcomePlaced   Outcome = "PLACED"
	OutcomeRejected Outcome = "REJECTED" // precondition not met, nothing submitted
	OutcomeFailed   Outcome = "FAILED"   // an exchange call failed mid-placement
)

// BracketRequest describes one bracket order to place. EntryPrice is the
// proposed entry from the signal producer; it is only used for sizing checks
// and as the clamp base if the realized fill price cannot be resolved.
type BracketRequest struct {
	Symbol          string
	Side            domain.OrderSide
	Quantity        float64
	EntryPrice      float64
	StopLossPrice   float64
	TakeProfitPrice float64
	Features        map[string]float64
}

// PlacementResult reports what a placement attempt did.
type PlacementResult struct {
	Outcome    Outcome
	Reason     string // set for OutcomeRejected
	Err        error  // set for OutcomeFailed
	Trade      *domain.Trade
	Entry      *ports.OrderResponse
	StopLoss   *ports.OrderResponse
	TakeProfit *ports.OrderResponse
}

func rejected(reason string) PlacementResult {
	return PlacementResult{Outcome: OutcomeRejected, Reason: reason}
}

func failed(err error) PlacementResult {
	return PlacementResult{Outcome: OutcomeFailed, Err: err}
}

// PlaceBracketOrder submits a market entry order, resolves its fill price,
// then attaches reduce-only stop-loss and take-profit orders sized to match.
// A request for a (symbol, side) that already has an open trade is rejected,
// not queued. If a protective order cannot be placed after the entry filled,
// the position is closed back at market rather than left unprotected.
func (s *Service) PlaceBracketOrder(ctx context.Context, req BracketRequest) PlacementResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	side := domain.SideFromOrder(req.Side)
	if existing := s.ledger.Get(req.Symbol, side); existing != nil {
		s.logger.Info(ctx, "Placement skipped: trade already open for symbol and side", map[string]interface{}{
			"symbol": req.Symbol, "side": side, "tradeID": existing.ID,
		})
		return rejected("trade already open")
	}

	steps, err := s.precision.Resolve(ctx, req.Symbol)
	if err != nil {
		// No silent default step: unusable metadata is fatal for this symbol.
		return failed(fmt.Errorf("resolving instrument steps: %w", err))
	}

	quantity := steps.RoundQuantity(req.Quantity)
	if quantity <= 0 {
		return rejected(fmt.Sprintf("quantity %.8f rounds to zero at step %s", req.Quantity, steps.Quantity))
	}
	if steps.MinQuantity.Sign() > 0 && steps.MinQuantity.InexactFloat64() > quantity {
		return rejected(fmt.Sprintf("quantity %.8f below instrument minimum %s", quantity, steps.MinQuantity))
	}
	quantityStr := steps.FormatQuantity(quantity)

	clientOrderID := "cfb-" + uuid.NewString()
	entry, err := s.exchange.PlaceMarketOrder(ctx, req.Symbol, req.Side, quantityStr, false, clientOrderID)
	if err != nil {
		return failed(fmt.Errorf("placing entry order: %w", err))
	}

	openedAt := time.Now().UTC()
	entryPrice := s.resolveEntryPrice(ctx, req.Symbol, side, entry)
	clampBase := entryPrice
	if clampBase <= 0 {
		// Fill price never surfaced; clamp exits against the proposed entry so
		// the protective orders still honor the minimum gap.
		clampBase = req.EntryPrice
		s.logger.Warn(ctx, "Entry fill price unresolved, using proposed entry for exit clamping", map[string]interface{}{
			"symbol": req.Symbol, "orderID": entry.OrderID, "proposedEntry": req.EntryPrice,
		})
	}

	stopLossPrice, takeProfitPrice := clampExits(side, clampBase, req.StopLossPrice, req.TakeProfitPrice, s.cfg.MinExitGap)
	stopLossStr := steps.FormatPrice(stopLossPrice)
	takeProfitStr := steps.FormatPrice(takeProfitPrice)

	closeSide := req.Side.Opposite()
	stopLoss, err := s.placeStopMarket(ctx, req.Symbol, closeSide, quantityStr, stopLossStr)
	if err != nil {
		s.emergencyClose(ctx, req.Symbol, closeSide, quantityStr, "stop-loss placement failed")
		return failed(fmt.Errorf("placing stop-loss order: %w", err))
	}

	takeProfit, err := s.placeTakeProfitMarket(ctx, req.Symbol, closeSide, quantityStr, takeProfitStr)
	if err != nil {
		s.cancelOrderWarn(ctx, req.Symbol, stopLoss.OrderID, "orphaned stop-loss after take-profit failure")
		s.emergencyClose(ctx, req.Symbol, closeSide, quantityStr, "take-profit placement failed")
		return failed(fmt.Errorf("placing take-profit order: %w", err))
	}

	trade := &domain.Trade{
		ID:                uuid.NewString(),
		Symbol:            req.Symbol,
		Side:              side,
		Quantity:          quantity,
		EntryPrice:        entryPrice,
		StopLossPrice:     precision.RoundToStep(stopLossPrice, steps.Price),
		TakeProfitPrice:   precision.RoundToStep(takeProfitPrice, steps.Price),
		EntryOrderID:      entry.OrderID,
		StopLossOrderID:   stopLoss.OrderID,
		TakeProfitOrderID: takeProfit.OrderID,
		OpenedAt:          openedAt,
		Features:          req.Features,
		Status:            domain.StatusOpen,
	}
	s.ledger.Add(ctx, trade)

	s.notify(ctx, fmt.Sprintf("Opened %s %s qty=%s entry=%.4f sl=%s tp=%s",
		side, req.Symbol, quantityStr, entryPrice, stopLossStr, takeProfitStr))

	return PlacementResult{
		Outcome:    OutcomePlaced,
		Trade:      trade,
		Entry:      entry,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}
}

// resolveEntryPrice determines the realized entry fill price. Market order
// responses usually carry an average price; when the exchange reports the fill
// asynchronously, the account trade history and then the position state are
// polled under the bounded retry policy. Returns 0 when every source comes up
// empty; downstream profit computation and learning are skipped in that case
// rather than fed a fabricated value.
func (s *Service) resolveEntryPrice(ctx context.Context, symbol string, side domain.TradeSide, entry *ports.OrderResponse) float64 {
	if entry.AvgPrice > 0 {
		return entry.AvgPrice
	}

	var price float64
	err := retry.Do(ctx, s.cfg.EntryPriceRetry, func() error {
		trades, err := s.exchange.GetAccountTrades(ctx, symbol, entry.Timestamp.Add(-time.Minute), 50)
		if err == nil {
			for _, t := range trades {
				if t.OrderID == entry.OrderID && t.Price > 0 {
					price = t.Price
					return nil
				}
			}
		}

		position, posErr := s.exchange.GetPositionRisk(ctx, symbol)
		if posErr == nil && position != nil && position.MatchesSide(side) && position.EntryPrice > 0 {
			price = position.EntryPrice
			return nil
		}

		if err != nil {
			return fmt.Errorf("entry price not yet visible: %w", err)
		}
		return errors.New("entry price not yet visible")
	})
	if err != nil {
		s.logger.Warn(ctx, "Could not resolve entry fill price", map[string]interface{}{
			"symbol": symbol, "orderID": entry.OrderID, "error": err.Error(),
		})
		return 0
	}
	return price
}

// clampExits widens too-tight exit targets to the minimum fractional gap from
// the entry price, direction-aware. Targets already farther than the minimum
// pass through unchanged. The gap bounds are computed with exact decimal
// arithmetic; float multiplication can land a hair inside the gap and then
// truncate off-grid at tick rounding.
func clampExits(side domain.TradeSide, entryPrice, stopLoss, takeProfit, minGap float64) (float64, float64) {
	if entryPrice <= 0 {
		return stopLoss, takeProfit
	}
	entry := decimal.NewFromFloat(entryPrice)
	gap := decimal.NewFromFloat(minGap)
	one := decimal.NewFromInt(1)

	below := entry.Mul(one.Sub(gap)).InexactFloat64() // entry * (1 - gap)
	above := entry.Mul(one.Add(gap)).InexactFloat64() // entry * (1 + gap)

	if side == domain.Long {
		if stopLoss <= 0 || stopLoss > below {
			stopLoss = below
		}
		if takeProfit < above {
			takeProfit = above
		}
	} else {
		if stopLoss < above {
			stopLoss = above
		}
		if takeProfit <= 0 || takeProfit > below {
			takeProfit = below
		}
	}
	return stopLoss, takeProfit
}

// placeStopMarket submits the stop-loss leg, retrying once without reduceOnly
// if the exchange rejects the flag for the current position mode.
func (s *Service) placeStopMarket(ctx context.Context, symbol string, side domain.OrderSide, quantity, stopPrice string) (*ports.OrderResponse, error) {
	order, err := s.exchange.PlaceStopMarketOrder(ctx, symbol, side, quantity, stopPrice, true)
	if err != nil && errors.Is(err, ports.ErrReduceOnlyRejected) {
		s.logger.Warn(ctx, "Reduce-only rejected for stop-loss, retrying without flag", map[string]interface{}{
			"symbol": symbol, "stopPrice": stopPrice,
		})
		order, err = s.exchange.PlaceStopMarketOrder(ctx, symbol, side, quantity, stopPrice, false)
	}
	return order, err
}

// placeTakeProfitMarket submits the take-profit leg with the same reduce-only
// fallback as the stop-loss leg.
func (s *Service) placeTakeProfitMarket(ctx context.Context, symbol string, side domain.OrderSide, quantity, stopPrice string) (*ports.OrderResponse, error) {
	order, err := s.exchange.PlaceTakeProfitMarketOrder(ctx, symbol, side, quantity, stopPrice, true)
	if err != nil && errors.Is(err, ports.ErrReduceOnlyRejected) {
		s.logger.Warn(ctx, "Reduce-only rejected for take-profit, retrying without flag", map[string]interface{}{
			"symbol": symbol, "stopPrice": stopPrice,
		})
		order, err = s.exchange.PlaceTakeProfitMarketOrder(ctx, symbol, side, quantity, stopPrice, false)
	}
	return order, err
}

// emergencyClose flattens a just-opened position that could not get its
// protective orders. Leaving it open unprotected is worse than eating the
// spread on an immediate close.
func (s *Service) emergencyClose(ctx context.Context, symbol string, closeSide domain.OrderSide, quantity, reason string) {
	s.logger.Error(ctx, nil, "Emergency close of unprotected position", map[string]interface{}{
		"symbol": symbol, "quantity": quantity, "reason": reason,
	})
	if _, err := s.exchange.PlaceMarketOrder(ctx, symbol, closeSide, quantity, true, ""); err != nil {
		s.logger.Error(ctx, err, "EMERGENCY CLOSE FAILED: position is open without protective orders, manual intervention required", map[string]interface{}{
			"symbol": symbol, "quantity": quantity,
		})
		s.notify(ctx, fmt.Sprintf("ALERT: %s position open without protective orders, close manually", symbol))
	}
}

// cancelOrderWarn cancels an order, logging failures instead of propagating
// them. An already-gone order is not a failure.
func (s *Service) cancelOrderWarn(ctx context.Context, symbol string, orderID int64, reason string) {
	if orderID == 0 {
		return
	}
	if _, err := s.exchange.CancelOrder(ctx, symbol, orderID); err != nil && !errors.Is(err, ports.ErrOrderNotFound) {
		s.logger.Warn(ctx, "Failed to cancel order", map[string]interface{}{
			"symbol": symbol, "orderID": orderID, "reason": reason, "error": err.Error(),
		})
	}
}
