package trading

import (
	"context"
	"fmt"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/ports"
)

// Reconcile polls exchange state for every open trade and handles closures:
// a filled protective order, a profit-threshold early close, or a position
// that disappeared outside this system's orders. Removal from the ledger is
// what stops further processing of a trade, so repeated calls with no state
// change are no-ops.
func (s *Service) Reconcile(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, trade := range s.ledger.Open() {
		s.reconcileTrade(ctx, trade)
	}
}

func (s *Service) reconcileTrade(ctx context.Context, trade *domain.Trade) {
	slOrder, slErr := s.exchange.GetOrder(ctx, trade.Symbol, trade.StopLossOrderID)
	tpOrder, tpErr := s.exchange.GetOrder(ctx, trade.Symbol, trade.TakeProfitOrderID)
	if slErr != nil && tpErr != nil {
		// Both lookups failing is a connectivity problem, not a closure signal.
		s.logger.Warn(ctx, "Skipping trade reconciliation: protective order lookups failed", map[string]interface{}{
			"tradeID": trade.ID, "symbol": trade.Symbol,
			"stopLossError": slErr.Error(), "takeProfitError": tpErr.Error(),
		})
		return
	}

	if slOrder.IsFilled() {
		s.logger.Info(ctx, "Stop-loss filled", map[string]interface{}{
			"tradeID": trade.ID, "symbol": trade.Symbol, "avgPrice": slOrder.AvgPrice,
		})
		s.cancelOrderWarn(ctx, trade.Symbol, trade.TakeProfitOrderID, "orphaned take-profit after stop-loss fill")
		s.finalizeClose(ctx, trade, slOrder.AvgPrice, domain.CloseReasonStopLoss)
		return
	}
	if tpOrder.IsFilled() {
		s.logger.Info(ctx, "Take-profit filled", map[string]interface{}{
			"tradeID": trade.ID, "symbol": trade.Symbol, "avgPrice": tpOrder.AvgPrice,
		})
		s.cancelOrderWarn(ctx, trade.Symbol, trade.StopLossOrderID, "orphaned stop-loss after take-profit fill")
		s.finalizeClose(ctx, trade, tpOrder.AvgPrice, domain.CloseReasonTakeProfit)
		return
	}

	position, err := s.exchange.GetPositionRisk(ctx, trade.Symbol)
	if err != nil {
		s.logger.Warn(ctx, "Skipping trade reconciliation: position lookup failed", map[string]interface{}{
			"tradeID": trade.ID, "symbol": trade.Symbol, "error": err.Error(),
		})
		return
	}

	if position != nil && position.MatchesSide(trade.Side) {
		if s.cfg.CloseProfitThreshold > 0 && position.UnRealizedProfit >= s.cfg.CloseProfitThreshold {
			s.closeAtProfitTarget(ctx, trade, position)
		}
		// Position still open, protective orders still working: nothing to do.
		return
	}

	// The position is gone without either protective order reporting a fill:
	// closed manually, liquidated, or by another client.
	s.handleExternalClose(ctx, trade)
}

// closeAtProfitTarget market-closes a position whose unrealized profit
// reached the configured threshold, bypassing the TP/SL path.
func (s *Service) closeAtProfitTarget(ctx context.Context, trade *domain.Trade, position *ports.PositionRisk) {
	s.logger.Info(ctx, "Unrealized profit reached threshold, closing at market", map[string]interface{}{
		"tradeID": trade.ID, "symbol": trade.Symbol,
		"unrealizedProfit": position.UnRealizedProfit, "threshold": s.cfg.CloseProfitThreshold,
	})

	steps, err := s.precision.Resolve(ctx, trade.Symbol)
	if err != nil {
		s.logger.Error(ctx, err, "Cannot close at profit target: instrument steps unavailable", map[string]interface{}{
			"tradeID": trade.ID, "symbol": trade.Symbol,
		})
		return
	}

	closeOrder, err := s.exchange.PlaceMarketOrder(ctx, trade.Symbol, trade.CloseSide(), steps.FormatQuantity(trade.Quantity), true, "")
	if err != nil {
		s.logger.Error(ctx, err, "Profit-target close failed, will retry next cycle", map[string]interface{}{
			"tradeID": trade.ID, "symbol": trade.Symbol,
		})
		return
	}

	s.cancelOrderWarn(ctx, trade.Symbol, trade.StopLossOrderID, "stop-loss after profit-target close")
	s.cancelOrderWarn(ctx, trade.Symbol, trade.TakeProfitOrderID, "take-profit after profit-target close")

	closePrice := closeOrder.AvgPrice
	if closePrice <= 0 {
		closePrice = position.MarkPrice
	}
	s.finalizeClose(ctx, trade, closePrice, domain.CloseReasonProfitTarget)
}

// handleExternalClose recovers the close price of a trade whose position
// disappeared outside this system's orders, then finalizes it. The trade is
// removed from the ledger even when the price cannot be recovered, so tracked
// state does not leak; only the learning feedback is skipped.
func (s *Service) handleExternalClose(ctx context.Context, trade *domain.Trade) {
	s.logger.Warn(ctx, "Position closed outside tracked orders", map[string]interface{}{
		"tradeID": trade.ID, "symbol": trade.Symbol, "side": trade.Side,
	})

	s.cancelOrderWarn(ctx, trade.Symbol, trade.StopLossOrderID, "stop-loss after external close")
	s.cancelOrderWarn(ctx, trade.Symbol, trade.TakeProfitOrderID, "take-profit after external close")

	closePrice := s.recoverClosePrice(ctx, trade)
	s.finalizeClose(ctx, trade, closePrice, domain.CloseReasonManual)
}

// recoverClosePrice searches the account trade history for the fill that
// closed the trade: same symbol, closing side, executed after the trade
// opened. Returns 0 when no matching fill is found.
func (s *Service) recoverClosePrice(ctx context.Context, trade *domain.Trade) float64 {
	fills, err := s.exchange.GetAccountTrades(ctx, trade.Symbol, trade.OpenedAt, 100)
	if err != nil {
		s.logger.Warn(ctx, "Could not fetch trade history to recover close price", map[string]interface{}{
			"tradeID": trade.ID, "symbol": trade.Symbol, "error": err.Error(),
		})
		return 0
	}

	closeSide := trade.CloseSide()
	var closePrice float64
	for _, fill := range fills {
		if fill.Side == closeSide && fill.Time.After(trade.OpenedAt) && fill.Price > 0 {
			closePrice = fill.Price // last matching fill wins
		}
	}
	if closePrice <= 0 {
		s.logger.Warn(ctx, fmt.Sprintf("No closing fill found for %s %s after %s", trade.Symbol, closeSide, trade.OpenedAt.Format("2006-01-02T15:04:05Z07:00")), map[string]interface{}{
			"tradeID": trade.ID,
		})
	}
	return closePrice
}
