package trading

import (
	"context"
	"fmt"
	"time"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/utils"
)

// finalizeClose marks a trade closed, reports its outcome, and removes it
// from the ledger. A zero closePrice means the fill price is unknown: the
// outcome report is skipped entirely rather than fabricated, but the trade is
// still removed so tracked state does not leak.
func (s *Service) finalizeClose(ctx context.Context, trade *domain.Trade, closePrice float64, reason domain.CloseReason) {
	trade.Status = domain.StatusClosed
	s.reportOutcome(ctx, trade, closePrice, reason)
	s.ledger.Remove(ctx, trade)
}

// reportOutcome computes the realized profit, feeds the binary label back to
// the signal producer, and archives the closed trade.
func (s *Service) reportOutcome(ctx context.Context, trade *domain.Trade, closePrice float64, reason domain.CloseReason) {
	if closePrice <= 0 {
		s.logger.Warn(ctx, "Close price unknown, skipping outcome report", map[string]interface{}{
			"tradeID": trade.ID, "symbol": trade.Symbol, "reason": reason,
		})
		return
	}
	if trade.EntryPrice <= 0 {
		s.logger.Warn(ctx, "Entry price unknown, skipping outcome report", map[string]interface{}{
			"tradeID": trade.ID, "symbol": trade.Symbol, "reason": reason,
		})
		return
	}

	profit := trade.ProfitAt(closePrice)
	label := 0
	if profit > 0 {
		label = 1
	}

	if trade.Features != nil {
		if err := s.signals.Learn(ctx, trade.Features, label); err != nil {
			s.logger.Error(ctx, err, "Failed to feed outcome back to signal producer", map[string]interface{}{
				"tradeID": trade.ID, "symbol": trade.Symbol,
			})
		}
	}

	closed := &domain.ClosedTrade{
		Symbol:      trade.Symbol,
		Side:        trade.Side,
		EntryPrice:  trade.EntryPrice,
		ExitPrice:   closePrice,
		Quantity:    trade.Quantity,
		PNL:         profit,
		Label:       label,
		OpenedAt:    trade.OpenedAt,
		ClosedAt:    time.Now().UTC(),
		CloseReason: reason,
	}
	if s.history != nil {
		if _, err := s.history.Archive(ctx, closed); err != nil {
			s.logger.Error(ctx, err, "Failed to archive closed trade", map[string]interface{}{
				"tradeID": trade.ID, "symbol": trade.Symbol,
			})
		}
	}
	if s.cfg.HistoryCSVPath != "" {
		if err := utils.AppendTradeHistory(closed, trade.Features, s.cfg.HistoryCSVPath); err != nil {
			s.logger.Error(ctx, err, "Failed to append closed trade to CSV history", map[string]interface{}{
				"tradeID": trade.ID, "path": s.cfg.HistoryCSVPath,
			})
		}
	}

	s.logger.Info(ctx, "Trade closed", map[string]interface{}{
		"tradeID": trade.ID, "symbol": trade.Symbol, "side": trade.Side,
		"entryPrice": trade.EntryPrice, "closePrice": closePrice,
		"pnl": profit, "label": label, "reason": reason,
	})
	s.notify(ctx, fmt.Sprintf("Closed %s %s at %.4f (%s), PNL %.4f",
		trade.Side, trade.Symbol, closePrice, reason, profit))
}
