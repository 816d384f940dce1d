package trading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/ports"
	"cryptoFuturesBot/internal/precision"
	"cryptoFuturesBot/internal/retry"
	"cryptoFuturesBot/internal/risk"
)

// --- Mocks ---

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type marketOrderCall struct {
	symbol     string
	side       domain.OrderSide
	quantity   string
	reduceOnly bool
}

type protectiveOrderCall struct {
	symbol     string
	side       domain.OrderSide
	quantity   string
	stopPrice  string
	reduceOnly bool
}

type mockExchange struct {
	marketOrders     []marketOrderCall
	stopOrders       []protectiveOrderCall
	takeProfitOrders []protectiveOrderCall
	canceledOrders   []int64

	marketOrderFunc     func(call marketOrderCall) (*ports.OrderResponse, error)
	stopOrderFunc       func(call protectiveOrderCall) (*ports.OrderResponse, error)
	takeProfitOrderFunc func(call protectiveOrderCall) (*ports.OrderResponse, error)
	getOrderFunc        func(symbol string, orderID int64) (*ports.OrderResponse, error)
	positionRiskFunc    func(symbol string) (*ports.PositionRisk, error)
	accountTradesFunc   func(symbol string, since time.Time, limit int) ([]*ports.AccountTrade, error)
}

func (m *mockExchange) SetServerTime(ctx context.Context) error { return nil }
func (m *mockExchange) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	return 70000, nil
}
func (m *mockExchange) GetAccountBalance(ctx context.Context, asset string) (float64, error) {
	return 10000, nil
}
func (m *mockExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return nil
}
func (m *mockExchange) GetSymbolFilters(ctx context.Context, symbol string) (*ports.SymbolFilters, error) {
	return &ports.SymbolFilters{
		Symbol:       symbol,
		QuantityStep: "0.001",
		PriceStep:    "0.1",
		MinQuantity:  "0.001",
	}, nil
}

func (m *mockExchange) PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, reduceOnly bool, clientOrderID string) (*ports.OrderResponse, error) {
	call := marketOrderCall{symbol: symbol, side: side, quantity: quantity, reduceOnly: reduceOnly}
	m.marketOrders = append(m.marketOrders, call)
	if m.marketOrderFunc != nil {
		return m.marketOrderFunc(call)
	}
	return &ports.OrderResponse{OrderID: 101, Symbol: symbol, AvgPrice: 70000, Status: "FILLED"}, nil
}

func (m *mockExchange) PlaceStopMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, stopPrice string, reduceOnly bool) (*ports.OrderResponse, error) {
	call := protectiveOrderCall{symbol: symbol, side: side, quantity: quantity, stopPrice: stopPrice, reduceOnly: reduceOnly}
	m.stopOrders = append(m.stopOrders, call)
	if m.stopOrderFunc != nil {
		return m.stopOrderFunc(call)
	}
	return &ports.OrderResponse{OrderID: 102, Symbol: symbol, Status: "NEW"}, nil
}

func (m *mockExchange) PlaceTakeProfitMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, stopPrice string, reduceOnly bool) (*ports.OrderResponse, error) {
	call := protectiveOrderCall{symbol: symbol, side: side, quantity: quantity, stopPrice: stopPrice, reduceOnly: reduceOnly}
	m.takeProfitOrders = append(m.takeProfitOrders, call)
	if m.takeProfitOrderFunc != nil {
		return m.takeProfitOrderFunc(call)
	}
	return &ports.OrderResponse{OrderID: 103, Symbol: symbol, Status: "NEW"}, nil
}

func (m *mockExchange) GetOrder(ctx context.Context, symbol string, orderID int64) (*ports.OrderResponse, error) {
	if m.getOrderFunc != nil {
		return m.getOrderFunc(symbol, orderID)
	}
	return &ports.OrderResponse{OrderID: orderID, Symbol: symbol, Status: "NEW"}, nil
}

func (m *mockExchange) GetPositionRisk(ctx context.Context, symbol string) (*ports.PositionRisk, error) {
	if m.positionRiskFunc != nil {
		return m.positionRiskFunc(symbol)
	}
	return nil, nil
}

func (m *mockExchange) GetAccountTrades(ctx context.Context, symbol string, since time.Time, limit int) ([]*ports.AccountTrade, error) {
	if m.accountTradesFunc != nil {
		return m.accountTradesFunc(symbol, since, limit)
	}
	return nil, nil
}

func (m *mockExchange) CancelOrder(ctx context.Context, symbol string, orderID int64) (*ports.OrderResponse, error) {
	m.canceledOrders = append(m.canceledOrders, orderID)
	return &ports.OrderResponse{OrderID: orderID, Symbol: symbol, Status: "CANCELED"}, nil
}

func (m *mockExchange) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	return nil, nil
}

type memStore struct {
	trades []*domain.Trade
	saves  int
}

func (m *memStore) Load(ctx context.Context) ([]*domain.Trade, error) { return m.trades, nil }
func (m *memStore) Save(ctx context.Context, trades []*domain.Trade) error {
	m.trades = trades
	m.saves++
	return nil
}

type learnCall struct {
	features map[string]float64
	label    int
}

type mockSignals struct {
	learns []learnCall
}

func (m *mockSignals) Predict(ctx context.Context, snapshot ports.MarketSnapshot) (domain.Decision, domain.PriceTargets, map[string]float64, error) {
	return domain.DecisionHold, domain.PriceTargets{}, nil, nil
}
func (m *mockSignals) Learn(ctx context.Context, features map[string]float64, label int) error {
	m.learns = append(m.learns, learnCall{features: features, label: label})
	return nil
}

type mockHistory struct {
	archived []*domain.ClosedTrade
}

func (m *mockHistory) Archive(ctx context.Context, trade *domain.ClosedTrade) (int64, error) {
	m.archived = append(m.archived, trade)
	return int64(len(m.archived)), nil
}
func (m *mockHistory) FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.ClosedTrade, error) {
	return nil, nil
}
func (m *mockHistory) CountTodayBySymbol(ctx context.Context, symbol string) (int, error) {
	return 0, nil
}
func (m *mockHistory) TotalProfit(ctx context.Context) (float64, error) { return 0, nil }

// --- Helpers ---

type testEnv struct {
	service  *Service
	exchange *mockExchange
	store    *memStore
	signals  *mockSignals
	history  *mockHistory
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	log := &mockLogger{}
	exchange := &mockExchange{}
	store := &memStore{}
	signals := &mockSignals{}
	history := &mockHistory{}

	resolver, err := precision.NewResolver(exchange, log)
	require.NoError(t, err)

	sizer, err := risk.NewSizer(risk.Config{DefaultRiskPerTrade: 0.01, MaxDrawdown: 0.2}, log)
	require.NoError(t, err)

	cfg := Config{
		Logger:          log,
		Exchange:        exchange,
		Precision:       resolver,
		Sizer:           sizer,
		Store:           store,
		Signals:         signals,
		History:         history,
		Symbols:         []string{"BTCUSDT"},
		EntryPriceRetry: retry.Policy{MaxAttempts: 1},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	service, err := NewService(cfg)
	require.NoError(t, err)
	return &testEnv{service: service, exchange: exchange, store: store, signals: signals, history: history}
}

func longRequest() BracketRequest {
	return BracketRequest{
		Symbol:          "BTCUSDT",
		Side:            domain.Buy,
		Quantity:        0.1259,
		EntryPrice:      70000,
		StopLossPrice:   69000, // too tight, must be clamped to 4%
		TakeProfitPrice: 70500, // too tight, must be clamped to 4%
		Features:        map[string]float64{"rsi": 25},
	}
}

func openLongTrade() *domain.Trade {
	return &domain.Trade{
		ID:                "t1",
		Symbol:            "BTCUSDT",
		Side:              domain.Long,
		Quantity:          0.125,
		EntryPrice:        70000,
		StopLossPrice:     67200,
		TakeProfitPrice:   72800,
		EntryOrderID:      101,
		StopLossOrderID:   102,
		TakeProfitOrderID: 103,
		OpenedAt:          time.Now().Add(-time.Hour).UTC(),
		Features:          map[string]float64{"rsi": 25},
		Status:            domain.StatusOpen,
	}
}

// --- Placement ---

func TestPlaceBracketOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	result := env.service.PlaceBracketOrder(ctx, longRequest())
	require.Equal(t, OutcomePlaced, result.Outcome, "placement error: %v", result.Err)
	require.NotNil(t, result.Trade)

	trade := result.Trade
	assert.Equal(t, domain.Long, trade.Side)
	assert.Equal(t, 0.125, trade.Quantity, "quantity must truncate to the step, never round up")
	assert.Equal(t, float64(70000), trade.EntryPrice)
	assert.Equal(t, int64(101), trade.EntryOrderID)
	assert.Equal(t, int64(102), trade.StopLossOrderID)
	assert.Equal(t, int64(103), trade.TakeProfitOrderID)

	// Too-tight exits are widened to the 4% minimum gap from the entry fill.
	assert.Equal(t, float64(67200), trade.StopLossPrice)
	assert.Equal(t, float64(72800), trade.TakeProfitPrice)

	require.Len(t, env.exchange.stopOrders, 1)
	sl := env.exchange.stopOrders[0]
	assert.Equal(t, domain.Sell, sl.side)
	assert.Equal(t, "0.125", sl.quantity)
	assert.Equal(t, "67200.0", sl.stopPrice)
	assert.True(t, sl.reduceOnly)

	require.Len(t, env.exchange.takeProfitOrders, 1)
	tp := env.exchange.takeProfitOrders[0]
	assert.Equal(t, domain.Sell, tp.side)
	assert.Equal(t, "72800.0", tp.stopPrice)
	assert.True(t, tp.reduceOnly)

	// Ledger persisted with the new trade.
	require.Len(t, env.store.trades, 1)
	assert.Equal(t, trade.ID, env.store.trades[0].ID)
}

func TestPlaceBracketOrderKeepsSafeExits(t *testing.T) {
	env := newTestEnv(t, nil)

	req := longRequest()
	req.StopLossPrice = 66000   // already beyond the 4% minimum
	req.TakeProfitPrice = 74000 // already beyond the 4% minimum
	result := env.service.PlaceBracketOrder(context.Background(), req)
	require.Equal(t, OutcomePlaced, result.Outcome)

	assert.Equal(t, float64(66000), result.Trade.StopLossPrice)
	assert.Equal(t, float64(74000), result.Trade.TakeProfitPrice)
}

func TestPlaceBracketOrderClampsShortExits(t *testing.T) {
	env := newTestEnv(t, nil)

	req := BracketRequest{
		Symbol:          "BTCUSDT",
		Side:            domain.Sell,
		Quantity:        0.125,
		EntryPrice:      70000,
		StopLossPrice:   70500, // too tight for a short
		TakeProfitPrice: 69500, // too tight for a short
	}
	result := env.service.PlaceBracketOrder(context.Background(), req)
	require.Equal(t, OutcomePlaced, result.Outcome)

	assert.Equal(t, domain.Short, result.Trade.Side)
	assert.Equal(t, float64(72800), result.Trade.StopLossPrice)
	assert.Equal(t, float64(67200), result.Trade.TakeProfitPrice)
	require.Len(t, env.exchange.stopOrders, 1)
	assert.Equal(t, domain.Buy, env.exchange.stopOrders[0].side)
}

func TestPlaceBracketOrderRejectsSecondOpenTrade(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first := env.service.PlaceBracketOrder(ctx, longRequest())
	require.Equal(t, OutcomePlaced, first.Outcome)

	second := env.service.PlaceBracketOrder(ctx, longRequest())
	assert.Equal(t, OutcomeRejected, second.Outcome)
	assert.Nil(t, second.Trade)

	// No second entry order submitted, ledger still has exactly one trade.
	assert.Len(t, env.exchange.marketOrders, 1)
	assert.Len(t, env.store.trades, 1)
}

func TestPlaceBracketOrderRejectsDustQuantity(t *testing.T) {
	env := newTestEnv(t, nil)

	req := longRequest()
	req.Quantity = 0.0004 // below the 0.001 step
	result := env.service.PlaceBracketOrder(context.Background(), req)
	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Empty(t, env.exchange.marketOrders)
}

func TestPlaceBracketOrderReduceOnlyFallback(t *testing.T) {
	env := newTestEnv(t, nil)
	env.exchange.stopOrderFunc = func(call protectiveOrderCall) (*ports.OrderResponse, error) {
		if call.reduceOnly {
			return nil, ports.ErrReduceOnlyRejected
		}
		return &ports.OrderResponse{OrderID: 102, Status: "NEW"}, nil
	}

	result := env.service.PlaceBracketOrder(context.Background(), longRequest())
	require.Equal(t, OutcomePlaced, result.Outcome, "placement error: %v", result.Err)

	// First attempt with reduceOnly, retried exactly once without it.
	require.Len(t, env.exchange.stopOrders, 2)
	assert.True(t, env.exchange.stopOrders[0].reduceOnly)
	assert.False(t, env.exchange.stopOrders[1].reduceOnly)
}

func TestPlaceBracketOrderClosesPositionWhenStopLossFails(t *testing.T) {
	env := newTestEnv(t, nil)
	env.exchange.stopOrderFunc = func(call protectiveOrderCall) (*ports.OrderResponse, error) {
		return nil, ports.ErrOrderPlacementFailed
	}

	result := env.service.PlaceBracketOrder(context.Background(), longRequest())
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, ports.ErrOrderPlacementFailed)

	// The just-opened position is flattened instead of left unprotected.
	require.Len(t, env.exchange.marketOrders, 2)
	closeOrder := env.exchange.marketOrders[1]
	assert.Equal(t, domain.Sell, closeOrder.side)
	assert.True(t, closeOrder.reduceOnly)
	assert.Empty(t, env.store.trades)
}

func TestPlaceBracketOrderCancelsStopLossWhenTakeProfitFails(t *testing.T) {
	env := newTestEnv(t, nil)
	env.exchange.takeProfitOrderFunc = func(call protectiveOrderCall) (*ports.OrderResponse, error) {
		return nil, ports.ErrOrderPlacementFailed
	}

	result := env.service.PlaceBracketOrder(context.Background(), longRequest())
	assert.Equal(t, OutcomeFailed, result.Outcome)

	assert.Contains(t, env.exchange.canceledOrders, int64(102), "orphaned stop-loss must be canceled")
	require.Len(t, env.exchange.marketOrders, 2)
	assert.True(t, env.exchange.marketOrders[1].reduceOnly)
	assert.Empty(t, env.store.trades)
}

// --- Reconciliation ---

func TestReconcileTakeProfitFilled(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	trade := openLongTrade()
	env.service.ledger.Add(ctx, trade)

	env.exchange.getOrderFunc = func(symbol string, orderID int64) (*ports.OrderResponse, error) {
		if orderID == trade.TakeProfitOrderID {
			return &ports.OrderResponse{OrderID: orderID, Status: "FILLED", AvgPrice: 71500}, nil
		}
		return &ports.OrderResponse{OrderID: orderID, Status: "NEW"}, nil
	}

	env.service.Reconcile(ctx)

	// Outcome reported from the take-profit fill price.
	require.Len(t, env.signals.learns, 1)
	assert.Equal(t, 1, env.signals.learns[0].label, "71500 close on a 70000 long entry is a win")
	assert.Equal(t, trade.Features, env.signals.learns[0].features)

	require.Len(t, env.history.archived, 1)
	archived := env.history.archived[0]
	assert.Equal(t, float64(71500), archived.ExitPrice)
	assert.Equal(t, domain.CloseReasonTakeProfit, archived.CloseReason)
	assert.InDelta(t, (71500-70000)*0.125, archived.PNL, 1e-9)

	// The orphaned stop-loss is canceled and the trade leaves the ledger.
	assert.Contains(t, env.exchange.canceledOrders, trade.StopLossOrderID)
	assert.Empty(t, env.store.trades)

	// A second reconcile with no state change is a no-op.
	env.service.Reconcile(ctx)
	assert.Len(t, env.signals.learns, 1)
	assert.Len(t, env.history.archived, 1)
}

func TestReconcileStopLossFilled(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	trade := openLongTrade()
	env.service.ledger.Add(ctx, trade)

	env.exchange.getOrderFunc = func(symbol string, orderID int64) (*ports.OrderResponse, error) {
		if orderID == trade.StopLossOrderID {
			return &ports.OrderResponse{OrderID: orderID, Status: "FILLED", AvgPrice: 67200}, nil
		}
		return &ports.OrderResponse{OrderID: orderID, Status: "NEW"}, nil
	}

	env.service.Reconcile(ctx)

	require.Len(t, env.signals.learns, 1)
	assert.Equal(t, 0, env.signals.learns[0].label, "stop-loss close is a loss")
	assert.Contains(t, env.exchange.canceledOrders, trade.TakeProfitOrderID)
	assert.Empty(t, env.store.trades)
}

func TestReconcileSkipsTradeWhenLookupsFail(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	trade := openLongTrade()
	env.service.ledger.Add(ctx, trade)

	env.exchange.getOrderFunc = func(symbol string, orderID int64) (*ports.OrderResponse, error) {
		return nil, ports.ErrConnectionFailed
	}

	env.service.Reconcile(ctx)

	// Connectivity problems are not closure signals: nothing reported, trade kept.
	assert.Empty(t, env.signals.learns)
	require.Len(t, env.store.trades, 1)
}

func TestReconcileManualCloseRecoversPrice(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	trade := openLongTrade()
	env.service.ledger.Add(ctx, trade)

	// Protective orders still NEW, but the position is gone.
	env.exchange.positionRiskFunc = func(symbol string) (*ports.PositionRisk, error) {
		return nil, nil
	}
	env.exchange.accountTradesFunc = func(symbol string, since time.Time, limit int) ([]*ports.AccountTrade, error) {
		return []*ports.AccountTrade{
			{ID: 1, OrderID: 101, Side: domain.Buy, Price: 70000, Time: trade.OpenedAt.Add(-time.Minute)},
			{ID: 2, OrderID: 900, Side: domain.Sell, Price: 69000, Time: trade.OpenedAt.Add(time.Minute)},
		}, nil
	}

	env.service.Reconcile(ctx)

	require.Len(t, env.signals.learns, 1)
	assert.Equal(t, 0, env.signals.learns[0].label, "69000 close on a 70000 long entry is a loss")
	require.Len(t, env.history.archived, 1)
	assert.Equal(t, float64(69000), env.history.archived[0].ExitPrice)
	assert.Equal(t, domain.CloseReasonManual, env.history.archived[0].CloseReason)
	assert.Empty(t, env.store.trades)
}

func TestReconcileManualCloseWithoutPriceSkipsLearning(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	trade := openLongTrade()
	env.service.ledger.Add(ctx, trade)

	env.exchange.positionRiskFunc = func(symbol string) (*ports.PositionRisk, error) {
		return nil, nil
	}
	env.exchange.accountTradesFunc = func(symbol string, since time.Time, limit int) ([]*ports.AccountTrade, error) {
		return nil, errors.New("history unavailable")
	}

	env.service.Reconcile(ctx)

	// No fabricated outcome, but the trade must not leak in the ledger.
	assert.Empty(t, env.signals.learns)
	assert.Empty(t, env.history.archived)
	assert.Empty(t, env.store.trades)
}

func TestReconcileIgnoresOppositeSidePosition(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	trade := openLongTrade()
	env.service.ledger.Add(ctx, trade)

	// A short position on the same symbol does not belong to this long trade.
	env.exchange.positionRiskFunc = func(symbol string) (*ports.PositionRisk, error) {
		return &ports.PositionRisk{Symbol: symbol, PositionAmt: -0.125}, nil
	}

	env.service.Reconcile(ctx)

	assert.Empty(t, env.signals.learns)
	assert.Empty(t, env.store.trades, "a long trade with only a short position on the exchange was closed externally")
}

func TestReconcileClosesAtProfitThreshold(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.CloseProfitThreshold = 50
	})
	ctx := context.Background()

	trade := openLongTrade()
	env.service.ledger.Add(ctx, trade)

	env.exchange.positionRiskFunc = func(symbol string) (*ports.PositionRisk, error) {
		return &ports.PositionRisk{Symbol: symbol, PositionAmt: 0.125, UnRealizedProfit: 80, MarkPrice: 70640}, nil
	}
	env.exchange.marketOrderFunc = func(call marketOrderCall) (*ports.OrderResponse, error) {
		return &ports.OrderResponse{OrderID: 200, AvgPrice: 70640, Status: "FILLED"}, nil
	}

	env.service.Reconcile(ctx)

	require.Len(t, env.exchange.marketOrders, 1)
	closeOrder := env.exchange.marketOrders[0]
	assert.Equal(t, domain.Sell, closeOrder.side)
	assert.True(t, closeOrder.reduceOnly)
	assert.Equal(t, "0.125", closeOrder.quantity)

	require.Len(t, env.history.archived, 1)
	assert.Equal(t, domain.CloseReasonProfitTarget, env.history.archived[0].CloseReason)
	assert.Equal(t, float64(70640), env.history.archived[0].ExitPrice)
	require.Len(t, env.signals.learns, 1)
	assert.Equal(t, 1, env.signals.learns[0].label)
	assert.Empty(t, env.store.trades)
}

func TestReconcileLeavesHealthyTradeAlone(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.CloseProfitThreshold = 50
	})
	ctx := context.Background()

	trade := openLongTrade()
	env.service.ledger.Add(ctx, trade)

	env.exchange.positionRiskFunc = func(symbol string) (*ports.PositionRisk, error) {
		return &ports.PositionRisk{Symbol: symbol, PositionAmt: 0.125, UnRealizedProfit: 10}, nil
	}

	env.service.Reconcile(ctx)
	env.service.Reconcile(ctx)

	assert.Empty(t, env.signals.learns)
	assert.Empty(t, env.exchange.marketOrders)
	require.Len(t, env.store.trades, 1)
}

// --- Clamping ---

func TestClampExits(t *testing.T) {
	const gap = 0.04

	t.Run("long widens tight targets", func(t *testing.T) {
		sl, tp := clampExits(domain.Long, 70000, 69500, 70100, gap)
		assert.Equal(t, float64(67200), sl)
		assert.Equal(t, float64(72800), tp)
	})
	t.Run("long keeps safe targets", func(t *testing.T) {
		sl, tp := clampExits(domain.Long, 70000, 66000, 74000, gap)
		assert.Equal(t, float64(66000), sl)
		assert.Equal(t, float64(74000), tp)
	})
	t.Run("short widens tight targets", func(t *testing.T) {
		sl, tp := clampExits(domain.Short, 70000, 70100, 69900, gap)
		assert.Equal(t, float64(72800), sl)
		assert.Equal(t, float64(67200), tp)
	})
	t.Run("short keeps safe targets", func(t *testing.T) {
		sl, tp := clampExits(domain.Short, 70000, 74000, 66000, gap)
		assert.Equal(t, float64(74000), sl)
		assert.Equal(t, float64(66000), tp)
	})
	t.Run("zero targets default to minimum gap", func(t *testing.T) {
		sl, tp := clampExits(domain.Long, 70000, 0, 0, gap)
		assert.Equal(t, float64(67200), sl)
		assert.Equal(t, float64(72800), tp)
	})
}
