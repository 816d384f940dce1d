package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Client implements the ports.ExchangeClient interface using the go-binance library.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance futures client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using the global futures.UseTestnet
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	return &Client{futuresClient: client, logger: cfg.Logger}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Invalid signature
			mappedErr = ports.ErrAuthenticationFailed
		case -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130: // Parameter/request format errors
			mappedErr = ports.ErrInvalidRequest
		case -2010: // New order rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -2011: // Cancel order rejected
			mappedErr = ports.ErrOrderCancelFailed
		case -2013: // Order does not exist
			mappedErr = ports.ErrOrderNotFound
		case -2014: // API-key format invalid
			mappedErr = ports.ErrInvalidAPIKeys
		case -2015: // Invalid API-key, IP, or permissions
			mappedErr = ports.ErrInvalidAPIKeys
		case -2019: // Margin is insufficient
			mappedErr = ports.ErrInsufficientFunds
		case -2022: // ReduceOnly Order is rejected
			mappedErr = ports.ErrReduceOnlyRejected
		case -3005: // Insufficient balance
			mappedErr = ports.ErrInsufficientFunds
		case -3041: // Position is not sufficient
			mappedErr = ports.ErrInsufficientFunds
		case -4003: // Qty not within permissible range
			mappedErr = ports.ErrInvalidRequest
		case -4014: // Price not within permissible range
			mappedErr = ports.ErrInvalidRequest
		case -4015: // Leverage is not valid
			mappedErr = ports.ErrInvalidRequest
		case -4044: // Position not found
			mappedErr = ports.ErrPositionNotFound
		case -4047: // Exceeded the maximum allowable position at current leverage
			mappedErr = ports.ErrInsufficientFunds
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// SetServerTime synchronizes the client's time with the server's time.
func (c *Client) SetServerTime(ctx context.Context) error {
	op := "SetServerTime"
	_, err := c.futuresClient.NewSetServerTimeService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// GetTickerPrice retrieves the last ticker price for a given symbol.
func (c *Client) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	op := "GetTickerPrice"
	tickers, err := c.futuresClient.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(tickers) == 0 {
		err := fmt.Errorf("no ticker data returned for symbol %s", symbol)
		return 0, c.handleError(ctx, err, op)
	}

	price, err := strconv.ParseFloat(tickers[0].LastPrice, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse price '%s': %w", tickers[0].LastPrice, err)
		return 0, c.handleError(ctx, parseErr, op)
	}
	return price, nil
}

// GetAccountBalance retrieves the wallet balance for a specific asset (e.g., "USDT").
func (c *Client) GetAccountBalance(ctx context.Context, asset string) (float64, error) {
	op := "GetAccountBalance"
	account, err := c.futuresClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}

	for _, bal := range account.Assets {
		if bal.Asset == asset {
			balance, err := strconv.ParseFloat(bal.WalletBalance, 64)
			if err != nil {
				parseErr := fmt.Errorf("could not parse balance '%s' for asset %s: %w", bal.WalletBalance, asset, err)
				return 0, c.handleError(ctx, parseErr, op)
			}
			return balance, nil
		}
	}

	err = fmt.Errorf("asset %s not found in account balance", asset)
	return 0, c.handleError(ctx, err, op)
}

// SetLeverage sets the leverage for a specific symbol.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	op := "SetLeverage"
	_, err := c.futuresClient.NewChangeLeverageService().
		Symbol(symbol).
		Leverage(leverage).
		Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "leverage": leverage})
	return nil
}

// GetSymbolFilters retrieves the LOT_SIZE and PRICE_FILTER constraints for a symbol.
func (c *Client) GetSymbolFilters(ctx context.Context, symbol string) (*ports.SymbolFilters, error) {
	op := "GetSymbolFilters"
	info, err := c.futuresClient.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Symbol != symbol {
			continue
		}
		lot := s.LotSizeFilter()
		price := s.PriceFilter()
		if lot == nil || price == nil {
			err := fmt.Errorf("symbol %s is missing LOT_SIZE or PRICE_FILTER metadata", symbol)
			return nil, c.handleError(ctx, err, op)
		}
		filters := &ports.SymbolFilters{
			Symbol:       symbol,
			QuantityStep: lot.StepSize,
			PriceStep:    price.TickSize,
			MinQuantity:  lot.MinQuantity,
			MaxQuantity:  lot.MaxQuantity,
		}
		c.logger.Debug(ctx, op+" successful", map[string]interface{}{
			"symbol":       symbol,
			"quantityStep": filters.QuantityStep,
			"priceStep":    filters.PriceStep,
		})
		return filters, nil
	}

	err = fmt.Errorf("symbol %s: %w", symbol, ports.ErrSymbolNotFound)
	c.logger.Error(ctx, err, op+": symbol not listed in exchange info", map[string]interface{}{"symbol": symbol})
	return nil, err
}

// PlaceMarketOrder places a market order.
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, reduceOnly bool, clientOrderID string) (*ports.OrderResponse, error) {
	op := "PlaceMarketOrder"
	svc := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeMarket).
		Quantity(quantity)
	if reduceOnly {
		svc = svc.ReduceOnly(true)
	}
	if clientOrderID != "" {
		svc = svc.NewClientOrderID(clientOrderID)
	}

	order, err := svc.Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	resp := translateOrderResponse(order)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": symbol, "side": side, "quantity": quantity,
		"reduceOnly": reduceOnly, "orderID": resp.OrderID, "avgPrice": resp.AvgPrice,
	})
	return resp, nil
}

// PlaceStopMarketOrder places a stop-market order triggered at stopPrice.
func (c *Client) PlaceStopMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, stopPrice string, reduceOnly bool) (*ports.OrderResponse, error) {
	op := "PlaceStopMarketOrder"
	svc := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeStopMarket).
		Quantity(quantity).
		StopPrice(stopPrice)
	if reduceOnly {
		svc = svc.ReduceOnly(true)
	}

	order, err := svc.Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	resp := translateOrderResponse(order)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": symbol, "side": side, "quantity": quantity,
		"stopPrice": stopPrice, "reduceOnly": reduceOnly, "orderID": resp.OrderID,
	})
	return resp, nil
}

// PlaceTakeProfitMarketOrder places a take-profit-market order triggered at stopPrice.
func (c *Client) PlaceTakeProfitMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, stopPrice string, reduceOnly bool) (*ports.OrderResponse, error) {
	op := "PlaceTakeProfitMarketOrder"
	svc := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeTakeProfitMarket).
		Quantity(quantity).
		StopPrice(stopPrice)
	if reduceOnly {
		svc = svc.ReduceOnly(true)
	}

	order, err := svc.Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	resp := translateOrderResponse(order)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": symbol, "side": side, "quantity": quantity,
		"stopPrice": stopPrice, "reduceOnly": reduceOnly, "orderID": resp.OrderID,
	})
	return resp, nil
}

// GetOrder retrieves the current status of an order by its ID.
func (c *Client) GetOrder(ctx context.Context, symbol string, orderID int64) (*ports.OrderResponse, error) {
	op := "GetOrder"
	order, err := c.futuresClient.NewGetOrderService().
		Symbol(symbol).
		OrderID(orderID).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	return translateOrder(order), nil
}

// GetPositionRisk retrieves the open position for a symbol.
// Returns nil, nil when no position exists.
func (c *Client) GetPositionRisk(ctx context.Context, symbol string) (*ports.PositionRisk, error) {
	op := "GetPositionRisk"
	positions, err := c.futuresClient.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if len(positions) == 0 {
		c.logger.Debug(ctx, op+": no position found for symbol", map[string]interface{}{"symbol": symbol})
		return nil, nil
	}

	// One-way position mode: a single entry per symbol.
	binancePos := positions[0]
	qty, _ := strconv.ParseFloat(binancePos.PositionAmt, 64)
	if qty == 0 {
		c.logger.Debug(ctx, op+": position amount is zero for symbol", map[string]interface{}{"symbol": symbol})
		return nil, nil
	}

	return translatePositionRisk(binancePos), nil
}

// GetAccountTrades retrieves recent account fills for a symbol since the given time.
func (c *Client) GetAccountTrades(ctx context.Context, symbol string, since time.Time, limit int) ([]*ports.AccountTrade, error) {
	op := "GetAccountTrades"
	svc := c.futuresClient.NewListAccountTradeService().Symbol(symbol)
	if !since.IsZero() {
		svc = svc.StartTime(since.UnixMilli())
	}
	if limit > 0 {
		svc = svc.Limit(limit)
	}

	binanceTrades, err := svc.Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	trades := make([]*ports.AccountTrade, 0, len(binanceTrades))
	for _, bt := range binanceTrades {
		t, err := translateAccountTrade(bt)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate account trade: %w", err), op)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// CancelOrder cancels an open order on Binance.
func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) (*ports.OrderResponse, error) {
	op := "CancelOrder"
	c.logger.Debug(ctx, "Attempting to cancel order", map[string]interface{}{"symbol": symbol, "orderID": orderID})

	res, err := c.futuresClient.NewCancelOrderService().
		Symbol(symbol).
		OrderID(orderID).
		Do(ctx)
	if err != nil {
		// handleError maps -2013 to ErrOrderNotFound for already-gone orders.
		return nil, c.handleError(ctx, err, op)
	}

	// CancelOrderResponse lacks some CreateOrderResponse fields; zero values are fine.
	resp := translateOrderResponse(&futures.CreateOrderResponse{
		OrderID:       res.OrderID,
		Symbol:        res.Symbol,
		ClientOrderID: res.ClientOrderID,
		Price:         res.Price,
		OrigQuantity:  res.OrigQuantity,
		Status:        res.Status, // Should be CANCELED
		Type:          res.Type,
		Side:          res.Side,
		ReduceOnly:    res.ReduceOnly,
	})
	c.logger.Info(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "orderID": orderID, "status": resp.Status})
	return resp, nil
}

// GetKlines retrieves historical klines/candlestick data for the given symbol.
func (c *Client) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	op := "GetKlines"
	binanceKlines, err := c.futuresClient.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	domainKlines := make([]*domain.Kline, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		dk, err := translateKline(bk, symbol, interval)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline: %w", err), op)
		}
		domainKlines = append(domainKlines, dk)
	}

	return domainKlines, nil
}

// --- Translation Helpers ---

func translateOrderResponse(order *futures.CreateOrderResponse) *ports.OrderResponse {
	if order == nil {
		return nil
	}
	price, _ := strconv.ParseFloat(order.Price, 64)
	avgPrice, _ := strconv.ParseFloat(order.AvgPrice, 64)
	origQty, _ := strconv.ParseFloat(order.OrigQuantity, 64)
	execQty, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)

	return &ports.OrderResponse{
		OrderID:       order.OrderID,
		Symbol:        order.Symbol,
		ClientOrderID: order.ClientOrderID,
		Price:         price,
		AvgPrice:      avgPrice,
		OrigQuantity:  origQty,
		ExecutedQty:   execQty,
		Status:        string(order.Status),
		Type:          string(order.Type),
		Side:          string(order.Side),
		ReduceOnly:    order.ReduceOnly,
		Timestamp:     time.UnixMilli(order.UpdateTime),
	}
}

func translateOrder(order *futures.Order) *ports.OrderResponse {
	if order == nil {
		return nil
	}
	price, _ := strconv.ParseFloat(order.Price, 64)
	avgPrice, _ := strconv.ParseFloat(order.AvgPrice, 64)
	origQty, _ := strconv.ParseFloat(order.OrigQuantity, 64)
	execQty, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)

	return &ports.OrderResponse{
		OrderID:       order.OrderID,
		Symbol:        order.Symbol,
		ClientOrderID: order.ClientOrderID,
		Price:         price,
		AvgPrice:      avgPrice,
		OrigQuantity:  origQty,
		ExecutedQty:   execQty,
		Status:        string(order.Status),
		Type:          string(order.Type),
		Side:          string(order.Side),
		ReduceOnly:    order.ReduceOnly,
		Timestamp:     time.UnixMilli(order.UpdateTime),
	}
}

func translatePositionRisk(pos *futures.PositionRisk) *ports.PositionRisk {
	if pos == nil {
		return nil
	}
	posAmt, _ := strconv.ParseFloat(pos.PositionAmt, 64)
	entryPrice, _ := strconv.ParseFloat(pos.EntryPrice, 64)
	markPrice, _ := strconv.ParseFloat(pos.MarkPrice, 64)
	unProfit, _ := strconv.ParseFloat(pos.UnRealizedProfit, 64)
	liqPrice, _ := strconv.ParseFloat(pos.LiquidationPrice, 64)
	leverage, _ := strconv.Atoi(pos.Leverage) // Leverage is string in go-binance

	return &ports.PositionRisk{
		Symbol:           pos.Symbol,
		PositionAmt:      posAmt,
		EntryPrice:       entryPrice,
		MarkPrice:        markPrice,
		UnRealizedProfit: unProfit,
		LiquidationPrice: liqPrice,
		Leverage:         leverage,
	}
}

func translateAccountTrade(bt *futures.AccountTrade) (*ports.AccountTrade, error) {
	if bt == nil {
		return nil, errors.New("received nil account trade")
	}
	price, err := strconv.ParseFloat(bt.Price, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing trade price '%s': %w", bt.Price, err)
	}
	qty, err := strconv.ParseFloat(bt.Quantity, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing trade quantity '%s': %w", bt.Quantity, err)
	}

	return &ports.AccountTrade{
		ID:       bt.ID,
		OrderID:  bt.OrderID,
		Symbol:   bt.Symbol,
		Side:     domain.OrderSide(bt.Side),
		Price:    price,
		Quantity: qty,
		Time:     time.UnixMilli(bt.Time),
	}, nil
}

func translateKline(bk *futures.Kline, symbol, interval string) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.OpenTime),
		CloseTime: time.UnixMilli(bk.CloseTime),
		Symbol:    symbol,
		Interval:  interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}, nil
}
