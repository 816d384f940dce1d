package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	ossignal "os/signal"
	"syscall"

	"cryptoFuturesBot/config"
	"cryptoFuturesBot/internal/adapters/binanceclient"
	"cryptoFuturesBot/internal/adapters/jsonledger"
	"cryptoFuturesBot/internal/adapters/logger"
	"cryptoFuturesBot/internal/adapters/lognotifier"
	"cryptoFuturesBot/internal/adapters/sqlite"
	"cryptoFuturesBot/internal/ports"
	"cryptoFuturesBot/internal/precision"
	"cryptoFuturesBot/internal/retry"
	"cryptoFuturesBot/internal/risk"
	"cryptoFuturesBot/internal/signal"
	"cryptoFuturesBot/internal/trading"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	if cfg.LogFormat == "json" {
		zapLogger, err := logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize zap logger: %v", err)
		}
		defer zapLogger.Sync()
		appLogger = zapLogger
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade archive")
		log.Fatalf("FATAL: Failed to initialize trade archive: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing trade archive")
		}
	}()
	appLogger.Info(context.Background(), "Trade archive initialized")

	// 4. Initialize Ledger Store
	ledgerStore, err := jsonledger.New(jsonledger.Config{
		Path:   cfg.LedgerPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize ledger store")
		log.Fatalf("FATAL: Failed to initialize ledger store: %v", err)
	}

	// 5. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	appLogger.Info(context.Background(), "Binance client initialized")

	// 6. Initialize Precision Resolver and Risk Sizer
	resolver, err := precision.NewResolver(binanceClient, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize precision resolver")
		log.Fatalf("FATAL: Failed to initialize precision resolver: %v", err)
	}

	riskCfg := risk.LoadConfig(context.Background(), cfg.RiskConfigPath, appLogger)
	sizer, err := risk.NewSizer(riskCfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize risk sizer")
		log.Fatalf("FATAL: Failed to initialize risk sizer: %v", err)
	}

	// 7. Initialize Signal Producer
	producer, err := signal.NewRSIProducer(signal.RSIConfig{
		Period:     cfg.StrategyRSIPeriod,
		Overbought: cfg.StrategyRSIOverbought,
		Oversold:   cfg.StrategyRSIOversold,
		StopLoss:   cfg.StrategyStopLoss,
		TakeProfit: cfg.StrategyTakeProfit,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize signal producer")
		log.Fatalf("FATAL: Failed to initialize signal producer: %v", err)
	}
	appLogger.Info(context.Background(), "Signal producer initialized")

	// 8. Initialize Trading Service
	tradingService, err := trading.NewService(trading.Config{
		Logger:               appLogger,
		Exchange:             binanceClient,
		Precision:            resolver,
		Sizer:                sizer,
		Store:                ledgerStore,
		Signals:              producer,
		History:              repo,
		Notifier:             lognotifier.New(appLogger),
		Symbols:              cfg.Symbols,
		Interval:             cfg.Interval,
		PollInterval:         cfg.PollInterval,
		BaseAsset:            cfg.BaseAsset,
		Leverage:             cfg.Leverage,
		MinExitGap:           cfg.MinExitGap,
		CloseProfitThreshold: cfg.CloseProfitThreshold,
		EntryPriceRetry: retry.Policy{
			MaxAttempts: cfg.EntryPriceAttempts,
			Delay:       cfg.EntryPriceDelay,
		},
		HistoryCSVPath: cfg.HistoryCSVPath,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trading service")
		log.Fatalf("FATAL: Failed to initialize trading service: %v", err)
	}
	appLogger.Info(context.Background(), "Trading service initialized")

	// 9. Run until interrupted
	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tradingService.Run(ctx); err != nil && err != context.Canceled {
		appLogger.Error(context.Background(), err, "Trading service exited with error")
		log.Fatalf("FATAL: Trading service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
