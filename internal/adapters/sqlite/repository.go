// Package sqlite archives closed trades so realized outcomes survive beyond
// the ledger, which only tracks open risk.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.TradeHistoryRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trading_bot.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		err = fmt.Errorf("failed to create data directory %q: %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at %q: %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at %q: %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite trade archive ready", map[string]interface{}{"path": dbPath})
	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trade_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		quantity REAL NOT NULL,
		pnl REAL NOT NULL,
		label INTEGER NOT NULL,
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP NOT NULL,
		close_reason TEXT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trade_history_symbol_closed_at ON trade_history (symbol, closed_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Archive saves a closed trade record and returns its assigned ID.
func (r *Repository) Archive(ctx context.Context, trade *domain.ClosedTrade) (int64, error) {
	const query = `
	INSERT INTO trade_history (symbol, side, entry_price, exit_price, quantity, pnl, label, opened_at, closed_at, close_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		trade.Symbol, trade.Side, trade.EntryPrice, trade.ExitPrice, trade.Quantity,
		trade.PNL, trade.Label, trade.OpenedAt, trade.ClosedAt, trade.CloseReason)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade history for symbol %s: %w", trade.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade history %s: %w", trade.Symbol, err)
	}
	trade.ID = id
	r.logger.Debug(ctx, "Closed trade archived", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol, "pnl": trade.PNL})
	return id, nil
}

// FindBySymbol retrieves the most recent closed trades for a given symbol, up to a limit.
func (r *Repository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.ClosedTrade, error) {
	const query = `
	SELECT id, symbol, side, entry_price, exit_price, quantity, pnl, label, opened_at, closed_at, close_reason
	FROM trade_history
	WHERE symbol = ? ORDER BY closed_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade history for symbol %s: %w", symbol, err)
	}
	defer rows.Close()

	trades := make([]*domain.ClosedTrade, 0)
	for rows.Next() {
		trade, err := scanClosedTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade history during FindBySymbol: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade history rows: %w", err)
	}
	return trades, nil
}

// CountTodayBySymbol counts the number of trades closed today for a given symbol.
func (r *Repository) CountTodayBySymbol(ctx context.Context, symbol string) (int, error) {
	const query = `SELECT COUNT(*) FROM trade_history WHERE symbol = ? AND date(closed_at) = date('now', 'localtime')`
	var count int
	if err := r.db.QueryRowContext(ctx, query, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades today for symbol %s: %w", symbol, err)
	}
	return count, nil
}

// TotalProfit calculates the sum of PNL over all archived trades.
func (r *Repository) TotalProfit(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(pnl), 0) FROM trade_history`
	var total float64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to calculate total profit: %w", err)
	}
	return total, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanClosedTrade(s scanner) (*domain.ClosedTrade, error) {
	t := &domain.ClosedTrade{}
	var side string
	var closeReason sql.NullString
	err := s.Scan(
		&t.ID, &t.Symbol, &side, &t.EntryPrice, &t.ExitPrice, &t.Quantity,
		&t.PNL, &t.Label, &t.OpenedAt, &t.ClosedAt, &closeReason)
	if err != nil {
		return nil, err
	}
	t.Side = domain.TradeSide(side)
	if closeReason.Valid {
		t.CloseReason = domain.CloseReason(closeReason.String)
	} else {
		t.CloseReason = domain.CloseReasonUnknown
	}
	return t, nil
}
