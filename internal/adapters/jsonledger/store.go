// Package jsonledger persists the open-trade ledger as a single JSON array,
// fully rewritten on every save. The file is the crash-recovery source: at
// startup the in-memory ledger is rebuilt from it.
package jsonledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cryptoFuturesBot/internal/domain"
	"cryptoFuturesBot/internal/ports"
)

// Store implements ports.LedgerStore against one JSON file.
type Store struct {
	path   string
	logger ports.Logger
}

// Config holds configuration for the JSON ledger store.
type Config struct {
	Path   string
	Logger ports.Logger
}

// New creates a JSON ledger store and ensures its directory exists.
func New(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for JSON ledger store")
	}
	path := cfg.Path
	if path == "" {
		path = "./data/ledger.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory %q: %w", filepath.Dir(path), err)
	}
	return &Store{path: path, logger: cfg.Logger}, nil
}

// Load reads all persisted open trades. A missing file is an empty ledger.
func (s *Store) Load(ctx context.Context) ([]*domain.Trade, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info(ctx, "No ledger file found, starting with an empty ledger", map[string]interface{}{"path": s.path})
			return []*domain.Trade{}, nil
		}
		return nil, fmt.Errorf("failed to read ledger file %q: %w", s.path, err)
	}

	var trades []*domain.Trade
	if err := json.Unmarshal(data, &trades); err != nil {
		return nil, fmt.Errorf("failed to decode ledger file %q: %w", s.path, err)
	}
	s.logger.Info(ctx, "Ledger loaded", map[string]interface{}{"path": s.path, "openTrades": len(trades)})
	return trades, nil
}

// Save replaces the persisted ledger with the given trades. The file is
// written to a temporary sibling and renamed so the ledger on disk is always
// a complete snapshot, even if the process dies mid-write.
func (s *Store) Save(ctx context.Context, trades []*domain.Trade) error {
	if trades == nil {
		trades = []*domain.Trade{}
	}
	data, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger temp file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace ledger file %q: %w", s.path, err)
	}
	s.logger.Debug(ctx, "Ledger persisted", map[string]interface{}{"path": s.path, "openTrades": len(trades)})
	return nil
}
