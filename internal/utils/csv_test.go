package utils

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cryptoFuturesBot/internal/domain"
)

func TestAppendTradeHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_history.csv")
	closedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	trade := &domain.ClosedTrade{
		Symbol:      "BTCUSDT",
		Side:        domain.Long,
		EntryPrice:  70000,
		ExitPrice:   71500,
		Quantity:    0.125,
		PNL:         187.5,
		Label:       1,
		OpenedAt:    closedAt.Add(-time.Hour),
		ClosedAt:    closedAt,
		CloseReason: domain.CloseReasonTakeProfit,
	}
	features := map[string]float64{"rsi": 28.5, "last_price": 70000}

	if err := AppendTradeHistory(trade, features, path); err != nil {
		t.Fatalf("AppendTradeHistory returned error: %v", err)
	}
	if err := AppendTradeHistory(trade, features, path); err != nil {
		t.Fatalf("Second append returned error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	// Header once, then one row per append.
	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d rows", len(rows))
	}

	header := rows[0]
	// Feature columns appended after the fixed columns in sorted key order.
	if header[len(header)-2] != "last_price" || header[len(header)-1] != "rsi" {
		t.Errorf("Expected sorted feature columns at the end, got %v", header)
	}

	row := rows[1]
	if row[0] != "BTCUSDT" || row[1] != "LONG" {
		t.Errorf("Unexpected identity columns: %v", row)
	}
	if row[5] != "187.5" || row[6] != "1" {
		t.Errorf("Unexpected pnl/label columns: %v", row)
	}
	if row[len(row)-1] != "28.5" {
		t.Errorf("Expected rsi value in last column, got %v", row)
	}
}
