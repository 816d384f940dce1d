package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cryptoFuturesBot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "futures-bot-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func sampleClosedTrade(symbol string, pnl float64, closedAt time.Time) *domain.ClosedTrade {
	label := 0
	if pnl > 0 {
		label = 1
	}
	return &domain.ClosedTrade{
		Symbol:      symbol,
		Side:        domain.Long,
		EntryPrice:  70000,
		ExitPrice:   70000 + pnl/0.125,
		Quantity:    0.125,
		PNL:         pnl,
		Label:       label,
		OpenedAt:    closedAt.Add(-time.Hour),
		ClosedAt:    closedAt,
		CloseReason: domain.CloseReasonTakeProfit,
	}
}

func TestRepository_ArchiveAndFind(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := sampleClosedTrade("BTCUSDT", 187.5, time.Now())
	id, err := repo.Archive(ctx, trade)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, id, trade.ID, "Archive must backfill the assigned ID")

	found, err := repo.FindBySymbol(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	got := found[0]
	assert.Equal(t, trade.Symbol, got.Symbol)
	assert.Equal(t, domain.Long, got.Side)
	assert.Equal(t, trade.EntryPrice, got.EntryPrice)
	assert.Equal(t, trade.ExitPrice, got.ExitPrice)
	assert.Equal(t, trade.PNL, got.PNL)
	assert.Equal(t, 1, got.Label)
	assert.Equal(t, domain.CloseReasonTakeProfit, got.CloseReason)
}

func TestRepository_FindBySymbolFiltersAndLimits(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 3; i++ {
		_, err := repo.Archive(ctx, sampleClosedTrade("BTCUSDT", float64(i+1)*10, now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := repo.Archive(ctx, sampleClosedTrade("ETHUSDT", 5, now))
	require.NoError(t, err)

	found, err := repo.FindBySymbol(ctx, "BTCUSDT", 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	// Most recent first.
	assert.Equal(t, 30.0, found[0].PNL)
	assert.Equal(t, 20.0, found[1].PNL)

	none, err := repo.FindBySymbol(ctx, "SOLUSDT", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_CountTodayBySymbol(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Archive(ctx, sampleClosedTrade("BTCUSDT", 10, time.Now()))
	require.NoError(t, err)
	_, err = repo.Archive(ctx, sampleClosedTrade("BTCUSDT", -5, time.Now().AddDate(0, 0, -2)))
	require.NoError(t, err)

	count, err := repo.CountTodayBySymbol(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepository_TotalProfit(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// Empty archive sums to zero, not NULL.
	total, err := repo.TotalProfit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	_, err = repo.Archive(ctx, sampleClosedTrade("BTCUSDT", 100, time.Now()))
	require.NoError(t, err)
	_, err = repo.Archive(ctx, sampleClosedTrade("ETHUSDT", -40, time.Now()))
	require.NoError(t, err)

	total, err = repo.TotalProfit(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, total, 1e-9)
}
