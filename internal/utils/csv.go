package utils

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"time"

	"cryptoFuturesBot/internal/domain"
)

var tradeHistoryHeader = []string{
	"symbol", "side", "entry_price", "close_price", "quantity", "pnl", "label",
	"close_reason", "opened_at", "closed_at",
}

// AppendTradeHistory appends one closed trade and its decision features to a
// CSV file, writing the header on first use. Feature columns are appended
// after the fixed columns in sorted key order so rows stay comparable across
// runs with the same feature set.
func AppendTradeHistory(trade *domain.ClosedTrade, features map[string]float64, filename string) error {
	_, statErr := os.Stat(filename)
	writeHeader := os.IsNotExist(statErr)

	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if writeHeader {
		header := append(append([]string{}, tradeHistoryHeader...), keys...)
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	row := []string{
		trade.Symbol,
		string(trade.Side),
		strconv.FormatFloat(trade.EntryPrice, 'f', -1, 64),
		strconv.FormatFloat(trade.ExitPrice, 'f', -1, 64),
		strconv.FormatFloat(trade.Quantity, 'f', -1, 64),
		strconv.FormatFloat(trade.PNL, 'f', -1, 64),
		strconv.Itoa(trade.Label),
		string(trade.CloseReason),
		trade.OpenedAt.Format(time.RFC3339),
		trade.ClosedAt.Format(time.RFC3339),
	}
	for _, k := range keys {
		row = append(row, strconv.FormatFloat(features[k], 'f', -1, 64))
	}
	if err := writer.Write(row); err != nil {
		return err
	}
	return writer.Error()
}
