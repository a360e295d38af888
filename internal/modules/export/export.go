// Package export writes executed trade lists to external destinations.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aristath/rebalancer/internal/domain"
)

// CSVExporter writes trades as account_id,symbol,shares rows with a header.
type CSVExporter struct {
	W io.Writer
}

// Export implements domain.TradeExporter.
func (e *CSVExporter) Export(trades []domain.Trade) error {
	writer := csv.NewWriter(e.W)
	if err := writer.Write([]string{"account_id", "symbol", "shares"}); err != nil {
		return fmt.Errorf("failed to write trades CSV header: %w", err)
	}
	for _, trade := range trades {
		row := []string{trade.AccountID, trade.Symbol, strconv.FormatInt(trade.Shares, 10)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write trade row for %s: %w", trade.Symbol, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// JSONExporter writes trades as an indented JSON array.
type JSONExporter struct {
	W io.Writer
}

// Export implements domain.TradeExporter.
func (e *JSONExporter) Export(trades []domain.Trade) error {
	encoder := json.NewEncoder(e.W)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(trades); err != nil {
		return fmt.Errorf("failed to encode trades JSON: %w", err)
	}
	return nil
}

// WriteTradesFile writes trades to path, picking the format from the
// extension (.csv or .json).
func WriteTradesFile(path string, trades []domain.Trade) error {
	var exporter func(io.Writer) domain.TradeExporter
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		exporter = func(w io.Writer) domain.TradeExporter { return &CSVExporter{W: w} }
	case ".json":
		exporter = func(w io.Writer) domain.TradeExporter { return &JSONExporter{W: w} }
	default:
		return fmt.Errorf("unsupported trades file extension %q", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trades file: %w", err)
	}
	defer f.Close()

	if err := exporter(f).Export(trades); err != nil {
		return err
	}
	return f.Sync()
}
