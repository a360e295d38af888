package importers

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

// ReadPricesJSON parses a JSON object of symbol to price. Non-positive
// prices fail here rather than later at state construction.
func ReadPricesJSON(r io.Reader) (map[string]float64, error) {
	var prices map[string]float64
	if err := json.NewDecoder(r).Decode(&prices); err != nil {
		return nil, fmt.Errorf("failed to decode prices JSON: %w", err)
	}
	if err := checkPrices(prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// ReadPricesCSV parses rows of symbol,price with an optional header.
func ReadPricesCSV(r io.Reader) (map[string]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read prices CSV: %w", err)
	}

	prices := make(map[string]float64, len(rows))
	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "symbol") {
			continue
		}
		symbol := strings.TrimSpace(row[0])
		price, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("prices CSV row %d: bad price %q: %w", i+1, row[1], err)
		}
		if _, dup := prices[symbol]; dup {
			return nil, fmt.Errorf("prices CSV row %d: duplicate symbol %s", i+1, symbol)
		}
		prices[symbol] = price
	}

	if err := checkPrices(prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// LoadPricesFile reads a price table from a .json or .csv file.
func LoadPricesFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prices file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadPricesJSON(f)
	case ".csv":
		return ReadPricesCSV(f)
	default:
		return nil, fmt.Errorf("unsupported prices file extension %q", filepath.Ext(path))
	}
}

func checkPrices(prices map[string]float64) error {
	for symbol, price := range prices {
		if price <= 0 {
			return domain.NewValidationError("price table",
				"non-positive price %.4f for %s", price, symbol)
		}
	}
	return nil
}
