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

	"github.com/aristath/rebalancer/internal/modules/model"
)

// ModelRecord is the external JSON shape of a target model.
type ModelRecord struct {
	Name            string             `json:"name"`
	Targets         map[string]float64 `json:"targets"`
	EnforceLongOnly bool               `json:"enforce_long_only"`
}

// ReadModelJSON parses a target model from JSON.
func ReadModelJSON(r io.Reader) (*model.PortfolioModel, error) {
	var rec ModelRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode model JSON: %w", err)
	}
	return model.New(rec.Name, rec.Targets, rec.EnforceLongOnly)
}

// ReadModelCSV parses rows of symbol,weight with an optional header.
// The model name and long-only flag come from the caller; CSV carries
// only the weights.
func ReadModelCSV(r io.Reader, name string, enforceLongOnly bool) (*model.PortfolioModel, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read model CSV: %w", err)
	}

	targets := make(map[string]float64, len(rows))
	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "symbol") {
			continue
		}
		symbol := strings.TrimSpace(row[0])
		weight, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("model CSV row %d: bad weight %q: %w", i+1, row[1], err)
		}
		if _, dup := targets[symbol]; dup {
			return nil, fmt.Errorf("model CSV row %d: duplicate symbol %s", i+1, symbol)
		}
		targets[symbol] = weight
	}
	return model.New(name, targets, enforceLongOnly)
}

// LoadModelFile reads a target model from a .json or .csv file. CSV models
// take their name from the file name and enforce long-only weights.
func LoadModelFile(path string) (*model.PortfolioModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadModelJSON(f)
	case ".csv":
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return ReadModelCSV(f, name, true)
	default:
		return nil, fmt.Errorf("unsupported model file extension %q", filepath.Ext(path))
	}
}
