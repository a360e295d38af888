// Package importers reads accounts, price tables and target models from
// JSON and CSV sources. The core never touches files; these readers produce
// the structures it consumes.
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

	"github.com/aristath/rebalancer/internal/modules/portfolio"
)

// AccountRecord is the external JSON shape of one account.
type AccountRecord struct {
	Label                      string             `json:"label"`
	AccountID                  string             `json:"account_id"`
	Cash                       float64            `json:"cash"`
	Positions                  map[string]float64 `json:"positions"`
	EnforceNoNegativePositions bool               `json:"enforce_no_negative_positions"`
	TaxDeferred                bool               `json:"tax_deferred"`
}

func (rec AccountRecord) toAccount() (*portfolio.Account, error) {
	account, err := portfolio.NewAccount(rec.Label, rec.AccountID, rec.Cash,
		rec.Positions, rec.EnforceNoNegativePositions)
	if err != nil {
		return nil, err
	}
	account.TaxDeferred = rec.TaxDeferred
	return account, nil
}

// ReadAccountsJSON parses a JSON array of account records.
func ReadAccountsJSON(r io.Reader) ([]*portfolio.Account, error) {
	var records []AccountRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode accounts JSON: %w", err)
	}

	accounts := make([]*portfolio.Account, 0, len(records))
	for _, rec := range records {
		if rec.AccountID == "" {
			return nil, fmt.Errorf("account record %q has no account_id", rec.Label)
		}
		account, err := rec.toAccount()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// ReadAccountsCSV parses accounts from CSV rows of the form
//
//	account_id,label,cash,enforce_no_negative_positions,tax_deferred,symbol,quantity
//
// One row per position; a row with an empty symbol contributes only the
// account itself. Rows for the same account id are merged in input order,
// with the first row winning for label, cash and flags.
func ReadAccountsCSV(r io.Reader) ([]*portfolio.Account, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 7

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts CSV: %w", err)
	}

	records := make(map[string]*AccountRecord)
	var order []string

	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "account_id") {
			continue // header
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			return nil, fmt.Errorf("accounts CSV row %d has no account_id", i+1)
		}

		rec, seen := records[id]
		if !seen {
			cash, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("accounts CSV row %d: bad cash %q: %w", i+1, row[2], err)
			}
			rec = &AccountRecord{
				AccountID:                  id,
				Label:                      strings.TrimSpace(row[1]),
				Cash:                       cash,
				Positions:                  make(map[string]float64),
				EnforceNoNegativePositions: parseBool(row[3]),
				TaxDeferred:                parseBool(row[4]),
			}
			records[id] = rec
			order = append(order, id)
		}

		symbol := strings.TrimSpace(row[5])
		if symbol == "" {
			continue
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if err != nil {
			return nil, fmt.Errorf("accounts CSV row %d: bad quantity %q: %w", i+1, row[6], err)
		}
		rec.Positions[symbol] += qty
	}

	accounts := make([]*portfolio.Account, 0, len(order))
	for _, id := range order {
		account, err := records[id].toAccount()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// LoadAccountsFile reads accounts from a .json or .csv file.
func LoadAccountsFile(path string) ([]*portfolio.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadAccountsJSON(f)
	case ".csv":
		return ReadAccountsCSV(f)
	default:
		return nil, fmt.Errorf("unsupported accounts file extension %q", filepath.Ext(path))
	}
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}
