package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"stockpicker/internal/store"
)

// LoadCSVSymbols reads the first column from a CSV file with a header row
// and returns the upper-cased symbols.
func LoadCSVSymbols(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	symbols := make([]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) > 0 {
			sym := strings.TrimSpace(row[0])
			if sym != "" {
				symbols = append(symbols, strings.ToUpper(sym))
			}
		}
	}
	return symbols, nil
}

// ResolveSymbols returns the symbol list for a build: the CSV file when
// given, otherwise the symbols already present in the bar store. Duplicates
// are removed, input order preserved.
func ResolveSymbols(ctx context.Context, csvPath string, bars store.BarStore) ([]string, error) {
	var symbols []string
	var err error
	if csvPath != "" {
		symbols, err = LoadCSVSymbols(csvPath)
	} else if bars != nil {
		symbols, err = bars.ListSymbols(ctx)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(symbols))
	deduped := symbols[:0]
	for _, sym := range symbols {
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		deduped = append(deduped, sym)
	}
	if len(deduped) == 0 {
		return nil, fmt.Errorf("no symbols: provide a symbols CSV or build bars first")
	}
	return deduped, nil
}
