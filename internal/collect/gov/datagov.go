package gov

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stockpicker/internal/collect"
	"stockpicker/internal/domain"
	"stockpicker/internal/routing"
)

const (
	// blsSeriesPrefix routes an economic-series id to the BLS backend,
	// e.g. "bls/CUUR0000SA0".
	blsSeriesPrefix = "bls/"

	// treasuryAvgRatesID requests the Treasury average-interest-rate dataset.
	treasuryAvgRatesID = "treasury/avg_interest_rates"

	// blsDefaultYears is the lookback window for BLS series.
	blsDefaultYears = 10
)

// Compile-time interface check.
var _ collect.Collector = (*DataGovCollector)(nil)

// DataGovCollector serves the government datasets that sit behind prefixed
// series ids: "bls/<id>" timeseries and the Treasury fiscal-data sets.
// Unprefixed series ids belong to FRED and are ignored here.
type DataGovCollector struct {
	treasury *TreasuryCollector
	bls      *BLSCollector
	log      *slog.Logger
}

// NewDataGovCollector creates a DataGovCollector over the given backends.
func NewDataGovCollector(treasury *TreasuryCollector, bls *BLSCollector) *DataGovCollector {
	return &DataGovCollector{
		treasury: treasury,
		bls:      bls,
		log:      slog.Default().With("collector", routing.NameDataGovMCP),
	}
}

// Info returns the collector's routing metadata.
func (d *DataGovCollector) Info() domain.CollectorInfo {
	return domain.CollectorInfo{
		Name:     routing.NameDataGovMCP,
		Quadrant: domain.QuadrantGovernmentMCP,
		Kinds:    []domain.DataKind{domain.KindSeries},
	}
}

// Collect fetches every requested series this collector recognizes. It
// returns an error only when no recognized series produced data.
func (d *DataGovCollector) Collect(ctx context.Context, crit domain.Criteria) (*collect.Result, error) {
	start := time.Now()
	result := &collect.Result{Collector: routing.NameDataGovMCP}

	if !crit.HasEconomicSeries() {
		return nil, fmt.Errorf("datagov: no economic series in criteria")
	}

	var blsIDs []string
	wantTreasury := false
	for _, id := range crit.EconomicSeries {
		switch {
		case strings.HasPrefix(id, blsSeriesPrefix):
			blsIDs = append(blsIDs, strings.TrimPrefix(id, blsSeriesPrefix))
		case id == treasuryAvgRatesID:
			wantTreasury = true
		}
	}
	if len(blsIDs) == 0 && !wantTreasury {
		return nil, fmt.Errorf("datagov: no recognized series in %v", crit.EconomicSeries)
	}

	if len(blsIDs) > 0 {
		endYear := time.Now().Year()
		points, skipped, err := d.bls.Series(ctx, blsIDs, endYear-blsDefaultYears, endYear)
		if err != nil {
			d.log.Warn("bls fetch failed", "series", blsIDs, "err", err)
			result.ItemErrors++
		} else {
			result.Series = append(result.Series, points...)
			result.ItemErrors += skipped
		}
	}

	if wantTreasury {
		points, skipped, err := d.treasury.AverageInterestRates(ctx)
		if err != nil {
			d.log.Warn("treasury fetch failed", "err", err)
			result.ItemErrors++
		} else {
			result.Series = append(result.Series, points...)
			result.ItemErrors += skipped
		}
	}

	result.Elapsed = time.Since(start)
	if len(result.Series) == 0 {
		return result, fmt.Errorf("datagov: no observations (%d errors)", result.ItemErrors)
	}
	return result, nil
}
