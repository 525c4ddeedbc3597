package gov

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"stockpicker/internal/collect"
	"stockpicker/internal/domain"
)

const (
	treasuryBaseURL = "https://api.fiscaldata.treasury.gov/services/api/fiscal_service"

	treasuryRatePerMin = 120
	treasuryPageSize   = 100

	// avgRatesEndpoint reports average interest rates on Treasury securities.
	avgRatesEndpoint = "/v2/accounting/od/avg_interest_rates"
)

// TreasuryCollector pages through the Treasury Fiscal Data REST API. It is
// one of the series sources behind the datagov MCP quadrant.
type TreasuryCollector struct {
	http    *collect.HTTPClient
	baseURL string
	log     *slog.Logger
}

// NewTreasuryCollector creates a TreasuryCollector. No API key is required.
// baseURL overrides the API host for tests; empty means production.
func NewTreasuryCollector(baseURL string) *TreasuryCollector {
	if baseURL == "" {
		baseURL = treasuryBaseURL
	}
	return &TreasuryCollector{
		http:    collect.NewHTTPClient("treasury", treasuryRatePerMin),
		baseURL: baseURL,
		log:     slog.Default().With("collector", "treasury"),
	}
}

type treasuryResponse struct {
	Data []map[string]string `json:"data"`
	Meta struct {
		TotalPages int `json:"total-pages"`
	} `json:"meta"`
}

// AverageInterestRates fetches all pages of the average-interest-rate
// dataset, one SeriesPoint per (security description, record date). The
// skipped return counts rows with unparseable dates or values.
func (t *TreasuryCollector) AverageInterestRates(ctx context.Context) ([]domain.SeriesPoint, int, error) {
	var points []domain.SeriesPoint
	skipped := 0

	for page := 1; ; page++ {
		u := fmt.Sprintf("%s%s?page[number]=%d&page[size]=%d&sort=-record_date",
			t.baseURL, avgRatesEndpoint, page, treasuryPageSize)

		var resp treasuryResponse
		if err := t.http.GetJSON(ctx, u, nil, &resp); err != nil {
			return nil, skipped, err
		}
		if len(resp.Data) == 0 {
			break
		}

		for _, row := range resp.Data {
			date, err := time.Parse("2006-01-02", row["record_date"])
			if err != nil {
				skipped++
				continue
			}
			value, err := strconv.ParseFloat(row["avg_interest_rate_amt"], 64)
			if err != nil {
				skipped++
				continue
			}
			points = append(points, domain.SeriesPoint{
				SeriesID: "treasury/" + row["security_desc"],
				Date:     date,
				Value:    value,
				Source:   "treasury",
			})
		}

		if page >= resp.Meta.TotalPages {
			break
		}
	}

	if len(points) == 0 {
		return nil, skipped, fmt.Errorf("treasury: no rows returned")
	}
	return points, skipped, nil
}
