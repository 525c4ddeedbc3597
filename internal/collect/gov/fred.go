package gov

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"stockpicker/internal/collect"
	"stockpicker/internal/domain"
	"stockpicker/internal/routing"
)

const (
	fredBaseURL = "https://api.stlouisfed.org/fred"

	// FRED allows 120 requests per minute per key.
	fredRatePerMin = 100

	// fredPageSize is the observations page size; FRED caps it at 100000
	// but smaller pages keep memory bounded.
	fredPageSize = 1000
)

// Compile-time interface check.
var _ collect.Collector = (*FREDCollector)(nil)

// FREDCollector fetches macro/economic series observations from the St.
// Louis Fed FRED API, paging through observations per series.
type FREDCollector struct {
	http    *collect.HTTPClient
	apiKey  string
	baseURL string
	log     *slog.Logger
}

// NewFREDCollector creates a FREDCollector. baseURL overrides the API host
// for tests; empty means production.
func NewFREDCollector(apiKey, baseURL string) *FREDCollector {
	if baseURL == "" {
		baseURL = fredBaseURL
	}
	return &FREDCollector{
		http:    collect.NewHTTPClient(routing.NameFREDMacro, fredRatePerMin),
		apiKey:  apiKey,
		baseURL: baseURL,
		log:     slog.Default().With("collector", routing.NameFREDMacro),
	}
}

// Info returns the collector's routing metadata.
func (f *FREDCollector) Info() domain.CollectorInfo {
	return domain.CollectorInfo{
		Name:     routing.NameFREDMacro,
		Quadrant: domain.QuadrantGovernmentAPI,
		Kinds:    []domain.DataKind{domain.KindSeries},
	}
}

type fredObservationsResponse struct {
	Count        int `json:"count"`
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"` // "." marks a missing observation
	} `json:"observations"`
}

// Collect fetches all observations for every requested economic series.
// Failures on individual series are counted and skipped.
func (f *FREDCollector) Collect(ctx context.Context, crit domain.Criteria) (*collect.Result, error) {
	start := time.Now()
	result := &collect.Result{Collector: routing.NameFREDMacro}

	if !crit.HasEconomicSeries() {
		return nil, fmt.Errorf("fred: no economic series in criteria")
	}

	for _, seriesID := range crit.EconomicSeries {
		points, skipped, err := f.fetchSeries(ctx, seriesID)
		if err != nil {
			f.log.Warn("series fetch failed", "series", seriesID, "err", err)
			result.ItemErrors++
			continue
		}
		result.Series = append(result.Series, points...)
		result.ItemErrors += skipped
	}

	result.Elapsed = time.Since(start)
	if len(result.Series) == 0 {
		return result, fmt.Errorf("fred: no observations for %d series (%d errors)",
			len(crit.EconomicSeries), result.ItemErrors)
	}
	return result, nil
}

// fetchSeries pages through the observations of one series. It returns the
// parsed points and the number of unparseable observations skipped.
func (f *FREDCollector) fetchSeries(ctx context.Context, seriesID string) ([]domain.SeriesPoint, int, error) {
	var points []domain.SeriesPoint
	skipped := 0

	for offset := 0; ; offset += fredPageSize {
		u := fmt.Sprintf("%s/series/observations?series_id=%s&api_key=%s&file_type=json&limit=%d&offset=%d",
			f.baseURL, url.QueryEscape(seriesID), url.QueryEscape(f.apiKey), fredPageSize, offset)

		var resp fredObservationsResponse
		if err := f.http.GetJSON(ctx, u, nil, &resp); err != nil {
			return nil, skipped, err
		}

		for _, obs := range resp.Observations {
			if obs.Value == "." {
				continue // missing observation, not an error
			}
			date, err := time.Parse("2006-01-02", obs.Date)
			if err != nil {
				skipped++
				continue
			}
			value, err := strconv.ParseFloat(obs.Value, 64)
			if err != nil {
				skipped++
				continue
			}
			points = append(points, domain.SeriesPoint{
				SeriesID: seriesID,
				Date:     date,
				Value:    value,
				Source:   "fred",
			})
		}

		if offset+fredPageSize >= resp.Count || len(resp.Observations) == 0 {
			break
		}
	}
	return points, skipped, nil
}
