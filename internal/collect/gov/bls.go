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
	blsBaseURL = "https://api.bls.gov/publicAPI/v2"

	// Registered keys allow 500 requests per day; keep the per-minute rate
	// conservative.
	blsRatePerMin = 25
)

// BLSCollector fetches labor-statistics timeseries from the BLS public API.
// Unlike the other government sources, BLS takes a JSON POST with the series
// IDs batched into a single request.
type BLSCollector struct {
	http    *collect.HTTPClient
	apiKey  string
	baseURL string
	log     *slog.Logger
}

// NewBLSCollector creates a BLSCollector. apiKey may be empty for the
// unregistered tier. baseURL overrides the API host for tests.
func NewBLSCollector(apiKey, baseURL string) *BLSCollector {
	if baseURL == "" {
		baseURL = blsBaseURL
	}
	return &BLSCollector{
		http:    collect.NewHTTPClient("bls", blsRatePerMin),
		apiKey:  apiKey,
		baseURL: baseURL,
		log:     slog.Default().With("collector", "bls"),
	}
}

type blsRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear,omitempty"`
	EndYear         string   `json:"endyear,omitempty"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

type blsResponse struct {
	Status  string `json:"status"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year   string `json:"year"`
				Period string `json:"period"` // "M01".."M12", "Q01".., "A01"
				Value  string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// Series fetches observations for the given series IDs over [startYear,
// endYear]. The skipped return counts unparseable observations.
func (b *BLSCollector) Series(ctx context.Context, seriesIDs []string, startYear, endYear int) ([]domain.SeriesPoint, int, error) {
	if len(seriesIDs) == 0 {
		return nil, 0, fmt.Errorf("bls: no series requested")
	}

	req := blsRequest{
		SeriesID:        seriesIDs,
		RegistrationKey: b.apiKey,
	}
	if startYear > 0 {
		req.StartYear = strconv.Itoa(startYear)
	}
	if endYear > 0 {
		req.EndYear = strconv.Itoa(endYear)
	}

	var resp blsResponse
	u := b.baseURL + "/timeseries/data/"
	if err := b.http.PostJSON(ctx, u, nil, req, &resp); err != nil {
		return nil, 0, err
	}
	if resp.Status != "REQUEST_SUCCEEDED" {
		return nil, 0, fmt.Errorf("bls: status %q", resp.Status)
	}

	var points []domain.SeriesPoint
	skipped := 0
	for _, series := range resp.Results.Series {
		for _, obs := range series.Data {
			date, ok := blsObservationDate(obs.Year, obs.Period)
			if !ok {
				skipped++
				continue
			}
			value, err := strconv.ParseFloat(obs.Value, 64)
			if err != nil {
				skipped++
				continue
			}
			points = append(points, domain.SeriesPoint{
				SeriesID: series.SeriesID,
				Date:     date,
				Value:    value,
				Source:   "bls",
			})
		}
	}
	return points, skipped, nil
}

// blsObservationDate converts a BLS (year, period) pair into the first day
// of the observation period. Monthly periods are "M01".."M12"; "M13" is the
// annual average and maps to January. Quarterly periods are "Q01".."Q04";
// annual is "A01".
func blsObservationDate(year, period string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || len(period) < 3 {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(period[1:])
	if err != nil {
		return time.Time{}, false
	}

	month := time.January
	switch period[0] {
	case 'M':
		if n >= 1 && n <= 12 {
			month = time.Month(n)
		} else if n != 13 {
			return time.Time{}, false
		}
	case 'Q':
		if n < 1 || n > 4 {
			return time.Time{}, false
		}
		month = time.Month((n-1)*3 + 1)
	case 'A':
		// annual; January
	default:
		return time.Time{}, false
	}

	return time.Date(y, month, 1, 0, 0, 0, 0, time.UTC), true
}
