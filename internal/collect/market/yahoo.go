package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"stockpicker/internal/collect"
	"stockpicker/internal/domain"
)

const (
	yahooBaseURL = "https://query1.finance.yahoo.com"

	yahooRatePerMin = 60
)

// YahooClient fetches delayed quotes from the Yahoo Finance chart API. It
// needs no API key, which makes it the fallback quote source when Alpaca
// credentials are absent.
type YahooClient struct {
	http    *collect.HTTPClient
	baseURL string
	log     *slog.Logger
}

// NewYahooClient creates a YahooClient. baseURL overrides the API host for
// tests; empty means production.
func NewYahooClient(baseURL string) *YahooClient {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooClient{
		http:    collect.NewHTTPClient("yahoo", yahooRatePerMin),
		baseURL: baseURL,
		log:     slog.Default().With("collector", "yahoo"),
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Volume []*int64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the latest delayed quote for one symbol.
func (y *YahooClient) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=2d", y.baseURL, url.PathEscape(symbol))

	var resp yahooChartResponse
	headers := map[string]string{"User-Agent": "Mozilla/5.0 (stockpicker)"}
	if err := y.http.GetJSON(ctx, u, headers, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo: %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no chart result for %q", symbol)
	}

	meta := resp.Chart.Result[0].Meta
	quote := &domain.Quote{
		Symbol: symbol,
		Price:  meta.RegularMarketPrice,
		Time:   time.Unix(meta.RegularMarketTime, 0).UTC(),
		Source: "yahoo",
	}
	if meta.PreviousClose != 0 {
		quote.Change = quote.Price - meta.PreviousClose
		quote.ChangePercent = quote.Change / meta.PreviousClose * 100
	}

	// Latest non-null volume sample, if present.
	for _, q := range resp.Chart.Result[0].Indicators.Quote {
		for i := len(q.Volume) - 1; i >= 0; i-- {
			if q.Volume[i] != nil {
				quote.Volume = *q.Volume[i]
				break
			}
		}
	}
	return quote, nil
}
