// Package market implements the commercial-side collectors: Alpaca market
// data for screening and real-time quotes, Yahoo as a keyless quote
// fallback, and web intelligence over news feeds.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockpicker/internal/collect"
	"stockpicker/internal/domain"
	"stockpicker/internal/routing"
)

// ---------------------------------------------------------------------------
// Compile-time interface checks
// ---------------------------------------------------------------------------

var _ collect.Collector = (*MarketCollector)(nil)
var _ collect.Collector = (*LiveCollector)(nil)

// screenLookbackDays is the daily-bar window fetched for screening requests.
const screenLookbackDays = 30

// Universe maps sector and index names to their member symbols. Screening
// requests that name a sector or index are resolved through it.
type Universe map[string][]string

// DefaultUniverse returns the built-in sector and index memberships. It is
// intentionally small; production deployments load a fuller universe from
// config.
func DefaultUniverse() Universe {
	return Universe{
		"technology": {"AAPL", "MSFT", "NVDA", "GOOGL", "META", "AVGO", "ORCL", "CRM", "AMD", "INTC"},
		"energy":     {"XOM", "CVX", "COP", "SLB", "EOG", "MPC", "PSX", "VLO"},
		"financials": {"JPM", "BAC", "WFC", "GS", "MS", "C", "BLK", "SCHW"},
		"healthcare": {"LLY", "UNH", "JNJ", "ABBV", "MRK", "PFE", "TMO", "ABT"},
		"djia": {"AAPL", "AMGN", "AXP", "BA", "CAT", "CRM", "CSCO", "CVX", "DIS", "GS",
			"HD", "HON", "IBM", "JNJ", "JPM", "KO", "MCD", "MMM", "MRK", "MSFT",
			"NKE", "PG", "TRV", "UNH", "V", "VZ", "WMT"},
	}
}

// Resolve returns the member symbols for a sector or index name, or nil if
// the name is unknown. Lookup is case-insensitive.
func (u Universe) Resolve(name string) []string {
	if name == "" {
		return nil
	}
	return u[strings.ToLower(name)]
}

// ---------------------------------------------------------------------------
// MarketCollector: bulk screening over Alpaca daily bars.
// ---------------------------------------------------------------------------

// MarketCollector is the bulk/screening collector: daily OHLCV bars for a
// symbol list, sector, or index via the Alpaca market-data API.
type MarketCollector struct {
	client   *marketdata.Client
	universe Universe
	log      *slog.Logger
}

// NewMarketCollector creates a MarketCollector with the given Alpaca
// credentials. dataURL overrides the market-data host; empty means
// production. A nil universe falls back to DefaultUniverse.
func NewMarketCollector(apiKey, apiSecret, dataURL string, universe Universe) *MarketCollector {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if universe == nil {
		universe = DefaultUniverse()
	}

	return &MarketCollector{
		client:   marketdata.NewClient(opts),
		universe: universe,
		log:      slog.Default().With("collector", routing.NameMarketAPI),
	}
}

// Info returns the collector's routing metadata.
func (m *MarketCollector) Info() domain.CollectorInfo {
	return domain.CollectorInfo{
		Name:           routing.NameMarketAPI,
		Quadrant:       domain.QuadrantCommercialAPI,
		CostPerRequest: 0.002,
		Kinds:          []domain.DataKind{domain.KindScreening, domain.KindBars},
	}
}

// Collect fetches a daily-bar window for the resolved symbol set: explicit
// companies plus any sector or index members.
func (m *MarketCollector) Collect(ctx context.Context, crit domain.Criteria) (*collect.Result, error) {
	start := time.Now()
	result := &collect.Result{Collector: routing.NameMarketAPI}

	symbols := m.resolveSymbols(crit)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("market: no symbols resolved from criteria")
	}

	end := time.Now().UTC()
	bars, err := m.fetchMultiBars(ctx, symbols, end.AddDate(0, 0, -screenLookbackDays), end)
	if err != nil {
		return nil, err
	}
	result.Bars = bars

	result.Elapsed = time.Since(start)
	if len(result.Bars) == 0 {
		return result, fmt.Errorf("market: no bars for %d symbols", len(symbols))
	}
	return result, nil
}

// resolveSymbols merges explicit companies with sector/index members,
// deduplicated and upper-cased.
func (m *MarketCollector) resolveSymbols(crit domain.Criteria) []string {
	seen := make(map[string]struct{})
	var symbols []string
	add := func(sym string) {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			return
		}
		if _, dup := seen[sym]; dup {
			return
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}

	for _, sym := range crit.NormalizedCompanies() {
		add(sym)
	}
	for _, sym := range m.universe.Resolve(crit.Sector) {
		add(sym)
	}
	for _, sym := range m.universe.Resolve(crit.Index) {
		add(sym)
	}
	return symbols
}

func (m *MarketCollector) fetchMultiBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	multiBars, err := m.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}

// ---------------------------------------------------------------------------
// LiveCollector: real-time snapshots per symbol.
// ---------------------------------------------------------------------------

// LiveCollector serves real-time requests: latest trade and day-over-day
// change per symbol via Alpaca snapshots.
type LiveCollector struct {
	client *marketdata.Client
	log    *slog.Logger
}

// NewLiveCollector creates a LiveCollector with the given Alpaca
// credentials. dataURL overrides the market-data host; empty means
// production.
func NewLiveCollector(apiKey, apiSecret, dataURL string) *LiveCollector {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &LiveCollector{
		client: marketdata.NewClient(opts),
		log:    slog.Default().With("collector", routing.NameAlpacaLive),
	}
}

// Info returns the collector's routing metadata.
func (l *LiveCollector) Info() domain.CollectorInfo {
	return domain.CollectorInfo{
		Name:           routing.NameAlpacaLive,
		Quadrant:       domain.QuadrantCommercialAPI,
		CostPerRequest: 0.004,
		Kinds:          []domain.DataKind{domain.KindQuotes, domain.KindBars},
	}
}

// Collect fetches real-time snapshots for the requested companies. Symbols
// with no snapshot are counted as item errors.
func (l *LiveCollector) Collect(ctx context.Context, crit domain.Criteria) (*collect.Result, error) {
	start := time.Now()
	result := &collect.Result{Collector: routing.NameAlpacaLive}

	symbols := crit.NormalizedCompanies()
	if len(symbols) == 0 {
		return nil, fmt.Errorf("live: no companies in criteria")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	snapshots, err := l.client.GetSnapshots(symbols, marketdata.GetSnapshotRequest{})
	if err != nil {
		return nil, fmt.Errorf("GetSnapshots: %w", err)
	}

	for _, symbol := range symbols {
		snap, ok := snapshots[symbol]
		if !ok || snap == nil || snap.LatestTrade == nil {
			result.ItemErrors++
			continue
		}

		quote := domain.Quote{
			Symbol: symbol,
			Price:  snap.LatestTrade.Price,
			Time:   snap.LatestTrade.Timestamp,
			Source: "alpaca",
		}
		if snap.DailyBar != nil {
			quote.Volume = int64(snap.DailyBar.Volume)
		}
		if snap.PrevDailyBar != nil && snap.PrevDailyBar.Close != 0 {
			quote.Change = quote.Price - snap.PrevDailyBar.Close
			quote.ChangePercent = quote.Change / snap.PrevDailyBar.Close * 100
		}
		result.Quotes = append(result.Quotes, quote)
	}

	result.Elapsed = time.Since(start)
	if len(result.Quotes) == 0 {
		return result, fmt.Errorf("live: no snapshots for %d symbols (%d errors)", len(symbols), result.ItemErrors)
	}
	return result, nil
}
