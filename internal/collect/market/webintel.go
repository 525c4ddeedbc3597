package market

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stockpicker/internal/collect"
	"stockpicker/internal/domain"
	"stockpicker/internal/news"
	"stockpicker/internal/routing"
)

// Compile-time interface check.
var _ collect.Collector = (*WebIntelCollector)(nil)

// webIntelLookback is the article window fetched per sentiment request.
const webIntelLookback = 48 * time.Hour

// WebIntelCollector gathers recent articles and social chatter per symbol
// from the free news sources. It is the sole collector activated for pure
// sentiment requests.
type WebIntelCollector struct {
	fetcher *news.Fetcher
	log     *slog.Logger
}

// NewWebIntelCollector creates a WebIntelCollector sharing the given news
// fetcher. A nil fetcher gets a default-rate one.
func NewWebIntelCollector(fetcher *news.Fetcher) *WebIntelCollector {
	if fetcher == nil {
		fetcher = news.NewFetcher(0)
	}
	return &WebIntelCollector{
		fetcher: fetcher,
		log:     slog.Default().With("collector", routing.NameNewsIntel),
	}
}

// Info returns the collector's routing metadata.
func (w *WebIntelCollector) Info() domain.CollectorInfo {
	return domain.CollectorInfo{
		Name:           routing.NameNewsIntel,
		Quadrant:       domain.QuadrantCommercialMCP,
		CostPerRequest: 0.01,
		Kinds:          []domain.DataKind{domain.KindArticles},
	}
}

// Collect fetches the last two days of news and StockTwits messages for
// every requested company. Source failures are counted per (symbol, source)
// and skipped; only a fully empty result is an error.
func (w *WebIntelCollector) Collect(ctx context.Context, crit domain.Criteria) (*collect.Result, error) {
	start := time.Now()
	result := &collect.Result{Collector: routing.NameNewsIntel}

	companies := crit.NormalizedCompanies()
	if len(companies) == 0 {
		return nil, fmt.Errorf("webintel: no companies in criteria")
	}

	end := time.Now().UTC()
	windowStart := end.Add(-webIntelLookback)

	for _, symbol := range companies {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		articles, err := w.fetcher.FetchGoogleNews(ctx, symbol, windowStart, end)
		if err != nil {
			w.log.Warn("google news failed", "symbol", symbol, "err", err)
			result.ItemErrors++
		} else {
			result.Articles = append(result.Articles, articles...)
		}

		twits, err := w.fetcher.FetchStockTwits(ctx, symbol, windowStart, end, false)
		if err != nil {
			w.log.Warn("stocktwits failed", "symbol", symbol, "err", err)
			result.ItemErrors++
		} else {
			result.Articles = append(result.Articles, twits...)
		}
	}

	result.Elapsed = time.Since(start)
	if len(result.Articles) == 0 {
		return result, fmt.Errorf("webintel: no articles for %d companies (%d errors)",
			len(companies), result.ItemErrors)
	}
	return result, nil
}
