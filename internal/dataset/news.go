package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"stockpicker/internal/config"
	"stockpicker/internal/domain"
	"stockpicker/internal/news"
	"stockpicker/internal/store"
)

// NewsBuilder archives per-symbol articles from the free news sources into
// the Parquet store. StockTwits is paginated through its full history window
// while RSS feeds only expose recent items, so repeated runs accumulate.
type NewsBuilder struct {
	fetcher  *news.Fetcher
	bars     store.BarStore
	articles store.ArticleStore
	dataDir  string
	cfg      config.BuilderConfig
	log      *slog.Logger
}

// NewNewsBuilder creates a NewsBuilder writing into s under dataDir. bars is
// used to resolve the symbol list when no CSV is configured.
func NewNewsBuilder(cfg config.BuilderConfig, bars store.BarStore, s store.ArticleStore, dataDir string) *NewsBuilder {
	return &NewsBuilder{
		fetcher:  news.NewFetcher(cfg.RateLimitPerMin),
		bars:     bars,
		articles: s,
		dataDir:  dataDir,
		cfg:      cfg,
		log:      slog.Default().With("builder", "news"),
	}
}

// Name returns the builder identifier.
func (b *NewsBuilder) Name() string { return "news" }

// Run fetches articles for every symbol from the configured start date to
// now and writes them to the article store.
func (b *NewsBuilder) Run(ctx context.Context) (int64, error) {
	start, err := time.Parse("2006-01-02", b.cfg.StartDate)
	if err != nil {
		return 0, fmt.Errorf("parsing start date %q: %w", b.cfg.StartDate, err)
	}
	end := time.Now().UTC()
	endDateStr := end.Format("2006-01-02")

	tracker, err := newProgressTracker(filepath.Join(b.dataDir, "news"))
	if err != nil {
		return 0, fmt.Errorf("creating progress tracker: %w", err)
	}
	defer tracker.Close()

	if tracker.IsCompleted(endDateStr) {
		b.log.Info("already completed", "endDate", endDateStr)
		return 0, nil
	}
	lastCompleted := tracker.LastCompleted()
	if lastCompleted != "" && lastCompleted != endDateStr {
		if err := tracker.Reset(); err != nil {
			return 0, fmt.Errorf("resetting tracker: %w", err)
		}
	}

	symbols, err := ResolveSymbols(ctx, b.cfg.SymbolsCSV, b.bars)
	if err != nil {
		return 0, err
	}

	var remaining []string
	for _, sym := range symbols {
		if tracker.IsTriedEmpty(sym) {
			continue
		}
		remaining = append(remaining, sym)
	}

	b.log.Info("starting news build",
		"endDate", endDateStr,
		"symbols", len(symbols),
		"remaining", len(remaining),
	)

	symCh := make(chan string, len(remaining))
	for _, sym := range remaining {
		symCh <- sym
	}
	close(symCh)

	var (
		wg        sync.WaitGroup
		totalRows atomic.Int64
		runStart  = time.Now()
	)

	workers := b.cfg.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	workers = min(workers, max(len(remaining), 1))

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range symCh {
				if ctx.Err() != nil {
					return
				}

				articles := b.fetchSymbol(ctx, sym, start, end)
				if len(articles) == 0 {
					if err := tracker.MarkEmpty([]string{sym}); err != nil {
						b.log.Error("marking empty failed", "err", err)
					}
					continue
				}

				if err := b.articles.WriteArticles(ctx, articles); err != nil {
					b.log.Error("writing articles failed", "symbol", sym, "err", err)
					continue
				}
				totalRows.Add(int64(len(articles)))

				b.log.Info("symbol done",
					"symbol", sym,
					"articles", len(articles),
					"elapsed", time.Since(runStart).Round(time.Second),
				)
			}
		}()
	}

	wg.Wait()
	if ctx.Err() != nil {
		return totalRows.Load(), ctx.Err()
	}

	if err := tracker.MarkCompleted(endDateStr); err != nil {
		return totalRows.Load(), fmt.Errorf("marking completed: %w", err)
	}

	b.log.Info("complete",
		"articles", totalRows.Load(),
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return totalRows.Load(), nil
}

// fetchSymbol pulls all sources for one symbol. Individual source failures
// are logged and skipped.
func (b *NewsBuilder) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) []domain.Article {
	var all []domain.Article

	if articles, err := b.fetcher.FetchGoogleNews(ctx, symbol, start, end); err != nil {
		b.log.Warn("google news failed", "symbol", symbol, "err", err)
	} else {
		all = append(all, articles...)
	}

	if articles, err := b.fetcher.FetchGlobeNewswire(ctx, symbol, start, end); err != nil {
		b.log.Warn("globenewswire failed", "symbol", symbol, "err", err)
	} else {
		all = append(all, articles...)
	}

	if articles, err := b.fetcher.FetchStockTwits(ctx, symbol, start, end, true); err != nil {
		b.log.Warn("stocktwits failed", "symbol", symbol, "err", err)
	} else {
		all = append(all, articles...)
	}

	return all
}
