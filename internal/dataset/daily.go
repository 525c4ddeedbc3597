package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockpicker/internal/config"
	"stockpicker/internal/domain"
	"stockpicker/internal/store"
)

// Compile-time interface checks.
var _ Builder = (*DailyBuilder)(nil)
var _ Builder = (*NewsBuilder)(nil)
var _ Builder = (*MovementBuilder)(nil)

// DailyBuilder fetches daily OHLCV bars for a symbol list from the Alpaca
// market-data API and writes them to the Parquet store. Builds are resumable
// and idempotent within a day.
type DailyBuilder struct {
	client    *marketdata.Client
	store     store.BarStore
	dataDir   string
	cfg       config.BuilderConfig
	apiKey    string
	apiSecret string
	log       *slog.Logger
}

// NewDailyBuilder creates a DailyBuilder writing into s under dataDir.
func NewDailyBuilder(alpacaCfg config.Alpaca, cfg config.BuilderConfig, s store.BarStore, dataDir string) *DailyBuilder {
	opts := marketdata.ClientOpts{
		APIKey:    alpacaCfg.APIKey,
		APISecret: alpacaCfg.APISecret,
	}
	if alpacaCfg.DataURL != "" {
		opts.BaseURL = alpacaCfg.DataURL
	}

	return &DailyBuilder{
		client:    marketdata.NewClient(opts),
		store:     s,
		dataDir:   dataDir,
		cfg:       cfg,
		apiKey:    alpacaCfg.APIKey,
		apiSecret: alpacaCfg.APISecret,
		log:       slog.Default().With("builder", "daily"),
	}
}

// Name returns the builder identifier.
func (b *DailyBuilder) Name() string { return "daily" }

// Run fetches bars for every symbol from the configured start date through
// the latest finished trading day.
func (b *DailyBuilder) Run(ctx context.Context) (int64, error) {
	start, err := time.Parse("2006-01-02", b.cfg.StartDate)
	if err != nil {
		return 0, fmt.Errorf("parsing start date %q: %w", b.cfg.StartDate, err)
	}

	endDate, err := LatestFinishedTradingDay(b.apiKey, b.apiSecret, "")
	if err != nil {
		return 0, fmt.Errorf("determining end date: %w", err)
	}
	endDateStr := endDate.Format("2006-01-02")

	tracker, err := newProgressTracker(filepath.Join(b.dataDir, "bars"))
	if err != nil {
		return 0, fmt.Errorf("creating progress tracker: %w", err)
	}
	defer tracker.Close()

	if tracker.IsCompleted(endDateStr) {
		b.log.Info("already completed", "endDate", endDateStr)
		return 0, nil
	}

	// A new end date means the tried-empty set is stale.
	lastCompleted := tracker.LastCompleted()
	if lastCompleted != "" && lastCompleted != endDateStr {
		if err := tracker.Reset(); err != nil {
			return 0, fmt.Errorf("resetting tracker: %w", err)
		}
	}

	symbols, err := ResolveSymbols(ctx, b.cfg.SymbolsCSV, b.store)
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

	batchSize := b.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	var batches [][]string
	for i := 0; i < len(remaining); i += batchSize {
		end := min(i+batchSize, len(remaining))
		batches = append(batches, remaining[i:end])
	}

	b.log.Info("starting daily build",
		"endDate", endDateStr,
		"symbols", len(symbols),
		"remaining", len(remaining),
		"batches", len(batches),
	)

	if len(remaining) == 0 {
		if err := tracker.MarkCompleted(endDateStr); err != nil {
			return 0, fmt.Errorf("marking completed: %w", err)
		}
		return 0, nil
	}

	universe := newUniverseWriter(filepath.Join(b.dataDir, "universe"))

	batchCh := make(chan int, len(batches))
	for i := range batches {
		batchCh <- i
	}
	close(batchCh)

	var (
		wg        sync.WaitGroup
		totalRows atomic.Int64
		totalMiss atomic.Int64
		runStart  = time.Now()
	)

	workers := b.cfg.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	workers = min(workers, len(batches))

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batchIdx := range batchCh {
				if ctx.Err() != nil {
					return
				}

				batch := batches[batchIdx]
				bars, err := b.fetchMultiBars(ctx, batch, start, endDate)
				if err != nil {
					b.log.Error("batch fetch failed",
						"batch", fmt.Sprintf("%d/%d", batchIdx+1, len(batches)),
						"err", err,
					)
					continue
				}

				hitSymbols := make(map[string]struct{})
				for _, bar := range bars {
					hitSymbols[bar.Symbol] = struct{}{}
				}
				var emptySymbols []string
				for _, sym := range batch {
					if _, hit := hitSymbols[sym]; !hit {
						emptySymbols = append(emptySymbols, sym)
					}
				}

				if len(bars) > 0 {
					if err := b.store.WriteBars(ctx, bars); err != nil {
						b.log.Error("writing bars failed", "err", err)
						continue
					}
					universe.AddBars(bars)
					if err := universe.Flush(); err != nil {
						b.log.Error("flushing universe failed", "err", err)
					}
				}

				if len(emptySymbols) > 0 {
					if err := tracker.MarkEmpty(emptySymbols); err != nil {
						b.log.Error("marking empty failed", "err", err)
					}
				}

				totalRows.Add(int64(len(bars)))
				totalMiss.Add(int64(len(emptySymbols)))

				b.log.Info("batch done",
					"batch", fmt.Sprintf("%d/%d", batchIdx+1, len(batches)),
					"bars", len(bars),
					"empty", len(emptySymbols),
					"elapsed", time.Since(runStart).Round(time.Second),
				)
			}
		}()
	}

	wg.Wait()
	if ctx.Err() != nil {
		return totalRows.Load(), ctx.Err()
	}

	if err := universe.Finalize(); err != nil {
		return totalRows.Load(), fmt.Errorf("finalizing universe: %w", err)
	}
	if err := tracker.MarkCompleted(endDateStr); err != nil {
		return totalRows.Load(), fmt.Errorf("marking completed: %w", err)
	}

	b.log.Info("complete",
		"bars", totalRows.Load(),
		"empty", totalMiss.Load(),
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return totalRows.Load(), nil
}

// fetchMultiBars fetches daily bars for multiple symbols in one API call.
func (b *DailyBuilder) fetchMultiBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	multiBars, err := b.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
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
