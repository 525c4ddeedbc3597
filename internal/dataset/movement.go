package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"stockpicker/internal/config"
	"stockpicker/internal/domain"
	"stockpicker/internal/sentiment"
	"stockpicker/internal/store"
	"stockpicker/internal/util"
)

// volumeWindow is the trailing number of bars used for the volume z-score
// and volatility features.
const volumeWindow = 20

// MovementBuilder joins stored bars and articles into labeled feature rows:
// price features plus day sentiment, labeled with whether the next trading
// day closed higher.
type MovementBuilder struct {
	bars     store.BarStore
	articles store.ArticleStore
	features store.FeatureStore
	cfg      config.BuilderConfig
	log      *slog.Logger
}

// NewMovementBuilder creates a MovementBuilder reading bars and articles and
// writing feature rows.
func NewMovementBuilder(cfg config.BuilderConfig, bars store.BarStore, articles store.ArticleStore, features store.FeatureStore) *MovementBuilder {
	return &MovementBuilder{
		bars:     bars,
		articles: articles,
		features: features,
		cfg:      cfg,
		log:      slog.Default().With("builder", "movement"),
	}
}

// Name returns the builder identifier.
func (b *MovementBuilder) Name() string { return "movement" }

// Run computes feature rows for every symbol over the configured window.
func (b *MovementBuilder) Run(ctx context.Context) (int64, error) {
	start, err := time.Parse("2006-01-02", b.cfg.StartDate)
	if err != nil {
		return 0, fmt.Errorf("parsing start date %q: %w", b.cfg.StartDate, err)
	}
	end := time.Now().UTC()

	symbols, err := ResolveSymbols(ctx, b.cfg.SymbolsCSV, b.bars)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}

		// Read extra leading bars so the first in-window rows have a full
		// feature window behind them.
		bars, err := b.bars.ReadBars(ctx, sym, start.AddDate(0, 0, -2*volumeWindow), end)
		if err != nil {
			b.log.Warn("reading bars failed", "symbol", sym, "err", err)
			continue
		}
		if len(bars) < volumeWindow+2 {
			continue
		}

		articles, err := b.articles.ReadArticles(ctx, sym, start, end)
		if err != nil {
			b.log.Warn("reading articles failed", "symbol", sym, "err", err)
		}

		rows := ComputeFeatures(sym, bars, articles, start)
		if len(rows) == 0 {
			continue
		}
		if err := b.features.WriteFeatures(ctx, rows); err != nil {
			return total, fmt.Errorf("writing features for %s: %w", sym, err)
		}
		total += int64(len(rows))

		b.log.Info("symbol done", "symbol", sym, "rows", len(rows))
	}

	if total == 0 {
		return 0, fmt.Errorf("no feature rows produced for %d symbols", len(symbols))
	}
	return total, nil
}

// ComputeFeatures turns a symbol's bar history and articles into labeled
// feature rows. Bars are sorted by time first. Rows are emitted only for
// dates on or after minDate that have a full trailing window and a next
// trading day bar to label against.
func ComputeFeatures(symbol string, bars []domain.Bar, articles []domain.Article, minDate time.Time) []domain.FeatureRow {
	if len(bars) < volumeWindow+2 {
		return nil
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	daily := sentiment.DailySentiment(articles)
	counts := make(map[string]int)
	for _, a := range articles {
		counts[a.Time.UTC().Format("2006-01-02")]++
	}

	var rows []domain.FeatureRow
	// Index i needs i-volumeWindow..i-1 behind it and i+1 as the label bar.
	for i := volumeWindow; i < len(bars)-1; i++ {
		bar := bars[i]
		day := bar.Timestamp.UTC()
		if day.Before(minDate) {
			continue
		}

		next := bars[i+1]
		// Gap days (halts, delistings) would mislabel; require the next bar
		// to be the next trading day.
		if !sameDay(util.NextTradingDay(day), next.Timestamp.UTC()) {
			continue
		}

		prevClose := bars[i-1].Close
		if prevClose == 0 || bars[i-5].Close == 0 {
			continue
		}

		window := bars[i-volumeWindow : i]
		dateStr := day.Format("2006-01-02")

		rows = append(rows, domain.FeatureRow{
			Symbol:       symbol,
			Date:         day.Truncate(24 * time.Hour),
			Return1D:     bar.Close/prevClose - 1,
			Return5D:     bar.Close/bars[i-5].Close - 1,
			Volatility:   returnStddev(window),
			VolumeZScore: volumeZScore(window, bar.Volume),
			Sentiment:    daily[dateStr],
			NewsCount:    counts[dateStr],
			NextDayUp:    next.Close > bar.Close,
		})
	}
	return rows
}

// returnStddev computes the standard deviation of close-to-close returns
// over the window.
func returnStddev(window []domain.Bar) float64 {
	var returns []float64
	for i := 1; i < len(window); i++ {
		if window[i-1].Close == 0 {
			continue
		}
		returns = append(returns, window[i].Close/window[i-1].Close-1)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance)
}

// volumeZScore measures how unusual the day's volume is relative to the
// trailing window.
func volumeZScore(window []domain.Bar, volume int64) float64 {
	if len(window) < 2 {
		return 0
	}

	mean := 0.0
	for _, b := range window {
		mean += float64(b.Volume)
	}
	mean /= float64(len(window))

	variance := 0.0
	for _, b := range window {
		d := float64(b.Volume) - mean
		variance += d * d
	}
	variance /= float64(len(window) - 1)
	if variance == 0 {
		return 0
	}
	return (float64(volume) - mean) / math.Sqrt(variance)
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}
