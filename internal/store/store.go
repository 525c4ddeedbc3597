// Package store persists collected data: Parquet files for bars, articles,
// series, and feature rows, plus a SQLite catalog of dataset build runs.
package store

import (
	"context"
	"time"

	"stockpicker/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end].
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with bar data.
	ListSymbols(ctx context.Context) ([]string, error)
}

// ArticleStore persists and retrieves news articles.
type ArticleStore interface {
	// WriteArticles persists a batch of articles to storage.
	WriteArticles(ctx context.Context, articles []domain.Article) error

	// ReadArticles returns articles for the given symbol within [start, end].
	ReadArticles(ctx context.Context, symbol string, start, end time.Time) ([]domain.Article, error)
}

// SeriesStore persists and retrieves economic series observations.
type SeriesStore interface {
	// WriteSeries persists a batch of series points to storage.
	WriteSeries(ctx context.Context, points []domain.SeriesPoint) error

	// ReadSeries returns points for the given series ID within [start, end].
	ReadSeries(ctx context.Context, seriesID string, start, end time.Time) ([]domain.SeriesPoint, error)
}

// FeatureStore persists and retrieves labeled movement feature rows.
type FeatureStore interface {
	// WriteFeatures persists a batch of feature rows to storage.
	WriteFeatures(ctx context.Context, rows []domain.FeatureRow) error

	// ReadFeatures returns all feature rows within [start, end] across symbols.
	ReadFeatures(ctx context.Context, start, end time.Time) ([]domain.FeatureRow, error)
}
