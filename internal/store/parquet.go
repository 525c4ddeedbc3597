package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockpicker/internal/domain"
)

// Compile-time interface checks.
var _ BarStore = (*ParquetStore)(nil)
var _ ArticleStore = (*ParquetStore)(nil)
var _ SeriesStore = (*ParquetStore)(nil)
var _ FeatureStore = (*ParquetStore)(nil)

// ParquetStore implements the storage interfaces with Parquet files on disk.
// Writes merge with any existing file contents, so re-running a build over
// the same window is idempotent.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     int64   `parquet:"volume"`
	TradeCount int64   `parquet:"trade_count"`
	VWAP       float64 `parquet:"vwap"`
}

// ArticleRecord is the Parquet schema for news articles.
type ArticleRecord struct {
	Symbol   string `parquet:"symbol"`
	Time     int64  `parquet:"time,timestamp(millisecond)"` // Unix ms
	Source   string `parquet:"source"`
	Headline string `parquet:"headline"`
	Content  string `parquet:"content,zstd"`
}

// SeriesRecord is the Parquet schema for economic series observations.
type SeriesRecord struct {
	SeriesID string  `parquet:"series_id"`
	Date     int64   `parquet:"date,timestamp(millisecond)"` // Unix ms
	Value    float64 `parquet:"value"`
	Source   string  `parquet:"source"`
}

// FeatureRecord is the Parquet schema for labeled movement feature rows.
type FeatureRecord struct {
	Symbol       string  `parquet:"symbol"`
	Date         int64   `parquet:"date,timestamp(millisecond)"` // Unix ms
	Return1D     float64 `parquet:"return_1d"`
	Return5D     float64 `parquet:"return_5d"`
	Volatility   float64 `parquet:"volatility"`
	VolumeZScore float64 `parquet:"volume_zscore"`
	Sentiment    float64 `parquet:"sentiment"`
	NewsCount    int32   `parquet:"news_count"`
	NextDayUp    bool    `parquet:"next_day_up"`
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars writes bars to Parquet files grouped by symbol and year:
//
//	<DataDir>/bars/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) WriteBars(_ context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, b := range bars {
		k := key{symbol: b.Symbol, year: b.Timestamp.Year()}
		groups[k] = append(groups[k], BarRecord{
			Symbol:     b.Symbol,
			Timestamp:  b.Timestamp.UnixMilli(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     b.Volume,
			TradeCount: b.TradeCount,
			VWAP:       b.VWAP,
		})
	}

	for k, records := range groups {
		path := s.barPath(k.symbol, k.year)

		existing, _ := readParquetFile[BarRecord](path)
		merged := mergeRecords(existing, records,
			func(r BarRecord) string { return r.Symbol + "|" + fmt.Sprint(r.Timestamp) },
			func(a, b BarRecord) bool { return a.Timestamp < b.Timestamp })

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadBars reads bars for the given symbol within [start, end].
func (s *ParquetStore) ReadBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[BarRecord](s.barPath(symbol, year))
		if err != nil {
			continue // no file for this year
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if inRange(ts, start, end) {
				bars = append(bars, domain.Bar{
					Symbol:     r.Symbol,
					Timestamp:  ts,
					Open:       r.Open,
					High:       r.High,
					Low:        r.Low,
					Close:      r.Close,
					Volume:     r.Volume,
					TradeCount: r.TradeCount,
					VWAP:       r.VWAP,
				})
			}
		}
	}
	return bars, nil
}

// ListSymbols lists all symbols that have bar data.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "bars"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ---------------------------------------------------------------------------
// ArticleStore implementation
// ---------------------------------------------------------------------------

// WriteArticles writes articles grouped by symbol and month:
//
//	<DataDir>/news/<SYMBOL>/<YYYY-MM>.parquet
func (s *ParquetStore) WriteArticles(_ context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	type key struct {
		symbol string
		month  string // YYYY-MM
	}
	groups := make(map[key][]ArticleRecord)
	for _, a := range articles {
		k := key{symbol: a.Symbol, month: a.Time.Format("2006-01")}
		groups[k] = append(groups[k], ArticleRecord{
			Symbol:   a.Symbol,
			Time:     a.Time.UnixMilli(),
			Source:   a.Source,
			Headline: a.Headline,
			Content:  a.Content,
		})
	}

	for k, records := range groups {
		path := s.articlePath(k.symbol, k.month)

		existing, _ := readParquetFile[ArticleRecord](path)
		merged := mergeRecords(existing, records,
			// Dedupe key: same source, timestamp, and headline.
			func(r ArticleRecord) string {
				return r.Source + "|" + fmt.Sprint(r.Time) + "|" + r.Headline
			},
			func(a, b ArticleRecord) bool { return a.Time < b.Time })

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing articles for %s/%s: %w", k.symbol, k.month, err)
		}
	}
	return nil
}

// ReadArticles reads articles for the given symbol within [start, end].
func (s *ParquetStore) ReadArticles(_ context.Context, symbol string, start, end time.Time) ([]domain.Article, error) {
	var articles []domain.Article
	for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(end); m = m.AddDate(0, 1, 0) {
		records, err := readParquetFile[ArticleRecord](s.articlePath(symbol, m.Format("2006-01")))
		if err != nil {
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Time).UTC()
			if inRange(ts, start, end) {
				articles = append(articles, domain.Article{
					Symbol:   r.Symbol,
					Time:     ts,
					Source:   r.Source,
					Headline: r.Headline,
					Content:  r.Content,
				})
			}
		}
	}
	return articles, nil
}

// ---------------------------------------------------------------------------
// SeriesStore implementation
// ---------------------------------------------------------------------------

// WriteSeries writes series observations grouped by series:
//
//	<DataDir>/series/<SERIES_ID>.parquet
//
// Series IDs may contain slashes (e.g. treasury datasets); they are
// flattened into the file name.
func (s *ParquetStore) WriteSeries(_ context.Context, points []domain.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	groups := make(map[string][]SeriesRecord)
	for _, p := range points {
		groups[p.SeriesID] = append(groups[p.SeriesID], SeriesRecord{
			SeriesID: p.SeriesID,
			Date:     p.Date.UnixMilli(),
			Value:    p.Value,
			Source:   p.Source,
		})
	}

	for seriesID, records := range groups {
		path := s.seriesPath(seriesID)

		existing, _ := readParquetFile[SeriesRecord](path)
		merged := mergeRecords(existing, records,
			func(r SeriesRecord) string { return fmt.Sprint(r.Date) },
			func(a, b SeriesRecord) bool { return a.Date < b.Date })

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing series %s: %w", seriesID, err)
		}
	}
	return nil
}

// ReadSeries reads observations for the given series within [start, end].
func (s *ParquetStore) ReadSeries(_ context.Context, seriesID string, start, end time.Time) ([]domain.SeriesPoint, error) {
	path := s.seriesPath(seriesID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	records, err := readParquetFile[SeriesRecord](path)
	if err != nil {
		return nil, err
	}

	var points []domain.SeriesPoint
	for _, r := range records {
		ts := time.UnixMilli(r.Date).UTC()
		if inRange(ts, start, end) {
			points = append(points, domain.SeriesPoint{
				SeriesID: r.SeriesID,
				Date:     ts,
				Value:    r.Value,
				Source:   r.Source,
			})
		}
	}
	return points, nil
}

// ---------------------------------------------------------------------------
// FeatureStore implementation
// ---------------------------------------------------------------------------

// WriteFeatures writes feature rows grouped by year:
//
//	<DataDir>/features/<YYYY>.parquet
func (s *ParquetStore) WriteFeatures(_ context.Context, rows []domain.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	groups := make(map[int][]FeatureRecord)
	for _, row := range rows {
		groups[row.Date.Year()] = append(groups[row.Date.Year()], FeatureRecord{
			Symbol:       row.Symbol,
			Date:         row.Date.UnixMilli(),
			Return1D:     row.Return1D,
			Return5D:     row.Return5D,
			Volatility:   row.Volatility,
			VolumeZScore: row.VolumeZScore,
			Sentiment:    row.Sentiment,
			NewsCount:    int32(row.NewsCount),
			NextDayUp:    row.NextDayUp,
		})
	}

	for year, records := range groups {
		path := s.featurePath(year)

		existing, _ := readParquetFile[FeatureRecord](path)
		merged := mergeRecords(existing, records,
			func(r FeatureRecord) string { return r.Symbol + "|" + fmt.Sprint(r.Date) },
			func(a, b FeatureRecord) bool {
				if a.Date != b.Date {
					return a.Date < b.Date
				}
				return a.Symbol < b.Symbol
			})

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing features for %d: %w", year, err)
		}
	}
	return nil
}

// ReadFeatures reads all feature rows within [start, end].
func (s *ParquetStore) ReadFeatures(_ context.Context, start, end time.Time) ([]domain.FeatureRow, error) {
	var rows []domain.FeatureRow
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[FeatureRecord](s.featurePath(year))
		if err != nil {
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Date).UTC()
			if inRange(ts, start, end) {
				rows = append(rows, domain.FeatureRow{
					Symbol:       r.Symbol,
					Date:         ts,
					Return1D:     r.Return1D,
					Return5D:     r.Return5D,
					Volatility:   r.Volatility,
					VolumeZScore: r.VolumeZScore,
					Sentiment:    r.Sentiment,
					NewsCount:    int(r.NewsCount),
					NextDayUp:    r.NextDayUp,
				})
			}
		}
	}
	return rows, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func (s *ParquetStore) barPath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "bars", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func (s *ParquetStore) articlePath(symbol, month string) string {
	return filepath.Join(s.DataDir, "news", strings.ToUpper(symbol), month+".parquet")
}

func (s *ParquetStore) seriesPath(seriesID string) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(seriesID)
	return filepath.Join(s.DataDir, "series", name+".parquet")
}

func (s *ParquetStore) featurePath(year int) string {
	return filepath.Join(s.DataDir, "features", fmt.Sprintf("%d.parquet", year))
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeRecords deduplicates existing and incoming records by key, preferring
// incoming, and returns them sorted by less.
func mergeRecords[T any](existing, incoming []T, key func(T) string, less func(a, b T) bool) []T {
	seen := make(map[string]T, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key(r)] = r
	}
	for _, r := range incoming {
		seen[key(r)] = r
	}

	merged := make([]T, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return less(merged[i], merged[j]) })
	return merged
}

func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}
