// Package collect defines the collector contract shared by all data-source
// adapters, plus the HTTP plumbing (rate limiting, retry, metrics) they use
// to talk to external providers.
package collect

import (
	"context"
	"time"

	"stockpicker/internal/domain"
)

// Collector is a data-source adapter that can answer a subset of request
// types. Collect fetches whatever the criteria ask for and returns the typed
// rows it produced. Per-item failures are logged, counted in
// Result.ItemErrors, and do not abort the run; Collect returns an error only
// when nothing useful could be fetched.
type Collector interface {
	// Info returns the collector's routing metadata.
	Info() domain.CollectorInfo

	// Collect fetches data for the given criteria.
	Collect(ctx context.Context, crit domain.Criteria) (*Result, error)
}

// Result holds the typed rows produced by a single Collect call.
type Result struct {
	Collector    string
	Bars         []domain.Bar
	Quotes       []domain.Quote
	Filings      []domain.Filing
	Fundamentals []domain.Fundamentals
	Series       []domain.SeriesPoint
	Articles     []domain.Article

	// ItemErrors counts items skipped after per-item failures.
	ItemErrors int
	Elapsed    time.Duration
}

// Rows returns the total number of data rows across all row types.
func (r *Result) Rows() int {
	return len(r.Bars) + len(r.Quotes) + len(r.Filings) +
		len(r.Fundamentals) + len(r.Series) + len(r.Articles)
}

// Directory maps routed collector names to their implementations. It is
// built once at startup, alongside the routing registry.
type Directory map[string]Collector

// Get returns the collector registered under name.
func (d Directory) Get(name string) (Collector, bool) {
	c, ok := d[name]
	return c, ok
}
