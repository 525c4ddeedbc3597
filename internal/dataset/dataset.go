// Package dataset builds the training datasets: daily bars, per-symbol news
// archives, and the labeled movement feature set. Builders are resumable and
// record their runs in the catalog.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stockpicker/internal/store"
)

// Builder is one dataset build process.
type Builder interface {
	// Name returns the builder identifier.
	Name() string
	// Run executes the build. It returns the number of rows written.
	Run(ctx context.Context) (int64, error)
}

// DateRange is a closed time window for data fetching.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// RunWithCatalog executes a builder and records the run in the catalog. A
// nil catalog runs the builder without recording.
func RunWithCatalog(ctx context.Context, cat *store.Catalog, b Builder) error {
	log := slog.Default().With("builder", b.Name())

	var runID string
	if cat != nil {
		id, err := cat.BeginRun(ctx, b.Name())
		if err != nil {
			return fmt.Errorf("recording run start: %w", err)
		}
		runID = id
		log = log.With("run", runID)
	}

	log.Info("build started")
	start := time.Now()
	rows, err := b.Run(ctx)
	elapsed := time.Since(start).Round(time.Second)

	if err != nil {
		log.Error("build failed", "rows", rows, "elapsed", elapsed, "err", err)
		if cat != nil {
			if cerr := cat.FailRun(ctx, runID, rows, err); cerr != nil {
				log.Error("recording failure", "err", cerr)
			}
		}
		return err
	}

	log.Info("build completed", "rows", rows, "elapsed", elapsed)
	if cat != nil {
		if cerr := cat.FinishRun(ctx, runID, rows); cerr != nil {
			return fmt.Errorf("recording run end: %w", cerr)
		}
	}
	return nil
}
