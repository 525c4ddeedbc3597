package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stockpicker/internal/config"
	"stockpicker/internal/dataset"
	"stockpicker/internal/store"
)

func main() {
	cfgPath := "config/picker.yaml"
	if p := os.Getenv("PICKER_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logFileName := fmt.Sprintf("/tmp/build-movement-dataset-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()

	w := io.MultiWriter(os.Stdout, logFile)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	catalog, err := store.OpenCatalog(cfg.Storage.CatalogPath)
	if err != nil {
		log.Fatalf("opening run catalog: %v", err)
	}
	defer catalog.Close()

	builder := dataset.NewMovementBuilder(cfg.Datasets.Movement, pstore, pstore, pstore)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting movement dataset build", "logFile", logFileName)
	if err := dataset.RunWithCatalog(ctx, catalog, builder); err != nil {
		log.Fatalf("build error: %v", err)
	}

	// Flat CSV/JSON exports alongside the Parquet files.
	start, err := time.Parse("2006-01-02", cfg.Datasets.Movement.StartDate)
	if err != nil {
		log.Fatalf("parsing start date: %v", err)
	}
	rows, err := pstore.ReadFeatures(ctx, start, time.Now().UTC())
	if err != nil {
		log.Fatalf("reading features: %v", err)
	}

	exportDir := filepath.Join(cfg.Storage.DataDir, "exports")
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		log.Fatalf("creating export dir: %v", err)
	}

	csvPath := filepath.Join(exportDir, "movement.csv")
	if err := exportTo(csvPath, func(f *os.File) error {
		return store.ExportFeaturesCSV(f, rows)
	}); err != nil {
		log.Fatalf("exporting CSV: %v", err)
	}

	jsonPath := filepath.Join(exportDir, "movement.ndjson")
	if err := exportTo(jsonPath, func(f *os.File) error {
		return store.ExportFeaturesJSON(f, rows)
	}); err != nil {
		log.Fatalf("exporting JSON: %v", err)
	}

	slog.Info("exports written", "rows", len(rows), "csv", csvPath, "json", jsonPath)
}

func exportTo(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
