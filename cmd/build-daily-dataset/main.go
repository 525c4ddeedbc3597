package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
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

	// Dual logger: stdout + /tmp log file.
	logFileName := fmt.Sprintf("/tmp/build-daily-dataset-%s.log", time.Now().Format("2006-01-02"))
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

	builder := dataset.NewDailyBuilder(cfg.Providers.Alpaca, cfg.Datasets.Daily, pstore, cfg.Storage.DataDir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting daily dataset build", "logFile", logFileName)
	if err := dataset.RunWithCatalog(ctx, catalog, builder); err != nil {
		log.Fatalf("build error: %v", err)
	}
}
