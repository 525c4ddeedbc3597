package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockpicker/internal/collect"
	"stockpicker/internal/collect/gov"
	"stockpicker/internal/collect/market"
	"stockpicker/internal/config"
	"stockpicker/internal/mcp"
	"stockpicker/internal/routing"
	"stockpicker/internal/util"
)

func main() {
	stdio := flag.Bool("stdio", false, "serve newline-delimited JSON-RPC on stdin/stdout instead of HTTP")
	flag.Parse()

	cfgPath := "config/picker.yaml"
	if p := os.Getenv("PICKER_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	registry, err := routing.DefaultRegistry(cfg.Routing)
	if err != nil {
		log.Fatalf("building registry: %v", err)
	}
	router := routing.NewRouter(registry, cfg.Routing.MaxCostPerRequest)

	edgar := gov.NewEDGARCollector(cfg.Providers.EDGAR.UserAgent, cfg.Providers.EDGAR.BaseURL)
	fred := gov.NewFREDCollector(cfg.Providers.FRED.APIKey, cfg.Providers.FRED.BaseURL)
	treasury := gov.NewTreasuryCollector(cfg.Providers.Treasury.BaseURL)
	bls := gov.NewBLSCollector(cfg.Providers.BLS.APIKey, cfg.Providers.BLS.BaseURL)
	datagov := gov.NewDataGovCollector(treasury, bls)
	webintel := market.NewWebIntelCollector(nil)

	directory := collect.Directory{
		routing.NameSECEdgar:   edgar,
		routing.NameFREDMacro:  fred,
		routing.NameDataGovMCP: datagov,
		routing.NameNewsIntel:  webintel,
	}

	deps := mcp.ToolDeps{
		EDGAR:      edgar,
		FRED:       fred,
		Treasury:   treasury,
		BLS:        bls,
		Yahoo:      market.NewYahooClient(""),
		Router:     router,
		Collectors: directory,
	}
	if cfg.Providers.Alpaca.APIKey != "" {
		deps.Live = market.NewLiveCollector(
			cfg.Providers.Alpaca.APIKey,
			cfg.Providers.Alpaca.APISecret,
			cfg.Providers.Alpaca.DataURL,
		)
		directory[routing.NameAlpacaLive] = deps.Live
		directory[routing.NameMarketAPI] = market.NewMarketCollector(
			cfg.Providers.Alpaca.APIKey,
			cfg.Providers.Alpaca.APISecret,
			cfg.Providers.Alpaca.DataURL,
			nil,
		)
	}

	srv, err := mcp.NewServer(mcp.BuiltinTools(deps))
	if err != nil {
		log.Fatalf("building server: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *stdio {
		logger.Info("serving JSON-RPC on stdio")
		if err := srv.ServeStream(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			log.Fatalf("stream error: %v", err)
		}
		return
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("picker-server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down picker-server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
