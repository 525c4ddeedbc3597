package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"stockpicker/internal/config"
	"stockpicker/internal/sentiment"
	"stockpicker/internal/store"
)

func main() {
	startFlag := flag.String("start", "", "evaluate rows from this date (YYYY-MM-DD, default: config start date)")
	endFlag := flag.String("end", "", "evaluate rows up to this date (YYYY-MM-DD, default: today)")
	flag.Parse()

	cfgPath := "config/picker.yaml"
	if p := os.Getenv("PICKER_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	startDate := *startFlag
	if startDate == "" {
		startDate = cfg.Datasets.Movement.StartDate
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		log.Fatalf("parsing start date: %v", err)
	}
	end := time.Now().UTC()
	if *endFlag != "" {
		if end, err = time.Parse("2006-01-02", *endFlag); err != nil {
			log.Fatalf("parsing end date: %v", err)
		}
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	rows, err := pstore.ReadFeatures(context.Background(), start, end)
	if err != nil {
		log.Fatalf("reading features: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("no feature rows in [%s, %s]; run build-movement-dataset first",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	scorer := sentiment.NewFusionScorer(cfg.Sentiment)
	metrics := scorer.Evaluate(rows)

	fmt.Printf("movement scorer over %d rows [%s, %s]\n",
		metrics.Rows, start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Println(metrics)
}
