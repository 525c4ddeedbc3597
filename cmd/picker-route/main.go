package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"stockpicker/internal/config"
	"stockpicker/internal/domain"
	"stockpicker/internal/routing"
)

func main() {
	companies := flag.String("companies", "", "comma-separated ticker symbols")
	sector := flag.String("sector", "", "sector filter, e.g. Technology")
	index := flag.String("index", "", "index filter, e.g. \"S&P 500\"")
	series := flag.String("series", "", "comma-separated economic series IDs")
	analysis := flag.String("type", "", "analysis type: fundamental, screening, sentiment, macro")
	realTime := flag.Bool("realtime", false, "request real-time quotes")
	maxCost := flag.Float64("max-cost", 0, "max collector cost per request (0 = unlimited)")
	maxCompanies := flag.Int("max-companies", 20, "deep-dive company limit")
	flag.Parse()

	registry, err := routing.DefaultRegistry(config.RoutingConfig{
		DeepDiveMaxCompanies: *maxCompanies,
	})
	if err != nil {
		log.Fatalf("building registry: %v", err)
	}
	router := routing.NewRouter(registry, *maxCost)

	criteria := domain.Criteria{
		Companies:      splitList(*companies),
		Sector:         *sector,
		Index:          *index,
		EconomicSeries: splitList(*series),
		AnalysisType:   domain.AnalysisType(*analysis),
		RealTime:       *realTime,
	}

	selections := router.Select(criteria)
	if len(selections) == 0 {
		fmt.Println("no collectors selected")
		os.Exit(1)
	}

	fmt.Printf("%-4s %-14s %-16s %s\n", "#", "COLLECTOR", "QUADRANT", "PRIORITY")
	for i, sel := range selections {
		fmt.Printf("%-4d %-14s %-16s %d\n", i+1, sel.Name, sel.Quadrant, sel.Priority)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
