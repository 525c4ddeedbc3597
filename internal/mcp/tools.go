package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockpicker/internal/collect"
	"stockpicker/internal/collect/gov"
	"stockpicker/internal/collect/market"
	"stockpicker/internal/domain"
	"stockpicker/internal/metrics"
	"stockpicker/internal/routing"
)

// ToolDeps are the backends the built-in tools bridge to. Nil fields disable
// the tools that depend on them.
type ToolDeps struct {
	EDGAR    *gov.EDGARCollector
	FRED     *gov.FREDCollector
	Treasury *gov.TreasuryCollector
	BLS      *gov.BLSCollector
	Live     *market.LiveCollector
	Yahoo    *market.YahooClient
	Router   *routing.Router

	// Collectors backs collect_data: routed selections are executed against
	// the collectors registered here.
	Collectors collect.Directory
}

// BuiltinTools returns the standard tool set in its canonical order.
func BuiltinTools(deps ToolDeps) []Tool {
	var tools []Tool

	if deps.EDGAR != nil {
		tools = append(tools,
			searchFilingsTool(deps.EDGAR),
			companyFactsTool(deps.EDGAR),
		)
	}
	if deps.FRED != nil {
		tools = append(tools, fredSeriesTool(deps.FRED))
	}
	if deps.Treasury != nil {
		tools = append(tools, treasuryDataTool(deps.Treasury))
	}
	if deps.BLS != nil {
		tools = append(tools, blsSeriesTool(deps.BLS))
	}
	if deps.Router != nil {
		tools = append(tools, routeRequestTool(deps.Router))
		if len(deps.Collectors) > 0 {
			tools = append(tools, collectDataTool(deps.Router, deps.Collectors))
		}
	}
	if deps.Live != nil || deps.Yahoo != nil {
		tools = append(tools, quoteTool(deps.Live, deps.Yahoo))
	}
	return tools
}

// ---------------------------------------------------------------------------
// search_filings / company_facts
// ---------------------------------------------------------------------------

func searchFilingsTool(edgar *gov.EDGARCollector) Tool {
	return Tool{
		Name:        "search_filings",
		Description: "Recent SEC EDGAR filings for one or more ticker symbols.",
		InputSchema: objectSchema(map[string]any{
			"symbols": arrayProp("Ticker symbols, e.g. [\"AAPL\", \"MSFT\"]"),
		}, "symbols"),
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Symbols []string `json:"symbols"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, Errorf(CodeInvalidParams, "parsing arguments: %s", err)
			}

			result, err := edgar.Collect(ctx, domain.Criteria{Companies: in.Symbols})
			if err != nil {
				return nil, fmt.Errorf("edgar: %w", err)
			}
			return map[string]any{
				"filings":    result.Filings,
				"itemErrors": result.ItemErrors,
			}, nil
		},
	}
}

func companyFactsTool(edgar *gov.EDGARCollector) Tool {
	return Tool{
		Name:        "company_facts",
		Description: "Fundamentals snapshot (current ratio, revenue, net income) from SEC EDGAR company facts.",
		InputSchema: objectSchema(map[string]any{
			"symbol": stringProp("Ticker symbol, e.g. \"AAPL\""),
		}, "symbol"),
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Symbol string `json:"symbol"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, Errorf(CodeInvalidParams, "parsing arguments: %s", err)
			}

			result, err := edgar.Collect(ctx, domain.Criteria{
				Companies:    []string{in.Symbol},
				AnalysisType: domain.AnalysisFundamental,
			})
			if err != nil {
				return nil, fmt.Errorf("edgar: %w", err)
			}
			if len(result.Fundamentals) == 0 {
				return nil, Errorf(CodeInvalidParams, "no company facts for %q", in.Symbol)
			}
			return result.Fundamentals[0], nil
		},
	}
}

// ---------------------------------------------------------------------------
// fred_series / treasury_data / bls_series
// ---------------------------------------------------------------------------

func fredSeriesTool(fred *gov.FREDCollector) Tool {
	return Tool{
		Name:        "fred_series",
		Description: "Observations for one or more FRED economic series, e.g. GDP, UNRATE.",
		InputSchema: objectSchema(map[string]any{
			"series": arrayProp("FRED series IDs"),
		}, "series"),
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Series []string `json:"series"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, Errorf(CodeInvalidParams, "parsing arguments: %s", err)
			}

			result, err := fred.Collect(ctx, domain.Criteria{EconomicSeries: in.Series})
			if err != nil {
				return nil, fmt.Errorf("fred: %w", err)
			}
			return map[string]any{
				"points":     result.Series,
				"itemErrors": result.ItemErrors,
			}, nil
		},
	}
}

func treasuryDataTool(treasury *gov.TreasuryCollector) Tool {
	return Tool{
		Name:        "treasury_data",
		Description: "Average interest rates on US Treasury securities (Fiscal Data API).",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(ctx context.Context, _ json.RawMessage) (any, error) {
			points, skipped, err := treasury.AverageInterestRates(ctx)
			if err != nil {
				return nil, fmt.Errorf("treasury: %w", err)
			}
			return map[string]any{
				"points":  points,
				"skipped": skipped,
			}, nil
		},
	}
}

func blsSeriesTool(bls *gov.BLSCollector) Tool {
	return Tool{
		Name:        "bls_series",
		Description: "Observations for BLS timeseries, e.g. CUUR0000SA0 (CPI-U).",
		InputSchema: objectSchema(map[string]any{
			"series":     arrayProp("BLS series IDs"),
			"start_year": intProp("First year to fetch (default: 10 years back)"),
			"end_year":   intProp("Last year to fetch (default: current year)"),
		}, "series"),
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Series    []string `json:"series"`
				StartYear int      `json:"start_year"`
				EndYear   int      `json:"end_year"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, Errorf(CodeInvalidParams, "parsing arguments: %s", err)
			}
			if in.EndYear == 0 {
				in.EndYear = time.Now().Year()
			}
			if in.StartYear == 0 {
				in.StartYear = in.EndYear - 10
			}

			points, skipped, err := bls.Series(ctx, in.Series, in.StartYear, in.EndYear)
			if err != nil {
				return nil, fmt.Errorf("bls: %w", err)
			}
			return map[string]any{
				"points":  points,
				"skipped": skipped,
			}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// route_request / collect_data
// ---------------------------------------------------------------------------

func criteriaSchema() map[string]any {
	return map[string]any{
		"companies":       arrayProp("Explicit ticker symbols"),
		"sector":          stringProp("Sector filter, e.g. \"Technology\""),
		"index":           stringProp("Index filter, e.g. \"S&P 500\""),
		"economic_series": arrayProp("Macro series IDs"),
		"analysis_type":   stringProp("One of: fundamental, screening, sentiment, macro"),
		"real_time":       boolProp("Request current quotes rather than historical data"),
	}
}

func criteriaFromArgs(args json.RawMessage) (domain.Criteria, error) {
	var in struct {
		Companies      []string `json:"companies"`
		Sector         string   `json:"sector"`
		Index          string   `json:"index"`
		EconomicSeries []string `json:"economic_series"`
		AnalysisType   string   `json:"analysis_type"`
		RealTime       bool     `json:"real_time"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return domain.Criteria{}, Errorf(CodeInvalidParams, "parsing arguments: %s", err)
		}
	}
	return domain.Criteria{
		Companies:      in.Companies,
		Sector:         in.Sector,
		Index:          in.Index,
		EconomicSeries: in.EconomicSeries,
		AnalysisType:   domain.AnalysisType(in.AnalysisType),
		RealTime:       in.RealTime,
	}, nil
}

func routeRequestTool(router *routing.Router) Tool {
	return Tool{
		Name:        "route_request",
		Description: "Rank the collectors that would serve a request with the given criteria.",
		InputSchema: objectSchema(criteriaSchema()),
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			criteria, err := criteriaFromArgs(args)
			if err != nil {
				return nil, err
			}
			return map[string]any{"selections": router.Select(criteria)}, nil
		},
	}
}

// collectResult summarizes one routed collector's Collect call.
type collectResult struct {
	Collector  string          `json:"collector"`
	Priority   int             `json:"priority"`
	Rows       int             `json:"rows"`
	ItemErrors int             `json:"itemErrors,omitempty"`
	Error      string          `json:"error,omitempty"`
	Result     *collect.Result `json:"result,omitempty"`
}

func collectDataTool(router *routing.Router, collectors collect.Directory) Tool {
	return Tool{
		Name:        "collect_data",
		Description: "Route a request and execute every selected collector, returning the fetched data per collector.",
		InputSchema: objectSchema(criteriaSchema()),
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			criteria, err := criteriaFromArgs(args)
			if err != nil {
				return nil, err
			}

			selections := router.Select(criteria)
			if len(selections) == 0 {
				return nil, Errorf(CodeInvalidParams, "no collector serves these criteria")
			}

			results := make([]collectResult, 0, len(selections))
			succeeded := 0
			for _, sel := range selections {
				cr := collectResult{Collector: sel.Name, Priority: sel.Priority}

				collector, ok := collectors.Get(sel.Name)
				if !ok {
					cr.Error = "collector not available on this server"
					results = append(results, cr)
					continue
				}

				began := time.Now()
				res, err := collector.Collect(ctx, criteria)
				metrics.CollectorDuration.WithLabelValues(sel.Name).Observe(time.Since(began).Seconds())
				if err != nil {
					cr.Error = err.Error()
				}
				if res != nil {
					cr.Rows = res.Rows()
					cr.ItemErrors = res.ItemErrors
					if err == nil {
						cr.Result = res
					}
				}
				if err == nil {
					succeeded++
				}
				results = append(results, cr)
			}

			if succeeded == 0 {
				return nil, Errorf(CodeInternalError, "all %d routed collectors failed", len(selections))
			}
			return map[string]any{"results": results}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// quote
// ---------------------------------------------------------------------------

// quoteTool serves a real-time quote from Alpaca snapshots, falling back to
// the Yahoo chart endpoint when Alpaca is unavailable.
func quoteTool(live *market.LiveCollector, yahoo *market.YahooClient) Tool {
	return Tool{
		Name:        "quote",
		Description: "Latest quote for a ticker symbol.",
		InputSchema: objectSchema(map[string]any{
			"symbol": stringProp("Ticker symbol, e.g. \"TSLA\""),
		}, "symbol"),
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Symbol string `json:"symbol"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, Errorf(CodeInvalidParams, "parsing arguments: %s", err)
			}

			if live != nil {
				result, err := live.Collect(ctx, domain.Criteria{
					Companies: []string{in.Symbol},
					RealTime:  true,
				})
				if err == nil && len(result.Quotes) > 0 {
					return result.Quotes[0], nil
				}
			}
			if yahoo != nil {
				quote, err := yahoo.Quote(ctx, in.Symbol)
				if err != nil {
					return nil, fmt.Errorf("yahoo: %w", err)
				}
				return quote, nil
			}
			return nil, Errorf(CodeInternalError, "no quote backend available")
		},
	}
}
