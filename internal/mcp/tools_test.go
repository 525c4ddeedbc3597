package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockpicker/internal/collect"
	"stockpicker/internal/collect/market"
	"stockpicker/internal/config"
	"stockpicker/internal/domain"
	"stockpicker/internal/routing"
)

func testRouter(t *testing.T) *routing.Router {
	t.Helper()
	registry, err := routing.DefaultRegistry(config.RoutingConfig{})
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	return routing.NewRouter(registry, 0)
}

func TestBuiltinToolsSubset(t *testing.T) {
	tools := BuiltinTools(ToolDeps{Router: testRouter(t)})
	if len(tools) != 1 {
		t.Fatalf("got %d tools, want 1", len(tools))
	}
	if tools[0].Name != "route_request" {
		t.Errorf("tool = %q, want route_request", tools[0].Name)
	}
}

func TestRouteRequestTool(t *testing.T) {
	tool := routeRequestTool(testRouter(t))

	args, _ := json.Marshal(map[string]any{
		"companies":     []string{"AAPL", "MSFT"},
		"analysis_type": "fundamental",
	})
	out, err := tool.Handler(context.Background(), args)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	selections := out.(map[string]any)["selections"].([]routing.Selection)
	if len(selections) == 0 {
		t.Fatal("no selections")
	}
	if selections[0].Name != routing.NameSECEdgar {
		t.Errorf("top selection = %q, want %q", selections[0].Name, routing.NameSECEdgar)
	}
	for i := 1; i < len(selections); i++ {
		if selections[i].Priority > selections[i-1].Priority {
			t.Errorf("selections out of order at %d: %d > %d", i, selections[i].Priority, selections[i-1].Priority)
		}
	}
}

func TestRouteRequestToolEmptyArgs(t *testing.T) {
	tool := routeRequestTool(testRouter(t))

	out, err := tool.Handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if selections := out.(map[string]any)["selections"].([]routing.Selection); len(selections) != 0 {
		t.Errorf("empty criteria selected %d collectors, want 0", len(selections))
	}
}

func TestQuoteToolYahooFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chart":{"result":[{"meta":{
			"symbol":"NVDA","regularMarketPrice":500.25,
			"chartPreviousClose":490.0,"regularMarketTime":1717430400},
			"indicators":{"quote":[{"volume":[1000,2000]}]}}],"error":null}}`))
	}))
	defer ts.Close()

	tool := quoteTool(nil, market.NewYahooClient(ts.URL))
	out, err := tool.Handler(context.Background(), json.RawMessage(`{"symbol":"NVDA"}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	raw, _ := json.Marshal(out)
	var quote struct {
		Symbol string  `json:"Symbol"`
		Price  float64 `json:"Price"`
	}
	if err := json.Unmarshal(raw, &quote); err != nil {
		t.Fatalf("decoding quote: %v", err)
	}
	if quote.Symbol != "NVDA" || quote.Price != 500.25 {
		t.Errorf("quote = %+v, want NVDA @ 500.25", quote)
	}
}

// fakeCollector returns a canned result for any criteria.
type fakeCollector struct {
	info domain.CollectorInfo
	res  *collect.Result
	err  error
}

func (f *fakeCollector) Info() domain.CollectorInfo { return f.info }

func (f *fakeCollector) Collect(_ context.Context, _ domain.Criteria) (*collect.Result, error) {
	return f.res, f.err
}

func TestCollectDataTool(t *testing.T) {
	directory := collect.Directory{
		routing.NameSECEdgar: &fakeCollector{
			res: &collect.Result{
				Collector: routing.NameSECEdgar,
				Filings:   []domain.Filing{{Symbol: "AAPL", FormType: "10-K", FiledAt: time.Now()}},
			},
		},
	}
	tool := collectDataTool(testRouter(t), directory)

	args, _ := json.Marshal(map[string]any{
		"companies":     []string{"AAPL"},
		"analysis_type": "fundamental",
	})
	out, err := tool.Handler(context.Background(), args)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	results := out.(map[string]any)["results"].([]collectResult)
	if len(results) == 0 {
		t.Fatal("no results")
	}
	first := results[0]
	if first.Collector != routing.NameSECEdgar || first.Rows != 1 || first.Error != "" {
		t.Errorf("first result = %+v", first)
	}
}

func TestCollectDataToolAllFail(t *testing.T) {
	directory := collect.Directory{
		routing.NameSECEdgar: &fakeCollector{err: errors.New("upstream down")},
	}
	tool := collectDataTool(testRouter(t), directory)

	args, _ := json.Marshal(map[string]any{"companies": []string{"AAPL"}})
	if _, err := tool.Handler(context.Background(), args); err == nil {
		t.Fatal("expected error when every collector fails")
	}
}

func TestCollectDataToolNoSelection(t *testing.T) {
	tool := collectDataTool(testRouter(t), collect.Directory{})
	if _, err := tool.Handler(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty criteria")
	}
}

func TestQuoteToolNoBackend(t *testing.T) {
	tool := quoteTool(nil, nil)
	if _, err := tool.Handler(context.Background(), json.RawMessage(`{"symbol":"NVDA"}`)); err == nil {
		t.Fatal("expected error with no backend")
	}
}
