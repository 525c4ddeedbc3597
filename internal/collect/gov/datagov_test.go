package gov

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockpicker/internal/domain"
)

func TestDataGovCollectSplitsBackends(t *testing.T) {
	blsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status": "REQUEST_SUCCEEDED",
			"Results": {"series": [{
				"seriesID": "CUUR0000SA0",
				"data": [{"year": "2024", "period": "M06", "value": "314.175"}]
			}]}
		}`)
	}))
	defer blsSrv.Close()

	treasurySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"data": [
				{"record_date": "2024-06-30", "security_desc": "Treasury Bills", "avg_interest_rate_amt": "5.392"}
			],
			"meta": {"total-pages": 1}
		}`)
	}))
	defer treasurySrv.Close()

	c := NewDataGovCollector(NewTreasuryCollector(treasurySrv.URL), NewBLSCollector("", blsSrv.URL))

	result, err := c.Collect(context.Background(), domain.Criteria{
		EconomicSeries: []string{"bls/CUUR0000SA0", "treasury/avg_interest_rates", "GDP"},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(result.Series) != 2 {
		t.Fatalf("got %d points, want 2", len(result.Series))
	}

	sources := map[string]bool{}
	for _, p := range result.Series {
		sources[p.Source] = true
	}
	if !sources["bls"] || !sources["treasury"] {
		t.Errorf("sources = %v, want bls and treasury", sources)
	}
}

func TestDataGovCollectUnrecognizedSeries(t *testing.T) {
	c := NewDataGovCollector(NewTreasuryCollector("http://unused.invalid"), NewBLSCollector("", "http://unused.invalid"))

	// FRED-style unprefixed ids are not this collector's territory.
	if _, err := c.Collect(context.Background(), domain.Criteria{EconomicSeries: []string{"GDP", "UNRATE"}}); err == nil {
		t.Fatal("want error for unrecognized series")
	}
	if _, err := c.Collect(context.Background(), domain.Criteria{}); err == nil {
		t.Fatal("want error for empty criteria")
	}
}

func TestDataGovInfo(t *testing.T) {
	c := NewDataGovCollector(nil, nil)
	info := c.Info()
	if info.Name != "datagov-mcp" || info.Quadrant != domain.QuadrantGovernmentMCP {
		t.Errorf("info = %+v", info)
	}
	if !info.Produces(domain.KindSeries) {
		t.Error("should produce series")
	}
}
