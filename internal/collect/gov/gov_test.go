package gov

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"stockpicker/internal/domain"
)

func TestEDGARCollectFilingsAndFundamentals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/company_tickers.json":
			fmt.Fprint(w, `{"0":{"cik_str":320193,"ticker":"AAPL","title":"Apple Inc."}}`)
		case "/submissions/CIK0000320193.json":
			if ua := r.Header.Get("User-Agent"); ua != "test test@example.com" {
				t.Errorf("User-Agent = %q", ua)
			}
			fmt.Fprint(w, `{
				"cik": "320193",
				"name": "Apple Inc.",
				"filings": {"recent": {
					"accessionNumber": ["0000320193-24-000001", "0000320193-24-000002"],
					"filingDate": ["2024-02-02", "2024-01-05"],
					"form": ["10-K", "8-K"],
					"primaryDocument": ["aapl-10k.htm", "aapl-8k.htm"]
				}}
			}`)
		case "/api/xbrl/companyfacts/CIK0000320193.json":
			fmt.Fprint(w, `{
				"entityName": "Apple Inc.",
				"facts": {"us-gaap": {
					"AssetsCurrent": {"units": {"USD": [
						{"end": "2023-09-30", "val": 143566000000},
						{"end": "2022-09-24", "val": 135405000000}
					]}},
					"LiabilitiesCurrent": {"units": {"USD": [
						{"end": "2023-09-30", "val": 145308000000}
					]}},
					"Revenues": {"units": {"USD": [
						{"end": "2023-09-30", "val": 383285000000}
					]}},
					"NetIncomeLoss": {"units": {"USD": [
						{"end": "2023-09-30", "val": 96995000000}
					]}}
				}}
			}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewEDGARCollector("test test@example.com", srv.URL)
	result, err := c.Collect(context.Background(), domain.Criteria{
		Companies:    []string{"aapl"},
		AnalysisType: domain.AnalysisFundamental,
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(result.Filings) != 2 {
		t.Fatalf("got %d filings, want 2", len(result.Filings))
	}
	f := result.Filings[0]
	if f.Symbol != "AAPL" || f.FormType != "10-K" || f.CompanyName != "Apple Inc." {
		t.Errorf("unexpected filing: %+v", f)
	}
	if f.FiledAt.Format("2006-01-02") != "2024-02-02" {
		t.Errorf("FiledAt = %v", f.FiledAt)
	}
	wantURL := srv.URL + "/Archives/edgar/data/320193/000032019324000001/aapl-10k.htm"
	if f.URL != wantURL {
		t.Errorf("URL = %q, want %q", f.URL, wantURL)
	}

	if len(result.Fundamentals) != 1 {
		t.Fatalf("got %d fundamentals, want 1", len(result.Fundamentals))
	}
	fund := result.Fundamentals[0]
	if fund.Revenue != 383285000000 || fund.NetIncome != 96995000000 {
		t.Errorf("unexpected fundamentals: %+v", fund)
	}
	wantRatio := 143566000000.0 / 145308000000.0
	if diff := fund.CurrentRatio - wantRatio; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("CurrentRatio = %v, want %v", fund.CurrentRatio, wantRatio)
	}
	if fund.FiscalPeriodEnd.Format("2006-01-02") != "2023-09-30" {
		t.Errorf("FiscalPeriodEnd = %v", fund.FiscalPeriodEnd)
	}
}

func TestEDGARCollectUnknownTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"0":{"cik_str":320193,"ticker":"AAPL","title":"Apple Inc."}}`)
	}))
	defer srv.Close()

	c := NewEDGARCollector("test test@example.com", srv.URL)
	result, err := c.Collect(context.Background(), domain.Criteria{Companies: []string{"ZZZZ"}})
	if err == nil {
		t.Fatal("want error for unknown ticker")
	}
	if result.ItemErrors != 1 {
		t.Errorf("ItemErrors = %d, want 1", result.ItemErrors)
	}
}

func TestEDGARCollectNoCompanies(t *testing.T) {
	c := NewEDGARCollector("test test@example.com", "http://unused.invalid")
	if _, err := c.Collect(context.Background(), domain.Criteria{}); err == nil {
		t.Fatal("want error for empty companies")
	}
}

func TestFREDCollectPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("series_id"); got != "GDP" {
			t.Errorf("series_id = %q", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "k123" {
			t.Errorf("api_key = %q", got)
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		// 1002 observations total: two full-size pages worth would be 2000,
		// so the second page only has 2 rows.
		resp := fredObservationsResponse{Count: 1002}
		limit := 1000
		for i := 0; i < limit && offset+i < 1002; i++ {
			day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset+i)
			value := fmt.Sprintf("%d.5", offset+i)
			if offset+i == 3 {
				value = "." // missing observation
			}
			resp.Observations = append(resp.Observations, struct {
				Date  string `json:"date"`
				Value string `json:"value"`
			}{Date: day.Format("2006-01-02"), Value: value})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewFREDCollector("k123", srv.URL)
	result, err := c.Collect(context.Background(), domain.Criteria{EconomicSeries: []string{"GDP"}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	// 1002 observations minus the one "." missing value.
	if len(result.Series) != 1001 {
		t.Fatalf("got %d points, want 1001", len(result.Series))
	}
	p := result.Series[0]
	if p.SeriesID != "GDP" || p.Source != "fred" || p.Value != 0.5 {
		t.Errorf("unexpected point: %+v", p)
	}
	last := result.Series[len(result.Series)-1]
	if last.Value != 1001.5 {
		t.Errorf("last value = %v, want 1001.5", last.Value)
	}
}

func TestFREDCollectNoSeries(t *testing.T) {
	c := NewFREDCollector("k", "http://unused.invalid")
	if _, err := c.Collect(context.Background(), domain.Criteria{}); err == nil {
		t.Fatal("want error for empty series list")
	}
}

func TestTreasuryAverageInterestRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page[number]")
		switch page {
		case "1":
			fmt.Fprint(w, `{
				"data": [
					{"record_date": "2024-06-30", "security_desc": "Treasury Bills", "avg_interest_rate_amt": "5.392"},
					{"record_date": "2024-06-30", "security_desc": "Treasury Notes", "avg_interest_rate_amt": "bad"}
				],
				"meta": {"total-pages": 2}
			}`)
		case "2":
			fmt.Fprint(w, `{
				"data": [
					{"record_date": "2024-05-31", "security_desc": "Treasury Bills", "avg_interest_rate_amt": "5.384"}
				],
				"meta": {"total-pages": 2}
			}`)
		default:
			t.Errorf("unexpected page %q", page)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewTreasuryCollector(srv.URL)
	points, skipped, err := c.AverageInterestRates(context.Background())
	if err != nil {
		t.Fatalf("AverageInterestRates: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if points[0].SeriesID != "treasury/Treasury Bills" || points[0].Value != 5.392 {
		t.Errorf("unexpected point: %+v", points[0])
	}
	if points[0].Source != "treasury" {
		t.Errorf("Source = %q", points[0].Source)
	}
}

func TestBLSSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var req blsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(req.SeriesID) != 1 || req.SeriesID[0] != "CUUR0000SA0" {
			t.Errorf("seriesid = %v", req.SeriesID)
		}
		if req.RegistrationKey != "blskey" {
			t.Errorf("registrationkey = %q", req.RegistrationKey)
		}
		fmt.Fprint(w, `{
			"status": "REQUEST_SUCCEEDED",
			"Results": {"series": [{
				"seriesID": "CUUR0000SA0",
				"data": [
					{"year": "2024", "period": "M06", "value": "314.175"},
					{"year": "2024", "period": "M05", "value": "314.069"},
					{"year": "2024", "period": "M13", "value": "notanumber"}
				]
			}]}
		}`)
	}))
	defer srv.Close()

	c := NewBLSCollector("blskey", srv.URL)
	points, skipped, err := c.Series(context.Background(), []string{"CUUR0000SA0"}, 2024, 2024)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	p := points[0]
	if p.SeriesID != "CUUR0000SA0" || p.Source != "bls" || p.Value != 314.175 {
		t.Errorf("unexpected point: %+v", p)
	}
	if !p.Date.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", p.Date)
	}
}

func TestBLSStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "REQUEST_NOT_PROCESSED", "Results": {}}`)
	}))
	defer srv.Close()

	c := NewBLSCollector("", srv.URL)
	if _, _, err := c.Series(context.Background(), []string{"X"}, 0, 0); err == nil {
		t.Fatal("want error for failed status")
	}
}

func TestBLSObservationDate(t *testing.T) {
	tests := []struct {
		year, period string
		want         time.Time
		ok           bool
	}{
		{"2024", "M01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024", "M12", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024", "M13", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024", "Q03", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024", "A01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024", "M14", time.Time{}, false},
		{"2024", "Q05", time.Time{}, false},
		{"bad", "M01", time.Time{}, false},
		{"2024", "X01", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := blsObservationDate(tt.year, tt.period)
		if ok != tt.ok || (ok && !got.Equal(tt.want)) {
			t.Errorf("blsObservationDate(%q, %q) = %v, %v; want %v, %v",
				tt.year, tt.period, got, ok, tt.want, tt.ok)
		}
	}
}
