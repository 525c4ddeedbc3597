package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestYahooQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"chart": {
				"result": [{
					"meta": {
						"symbol": "AAPL",
						"regularMarketPrice": 227.5,
						"chartPreviousClose": 225.0,
						"regularMarketTime": 1718037000
					},
					"indicators": {"quote": [{"volume": [52000000, null]}]}
				}],
				"error": null
			}
		}`)
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL)
	q, err := c.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if q.Symbol != "AAPL" || q.Price != 227.5 || q.Source != "yahoo" {
		t.Errorf("unexpected quote: %+v", q)
	}
	if q.Change != 2.5 {
		t.Errorf("Change = %v, want 2.5", q.Change)
	}
	if q.Volume != 52000000 {
		t.Errorf("Volume = %d (latest non-null sample expected)", q.Volume)
	}
}

func TestYahooQuoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"chart": {
				"result": [],
				"error": {"code": "Not Found", "description": "No data found"}
			}
		}`)
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL)
	if _, err := c.Quote(context.Background(), "ZZZZ"); err == nil {
		t.Fatal("want error for chart error response")
	}
}
