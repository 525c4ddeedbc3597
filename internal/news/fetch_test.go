package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"no tags here", "no tags here"},
		{"a &amp; b", "a & b"},
		{"  spaced\n\tout  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractSymbolContent(t *testing.T) {
	raw := "<p>Markets rallied today.</p><p>AAPL shares rose 3% on earnings.</p><p>Oil fell.</p>"
	got := ExtractSymbolContent(raw, "aapl")
	want := "AAPL shares rose 3% on earnings."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// No paragraph mentions the symbol: fall back to full text.
	raw = "<p>Markets rallied today.</p>"
	got = ExtractSymbolContent(raw, "TSLA")
	if got != "Markets rallied today." {
		t.Errorf("fallback = %q", got)
	}
}

func TestFetchGoogleNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "AAPL stock" {
			t.Errorf("q = %q", q)
		}
		fmt.Fprint(w, `<?xml version="1.0"?>
<rss><channel>
  <item>
    <title>Apple beats estimates - Reuters</title>
    <pubDate>Mon, 10 Jun 2024 14:00:00 +0000</pubDate>
    <description>&lt;p&gt;Strong quarter&lt;/p&gt;</description>
  </item>
  <item>
    <title>Old article - AP</title>
    <pubDate>Mon, 01 Jan 2018 00:00:00 +0000</pubDate>
    <description>stale</description>
  </item>
</channel></rss>`)
	}))
	defer srv.Close()

	f := NewFetcher(6000)
	f.GoogleURL = srv.URL

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	articles, err := f.FetchGoogleNews(context.Background(), "AAPL", start, end)
	if err != nil {
		t.Fatalf("FetchGoogleNews: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	a := articles[0]
	if a.Headline != "Apple beats estimates" {
		t.Errorf("Headline = %q (publisher suffix not trimmed?)", a.Headline)
	}
	if a.Symbol != "AAPL" || a.Source != "google" || a.Content != "Strong quarter" {
		t.Errorf("unexpected article: %+v", a)
	}
}

func TestFetchStockTwitsPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("max") {
		case "":
			fmt.Fprint(w, `{
				"response": {"status": 200},
				"messages": [
					{"id": 300, "body": "bullish &amp; long", "created_at": "2024-06-10T15:00:00Z", "user": {"username": "alice"}},
					{"id": 200, "body": "holding", "created_at": "2024-06-10T12:00:00Z", "user": {"username": "bob"}}
				]
			}`)
		case "200":
			fmt.Fprint(w, `{
				"response": {"status": 200},
				"messages": [
					{"id": 100, "body": "too old", "created_at": "2024-06-01T00:00:00Z", "user": {"username": "carol"}}
				]
			}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("max"))
			fmt.Fprint(w, `{"response": {"status": 200}, "messages": []}`)
		}
	}))
	defer srv.Close()

	f := NewFetcher(6000)
	f.StockTwitsURL = srv.URL

	start := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	articles, err := f.FetchStockTwits(context.Background(), "AAPL", start, end, true)
	if err != nil {
		t.Fatalf("FetchStockTwits: %v", err)
	}

	// Two in-window messages; pagination stops once a pre-window message
	// appears.
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	if articles[0].Headline != "@alice" || articles[0].Content != "bullish & long" {
		t.Errorf("unexpected article: %+v", articles[0])
	}
	if articles[0].Source != "stocktwits" {
		t.Errorf("Source = %q", articles[0].Source)
	}
}

func TestFetchStockTwitsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": {"status": 429}, "messages": []}`)
	}))
	defer srv.Close()

	f := NewFetcher(6000)
	f.StockTwitsURL = srv.URL

	_, err := f.FetchStockTwits(context.Background(), "AAPL", time.Time{}, time.Now(), false)
	if err == nil {
		t.Fatal("want error for non-200 stocktwits status")
	}
}
