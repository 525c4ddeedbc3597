// Package news fetches per-symbol articles from multiple public sources:
// Alpaca news, Google News RSS, GlobeNewswire RSS, and StockTwits. It feeds
// both the web-intelligence collector and the news dataset builder.
package news

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockpicker/internal/domain"
	"stockpicker/internal/util"
)

const (
	googleNewsURL     = "https://news.google.com/rss/search"
	globeNewsURL      = "https://www.globenewswire.com/RssFeed/keyword"
	stocktwitsURL     = "https://api.stocktwits.com/api/2/streams/symbol"
	defaultRatePerMin = 60

	// stocktwitsMaxPages bounds backwards pagination through the cursor.
	stocktwitsMaxPages = 100
)

// Fetcher pulls articles from the free news sources. The base URLs are
// overridable for tests.
type Fetcher struct {
	GoogleURL     string
	GlobeURL      string
	StockTwitsURL string

	client  *http.Client
	limiter *util.RateLimiter
}

// NewFetcher creates a Fetcher with the given request rate. perMinute <= 0
// uses a default of 60.
func NewFetcher(perMinute int) *Fetcher {
	if perMinute <= 0 {
		perMinute = defaultRatePerMin
	}
	return &Fetcher{
		GoogleURL:     googleNewsURL,
		GlobeURL:      globeNewsURL,
		StockTwitsURL: stocktwitsURL,
		client:        &http.Client{Timeout: 10 * time.Second},
		limiter:       util.NewRateLimiter(perMinute),
	}
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	return body, nil
}

// ---------------------------------------------------------------------------
// Alpaca
// ---------------------------------------------------------------------------

// FetchAlpaca fetches news for one symbol from the Alpaca marketdata API.
func FetchAlpaca(mdc *marketdata.Client, symbol string, start, end time.Time) ([]domain.Article, error) {
	alpacaNews, err := mdc.GetNews(marketdata.GetNewsRequest{
		Symbols:            []string{symbol},
		Start:              start,
		End:                end,
		TotalLimit:         50,
		IncludeContent:     true,
		ExcludeContentless: true,
		Sort:               marketdata.SortAsc,
	})
	if err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(alpacaNews))
	for _, a := range alpacaNews {
		body := ""
		if a.Content != "" {
			body = ExtractSymbolContent(a.Content, symbol)
		} else if a.Summary != "" {
			body = a.Summary
		}
		articles = append(articles, domain.Article{
			Symbol:   symbol,
			Time:     a.CreatedAt,
			Source:   "alpaca",
			Headline: a.Headline,
			Content:  body,
		})
	}
	return articles, nil
}

// ---------------------------------------------------------------------------
// Google News RSS
// ---------------------------------------------------------------------------

type rssResponse struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
}

// FetchGoogleNews fetches articles mentioning the symbol from Google News
// RSS, keeping those published inside [start, end].
func (f *Fetcher) FetchGoogleNews(ctx context.Context, symbol string, start, end time.Time) ([]domain.Article, error) {
	q := url.QueryEscape(symbol + " stock")
	body, err := f.get(ctx, f.GoogleURL+"?q="+q+"&hl=en-US&gl=US&ceid=US:en")
	if err != nil {
		return nil, err
	}

	var rss rssResponse
	if err := xml.Unmarshal(body, &rss); err != nil {
		return nil, err
	}

	var articles []domain.Article
	for _, item := range rss.Channel.Items {
		t, err := time.Parse(time.RFC1123Z, item.PubDate)
		if err != nil {
			t, err = time.Parse(time.RFC1123, item.PubDate)
			if err != nil {
				continue
			}
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		// Google appends " - Publisher" to titles.
		headline := item.Title
		if idx := strings.LastIndex(headline, " - "); idx > 0 {
			headline = headline[:idx]
		}
		articles = append(articles, domain.Article{
			Symbol:   symbol,
			Time:     t,
			Source:   "google",
			Headline: headline,
			Content:  StripHTML(item.Desc),
		})
	}
	return articles, nil
}

// ---------------------------------------------------------------------------
// GlobeNewswire RSS
// ---------------------------------------------------------------------------

// FetchGlobeNewswire fetches press releases for the symbol from the
// GlobeNewswire keyword feed.
func (f *Fetcher) FetchGlobeNewswire(ctx context.Context, symbol string, start, end time.Time) ([]domain.Article, error) {
	u := f.GlobeURL + "/" + url.PathEscape(symbol) + "/feedTitle/GlobeNewswire.xml"
	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var rss rssResponse
	if err := xml.Unmarshal(body, &rss); err != nil {
		return nil, err
	}

	var articles []domain.Article
	for _, item := range rss.Channel.Items {
		t, err := time.Parse("Mon, 02 Jan 2006 15:04 MST", item.PubDate)
		if err != nil {
			t, err = time.Parse(time.RFC1123Z, item.PubDate)
			if err != nil {
				t, err = time.Parse(time.RFC1123, item.PubDate)
				if err != nil {
					continue
				}
			}
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		articles = append(articles, domain.Article{
			Symbol:   symbol,
			Time:     t,
			Source:   "globenewswire",
			Headline: item.Title,
			Content:  StripHTML(item.Desc),
		})
	}
	return articles, nil
}

// ---------------------------------------------------------------------------
// StockTwits
// ---------------------------------------------------------------------------

type stocktwitsResponse struct {
	Response struct {
		Status int `json:"status"`
	} `json:"response"`
	Messages []stocktwitsMessage `json:"messages"`
}

type stocktwitsMessage struct {
	ID        int    `json:"id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Username string `json:"username"`
	} `json:"user"`
}

// FetchStockTwits fetches StockTwits messages for a symbol. If paginate is
// true, it pages backwards using the message-ID cursor until the window
// [start, end] is covered; otherwise it fetches a single page (~30
// messages).
func (f *Fetcher) FetchStockTwits(ctx context.Context, symbol string, start, end time.Time, paginate bool) ([]domain.Article, error) {
	base := f.StockTwitsURL + "/" + url.PathEscape(symbol) + ".json"

	var all []domain.Article
	seen := make(map[int]bool)
	maxPages := 1
	if paginate {
		maxPages = stocktwitsMaxPages
	}

	cursor := 0
	for page := 0; page < maxPages; page++ {
		u := base
		if cursor > 0 {
			u += fmt.Sprintf("?max=%d", cursor)
		}

		body, err := f.get(ctx, u)
		if err != nil {
			return all, err
		}

		var st stocktwitsResponse
		if err := json.Unmarshal(body, &st); err != nil {
			return all, err
		}
		if st.Response.Status != 200 {
			return all, fmt.Errorf("stocktwits status %d", st.Response.Status)
		}
		if len(st.Messages) == 0 {
			break
		}

		oldestInWindow := false
		for _, msg := range st.Messages {
			if seen[msg.ID] {
				continue
			}
			seen[msg.ID] = true
			t, err := time.Parse("2006-01-02T15:04:05Z", msg.CreatedAt)
			if err != nil {
				continue
			}
			if t.Before(start) {
				oldestInWindow = true
				continue
			}
			if t.After(end) {
				continue
			}
			all = append(all, domain.Article{
				Symbol:   symbol,
				Time:     t,
				Source:   "stocktwits",
				Headline: "@" + msg.User.Username,
				Content:  html.UnescapeString(msg.Body),
			})
		}

		if oldestInWindow {
			break
		}

		cursor = st.Messages[len(st.Messages)-1].ID
	}

	return all, nil
}

// ---------------------------------------------------------------------------
// HTML helpers
// ---------------------------------------------------------------------------

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)
var htmlParaRe = regexp.MustCompile(`(?i)</?(p|br|div|li|h[1-6])\b[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// ExtractSymbolContent extracts paragraphs mentioning the symbol from HTML
// content, falling back to the full stripped text when none match.
func ExtractSymbolContent(rawHTML, symbol string) string {
	chunks := htmlParaRe.Split(rawHTML, -1)
	var matched []string
	upper := strings.ToUpper(symbol)
	for _, chunk := range chunks {
		plain := StripHTML(chunk)
		if plain == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(plain), upper) {
			matched = append(matched, plain)
		}
	}
	if len(matched) > 0 {
		return strings.Join(matched, " ")
	}
	return StripHTML(rawHTML)
}
