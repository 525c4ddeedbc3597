// Package domain defines the core types shared across the stockpicker
// platform: request criteria, collector metadata, and the data rows produced
// by collectors and dataset builders.
package domain

import (
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Collector metadata
// ---------------------------------------------------------------------------

// Quadrant identifies one of the four collector pools used for routing:
// government/commercial crossed with API/MCP.
type Quadrant string

const (
	QuadrantGovernmentAPI Quadrant = "government_api"
	QuadrantGovernmentMCP Quadrant = "government_mcp"
	QuadrantCommercialAPI Quadrant = "commercial_api"
	QuadrantCommercialMCP Quadrant = "commercial_mcp"
)

// DataKind names a category of data a collector can produce.
type DataKind string

const (
	KindFilings   DataKind = "filings"
	KindBars      DataKind = "bars"
	KindQuotes    DataKind = "quotes"
	KindSeries    DataKind = "series"
	KindArticles  DataKind = "articles"
	KindScreening DataKind = "screening"
)

// CollectorInfo describes a registered collector.
type CollectorInfo struct {
	Name           string
	Quadrant       Quadrant
	CostPerRequest float64 // USD; 0 for free government sources
	Kinds          []DataKind
}

// Produces reports whether the collector produces the given data kind.
func (ci CollectorInfo) Produces(kind DataKind) bool {
	for _, k := range ci.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Request criteria
// ---------------------------------------------------------------------------

// AnalysisType classifies the intent of a data request.
type AnalysisType string

const (
	AnalysisFundamental AnalysisType = "fundamental"
	AnalysisScreening   AnalysisType = "screening"
	AnalysisSentiment   AnalysisType = "sentiment"
	AnalysisMacro       AnalysisType = "macro"
)

// Criteria is the filter set of an incoming data request. Zero values mean
// "not specified".
type Criteria struct {
	Companies      []string     // explicit ticker symbols
	Sector         string       // e.g. "Technology"
	Index          string       // e.g. "S&P 500"
	EconomicSeries []string     // macro series IDs, e.g. FRED "GDP", "UNRATE"
	AnalysisType   AnalysisType // request intent
	RealTime       bool         // current quotes rather than historical data
}

// HasCompanies reports whether the request names explicit tickers.
func (c Criteria) HasCompanies() bool { return len(c.Companies) > 0 }

// HasSectorOrIndex reports whether the request is a sector or index screen.
func (c Criteria) HasSectorOrIndex() bool { return c.Sector != "" || c.Index != "" }

// HasEconomicSeries reports whether the request names macro series.
func (c Criteria) HasEconomicSeries() bool { return len(c.EconomicSeries) > 0 }

// PureWebIntelligence reports whether the request is a sentiment/news request
// with no financial filter keys. Such requests are satisfied by a single
// web-intelligence collector.
func (c Criteria) PureWebIntelligence() bool {
	return c.AnalysisType == AnalysisSentiment &&
		!c.HasSectorOrIndex() && !c.HasEconomicSeries()
}

// NormalizedCompanies returns the ticker list upper-cased and deduplicated,
// preserving first-seen order.
func (c Criteria) NormalizedCompanies() []string {
	seen := make(map[string]struct{}, len(c.Companies))
	out := make([]string, 0, len(c.Companies))
	for _, sym := range c.Companies {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// ---------------------------------------------------------------------------
// Data rows
// ---------------------------------------------------------------------------

// Bar is a single daily OHLCV bar.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Quote is a point-in-time price snapshot.
type Quote struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
	Volume        int64
	MarketCap     float64
	Time          time.Time
	Source        string
}

// Filing is a reference to a single SEC EDGAR filing.
type Filing struct {
	Symbol      string
	CIK         string
	CompanyName string
	FormType    string // e.g. "10-K", "10-Q", "8-K"
	FiledAt     time.Time
	AccessionNo string
	URL         string
}

// Fundamentals holds a small set of metrics computed from EDGAR company facts.
type Fundamentals struct {
	Symbol             string
	CIK                string
	FiscalPeriodEnd    time.Time
	CurrentAssets      float64
	CurrentLiabilities float64
	CurrentRatio       float64 // CurrentAssets / CurrentLiabilities
	Revenue            float64
	NetIncome          float64
}

// SeriesPoint is one observation of a macro/economic series.
type SeriesPoint struct {
	SeriesID string
	Date     time.Time
	Value    float64
	Source   string // "fred", "treasury", "bls"
}

// Article is a single news article from any source.
type Article struct {
	Symbol   string
	Time     time.Time
	Source   string
	Headline string
	Content  string
}

// FeatureRow is one labeled row of the movement dataset: price features and
// day sentiment for (symbol, date), with the next trading day's direction as
// the label.
type FeatureRow struct {
	Symbol       string
	Date         time.Time
	Return1D     float64 // close-to-close return
	Return5D     float64
	Volatility   float64 // stddev of daily returns over the window
	VolumeZScore float64
	Sentiment    float64 // day-aggregated sentiment in [-1, 1]
	NewsCount    int
	NextDayUp    bool // label: next trading day closed higher
}
