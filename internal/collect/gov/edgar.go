// Package gov implements collectors for US government data sources: SEC
// EDGAR, FRED, Treasury Fiscal Data, and BLS.
package gov

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"stockpicker/internal/collect"
	"stockpicker/internal/domain"
	"stockpicker/internal/routing"
)

const (
	edgarDataURL  = "https://data.sec.gov"
	edgarFilesURL = "https://www.sec.gov"

	// SEC fair-access guideline is 10 requests per second; we stay well
	// below it.
	edgarRatePerMin = 300

	// maxRecentFilings caps how many recent filings are returned per company.
	maxRecentFilings = 40
)

// Compile-time interface check.
var _ collect.Collector = (*EDGARCollector)(nil)

// EDGARCollector is the deep-dive collector: per-company SEC filings and
// fundamentals from EDGAR. The SEC requires a descriptive User-Agent
// identifying the caller.
type EDGARCollector struct {
	http      *collect.HTTPClient
	userAgent string
	baseURL   string
	filesURL  string
	log       *slog.Logger

	// cikOnce guards the lazily loaded ticker→CIK map.
	cikOnce sync.Once
	cikErr  error
	ciks    map[string]string
}

// NewEDGARCollector creates an EDGARCollector. userAgent must identify the
// caller per SEC fair-access rules, e.g. "stockpicker admin@example.com".
// baseURL overrides the EDGAR data host for tests; empty means production.
func NewEDGARCollector(userAgent, baseURL string) *EDGARCollector {
	filesURL := edgarFilesURL
	if baseURL == "" {
		baseURL = edgarDataURL
	} else {
		filesURL = baseURL
	}
	return &EDGARCollector{
		http:      collect.NewHTTPClient(routing.NameSECEdgar, edgarRatePerMin),
		userAgent: userAgent,
		baseURL:   baseURL,
		filesURL:  filesURL,
		log:       slog.Default().With("collector", routing.NameSECEdgar),
	}
}

// Info returns the collector's routing metadata.
func (e *EDGARCollector) Info() domain.CollectorInfo {
	return domain.CollectorInfo{
		Name:     routing.NameSECEdgar,
		Quadrant: domain.QuadrantGovernmentAPI,
		Kinds:    []domain.DataKind{domain.KindFilings},
	}
}

// Collect fetches recent filings for every requested company, plus
// fundamentals when the request intent is fundamental analysis. Failures on
// individual companies are counted and skipped.
func (e *EDGARCollector) Collect(ctx context.Context, crit domain.Criteria) (*collect.Result, error) {
	start := time.Now()
	result := &collect.Result{Collector: routing.NameSECEdgar}

	companies := crit.NormalizedCompanies()
	if len(companies) == 0 {
		return nil, fmt.Errorf("edgar: no companies in criteria")
	}

	for _, symbol := range companies {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		cik, err := e.lookupCIK(ctx, symbol)
		if err != nil {
			e.log.Warn("CIK lookup failed", "symbol", symbol, "err", err)
			result.ItemErrors++
			continue
		}

		filings, err := e.fetchFilings(ctx, symbol, cik)
		if err != nil {
			e.log.Warn("filings fetch failed", "symbol", symbol, "err", err)
			result.ItemErrors++
			continue
		}
		result.Filings = append(result.Filings, filings...)

		if crit.AnalysisType == domain.AnalysisFundamental {
			fund, err := e.fetchFundamentals(ctx, symbol, cik)
			if err != nil {
				e.log.Warn("fundamentals fetch failed", "symbol", symbol, "err", err)
				result.ItemErrors++
				continue
			}
			result.Fundamentals = append(result.Fundamentals, *fund)
		}
	}

	result.Elapsed = time.Since(start)
	if result.Rows() == 0 {
		return result, fmt.Errorf("edgar: no data for %d companies (%d errors)", len(companies), result.ItemErrors)
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// CIK lookup
// ---------------------------------------------------------------------------

// companyTickersResponse matches www.sec.gov/files/company_tickers.json:
// an object keyed by row index.
type companyTickersResponse map[string]struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// lookupCIK resolves a ticker to its zero-padded 10-digit CIK, loading the
// public ticker map on first use.
func (e *EDGARCollector) lookupCIK(ctx context.Context, symbol string) (string, error) {
	e.cikOnce.Do(func() {
		var resp companyTickersResponse
		url := e.filesURL + "/files/company_tickers.json"
		if err := e.http.GetJSON(ctx, url, e.headers(), &resp); err != nil {
			e.cikErr = fmt.Errorf("loading ticker map: %w", err)
			return
		}
		e.ciks = make(map[string]string, len(resp))
		for _, row := range resp {
			e.ciks[strings.ToUpper(row.Ticker)] = fmt.Sprintf("%010d", row.CIK)
		}
	})
	if e.cikErr != nil {
		return "", e.cikErr
	}

	cik, ok := e.ciks[strings.ToUpper(symbol)]
	if !ok {
		return "", fmt.Errorf("unknown ticker %q", symbol)
	}
	return cik, nil
}

// ---------------------------------------------------------------------------
// Submissions (recent filings)
// ---------------------------------------------------------------------------

type submissionsResponse struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

func (e *EDGARCollector) fetchFilings(ctx context.Context, symbol, cik string) ([]domain.Filing, error) {
	var resp submissionsResponse
	url := fmt.Sprintf("%s/submissions/CIK%s.json", e.baseURL, cik)
	if err := e.http.GetJSON(ctx, url, e.headers(), &resp); err != nil {
		return nil, err
	}

	recent := resp.Filings.Recent
	n := len(recent.AccessionNumber)
	for _, l := range []int{len(recent.FilingDate), len(recent.Form), len(recent.PrimaryDocument)} {
		if l < n {
			n = l
		}
	}
	if n > maxRecentFilings {
		n = maxRecentFilings
	}

	filings := make([]domain.Filing, 0, n)
	for i := 0; i < n; i++ {
		filedAt, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}
		accession := recent.AccessionNumber[i]
		filings = append(filings, domain.Filing{
			Symbol:      symbol,
			CIK:         cik,
			CompanyName: resp.Name,
			FormType:    recent.Form[i],
			FiledAt:     filedAt,
			AccessionNo: accession,
			URL: fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
				e.filesURL, strings.TrimLeft(cik, "0"),
				strings.ReplaceAll(accession, "-", ""), recent.PrimaryDocument[i]),
		})
	}
	return filings, nil
}

// ---------------------------------------------------------------------------
// Company facts (fundamentals)
// ---------------------------------------------------------------------------

type factUnit struct {
	End string  `json:"end"`
	Val float64 `json:"val"`
}

type companyFactsResponse struct {
	EntityName string `json:"entityName"`
	Facts      struct {
		USGAAP map[string]struct {
			Units map[string][]factUnit `json:"units"`
		} `json:"us-gaap"`
	} `json:"facts"`
}

// fetchFundamentals computes a small fundamentals snapshot from EDGAR
// company facts. The current ratio is current assets over current
// liabilities at the latest common period end.
func (e *EDGARCollector) fetchFundamentals(ctx context.Context, symbol, cik string) (*domain.Fundamentals, error) {
	var resp companyFactsResponse
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", e.baseURL, cik)
	if err := e.http.GetJSON(ctx, url, e.headers(), &resp); err != nil {
		return nil, err
	}

	assets, assetsEnd := latestUSDFact(resp, "AssetsCurrent")
	liabilities, _ := latestUSDFact(resp, "LiabilitiesCurrent")
	revenue, _ := latestUSDFact(resp, "Revenues")
	if revenue == 0 {
		revenue, _ = latestUSDFact(resp, "RevenueFromContractWithCustomerExcludingAssessedTax")
	}
	netIncome, _ := latestUSDFact(resp, "NetIncomeLoss")

	fund := &domain.Fundamentals{
		Symbol:             symbol,
		CIK:                cik,
		FiscalPeriodEnd:    assetsEnd,
		CurrentAssets:      assets,
		CurrentLiabilities: liabilities,
		Revenue:            revenue,
		NetIncome:          netIncome,
	}
	if liabilities != 0 {
		fund.CurrentRatio = assets / liabilities
	}
	return fund, nil
}

// latestUSDFact returns the most recent USD value for the named us-gaap fact.
func latestUSDFact(resp companyFactsResponse, fact string) (float64, time.Time) {
	f, ok := resp.Facts.USGAAP[fact]
	if !ok {
		return 0, time.Time{}
	}
	units, ok := f.Units["USD"]
	if !ok || len(units) == 0 {
		return 0, time.Time{}
	}

	var best factUnit
	var bestEnd time.Time
	for _, u := range units {
		end, err := time.Parse("2006-01-02", u.End)
		if err != nil {
			continue
		}
		if end.After(bestEnd) {
			bestEnd = end
			best = u
		}
	}
	return best.Val, bestEnd
}

func (e *EDGARCollector) headers() map[string]string {
	return map[string]string{"User-Agent": e.userAgent}
}
