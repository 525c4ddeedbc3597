package routing

import (
	"stockpicker/internal/domain"
)

// Built-in priority tiers.
const (
	deepDiveMaxPriority = 100
	deepDiveMinPriority = 70
	realTimePriority    = 90
	webIntelPriority    = 85
	macroPriority       = 80
	screeningPriority   = 70
)

// DeepDiveRule routes explicit ticker lists to a per-company deep-dive source
// such as SEC EDGAR. One ticker scores 100; priority decreases linearly with
// list size down to 70 at maxCompanies. Lists above maxCompanies disqualify
// the source entirely to avoid excessive per-company calls, as do requests
// with no explicit tickers (bare sector/index screens).
func DeepDiveRule(info domain.CollectorInfo, maxCompanies int) *Rule {
	if maxCompanies < 2 {
		maxCompanies = 2
	}
	return NewRule(info, func(c domain.Criteria) int {
		n := len(c.NormalizedCompanies())
		if n == 0 || n > maxCompanies {
			return 0
		}
		span := deepDiveMaxPriority - deepDiveMinPriority
		return deepDiveMaxPriority - span*(n-1)/(maxCompanies-1)
	})
}

// ScreeningRule routes sector and index screens, and bulk ticker lists that
// the deep-dive source refuses, to a market-screening source at a fixed
// priority.
func ScreeningRule(info domain.CollectorInfo, bulkThreshold int) *Rule {
	return NewRule(info, func(c domain.Criteria) int {
		if c.HasSectorOrIndex() || len(c.NormalizedCompanies()) > bulkThreshold {
			return screeningPriority
		}
		return 0
	})
}

// MacroRule activates whenever an economic-series key is present, regardless
// of any other filter keys.
func MacroRule(info domain.CollectorInfo) *Rule {
	return NewRule(info, func(c domain.Criteria) int {
		if c.HasEconomicSeries() {
			return macroPriority
		}
		return 0
	})
}

// RealTimeRule activates for real-time quote requests that name explicit
// tickers.
func RealTimeRule(info domain.CollectorInfo) *Rule {
	return NewRule(info, func(c domain.Criteria) int {
		if c.RealTime && c.HasCompanies() {
			return realTimePriority
		}
		return 0
	})
}

// WebIntelligenceRule activates for sentiment/news analysis requests.
func WebIntelligenceRule(info domain.CollectorInfo) *Rule {
	return NewRule(info, func(c domain.Criteria) int {
		if c.AnalysisType == domain.AnalysisSentiment {
			return webIntelPriority
		}
		return 0
	})
}
