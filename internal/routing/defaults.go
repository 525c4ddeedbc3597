package routing

import (
	"stockpicker/internal/config"
	"stockpicker/internal/domain"
)

// Standard collector names used across the platform.
const (
	NameSECEdgar   = "sec-edgar"
	NameMarketAPI  = "market-api"
	NameFREDMacro  = "fred-macro"
	NameDataGovMCP = "datagov-mcp"
	NameAlpacaLive = "alpaca-live"
	NameNewsIntel  = "news-intel"
)

// DefaultRegistry builds the standard six-collector registry covering all
// four quadrants. Registration order doubles as the priority tie-break, so
// government sources come first.
func DefaultRegistry(cfg config.RoutingConfig) (*Registry, error) {
	maxCompanies := cfg.DeepDiveMaxCompanies
	if maxCompanies == 0 {
		maxCompanies = 20
	}

	return NewRegistry(
		DeepDiveRule(domain.CollectorInfo{
			Name:     NameSECEdgar,
			Quadrant: domain.QuadrantGovernmentAPI,
			Kinds:    []domain.DataKind{domain.KindFilings},
		}, maxCompanies),

		MacroRule(domain.CollectorInfo{
			Name:     NameFREDMacro,
			Quadrant: domain.QuadrantGovernmentAPI,
			Kinds:    []domain.DataKind{domain.KindSeries},
		}),

		MacroRule(domain.CollectorInfo{
			Name:     NameDataGovMCP,
			Quadrant: domain.QuadrantGovernmentMCP,
			Kinds:    []domain.DataKind{domain.KindSeries},
		}),

		ScreeningRule(domain.CollectorInfo{
			Name:           NameMarketAPI,
			Quadrant:       domain.QuadrantCommercialAPI,
			CostPerRequest: 0.002,
			Kinds:          []domain.DataKind{domain.KindScreening, domain.KindBars},
		}, maxCompanies),

		RealTimeRule(domain.CollectorInfo{
			Name:           NameAlpacaLive,
			Quadrant:       domain.QuadrantCommercialAPI,
			CostPerRequest: 0.004,
			Kinds:          []domain.DataKind{domain.KindQuotes, domain.KindBars},
		}),

		WebIntelligenceRule(domain.CollectorInfo{
			Name:           NameNewsIntel,
			Quadrant:       domain.QuadrantCommercialMCP,
			CostPerRequest: 0.01,
			Kinds:          []domain.DataKind{domain.KindArticles},
		}),
	)
}
