package routing

import (
	"log/slog"
	"sort"

	"stockpicker/internal/domain"
	"stockpicker/internal/metrics"
)

// Selection is one routed collector with its activation priority.
type Selection struct {
	Name     string          `json:"name"`
	Quadrant domain.Quadrant `json:"quadrant"`
	Priority int             `json:"priority"`
}

// Router selects collectors for a request by querying every registered
// capability. It holds no mutable state; Select is a pure function of the
// registry and the criteria.
type Router struct {
	registry *Registry
	// maxCost filters out collectors whose per-request cost exceeds it.
	// Zero disables the budget guard.
	maxCost float64
	log     *slog.Logger
}

// NewRouter creates a Router over the given registry. maxCostPerRequest
// bounds acceptable collector cost; pass 0 to accept any cost.
func NewRouter(registry *Registry, maxCostPerRequest float64) *Router {
	return &Router{
		registry: registry,
		maxCost:  maxCostPerRequest,
		log:      slog.Default().With("component", "router"),
	}
}

// Select returns the activated collectors ranked by descending priority.
// Equal priorities keep registration order. The result never contains a
// collector whose ShouldActivate returned false, and calling Select twice
// with the same criteria yields the same ranked list.
//
// A pure web-intelligence request is satisfied by a single collector family:
// only the top-ranked article-producing collector is returned.
func (r *Router) Select(c domain.Criteria) []Selection {
	var selections []Selection
	seen := make(map[string]struct{}, r.registry.Len())

	for _, capability := range r.registry.Capabilities() {
		info := capability.Info()
		if _, dup := seen[info.Name]; dup {
			continue
		}

		// Both sides of the activate/priority contract are consulted so a
		// misbehaving capability can never sneak into the result.
		priority := capability.ActivationPriority(c)
		if priority <= 0 || !capability.ShouldActivate(c) {
			continue
		}

		if r.maxCost > 0 && info.CostPerRequest > r.maxCost {
			r.log.Debug("collector over budget",
				"collector", info.Name,
				"cost", info.CostPerRequest,
				"max", r.maxCost,
			)
			continue
		}

		seen[info.Name] = struct{}{}
		selections = append(selections, Selection{
			Name:     info.Name,
			Quadrant: info.Quadrant,
			Priority: priority,
		})
	}

	// Stable sort: ties keep registration order.
	sort.SliceStable(selections, func(i, j int) bool {
		return selections[i].Priority > selections[j].Priority
	})

	if c.PureWebIntelligence() {
		selections = firstArticleProducer(r.registry, selections)
	}

	for _, sel := range selections {
		metrics.RouterSelections.WithLabelValues(sel.Name).Inc()
	}
	return selections
}

// firstArticleProducer reduces the ranked list to the single best collector
// that produces articles. If none does, the list is returned unchanged.
func firstArticleProducer(registry *Registry, ranked []Selection) []Selection {
	for _, sel := range ranked {
		capability, ok := registry.Lookup(sel.Name)
		if !ok {
			continue
		}
		if capability.Info().Produces(domain.KindArticles) {
			return []Selection{sel}
		}
	}
	return ranked
}
