// Package routing implements the four-quadrant collector router: a registry
// of collector capabilities queried per request, each reporting whether it
// should activate for a set of filter criteria and at what priority (0-100).
package routing

import (
	"fmt"

	"stockpicker/internal/domain"
)

// Capability is the routing contract a collector registers with. The two
// methods must agree: ShouldActivate returns false exactly when
// ActivationPriority returns 0.
type Capability interface {
	// Info returns the collector's metadata.
	Info() domain.CollectorInfo

	// ShouldActivate reports whether the collector can serve the request.
	ShouldActivate(c domain.Criteria) bool

	// ActivationPriority scores the collector for the request on a 0-100
	// scale. Zero means "do not activate".
	ActivationPriority(c domain.Criteria) int
}

// Rule is a Capability built from collector metadata plus a single priority
// function. Deriving ShouldActivate from the priority makes the
// activate/priority contract hold by construction.
type Rule struct {
	info     domain.CollectorInfo
	priority func(domain.Criteria) int
}

// Compile-time interface check.
var _ Capability = (*Rule)(nil)

// NewRule creates a Rule for the given collector metadata and priority
// function. Priorities returned by fn are clamped to [0, 100].
func NewRule(info domain.CollectorInfo, fn func(domain.Criteria) int) *Rule {
	return &Rule{info: info, priority: fn}
}

// Info returns the collector's metadata.
func (r *Rule) Info() domain.CollectorInfo { return r.info }

// ActivationPriority evaluates the rule's priority function, clamped to
// [0, 100].
func (r *Rule) ActivationPriority(c domain.Criteria) int {
	p := r.priority(c)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ShouldActivate reports whether the priority for c is non-zero.
func (r *Rule) ShouldActivate(c domain.Criteria) bool {
	return r.ActivationPriority(c) > 0
}

// Registry holds the registered capabilities. It is built once at startup
// and read-only afterwards; registration order is preserved and serves as the
// tie-break when two collectors report equal priority.
type Registry struct {
	caps   []Capability
	byName map[string]Capability
}

// NewRegistry creates a Registry from the given capabilities. Collector
// names must be unique.
func NewRegistry(caps ...Capability) (*Registry, error) {
	r := &Registry{
		caps:   make([]Capability, 0, len(caps)),
		byName: make(map[string]Capability, len(caps)),
	}
	for _, capability := range caps {
		name := capability.Info().Name
		if name == "" {
			return nil, fmt.Errorf("capability with empty name")
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate collector name %q", name)
		}
		r.byName[name] = capability
		r.caps = append(r.caps, capability)
	}
	return r, nil
}

// Capabilities returns the registered capabilities in registration order.
func (r *Registry) Capabilities() []Capability {
	out := make([]Capability, len(r.caps))
	copy(out, r.caps)
	return out
}

// Lookup returns the capability registered under name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	capability, ok := r.byName[name]
	return capability, ok
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int { return len(r.caps) }
