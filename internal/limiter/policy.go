package limiter

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Limit is a concrete (request limit, window duration) pair.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Valid reports whether the limit can be enforced.
func (l Limit) Valid() bool {
	return l.Requests > 0 && l.Window > 0
}

// Resolver maps an identity's tier and a target route to a concrete Limit.
//
// Resolution rules:
//   - A route override, when registered for the target, replaces the tier
//     default entirely. Overrides and tier limits are never combined.
//   - An unknown or empty tier falls back to the most restrictive configured
//     tier. Never to "unlimited": an identity the resolver cannot place still
//     gets a bound.
//
// The tier and override tables are copied at construction and never mutated
// afterwards, so a Resolver is safe for concurrent use without locking.
// Changing limits requires constructing a new Resolver (config reload).
type Resolver struct {
	tiers     map[string]Limit
	overrides map[string]Limit
	lowest    Limit
}

// NewResolver builds a Resolver from a tier table and an optional route
// override table. At least one tier is required, and every limit must have a
// positive request count and window.
func NewResolver(tiers map[string]Limit, overrides map[string]Limit) (*Resolver, error) {
	if len(tiers) == 0 {
		return nil, errors.New("at least one tier is required")
	}

	r := &Resolver{
		tiers:     make(map[string]Limit, len(tiers)),
		overrides: make(map[string]Limit, len(overrides)),
	}

	names := make([]string, 0, len(tiers))
	for name, lim := range tiers {
		if !lim.Valid() {
			return nil, fmt.Errorf("tier %q: requests and window must be positive", name)
		}
		r.tiers[name] = lim
		names = append(names, name)
	}

	for route, lim := range overrides {
		if route == "" {
			return nil, errors.New("override route cannot be empty")
		}
		if !lim.Valid() {
			return nil, fmt.Errorf("override %q: requests and window must be positive", route)
		}
		r.overrides[route] = lim
	}

	// The fallback tier is the one allowing the fewest requests per unit
	// time. Sorted iteration keeps the pick deterministic on rate ties.
	sort.Strings(names)
	r.lowest = r.tiers[names[0]]
	for _, name := range names[1:] {
		if ratePerSecond(r.tiers[name]) < ratePerSecond(r.lowest) {
			r.lowest = r.tiers[name]
		}
	}

	return r, nil
}

// Resolve returns the limit to enforce for the given tier and target route.
func (r *Resolver) Resolve(tier, route string) Limit {
	if lim, ok := r.overrides[route]; ok {
		return lim
	}
	if lim, ok := r.tiers[tier]; ok {
		return lim
	}
	return r.lowest
}

// Tiers returns a copy of the tier table, for introspection endpoints.
func (r *Resolver) Tiers() map[string]Limit {
	out := make(map[string]Limit, len(r.tiers))
	for k, v := range r.tiers {
		out[k] = v
	}
	return out
}

// Overrides returns a copy of the route override table.
func (r *Resolver) Overrides() map[string]Limit {
	out := make(map[string]Limit, len(r.overrides))
	for k, v := range r.overrides {
		out[k] = v
	}
	return out
}

func ratePerSecond(l Limit) float64 {
	return float64(l.Requests) / l.Window.Seconds()
}
