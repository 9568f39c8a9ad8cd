package route

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/FACorreiaa/go-route-planner/internal/types"
)

// topK is how many of the best-scored candidates the selector draws from.
const topK = 3

// Candidate is a place reachable from the current step.
type Candidate struct {
	Place      types.Place
	DistanceKm float64 // from the current place
	Required   bool    // required places ignore radius and budget filters
}

// Budget tracks what is left to spend on a route.
type Budget struct {
	Remaining float64
	Bounded   bool
}

// NewBudget starts at 90% of maxBudget, or unbounded when maxBudget is nil.
func NewBudget(maxBudget *float64) Budget {
	if maxBudget == nil {
		return Budget{}
	}
	return Budget{Remaining: usableBudgetShare * *maxBudget, Bounded: true}
}

// Affords reports whether p fits. Places without a known cost always fit.
func (b Budget) Affords(p types.Place) bool {
	return !b.Bounded || !p.HasKnownCost() || p.Cost() <= b.Remaining
}

// Exhausted reports whether a bounded budget has nothing left.
func (b Budget) Exhausted() bool {
	return b.Bounded && b.Remaining <= 0
}

// Debit charges the place cost, treating an unknown cost as free.
func (b *Budget) Debit(p types.Place) {
	if b.Bounded {
		b.Remaining -= p.Cost()
	}
}

// Selector picks the next place of a route. It is not safe for concurrent use
// because it owns its random source.
type Selector struct {
	rng *rand.Rand
}

func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// SelectNext scores the candidates for routeType and draws uniformly among the
// best min(3, n). Visited and unaffordable candidates are dropped first, so a
// visited place is never returned. ok is false when nothing is eligible.
func (s *Selector) SelectNext(candidates []Candidate, visited map[string]struct{}, routeType types.RouteType, budget Budget) (Candidate, bool) {
	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, seen := visited[c.Place.ID]; seen {
			continue
		}
		if !c.Required && !budget.Affords(c.Place) {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return Candidate{}, false
	}

	slices.SortStableFunc(eligible, compareFor(routeType))
	return eligible[s.rng.IntN(min(topK, len(eligible)))], true
}

func compareFor(routeType types.RouteType) func(a, b Candidate) int {
	switch routeType {
	case types.RouteTypeEconomic:
		return func(a, b Candidate) int {
			return cmp.Compare(a.Place.Cost()+2*a.DistanceKm, b.Place.Cost()+2*b.DistanceKm)
		}
	case types.RouteTypeComfort:
		return func(a, b Candidate) int {
			if c := cmp.Compare(b.Place.Cost(), a.Place.Cost()); c != 0 {
				return c
			}
			return cmp.Compare(a.DistanceKm, b.DistanceKm)
		}
	default:
		return func(a, b Candidate) int {
			return cmp.Compare(a.DistanceKm, b.DistanceKm)
		}
	}
}
