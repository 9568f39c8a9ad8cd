package route

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-route-planner/internal/api/geo"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const (
	// SearchRadiusKm bounds the hop from one step to the next.
	SearchRadiusKm = 1.5

	usableBudgetShare    = 0.9
	averagePlaceCost     = 25.0
	incidentalStepCost   = 5.0
	baseVisitMinutes     = 60
	fallbackMinutesPerKm = 12.0
)

// CandidatePool is the frozen input of one assembly run.
type CandidatePool struct {
	Places   []types.Place
	Required map[string]struct{}
}

func (p CandidatePool) isRequired(id string) bool {
	_, ok := p.Required[id]
	return ok
}

// TargetPlaceCount is round(requested × multiplier), capped by what the budget
// can pay at the average place cost and by availability, and never below 1.
func TargetPlaceCount(req types.RouteRequest, routeType types.RouteType, available int) int {
	target := int(math.Round(float64(req.NumberOfPlaces) * routeType.PlaceMultiplier()))
	if req.HasBudget() {
		byBudget := int(math.Floor(usableBudgetShare * *req.MaxBudget / averagePlaceCost))
		target = min(target, byBudget)
	}
	target = min(target, available)
	return max(target, 1)
}

// Assembler builds one route variant from a candidate pool.
type Assembler struct {
	distancer geo.Distancer
	logger    *slog.Logger
}

func NewAssembler(distancer geo.Distancer, logger *slog.Logger) *Assembler {
	return &Assembler{distancer: distancer, logger: logger}
}

type selection struct {
	place      types.Place
	distanceKm *float64
}

// Assemble walks the pool greedily from the place nearest to the origin. The
// request must be normalized. rng must not be shared with a concurrent run.
func (a *Assembler) Assemble(ctx context.Context, pool CandidatePool, req types.RouteRequest, routeType types.RouteType, rng *rand.Rand) types.GeneratedRoute {
	route := types.GeneratedRoute{
		ID:                 uuid.NewString(),
		Name:               routeType.DisplayName(),
		RouteType:          routeType,
		TransportationMode: req.TransportationMode,
		Steps:              []types.Step{},
	}
	if len(pool.Places) == 0 {
		return route
	}

	target := TargetPlaceCount(req, routeType, len(pool.Places))
	seed := nearestToOrigin(pool.Places, req.Origin())

	selected := []selection{{place: seed}}
	visited := map[string]struct{}{seed.ID: {}}
	budget := NewBudget(req.MaxBudget)
	budget.Debit(seed)
	selector := NewSelector(rng)
	current := seed

	for len(selected) < target {
		if budget.Exhausted() {
			break
		}
		candidates := a.candidatesFrom(ctx, current, pool, visited, budget)
		next, ok := selector.SelectNext(candidates, visited, routeType, budget)
		if !ok {
			break
		}
		d := next.DistanceKm
		selected = append(selected, selection{place: next.Place, distanceKm: &d})
		visited[next.Place.ID] = struct{}{}
		budget.Debit(next.Place)
		current = next.Place
	}

	route.Steps = buildSteps(selected, req.TransportationMode)
	for _, s := range route.Steps {
		route.TotalBudget += s.Cost
	}
	route.TotalDuration = a.totalDuration(ctx, route.Steps)

	a.logger.DebugContext(ctx, "Route assembled",
		slog.String("route_type", string(routeType)),
		slog.Int("target", target),
		slog.Int("steps", len(route.Steps)),
		slog.Float64("total_budget", route.TotalBudget))
	return route
}

// nearestToOrigin uses squared distance in degrees. It only seeds the walk.
func nearestToOrigin(places []types.Place, origin types.Point) types.Place {
	best := places[0]
	bestD := math.Inf(1)
	for _, p := range places {
		dLat := p.Latitude - origin.Latitude
		dLng := p.Longitude - origin.Longitude
		if d := dLat*dLat + dLng*dLng; d < bestD {
			best, bestD = p, d
		}
	}
	return best
}

// candidatesFrom lists the unvisited, affordable places within the search
// radius of current. Required places skip the radius and budget checks.
func (a *Assembler) candidatesFrom(ctx context.Context, current types.Place, pool CandidatePool, visited map[string]struct{}, budget Budget) []Candidate {
	out := make([]Candidate, 0)
	seen := make(map[string]struct{})
	for _, p := range pool.Places {
		if _, ok := visited[p.ID]; ok {
			continue
		}
		// duplicates from overlapping category fetches are scored once
		if _, ok := seen[p.ID]; ok {
			continue
		}
		required := pool.isRequired(p.ID)
		if !required {
			if !budget.Affords(p) {
				continue
			}
			// road distance is never shorter than the great circle
			if geo.Haversine(current.Point(), p.Point()) > SearchRadiusKm {
				continue
			}
		}
		d := a.distancer.Distance(ctx, current.Point(), p.Point())
		if !required && d > SearchRadiusKm {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, Candidate{Place: p, DistanceKm: d, Required: required})
	}
	return out
}

func buildSteps(selected []selection, mode types.TransportationMode) []types.Step {
	steps := make([]types.Step, 0, len(selected))
	for i, sel := range selected {
		transport := 0.0
		if sel.distanceKm != nil {
			transport = SegmentCost(*sel.distanceKm, mode)
		}
		steps = append(steps, types.Step{
			ID:                   uuid.NewString(),
			Order:                i + 1,
			Place:                sel.place,
			TimeSlot:             types.TimeSlotForIndex(i),
			EstimatedDuration:    baseVisitMinutes + sel.place.WaitMinutes(),
			DistanceFromPrevious: sel.distanceKm,
			Cost:                 sel.place.Cost() + transport + incidentalStepCost,
		})
	}
	return steps
}

// totalDuration adds visit time and travel legs. Legs use provider durations
// when available and 12 minutes per km otherwise.
func (a *Assembler) totalDuration(ctx context.Context, steps []types.Step) int {
	total := 0
	for _, s := range steps {
		total += s.EstimatedDuration
	}
	if len(steps) < 2 {
		return total
	}

	points := make([]types.Point, len(steps))
	for i, s := range steps {
		points[i] = s.Place.Point()
	}
	m := a.distancer.Matrix(ctx, points)
	for i := 0; i < len(steps)-1; i++ {
		total += LegMinutes(m, i, i+1)
	}
	return total
}

// LegMinutes is the travel time between two matrix entries.
func LegMinutes(m geo.Matrix, from, to int) int {
	if m.Durations != nil {
		return int(m.Durations[from][to] / 60)
	}
	return int(math.Round(m.Distances[from][to] * fallbackMinutesPerKm))
}
