package route

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-route-planner/internal/api/geo"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

// fixedDistancer reports the same distance between any two distinct points.
type fixedDistancer struct {
	km        float64
	durations bool
}

func (f fixedDistancer) Distance(_ context.Context, a, b types.Point) float64 {
	if a == b {
		return 0
	}
	return f.km
}

func (f fixedDistancer) Matrix(_ context.Context, points []types.Point) geo.Matrix {
	n := len(points)
	m := geo.Matrix{Distances: make([][]float64, n)}
	if f.durations {
		m.Durations = make([][]float64, n)
	}
	for i := range points {
		m.Distances[i] = make([]float64, n)
		if f.durations {
			m.Durations[i] = make([]float64, n)
		}
		for j := range points {
			if i != j {
				m.Distances[i][j] = f.km
				if f.durations {
					m.Durations[i][j] = 725 // 12m05s
				}
			}
		}
	}
	return m
}

var origin = types.Point{Latitude: 38.7223, Longitude: -9.1393}

// cluster returns n places a few hundred metres around the origin.
func cluster(n int, cost *float64) []types.Place {
	out := make([]types.Place, n)
	for i := range out {
		out[i] = types.Place{
			ID:          string(rune('a' + i)),
			Name:        "Place " + string(rune('A'+i)),
			Category:    types.PlaceCategoryCulture,
			Latitude:    origin.Latitude + 0.001*float64(i+1),
			Longitude:   origin.Longitude + 0.001*float64(i%2),
			AverageCost: cost,
		}
	}
	return out
}

func request(places int, budget *float64) types.RouteRequest {
	return types.RouteRequest{
		Latitude:       origin.Latitude,
		Longitude:      origin.Longitude,
		Activities:     []types.PlaceCategory{types.PlaceCategoryCulture},
		MaxBudget:      budget,
		NumberOfPlaces: places,
	}.Normalize()
}

func newTestAssembler(d geo.Distancer) *Assembler {
	return NewAssembler(d, slog.New(slog.DiscardHandler))
}

func rng(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 7))
}

func TestTargetPlaceCount(t *testing.T) {
	tests := []struct {
		name      string
		places    int
		budget    *float64
		rt        types.RouteType
		available int
		want      int
	}{
		{"economic scales down", 5, nil, types.RouteTypeEconomic, 20, 4},
		{"balanced keeps request", 5, nil, types.RouteTypeBalanced, 20, 5},
		{"comfort scales up", 5, nil, types.RouteTypeComfort, 20, 6},
		{"economic rounds 2.4 down", 3, nil, types.RouteTypeEconomic, 20, 2},
		{"comfort rounds 3.6 up", 3, nil, types.RouteTypeComfort, 20, 4},
		{"budget caps at 90 percent over 25", 5, costPtr(100), types.RouteTypeBalanced, 20, 3},
		{"budget of 50 allows one place", 3, costPtr(50), types.RouteTypeBalanced, 20, 1},
		{"zero budget still targets one", 5, costPtr(0), types.RouteTypeComfort, 20, 1},
		{"availability caps", 5, nil, types.RouteTypeEconomic, 2, 2},
		{"single place requested as economic", 1, nil, types.RouteTypeEconomic, 20, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetPlaceCount(request(tt.places, tt.budget), tt.rt, tt.available))
		})
	}
}

func TestAssembleEmptyPool(t *testing.T) {
	a := newTestAssembler(fixedDistancer{km: 1})
	r := a.Assemble(context.Background(), CandidatePool{}, request(5, costPtr(100)), types.RouteTypeBalanced, rng(1))

	require.NotNil(t, r.Steps)
	assert.Empty(t, r.Steps)
	assert.Zero(t, r.TotalBudget)
	assert.Zero(t, r.TotalDuration)
	assert.Equal(t, types.TransportMixed, r.TransportationMode)
	assert.NotEmpty(t, r.ID)
}

func TestAssembleStepsInvariants(t *testing.T) {
	a := newTestAssembler(geo.NewService(nil, 0, slog.New(slog.DiscardHandler)))
	pool := CandidatePool{Places: cluster(8, costPtr(4))}

	for seed := uint64(0); seed < 25; seed++ {
		for _, rt := range types.RouteTypes {
			r := a.Assemble(context.Background(), pool, request(7, nil), rt, rng(seed))
			require.NotEmpty(t, r.Steps)

			sum := 0.0
			seen := map[string]bool{}
			for i, s := range r.Steps {
				assert.Equal(t, i+1, s.Order, "orders are contiguous from 1")
				assert.Equal(t, types.TimeSlotForIndex(i), s.TimeSlot)
				assert.False(t, seen[s.Place.ID], "place visited twice")
				seen[s.Place.ID] = true
				if i == 0 {
					assert.Nil(t, s.DistanceFromPrevious)
				} else {
					require.NotNil(t, s.DistanceFromPrevious)
					assert.LessOrEqual(t, *s.DistanceFromPrevious, SearchRadiusKm)
				}
				sum += s.Cost
			}
			assert.Equal(t, sum, r.TotalBudget)
		}
	}
}

func TestAssembleSeedsNearestToOrigin(t *testing.T) {
	a := newTestAssembler(fixedDistancer{km: 1})
	places := cluster(4, nil)
	// move "c" onto the origin
	places[2].Latitude, places[2].Longitude = origin.Latitude, origin.Longitude

	r := a.Assemble(context.Background(), CandidatePool{Places: places}, request(3, nil), types.RouteTypeComfort, rng(9))
	require.NotEmpty(t, r.Steps)
	assert.Equal(t, "c", r.Steps[0].Place.ID)
}

func TestAssembleCapsAtAvailableCandidates(t *testing.T) {
	a := newTestAssembler(fixedDistancer{km: 1})
	pool := CandidatePool{Places: cluster(2, costPtr(10))}

	r := a.Assemble(context.Background(), pool, request(5, nil), types.RouteTypeEconomic, rng(3))
	assert.Len(t, r.Steps, 2)
}

func TestAssembleDuplicatePlacesVisitedOnce(t *testing.T) {
	a := newTestAssembler(fixedDistancer{km: 1})
	places := cluster(2, nil)
	pool := CandidatePool{Places: append(places, places...)}

	r := a.Assemble(context.Background(), pool, request(4, nil), types.RouteTypeBalanced, rng(5))
	assert.Len(t, r.Steps, 2)
}

func TestAssembleStopsOutsideSearchRadius(t *testing.T) {
	a := newTestAssembler(fixedDistancer{km: 2})
	r := a.Assemble(context.Background(), CandidatePool{Places: cluster(5, nil)}, request(5, nil), types.RouteTypeBalanced, rng(1))
	assert.Len(t, r.Steps, 1)
	assert.Equal(t, baseVisitMinutes, r.TotalDuration)
}

func TestAssembleStopsWhenBudgetIsSpent(t *testing.T) {
	a := newTestAssembler(fixedDistancer{km: 1})
	// 0.9 × 100 = 90 usable, target 3, every place costs 45
	pool := CandidatePool{Places: cluster(5, costPtr(45))}

	r := a.Assemble(context.Background(), pool, request(3, costPtr(100)), types.RouteTypeBalanced, rng(1))
	assert.Len(t, r.Steps, 2)
}

func TestAssembleCostsAndDurations(t *testing.T) {
	wait := 20
	places := cluster(3, costPtr(10))
	places[1].EstimatedWaitTime = &wait

	t.Run("fallback legs are 12 minutes per km", func(t *testing.T) {
		a := newTestAssembler(fixedDistancer{km: 1})
		r := a.Assemble(context.Background(), CandidatePool{Places: places}, request(3, nil), types.RouteTypeBalanced, rng(2))
		require.Len(t, r.Steps, 3)

		for i, s := range r.Steps {
			// 1 km under MIXED is free
			assert.Equal(t, 15.0, s.Cost, "step %d", i)
		}
		assert.Equal(t, 45.0, r.TotalBudget)
		assert.Equal(t, 3*60+wait+2*12, r.TotalDuration)
	})

	t.Run("provider durations are used when present", func(t *testing.T) {
		a := newTestAssembler(fixedDistancer{km: 1, durations: true})
		r := a.Assemble(context.Background(), CandidatePool{Places: places}, request(3, nil), types.RouteTypeBalanced, rng(2))
		require.Len(t, r.Steps, 3)
		assert.Equal(t, 3*60+wait+2*12, r.TotalDuration)
	})

	t.Run("car pays per segment", func(t *testing.T) {
		a := newTestAssembler(fixedDistancer{km: 1})
		req := request(3, nil)
		req.TransportationMode = types.TransportCar
		r := a.Assemble(context.Background(), CandidatePool{Places: places}, req, types.RouteTypeBalanced, rng(2))
		require.Len(t, r.Steps, 3)
		assert.Equal(t, 15.0, r.Steps[0].Cost)
		assert.InDelta(t, 10+3.1+5, r.Steps[1].Cost, 1e-9)
	})
}

func TestAssembleRequiredPlaceBypassesRadius(t *testing.T) {
	a := newTestAssembler(geo.NewService(nil, 0, slog.New(slog.DiscardHandler)))
	far := types.Place{ID: "far", Name: "Far", Category: types.PlaceCategoryCulture,
		Latitude: origin.Latitude + 0.05, Longitude: origin.Longitude}
	pool := CandidatePool{
		Places:   append(cluster(1, nil), far),
		Required: map[string]struct{}{"far": {}},
	}

	r := a.Assemble(context.Background(), pool, request(2, nil), types.RouteTypeBalanced, rng(1))
	require.Len(t, r.Steps, 2)
	assert.Equal(t, "far", r.Steps[1].Place.ID)
	assert.Greater(t, *r.Steps[1].DistanceFromPrevious, SearchRadiusKm)
}
