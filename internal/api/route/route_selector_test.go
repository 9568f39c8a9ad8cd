package route

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-route-planner/internal/types"
)

func costPtr(v float64) *float64 { return &v }

func place(id string, cost *float64) types.Place {
	return types.Place{ID: id, Name: id, Category: types.PlaceCategoryCulture, AverageCost: cost}
}

func candidate(id string, cost *float64, km float64) Candidate {
	return Candidate{Place: place(id, cost), DistanceKm: km}
}

func ids(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Place.ID
	}
	return out
}

func TestCompareFor(t *testing.T) {
	cands := []Candidate{
		candidate("far-cheap", costPtr(1), 1.4),
		candidate("near-pricey", costPtr(30), 0.1),
		candidate("mid-free", nil, 0.5),
		candidate("near-mid", costPtr(10), 0.1),
	}

	t.Run("economic sorts by cost plus twice the distance", func(t *testing.T) {
		got := slices.Clone(cands)
		slices.SortStableFunc(got, compareFor(types.RouteTypeEconomic))
		// scores: 3.8, 30.2, 1.0, 10.2
		assert.Equal(t, []string{"mid-free", "far-cheap", "near-mid", "near-pricey"}, ids(got))
	})

	t.Run("balanced sorts by distance only and is stable", func(t *testing.T) {
		got := slices.Clone(cands)
		slices.SortStableFunc(got, compareFor(types.RouteTypeBalanced))
		assert.Equal(t, []string{"near-pricey", "near-mid", "mid-free", "far-cheap"}, ids(got))
	})

	t.Run("comfort sorts by cost descending then distance", func(t *testing.T) {
		tie := append(slices.Clone(cands), candidate("far-pricey", costPtr(30), 1.0))
		slices.SortStableFunc(tie, compareFor(types.RouteTypeComfort))
		assert.Equal(t, []string{"near-pricey", "far-pricey", "near-mid", "far-cheap", "mid-free"}, ids(tie))
	})
}

func TestSelectNext(t *testing.T) {
	newSelector := func(seed uint64) *Selector {
		return NewSelector(rand.New(rand.NewPCG(seed, 42)))
	}

	t.Run("empty candidates", func(t *testing.T) {
		_, ok := newSelector(1).SelectNext(nil, nil, types.RouteTypeBalanced, Budget{})
		assert.False(t, ok)
	})

	t.Run("single candidate is returned", func(t *testing.T) {
		got, ok := newSelector(1).SelectNext([]Candidate{candidate("only", nil, 1)}, nil, types.RouteTypeComfort, Budget{})
		require.True(t, ok)
		assert.Equal(t, "only", got.Place.ID)
	})

	t.Run("draws only from the top three", func(t *testing.T) {
		cands := []Candidate{
			candidate("d5", nil, 0.5), candidate("d1", nil, 0.1), candidate("d4", nil, 0.4),
			candidate("d2", nil, 0.2), candidate("d3", nil, 0.3),
		}
		picked := map[string]int{}
		for seed := uint64(0); seed < 200; seed++ {
			got, ok := newSelector(seed).SelectNext(cands, nil, types.RouteTypeBalanced, Budget{})
			require.True(t, ok)
			picked[got.Place.ID]++
		}
		assert.Zero(t, picked["d4"])
		assert.Zero(t, picked["d5"])
		assert.Positive(t, picked["d1"])
		assert.Positive(t, picked["d2"])
		assert.Positive(t, picked["d3"])
	})

	t.Run("never returns a visited place", func(t *testing.T) {
		cands := []Candidate{candidate("a", nil, 0.1), candidate("b", nil, 0.2), candidate("c", nil, 0.3), candidate("d", nil, 0.4)}
		visited := map[string]struct{}{"a": {}, "b": {}, "c": {}}
		for seed := uint64(0); seed < 50; seed++ {
			got, ok := newSelector(seed).SelectNext(cands, visited, types.RouteTypeEconomic, Budget{})
			require.True(t, ok)
			assert.Equal(t, "d", got.Place.ID)
		}

		visited["d"] = struct{}{}
		_, ok := newSelector(0).SelectNext(cands, visited, types.RouteTypeEconomic, Budget{})
		assert.False(t, ok)
	})

	t.Run("known costs above the remaining budget are skipped", func(t *testing.T) {
		cands := []Candidate{candidate("pricey", costPtr(50), 0.1), candidate("unknown", nil, 0.9)}
		budget := Budget{Remaining: 20, Bounded: true}
		for seed := uint64(0); seed < 20; seed++ {
			got, ok := newSelector(seed).SelectNext(cands, nil, types.RouteTypeComfort, budget)
			require.True(t, ok)
			assert.Equal(t, "unknown", got.Place.ID)
		}
	})

	t.Run("required places ignore the budget", func(t *testing.T) {
		req := candidate("must-see", costPtr(500), 3)
		req.Required = true
		got, ok := newSelector(3).SelectNext([]Candidate{req}, nil, types.RouteTypeEconomic, Budget{Remaining: 1, Bounded: true})
		require.True(t, ok)
		assert.Equal(t, "must-see", got.Place.ID)
	})
}

func TestBudget(t *testing.T) {
	unbounded := NewBudget(nil)
	assert.False(t, unbounded.Bounded)
	assert.False(t, unbounded.Exhausted())
	assert.True(t, unbounded.Affords(place("x", costPtr(1e9))))

	b := NewBudget(costPtr(100))
	assert.InDelta(t, 90.0, b.Remaining, 1e-9)
	b.Debit(place("a", costPtr(60)))
	b.Debit(place("free", nil))
	assert.InDelta(t, 30.0, b.Remaining, 1e-9)
	assert.False(t, b.Affords(place("b", costPtr(31))))
	assert.True(t, b.Affords(place("c", costPtr(30))))
	b.Debit(place("c", costPtr(30)))
	assert.True(t, b.Exhausted())
}
