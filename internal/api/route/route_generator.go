package route

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-route-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-route-planner/internal/api/geo"
	"github.com/FACorreiaa/go-route-planner/internal/api/weather"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

// FetchRadiusMeters is the search radius of the per-category catalog fetch.
const FetchRadiusMeters = 2000

// PlaceCatalog supplies candidate places. Search returns an empty list on failure.
type PlaceCatalog interface {
	Search(ctx context.Context, params types.PlaceSearchParams) []types.Place
	FindByID(ctx context.Context, id string) (types.Place, error)
}

// WeatherSource returns current conditions, or a neutral default.
type WeatherSource interface {
	Current(ctx context.Context, p types.Point) types.WeatherSnapshot
}

// Generator produces the route variants for a request.
type Generator interface {
	Generate(ctx context.Context, req types.RouteRequest) []types.GeneratedRoute
}

var _ Generator = (*GeneratorImpl)(nil)

type GeneratorImpl struct {
	catalog   PlaceCatalog
	weather   WeatherSource
	assembler *Assembler
	seed      func() uint64
	logger    *slog.Logger
}

func NewGeneratorImpl(catalog PlaceCatalog, weatherSource WeatherSource, distancer geo.Distancer, logger *slog.Logger) *GeneratorImpl {
	return &GeneratorImpl{
		catalog:   catalog,
		weather:   weatherSource,
		assembler: NewAssembler(distancer, logger),
		seed:      rand.Uint64,
		logger:    logger,
	}
}

// WithSeed fixes the request seed, making selection reproducible.
func (g *GeneratorImpl) WithSeed(seed uint64) *GeneratorImpl {
	g.seed = func() uint64 { return seed }
	return g
}

// IsValid rejects routes with no steps and routes over 110% of a set budget.
func IsValid(route types.GeneratedRoute, req types.RouteRequest) bool {
	if req.HasBudget() {
		limit := 1.1 * *req.MaxBudget
		if route.TotalBudget > limit {
			return false
		}
	}
	return len(route.Steps) > 0
}

// Generate returns the valid variants in ECONOMIC, BALANCED, COMFORT order. If
// all are rejected a relaxed BALANCED route is returned instead. An empty
// result means no place could be found.
func (g *GeneratorImpl) Generate(ctx context.Context, req types.RouteRequest) []types.GeneratedRoute {
	ctx, span := otel.Tracer("RouteGenerator").Start(ctx, "Generate", trace.WithAttributes(
		attribute.Float64("latitude", req.Latitude),
		attribute.Float64("longitude", req.Longitude),
		attribute.Int("activities", len(req.Activities)),
	))
	defer span.End()
	l := g.logger.With(slog.String("method", "Generate"))

	start := time.Now()
	m := metrics.Get()
	m.RouteGenerationRequestsTotal.Add(ctx, 1)
	defer func() {
		m.RouteGenerationDuration.Record(ctx, time.Since(start).Seconds())
	}()

	req = req.Normalize()
	pool := g.buildPool(ctx, req)
	if len(pool.Places) == 0 {
		l.InfoContext(ctx, "No candidate places, returning no routes")
		span.SetStatus(codes.Ok, "no candidates")
		return []types.GeneratedRoute{}
	}

	base := g.seed()
	variants := make([]types.GeneratedRoute, len(types.RouteTypes))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, rt := range types.RouteTypes {
		rng := rand.New(rand.NewPCG(base, uint64(i)+1))
		eg.Go(func() error {
			variants[i] = g.assembler.Assemble(egCtx, pool, req, rt, rng)
			return nil
		})
	}
	_ = eg.Wait()

	valid := make([]types.GeneratedRoute, 0, len(variants))
	for _, r := range variants {
		if IsValid(r, req) {
			l.InfoContext(ctx, "Route accepted",
				slog.String("route_type", string(r.RouteType)),
				slog.Int("steps", len(r.Steps)),
				slog.Float64("total_budget", r.TotalBudget))
			valid = append(valid, r)
			continue
		}
		metrics.RouteRejected(ctx, string(r.RouteType))
		l.InfoContext(ctx, "Route rejected",
			slog.String("route_type", string(r.RouteType)),
			slog.Int("steps", len(r.Steps)),
			slog.Float64("total_budget", r.TotalBudget))
	}

	if len(valid) == 0 {
		fallback := g.assembler.Assemble(ctx, pool, req, types.RouteTypeBalanced, rand.New(rand.NewPCG(base, uint64(len(types.RouteTypes))+1)))
		if len(fallback.Steps) > 0 {
			m.RouteFallbackTotal.Add(ctx, 1)
			l.WarnContext(ctx, "All variants rejected, returning relaxed balanced route",
				slog.Int("steps", len(fallback.Steps)),
				slog.Float64("total_budget", fallback.TotalBudget))
			valid = append(valid, fallback)
		}
	}

	span.SetAttributes(attribute.Int("routes", len(valid)))
	span.SetStatus(codes.Ok, "routes generated")
	return valid
}

// buildPool fetches every requested category, applies the weather gate and
// appends the required places. The result is not modified afterwards.
func (g *GeneratorImpl) buildPool(ctx context.Context, req types.RouteRequest) CandidatePool {
	l := g.logger.With(slog.String("method", "buildPool"))

	perCategory := make([][]types.Place, len(req.Activities))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, cat := range req.Activities {
		eg.Go(func() error {
			perCategory[i] = g.catalog.Search(egCtx, types.PlaceSearchParams{
				Latitude:     req.Latitude,
				Longitude:    req.Longitude,
				RadiusMeters: FetchRadiusMeters,
				Category:     cat,
			})
			return nil
		})
	}
	_ = eg.Wait()

	places := make([]types.Place, 0)
	for i, found := range perCategory {
		l.DebugContext(ctx, "Candidates fetched",
			slog.String("category", string(req.Activities[i])),
			slog.Int("count", len(found)))
		places = append(places, found...)
	}

	w := g.weather.Current(ctx, req.Origin())
	if !weather.IsSuitable(w, weather.SensitivityOf(req)) {
		before := len(places)
		places = weather.NeutralOnly(places)
		l.InfoContext(ctx, "Weather unsuitable, keeping weather-neutral places only",
			slog.String("condition", w.Condition),
			slog.Float64("temperature", w.Temperature),
			slog.Int("before", before),
			slog.Int("after", len(places)))
	}

	pool := CandidatePool{Places: places, Required: make(map[string]struct{})}
	for _, id := range req.RequiredPlaceIDs {
		p, err := g.catalog.FindByID(ctx, id)
		if err != nil {
			l.WarnContext(ctx, "Required place not found", slog.String("place_id", id), slog.Any("error", err))
			continue
		}
		pool.Places = append(pool.Places, p)
		pool.Required[p.ID] = struct{}{}
	}
	return pool
}
