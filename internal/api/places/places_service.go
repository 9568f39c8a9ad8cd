package places

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-route-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

// Service is the place catalog. Search never fails: every problem ends in an
// empty list so callers treat it as "no candidates".
type Service interface {
	Search(ctx context.Context, params types.PlaceSearchParams) []types.Place
	FindByID(ctx context.Context, id string) (types.Place, error)
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	repo     Repository
	provider Provider
	cache    *cache.Cache
	logger   *slog.Logger
}

func NewServiceImpl(repo Repository, provider Provider, cacheTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &ServiceImpl{
		repo:     repo,
		provider: provider,
		cache:    cache.New(cacheTTL, 2*cacheTTL),
		logger:   logger,
	}
}

func searchKey(p types.PlaceSearchParams) string {
	return fmt.Sprintf("%.4f_%.4f_%d_%s", p.Latitude, p.Longitude, p.RadiusMeters, p.Category)
}

// Search looks in the cache, then the database, then the external provider.
// Provider results are stored for later searches.
func (s *ServiceImpl) Search(ctx context.Context, params types.PlaceSearchParams) []types.Place {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("category", string(params.Category)),
		attribute.Int("radius", params.RadiusMeters),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Search"), slog.String("category", string(params.Category)))

	key := searchKey(params)
	if v, ok := s.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return v.([]types.Place)
	}

	stored, err := s.repo.FindNearbyByCategory(ctx, params)
	if err != nil {
		span.RecordError(err)
		l.WarnContext(ctx, "Place store lookup failed", slog.Any("error", err))
	}
	if len(stored) > 0 {
		l.DebugContext(ctx, "Places served from store", slog.Int("count", len(stored)))
		s.cache.Set(key, stored, cache.DefaultExpiration)
		span.SetStatus(codes.Ok, "store")
		return stored
	}

	if s.provider == nil {
		return []types.Place{}
	}
	fetched, err := s.provider.Search(ctx, params)
	if err != nil {
		span.RecordError(err)
		metrics.ProviderFallback(ctx, "overpass")
		l.WarnContext(ctx, "Place provider failed, no candidates for category", slog.Any("error", err))
		return []types.Place{}
	}
	if err := s.repo.Upsert(ctx, fetched); err != nil {
		l.WarnContext(ctx, "Failed to store fetched places", slog.Any("error", err))
	}
	if fetched == nil {
		fetched = []types.Place{}
	}
	s.cache.Set(key, fetched, cache.DefaultExpiration)
	l.InfoContext(ctx, "Places fetched from provider", slog.Int("count", len(fetched)))
	span.SetStatus(codes.Ok, "provider")
	return fetched
}

func (s *ServiceImpl) FindByID(ctx context.Context, id string) (types.Place, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "FindByID", trace.WithAttributes(
		attribute.String("place.id", id),
	))
	defer span.End()

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return types.Place{}, err
	}
	return p, nil
}
