package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-route-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const (
	// EarthRadiusKm is the mean Earth radius used by Haversine.
	EarthRadiusKm = 6371.0
	// DefaultProfile is the routing profile used for place-to-place distances.
	DefaultProfile = "foot-walking"

	providerName = "openrouteservice"
)

// Matrix holds pairwise leg data for an ordered list of points. Distances are
// kilometres. Durations are seconds and nil when only the fallback answered.
type Matrix struct {
	Distances [][]float64
	Durations [][]float64
}

// RoutingProvider is the external routing API.
type RoutingProvider interface {
	Distance(ctx context.Context, from, to types.Point, profile string) (float64, error)
	Matrix(ctx context.Context, points []types.Point, profile string) (Matrix, error)
}

// Distancer never fails: provider errors degrade to great-circle values.
type Distancer interface {
	Distance(ctx context.Context, from, to types.Point) float64
	Matrix(ctx context.Context, points []types.Point) Matrix
}

var _ Distancer = (*Service)(nil)

// Service tries the routing provider first and falls back to Haversine.
type Service struct {
	primary RoutingProvider
	cache   *cache.Cache
	profile string
	logger  *slog.Logger
}

// NewService builds a distance service. primary may be nil, in which case
// every answer comes from Haversine.
func NewService(primary RoutingProvider, cacheTTL time.Duration, logger *slog.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Service{
		primary: primary,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		profile: DefaultProfile,
		logger:  logger,
	}
}

// Haversine returns the great-circle distance in kilometres.
func Haversine(a, b types.Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// HaversineMatrix computes the pairwise fallback matrix with a zero diagonal.
func HaversineMatrix(points []types.Point) [][]float64 {
	out := make([][]float64, len(points))
	for i := range points {
		out[i] = make([]float64, len(points))
		for j := range points {
			if i != j {
				out[i][j] = Haversine(points[i], points[j])
			}
		}
	}
	return out
}

func (s *Service) cacheKey(from, to types.Point) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f|%s", from.Latitude, from.Longitude, to.Latitude, to.Longitude, s.profile)
}

// Distance returns the travel distance in kilometres between two points.
func (s *Service) Distance(ctx context.Context, from, to types.Point) float64 {
	if from == to {
		return 0
	}
	if s.primary == nil {
		return Haversine(from, to)
	}

	key := s.cacheKey(from, to)
	if v, ok := s.cache.Get(key); ok {
		return v.(float64)
	}

	d, err := s.primary.Distance(ctx, from, to, s.profile)
	if err != nil || d < 0 || math.IsNaN(d) {
		s.fallback(ctx, "Distance", err)
		return Haversine(from, to)
	}
	s.cache.Set(key, d, cache.DefaultExpiration)
	return d
}

// Matrix returns distances and, when the provider answered, durations.
func (s *Service) Matrix(ctx context.Context, points []types.Point) Matrix {
	ctx, span := otel.Tracer("GeoService").Start(ctx, "Matrix", trace.WithAttributes(
		attribute.Int("points", len(points)),
	))
	defer span.End()

	if len(points) == 0 {
		return Matrix{Distances: [][]float64{}}
	}
	if s.primary != nil && len(points) > 1 {
		m, err := s.primary.Matrix(ctx, points, s.profile)
		if err == nil && validMatrix(m, len(points)) {
			span.SetStatus(codes.Ok, "provider matrix")
			return m
		}
		if err == nil {
			err = errors.New("provider returned a malformed matrix")
		}
		span.RecordError(err)
		s.fallback(ctx, "Matrix", err)
	}
	span.SetStatus(codes.Ok, "haversine matrix")
	return Matrix{Distances: HaversineMatrix(points)}
}

func (s *Service) fallback(ctx context.Context, method string, err error) {
	metrics.ProviderFallback(ctx, providerName)
	l := s.logger.With(slog.String("method", method))
	if err == nil || errors.Is(err, types.ErrProviderUnavailable) {
		l.DebugContext(ctx, "Routing provider unavailable, using haversine")
		return
	}
	l.WarnContext(ctx, "Routing provider failed, using haversine", slog.Any("error", err))
}

func validMatrix(m Matrix, n int) bool {
	if len(m.Distances) != n {
		return false
	}
	for i := range m.Distances {
		if len(m.Distances[i]) != n {
			return false
		}
	}
	if m.Durations == nil {
		return true
	}
	if len(m.Durations) != n {
		return false
	}
	for i := range m.Durations {
		if len(m.Durations[i]) != n {
			return false
		}
	}
	return true
}
