package weather

import (
	"context"
	"errors"
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

const (
	providerName    = "openweathermap"
	currentCacheTTL = 10 * time.Minute
)

// Service answers weather questions for the planner and the HTTP layer.
type Service interface {
	// Current never fails; provider errors yield types.DefaultWeather().
	Current(ctx context.Context, p types.Point) types.WeatherSnapshot
	Forecast(ctx context.Context, p types.Point) ([]types.ForecastEntry, error)
	Check(ctx context.Context, p types.Point, s Sensitivity) types.WeatherCheckResponse
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	provider Provider
	cache    *cache.Cache
	logger   *slog.Logger
}

func NewServiceImpl(provider Provider, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		provider: provider,
		cache:    cache.New(currentCacheTTL, 2*currentCacheTTL),
		logger:   logger,
	}
}

// conditions change slowly, nearby requests share a reading
func cacheKey(p types.Point) string {
	return fmt.Sprintf("%.2f_%.2f", p.Latitude, p.Longitude)
}

func (s *ServiceImpl) Current(ctx context.Context, p types.Point) types.WeatherSnapshot {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Current", trace.WithAttributes(
		attribute.Float64("latitude", p.Latitude),
		attribute.Float64("longitude", p.Longitude),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Current"))

	key := cacheKey(p)
	if v, ok := s.cache.Get(key); ok {
		span.SetStatus(codes.Ok, "cache hit")
		return v.(types.WeatherSnapshot)
	}

	if s.provider != nil {
		w, err := s.provider.Current(ctx, p)
		if err == nil {
			s.cache.Set(key, w, cache.DefaultExpiration)
			span.SetStatus(codes.Ok, "weather retrieved")
			return w
		}
		span.RecordError(err)
		if errors.Is(err, types.ErrProviderUnavailable) {
			l.DebugContext(ctx, "Weather provider not configured, using default weather")
		} else {
			l.WarnContext(ctx, "Weather provider failed, using default weather", slog.Any("error", err))
		}
	}
	metrics.ProviderFallback(ctx, providerName)
	span.SetStatus(codes.Ok, "default weather")
	return types.DefaultWeather()
}

func (s *ServiceImpl) Forecast(ctx context.Context, p types.Point) ([]types.ForecastEntry, error) {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Forecast", trace.WithAttributes(
		attribute.Float64("latitude", p.Latitude),
		attribute.Float64("longitude", p.Longitude),
	))
	defer span.End()

	if s.provider == nil {
		return nil, types.ErrProviderUnavailable
	}
	entries, err := s.provider.Forecast(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forecast failed")
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	span.SetStatus(codes.Ok, "forecast retrieved")
	return entries, nil
}

func (s *ServiceImpl) Check(ctx context.Context, p types.Point, sens Sensitivity) types.WeatherCheckResponse {
	w := s.Current(ctx, p)
	suitable := IsSuitable(w, sens)
	s.logger.DebugContext(ctx, "Weather checked",
		slog.String("condition", w.Condition),
		slog.Float64("temperature", w.Temperature),
		slog.Bool("suitable", suitable))
	return types.WeatherCheckResponse{Suitable: suitable, Weather: w}
}
