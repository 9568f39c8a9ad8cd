package route

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-route-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service is the route API: generation plus the saved-route library of a user.
type Service interface {
	GenerateRoutes(ctx context.Context, req types.RouteRequest) []types.GeneratedRoute
	SaveRoute(ctx context.Context, userID uuid.UUID, req types.SaveRouteRequest) (types.SavedRoute, error)
	SavedRoutes(ctx context.Context, userID uuid.UUID) ([]types.SavedRoute, error)
	GetRoute(ctx context.Context, userID uuid.UUID, id string) (types.SavedRoute, error)
	ToggleFavorite(ctx context.Context, userID uuid.UUID, id string) (bool, error)
	DeleteRoute(ctx context.Context, userID uuid.UUID, id string) error
}

type ServiceImpl struct {
	generator Generator
	repo      Repository
	logger    *slog.Logger
}

func NewServiceImpl(generator Generator, repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{generator: generator, repo: repo, logger: logger}
}

func (s *ServiceImpl) GenerateRoutes(ctx context.Context, req types.RouteRequest) []types.GeneratedRoute {
	return s.generator.Generate(ctx, req)
}

// SaveRoute stores a generated route. A missing or non-UUID route ID is
// replaced, so the route is stored as new.
func (s *ServiceImpl) SaveRoute(ctx context.Context, userID uuid.UUID, req types.SaveRouteRequest) (types.SavedRoute, error) {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "SaveRoute", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "SaveRoute"))

	route := req.GeneratedRoute
	if _, err := uuid.Parse(route.ID); err != nil {
		route.ID = uuid.NewString()
	}
	route.TransportationMode = types.ParseTransportationMode(string(route.TransportationMode))
	if route.Steps == nil {
		route.Steps = []types.Step{}
	}

	saved, err := s.repo.Save(ctx, userID, route, req.IsFavorite)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return types.SavedRoute{}, err
	}
	l.InfoContext(ctx, "Route saved",
		slog.String("route.id", saved.ID),
		slog.Int("steps", len(saved.Steps)))
	span.SetStatus(codes.Ok, "route saved")
	return saved, nil
}

func (s *ServiceImpl) SavedRoutes(ctx context.Context, userID uuid.UUID) ([]types.SavedRoute, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *ServiceImpl) GetRoute(ctx context.Context, userID uuid.UUID, id string) (types.SavedRoute, error) {
	routeID, err := parseRouteID(id)
	if err != nil {
		return types.SavedRoute{}, err
	}
	return s.repo.FindByID(ctx, userID, routeID)
}

func (s *ServiceImpl) ToggleFavorite(ctx context.Context, userID uuid.UUID, id string) (bool, error) {
	routeID, err := parseRouteID(id)
	if err != nil {
		return false, err
	}
	return s.repo.ToggleFavorite(ctx, userID, routeID)
}

func (s *ServiceImpl) DeleteRoute(ctx context.Context, userID uuid.UUID, id string) error {
	routeID, err := parseRouteID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, routeID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Route deleted", slog.String("route.id", id))
	return nil
}

// parseRouteID maps malformed IDs to ErrNotFound since no stored route can match.
func parseRouteID(id string) (uuid.UUID, error) {
	routeID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("route %q: %w", id, types.ErrNotFound)
	}
	return routeID, nil
}
