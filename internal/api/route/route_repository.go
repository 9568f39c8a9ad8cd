package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-route-planner/app/db"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists routes saved by users. Every lookup is scoped to the owner.
type Repository interface {
	Save(ctx context.Context, userID uuid.UUID, route types.GeneratedRoute, isFavorite *bool) (types.SavedRoute, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]types.SavedRoute, error)
	FindByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (types.SavedRoute, error)
	ToggleFavorite(ctx context.Context, userID uuid.UUID, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

type RepositoryImpl struct {
	pgpool database.Querier
	logger *slog.Logger
}

func NewRepositoryImpl(pgpool database.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{pgpool: pgpool, logger: logger}
}

const routeColumns = `id, user_id, name, route_type, total_budget, total_duration,
	transportation_mode, COALESCE(city, ''), steps, is_favorite, created_at, updated_at`

func scanRoute(row pgx.Row) (types.SavedRoute, error) {
	var r types.SavedRoute
	var id uuid.UUID
	var routeType, mode string
	var steps []byte
	err := row.Scan(&id, &r.UserID, &r.Name, &routeType, &r.TotalBudget, &r.TotalDuration,
		&mode, &r.City, &steps, &r.IsFavorite, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return types.SavedRoute{}, err
	}
	r.ID = id.String()
	r.RouteType = types.RouteType(routeType)
	// unknown stored modes read back as MIXED
	r.TransportationMode = types.ParseTransportationMode(mode)
	r.Steps = []types.Step{}
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &r.Steps); err != nil {
			return types.SavedRoute{}, fmt.Errorf("failed to decode steps: %w", err)
		}
	}
	return r, nil
}

// Save inserts the route or updates it in place when the caller already owns
// it. isFavorite nil keeps the stored flag. A route ID owned by someone else
// reports ErrNotFound.
func (r *RepositoryImpl) Save(ctx context.Context, userID uuid.UUID, route types.GeneratedRoute, isFavorite *bool) (types.SavedRoute, error) {
	ctx, span := otel.Tracer("RouteRepository").Start(ctx, "Save", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("route.id", route.ID),
	))
	defer span.End()

	steps := route.Steps
	if steps == nil {
		steps = []types.Step{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		span.RecordError(err)
		return types.SavedRoute{}, fmt.Errorf("failed to encode steps: %w", err)
	}

	query := `INSERT INTO routes (id, user_id, name, route_type, total_budget, total_duration,
			transportation_mode, city, steps, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, COALESCE($10, false))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			route_type = EXCLUDED.route_type,
			total_budget = EXCLUDED.total_budget,
			total_duration = EXCLUDED.total_duration,
			transportation_mode = EXCLUDED.transportation_mode,
			city = EXCLUDED.city,
			steps = EXCLUDED.steps,
			is_favorite = COALESCE($10, routes.is_favorite),
			updated_at = now()
		WHERE routes.user_id = EXCLUDED.user_id
		RETURNING ` + routeColumns

	saved, err := scanRoute(r.pgpool.QueryRow(ctx, query,
		route.ID, userID, route.Name, string(route.RouteType), route.TotalBudget, route.TotalDuration,
		string(route.TransportationMode), route.City, string(stepsJSON), isFavorite))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.SavedRoute{}, fmt.Errorf("route %s: %w", route.ID, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return types.SavedRoute{}, fmt.Errorf("failed to save route: %w", err)
	}
	span.SetStatus(codes.Ok, "route saved")
	return saved, nil
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]types.SavedRoute, error) {
	ctx, span := otel.Tracer("RouteRepository").Start(ctx, "ListByUser", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	routes := make([]types.SavedRoute, 0)
	for rows.Next() {
		saved, err := scanRoute(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, saved)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating routes: %w", err)
	}
	span.SetAttributes(attribute.Int("routes", len(routes)))
	return routes, nil
}

func (r *RepositoryImpl) FindByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (types.SavedRoute, error) {
	ctx, span := otel.Tracer("RouteRepository").Start(ctx, "FindByID", trace.WithAttributes(
		attribute.String("route.id", id.String()),
	))
	defer span.End()

	saved, err := scanRoute(r.pgpool.QueryRow(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.SavedRoute{}, fmt.Errorf("route %s: %w", id, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return types.SavedRoute{}, fmt.Errorf("failed to fetch route: %w", err)
	}
	return saved, nil
}

func (r *RepositoryImpl) ToggleFavorite(ctx context.Context, userID uuid.UUID, id uuid.UUID) (bool, error) {
	ctx, span := otel.Tracer("RouteRepository").Start(ctx, "ToggleFavorite", trace.WithAttributes(
		attribute.String("route.id", id.String()),
	))
	defer span.End()

	var favorite bool
	err := r.pgpool.QueryRow(ctx,
		`UPDATE routes SET is_favorite = NOT is_favorite, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING is_favorite`, id, userID).Scan(&favorite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("route %s: %w", id, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return favorite, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.Tracer("RouteRepository").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("route.id", id.String()),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM routes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete route: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("route %s: %w", id, types.ErrNotFound)
	}
	r.logger.DebugContext(ctx, "Route deleted", slog.String("route.id", id.String()))
	return nil
}
