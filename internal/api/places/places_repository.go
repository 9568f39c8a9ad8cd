package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-route-planner/app/db"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const nearbyLimit = 200

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	FindNearbyByCategory(ctx context.Context, params types.PlaceSearchParams) ([]types.Place, error)
	FindByID(ctx context.Context, id string) (types.Place, error)
	Upsert(ctx context.Context, places []types.Place) error
}

type RepositoryImpl struct {
	pgpool database.Querier
	logger *slog.Logger
}

func NewRepositoryImpl(pgpool database.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{pgpool: pgpool, logger: logger}
}

const placeColumns = `id, name, category, latitude, longitude, COALESCE(address, ''), COALESCE(description, ''),
	average_cost, estimated_wait_time, cold_impact, heat_impact, humidity_impact`

func scanPlace(row pgx.Row) (types.Place, error) {
	var p types.Place
	var category string
	err := row.Scan(&p.ID, &p.Name, &category, &p.Latitude, &p.Longitude, &p.Address, &p.Description,
		&p.AverageCost, &p.EstimatedWaitTime, &p.ColdImpact, &p.HeatImpact, &p.HumidityImpact)
	p.Category = types.PlaceCategory(category)
	return p, err
}

func (r *RepositoryImpl) FindNearbyByCategory(ctx context.Context, params types.PlaceSearchParams) ([]types.Place, error) {
	ctx, span := otel.Tracer("PlacesRepository").Start(ctx, "FindNearbyByCategory", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("category", string(params.Category)),
		attribute.Int("radius", params.RadiusMeters),
	))
	defer span.End()

	query := `SELECT ` + placeColumns + `
		FROM places
		WHERE category = $1
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4)
		ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography)
		LIMIT $5`

	rows, err := r.pgpool.Query(ctx, query, string(params.Category), params.Longitude, params.Latitude, params.RadiusMeters, nearbyLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query nearby places: %w", err)
	}
	defer rows.Close()

	places := make([]types.Place, 0)
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating places: %w", err)
	}
	span.SetStatus(codes.Ok, "places found")
	return places, nil
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id string) (types.Place, error) {
	ctx, span := otel.Tracer("PlacesRepository").Start(ctx, "FindByID", trace.WithAttributes(
		attribute.String("place.id", id),
	))
	defer span.End()

	p, err := scanPlace(r.pgpool.QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Place{}, fmt.Errorf("place %s: %w", id, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return types.Place{}, fmt.Errorf("failed to fetch place: %w", err)
	}
	return p, nil
}

// Upsert stores provider results in one transaction. Weather impacts and wait
// times edited in the database are kept.
func (r *RepositoryImpl) Upsert(ctx context.Context, places []types.Place) error {
	if len(places) == 0 {
		return nil
	}
	ctx, span := otel.Tracer("PlacesRepository").Start(ctx, "Upsert", trace.WithAttributes(
		attribute.Int("places", len(places)),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.WarnContext(ctx, "Rollback failed", slog.Any("error", err))
		}
	}()

	query := `INSERT INTO places (id, name, category, latitude, longitude, address, description, average_cost,
			estimated_wait_time, cold_impact, heat_impact, humidity_impact)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			address = COALESCE(EXCLUDED.address, places.address),
			description = COALESCE(EXCLUDED.description, places.description),
			average_cost = COALESCE(EXCLUDED.average_cost, places.average_cost),
			updated_at = now()`

	for _, p := range places {
		if _, err := tx.Exec(ctx, query, p.ID, p.Name, string(p.Category), p.Latitude, p.Longitude,
			p.Address, p.Description, p.AverageCost, p.EstimatedWaitTime,
			p.ColdImpact, p.HeatImpact, p.HumidityImpact); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert failed")
			return fmt.Errorf("failed to upsert place %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to commit places: %w", err)
	}
	committed = true
	span.SetStatus(codes.Ok, "places stored")
	return nil
}
