package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

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

type Repository interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (types.User, error)
	FindByEmail(ctx context.Context, email string) (types.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (types.User, error)
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

type RepositoryImpl struct {
	pgpool database.Querier
	logger *slog.Logger
}

func NewRepositoryImpl(pgpool database.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{pgpool: pgpool, logger: logger}
}

func (r *RepositoryImpl) CreateUser(ctx context.Context, username, email, passwordHash string) (types.User, error) {
	ctx, span := otel.Tracer("AuthRepository").Start(ctx, "CreateUser", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "CreateUser"))

	u := types.User{Username: username, Email: strings.ToLower(email), PasswordHash: passwordHash}
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		u.Username, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			l.WarnContext(ctx, "Email already registered", slog.String("email", u.Email))
			return types.User{}, fmt.Errorf("email %s: %w", u.Email, types.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return types.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID.String()))
	span.SetStatus(codes.Ok, "user created")
	return u, nil
}

func scanUser(row pgx.Row) (types.User, error) {
	var u types.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *RepositoryImpl) FindByEmail(ctx context.Context, email string) (types.User, error) {
	ctx, span := otel.Tracer("AuthRepository").Start(ctx, "FindByEmail", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
	))
	defer span.End()

	u, err := scanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.User{}, fmt.Errorf("user %s: %w", email, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return types.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	ctx, span := otel.Tracer("AuthRepository").Start(ctx, "FindByID", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("user.id", id.String()),
	))
	defer span.End()

	u, err := scanUser(r.pgpool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.User{}, fmt.Errorf("user %s: %w", id, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return types.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}
