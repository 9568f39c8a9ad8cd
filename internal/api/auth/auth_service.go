package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-route-planner/config"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Register(ctx context.Context, req types.RegisterRequest) (types.User, error)
	Login(ctx context.Context, req types.LoginRequest) (types.LoginResponse, error)
	GetUser(ctx context.Context, id string) (types.User, error)
	GetUserByEmail(ctx context.Context, email string) (types.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type ServiceImpl struct {
	repo     Repository
	jwtCfg   config.JWTConfig
	hashCost int
	now      func() time.Time
	logger   *slog.Logger
}

func NewServiceImpl(repo Repository, jwtCfg config.JWTConfig, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		jwtCfg:   jwtCfg,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *ServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	defer span.End()
	l := s.logger.With(slog.String("method", "Register"))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hash failed")
		return types.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, req.Username, req.Email, string(hash))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create user failed")
		return types.User{}, err
	}
	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "user registered")
	return user, nil
}

func (s *ServiceImpl) Login(ctx context.Context, req types.LoginRequest) (types.LoginResponse, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()
	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Login for unknown email")
			return types.LoginResponse{}, types.ErrInvalidCredentials
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return types.LoginResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		l.WarnContext(ctx, "Password mismatch", slog.String("userID", user.ID.String()))
		return types.LoginResponse{}, types.ErrInvalidCredentials
	}

	token, expiresAt, err := IssueAccessToken(s.jwtCfg, user, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign failed")
		return types.LoginResponse{}, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	span.SetStatus(codes.Ok, "logged in")
	return types.LoginResponse{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// GetUser looks a user up by ID. A malformed ID is reported as not found.
func (s *ServiceImpl) GetUser(ctx context.Context, id string) (types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GetUser")
	defer span.End()

	userID, err := uuid.Parse(id)
	if err != nil {
		return types.User{}, fmt.Errorf("user %q: %w", id, types.ErrNotFound)
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return types.User{}, err
	}
	span.SetStatus(codes.Ok, "user found")
	return user, nil
}

func (s *ServiceImpl) GetUserByEmail(ctx context.Context, email string) (types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GetUserByEmail")
	defer span.End()

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return types.User{}, err
	}
	span.SetStatus(codes.Ok, "user found")
	return user, nil
}

// EmailExists reports whether an account uses the email.
func (s *ServiceImpl) EmailExists(ctx context.Context, email string) (bool, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "EmailExists")
	defer span.End()

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, types.ErrNotFound):
		return false, nil
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		s.logger.ErrorContext(ctx, "Email lookup failed", slog.String("method", "EmailExists"), slog.Any("error", err))
		return false, err
	}
}
