package container

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-route-planner/app/db"
	"github.com/FACorreiaa/go-route-planner/config"
	"github.com/FACorreiaa/go-route-planner/internal/api/auth"
	"github.com/FACorreiaa/go-route-planner/internal/api/directions"
	"github.com/FACorreiaa/go-route-planner/internal/api/geo"
	"github.com/FACorreiaa/go-route-planner/internal/api/places"
	"github.com/FACorreiaa/go-route-planner/internal/api/route"
	"github.com/FACorreiaa/go-route-planner/internal/api/weather"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *slog.Logger
	Pool              *pgxpool.Pool
	AuthHandler       *auth.HandlerImpl
	PlacesHandler     *places.HandlerImpl
	WeatherHandler    *weather.HandlerImpl
	DirectionsHandler *directions.HandlerImpl
	RouteHandler      *route.HandlerImpl
	Authenticate      func(http.Handler) http.Handler
}

// NewContainer opens the database pool and wires every service on top of it.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig.ConnectionURL, cfg.Repositories.Postgres.MaxConns, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	c := Wire(cfg, pool, logger)
	c.Pool = pool
	return c, nil
}

// Wire builds the handlers on top of an existing database handle.
func Wire(cfg *config.Config, db database.Querier, logger *slog.Logger) *Container {
	// providers
	routingClient := directions.NewClient(cfg.Routing, logger)
	var routingProvider geo.RoutingProvider
	if routingClient.Configured() {
		routingProvider = routingClient
	} else {
		logger.Warn("Routing API key not configured, distances use haversine")
	}
	weatherClient := weather.NewOpenWeatherClient(cfg.Weather, logger)
	placeProvider := places.NewTieredProvider(
		places.NewYelpClient(cfg.Places, logger),
		places.NewGooglePlacesClient(cfg.Places, logger),
		places.NewOverpassClient(cfg.Places, logger),
		logger,
	)

	// services
	distances := geo.NewService(routingProvider, cfg.Routing.CacheTTL, logger)
	weatherService := weather.NewServiceImpl(weatherClient, logger)

	placesRepo := places.NewRepositoryImpl(db, logger)
	placesService := places.NewServiceImpl(placesRepo, placeProvider, cfg.Places.CacheTTL, logger)

	generator := route.NewGeneratorImpl(placesService, weatherService, distances, logger)
	routeRepo := route.NewRepositoryImpl(db, logger)
	routeService := route.NewServiceImpl(generator, routeRepo, logger)

	authRepo := auth.NewRepositoryImpl(db, logger)
	authService := auth.NewServiceImpl(authRepo, cfg.JWT, logger)

	if p := cfg.Planner; (p.FetchRadiusMeters != 0 && p.FetchRadiusMeters != route.FetchRadiusMeters) ||
		(p.SearchRadiusMeters != 0 && float64(p.SearchRadiusMeters) != route.SearchRadiusKm*1000) {
		logger.Warn("Planner radii are fixed, configured values ignored",
			slog.Int("fetchradiusmeters", p.FetchRadiusMeters),
			slog.Int("searchradiusmeters", p.SearchRadiusMeters))
	}
	logger.Info("Planner configured",
		slog.Int("fetch_radius_m", route.FetchRadiusMeters),
		slog.Float64("search_radius_km", route.SearchRadiusKm),
		slog.Bool("routing_provider", routingProvider != nil))

	return &Container{
		Config:            cfg,
		Logger:            logger,
		AuthHandler:       auth.NewHandlerImpl(authService, logger),
		PlacesHandler:     places.NewHandlerImpl(placesService, logger),
		WeatherHandler:    weather.NewHandlerImpl(weatherService, logger),
		DirectionsHandler: directions.NewHandlerImpl(routingClient, logger),
		RouteHandler:      route.NewHandlerImpl(routeService, logger),
		Authenticate:      auth.Authenticate(logger, cfg.JWT),
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
