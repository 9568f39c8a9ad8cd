package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/go-route-planner/internal/api/auth"
	"github.com/FACorreiaa/go-route-planner/internal/api/directions"
	"github.com/FACorreiaa/go-route-planner/internal/api/places"
	"github.com/FACorreiaa/go-route-planner/internal/api/route"
	"github.com/FACorreiaa/go-route-planner/internal/api/weather"
)

const defaultGenerateRateLimit = 30

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            *auth.HandlerImpl
	PlacesHandler          *places.HandlerImpl
	WeatherHandler         *weather.HandlerImpl
	DirectionsHandler      *directions.HandlerImpl
	RouteHandler           *route.HandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
	AllowedOrigins         []string
	GenerateRateLimit      int // requests per minute per IP
}

// SetupRouter initializes and configures the API router.
// Server-wide middleware (request ID, logger, recoverer) is applied in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	limit := cfg.GenerateRateLimit
	if limit <= 0 {
		limit = defaultGenerateRateLimit
	}

	r.Route("/api/v1", func(r chi.Router) {
		// public
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)

			r.With(httprate.LimitByIP(limit, time.Minute)).
				Post("/routes/generate", cfg.RouteHandler.GenerateRoutes)

			r.Get("/places/search", cfg.PlacesHandler.SearchPlaces)
			r.Get("/places/{id}", cfg.PlacesHandler.GetPlace)

			r.Get("/weather", cfg.WeatherHandler.GetCurrent)
			r.Get("/weather/forecast", cfg.WeatherHandler.GetForecast)
			r.Get("/weather/check", cfg.WeatherHandler.CheckSuitability)

			r.Get("/directions", cfg.DirectionsHandler.GetDirections)
		})

		// saved routes and user lookups need a bearer token
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/routes/save", cfg.RouteHandler.SaveRoute)
			r.Get("/routes/saved", cfg.RouteHandler.GetSavedRoutes)
			r.Get("/routes/{id}", cfg.RouteHandler.GetRoute)
			r.Post("/routes/{id}/favorite", cfg.RouteHandler.ToggleFavorite)
			r.Delete("/routes/{id}", cfg.RouteHandler.DeleteRoute)

			r.Get("/users/check", cfg.AuthHandler.CheckUser)
			r.Get("/users/email/{email}", cfg.AuthHandler.GetUserByEmail)
			r.Get("/users/{id}", cfg.AuthHandler.GetUser)
		})
	})

	return r
}
