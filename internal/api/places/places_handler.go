package places

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-route-planner/internal/api"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const defaultSearchRadius = 2000

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// SearchPlaces godoc
// @Summary      Search places around a location
// @Tags         places
// @Produce      json
// @Param        lat      query number true  "Latitude"
// @Param        lng      query number true  "Longitude"
// @Param        radius   query int    false "Radius in metres" default(2000)
// @Param        category query string true  "RESTAURANT, CULTURE, LEISURE or DISCOVERY"
// @Success      200 {array} types.Place
// @Failure      400 {object} map[string]interface{}
// @Router       /places/search [get]
func (h *HandlerImpl) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlacesHandler").Start(r.Context(), "SearchPlaces", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places/search"),
	))
	defer span.End()

	var params types.PlaceSearchParams
	var err error
	if params.Latitude, err = api.QueryFloat(r, "lat"); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if params.Longitude, err = api.QueryFloat(r, "lng"); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if params.RadiusMeters, err = api.QueryInt(r, "radius", defaultSearchRadius); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	cat, ok := types.ParsePlaceCategory(r.URL.Query().Get("category"))
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "category must be one of RESTAURANT, CULTURE, LEISURE, DISCOVERY")
		return
	}
	params.Category = cat
	if err := api.ValidateStruct(params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Search(ctx, params))
}

// GetPlace godoc
// @Summary      Get a stored place
// @Tags         places
// @Produce      json
// @Param        id path string true "Place ID"
// @Success      200 {object} types.Place
// @Failure      404 {object} map[string]interface{}
// @Router       /places/{id} [get]
func (h *HandlerImpl) GetPlace(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlacesHandler").Start(r.Context(), "GetPlace", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places/{id}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetPlace"))

	id := chi.URLParam(r, "id")
	if id == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "place id is required")
		return
	}
	p, err := h.service.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Place not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch place", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch place")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, p)
}
