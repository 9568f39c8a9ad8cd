package weather

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-route-planner/internal/api"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

func pointFromQuery(r *http.Request) (types.Point, error) {
	lat, err := api.QueryFloat(r, "lat")
	if err != nil {
		return types.Point{}, err
	}
	lng, err := api.QueryFloat(r, "lng")
	if err != nil {
		return types.Point{}, err
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return types.Point{}, errors.New("coordinates out of range")
	}
	return types.Point{Latitude: lat, Longitude: lng}, nil
}

// GetCurrent godoc
// @Summary      Current weather at a location
// @Tags         weather
// @Produce      json
// @Param        lat query number true "Latitude"
// @Param        lng query number true "Longitude"
// @Success      200 {object} types.WeatherSnapshot
// @Router       /weather [get]
func (h *HandlerImpl) GetCurrent(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("WeatherHandler").Start(r.Context(), "GetCurrent", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/weather"),
	))
	defer span.End()

	p, err := pointFromQuery(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Current(ctx, p))
}

// GetForecast godoc
// @Summary      Weather forecast at a location
// @Tags         weather
// @Produce      json
// @Param        lat query number true "Latitude"
// @Param        lng query number true "Longitude"
// @Success      200 {array} types.ForecastEntry
// @Failure      502 {object} map[string]interface{}
// @Router       /weather/forecast [get]
func (h *HandlerImpl) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("WeatherHandler").Start(r.Context(), "GetForecast", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/weather/forecast"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetForecast"))

	p, err := pointFromQuery(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.service.Forecast(ctx, p)
	if err != nil {
		l.WarnContext(ctx, "Forecast unavailable", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadGateway, "Weather forecast unavailable")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, entries)
}

// CheckSuitability godoc
// @Summary      Whether the weather suits a user's sensitivities
// @Tags         weather
// @Produce      json
// @Param        lat query number true "Latitude"
// @Param        lng query number true "Longitude"
// @Param        coldSensitivity query int false "Cold sensitivity"
// @Param        heatSensitivity query int false "Heat sensitivity"
// @Param        humiditySensitivity query int false "Humidity sensitivity"
// @Success      200 {object} types.WeatherCheckResponse
// @Router       /weather/check [get]
func (h *HandlerImpl) CheckSuitability(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("WeatherHandler").Start(r.Context(), "CheckSuitability", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/weather/check"),
	))
	defer span.End()

	p, err := pointFromQuery(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var s Sensitivity
	for _, q := range []struct {
		name string
		dst  *int
	}{
		{"coldSensitivity", &s.Cold}, {"heatSensitivity", &s.Heat}, {"humiditySensitivity", &s.Humidity},
	} {
		if *q.dst, err = api.QueryInt(r, q.name, 0); err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if *q.dst < 0 {
			api.ErrorResponse(w, r, http.StatusBadRequest, q.name+" must not be negative")
			return
		}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Check(ctx, p, s))
}
