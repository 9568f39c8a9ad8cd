package directions

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-route-planner/internal/api"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

type HandlerImpl struct {
	provider Provider
	logger   *slog.Logger
}

func NewHandlerImpl(provider Provider, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{provider: provider, logger: logger}
}

// GetDirections godoc
// @Summary      Directions between two points
// @Tags         directions
// @Produce      json
// @Param        fromLat query number true "Origin latitude"
// @Param        fromLon query number true "Origin longitude"
// @Param        toLat   query number true "Destination latitude"
// @Param        toLon   query number true "Destination longitude"
// @Param        profile query string false "Routing profile" default(foot-walking)
// @Success      200 {object} Route
// @Failure      400 {object} map[string]interface{}
// @Failure      502 {object} map[string]interface{}
// @Router       /directions [get]
func (h *HandlerImpl) GetDirections(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DirectionsHandler").Start(r.Context(), "GetDirections", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/directions"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetDirections"))

	var from, to types.Point
	var err error
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"fromLat", &from.Latitude}, {"fromLon", &from.Longitude},
		{"toLat", &to.Latitude}, {"toLon", &to.Longitude},
	} {
		if *p.dst, err = api.QueryFloat(r, p.name); err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = "foot-walking"
	}
	if _, ok := Profiles[profile]; !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Unsupported routing profile")
		return
	}

	route, err := h.provider.Directions(ctx, from, to, profile)
	if err != nil {
		span.RecordError(err)
		l.WarnContext(ctx, "Directions unavailable", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadGateway, "Directions provider unavailable")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, route)
}
