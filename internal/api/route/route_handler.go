package route

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-route-planner/internal/api"
	"github.com/FACorreiaa/go-route-planner/internal/api/auth"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// GenerateRoutes godoc
// @Summary      Generate route variants
// @Description  Returns the economic, balanced and comfort routes that fit the request. An empty list means no place could be found.
// @Tags         routes
// @Accept       json
// @Produce      json
// @Param        body body types.RouteRequest true "Route request"
// @Success      200 {array} types.GeneratedRoute
// @Failure      400 {object} map[string]interface{}
// @Failure      429 {object} map[string]interface{}
// @Router       /routes/generate [post]
func (h *HandlerImpl) GenerateRoutes(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "GenerateRoutes", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/generate"),
	))
	defer span.End()

	var req types.RouteRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	routes := h.service.GenerateRoutes(ctx, req.Normalize())
	span.SetAttributes(attribute.Int("routes", len(routes)))
	api.WriteJSONResponse(w, r, http.StatusOK, routes)
}

// SaveRoute godoc
// @Summary      Save a generated route
// @Tags         routes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body types.SaveRouteRequest true "Route to save"
// @Success      200 {object} types.SavedRoute
// @Failure      400 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Router       /routes/save [post]
func (h *HandlerImpl) SaveRoute(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "SaveRoute", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/save"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "SaveRoute"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.SaveRouteRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.service.SaveRoute(ctx, userID, req)
	if err != nil {
		h.writeError(w, r, l, err, "Failed to save route")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, saved)
}

// GetSavedRoutes godoc
// @Summary      List saved routes
// @Tags         routes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} types.SavedRoute
// @Failure      401 {object} map[string]interface{}
// @Router       /routes/saved [get]
func (h *HandlerImpl) GetSavedRoutes(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "GetSavedRoutes", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/saved"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetSavedRoutes"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	routes, err := h.service.SavedRoutes(ctx, userID)
	if err != nil {
		h.writeError(w, r, l, err, "Failed to list routes")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, routes)
}

// GetRoute godoc
// @Summary      Get a saved route
// @Tags         routes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Route ID"
// @Success      200 {object} types.SavedRoute
// @Failure      404 {object} map[string]interface{}
// @Router       /routes/{id} [get]
func (h *HandlerImpl) GetRoute(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "GetRoute", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/{id}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetRoute"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	saved, err := h.service.GetRoute(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, l, err, "Failed to fetch route")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, saved)
}

// ToggleFavorite godoc
// @Summary      Toggle the favorite flag of a saved route
// @Tags         routes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Route ID"
// @Success      200 {object} map[string]bool
// @Failure      404 {object} map[string]interface{}
// @Router       /routes/{id}/favorite [post]
func (h *HandlerImpl) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "ToggleFavorite", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/{id}/favorite"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ToggleFavorite"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	favorite, err := h.service.ToggleFavorite(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, l, err, "Failed to update route")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]bool{"is_favorite": favorite})
}

// DeleteRoute godoc
// @Summary      Delete a saved route
// @Tags         routes
// @Security     BearerAuth
// @Param        id path string true "Route ID"
// @Success      204
// @Failure      404 {object} map[string]interface{}
// @Router       /routes/{id} [delete]
func (h *HandlerImpl) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "DeleteRoute", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/{id}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteRoute"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := h.service.DeleteRoute(ctx, userID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, l, err, "Failed to delete route")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error, message string) {
	if errors.Is(err, types.ErrNotFound) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Route not found")
		return
	}
	l.ErrorContext(r.Context(), message, slog.Any("error", err))
	api.ErrorResponse(w, r, http.StatusInternalServerError, message)
}
