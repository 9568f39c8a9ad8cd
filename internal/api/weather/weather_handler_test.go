package weather

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-route-planner/internal/types"
)

func TestWeatherHandlers(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("GetCurrent", func(t *testing.T) {
		svc, provider := setupWeatherServiceTest()
		provider.On("Current", mock.Anything, lisbon).Return(types.WeatherSnapshot{Temperature: 22, Condition: "Clear"}, nil).Once()
		h := NewHandlerImpl(svc, logger)

		rr := httptest.NewRecorder()
		h.GetCurrent(rr, httptest.NewRequest(http.MethodGet, "/weather?lat=38.7223&lng=-9.1393", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got types.WeatherSnapshot
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, 22.0, got.Temperature)
	})

	t.Run("GetCurrent bad coordinates", func(t *testing.T) {
		svc, _ := setupWeatherServiceTest()
		h := NewHandlerImpl(svc, logger)

		rr := httptest.NewRecorder()
		h.GetCurrent(rr, httptest.NewRequest(http.MethodGet, "/weather?lat=120&lng=0", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("CheckSuitability", func(t *testing.T) {
		svc, provider := setupWeatherServiceTest()
		provider.On("Current", mock.Anything, lisbon).Return(types.WeatherSnapshot{Temperature: 20, Condition: "Snow"}, nil).Once()
		h := NewHandlerImpl(svc, logger)

		rr := httptest.NewRecorder()
		h.CheckSuitability(rr, httptest.NewRequest(http.MethodGet, "/weather/check?lat=38.7223&lng=-9.1393&coldSensitivity=3", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got types.WeatherCheckResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.False(t, got.Suitable)
	})

	t.Run("CheckSuitability negative sensitivity", func(t *testing.T) {
		svc, _ := setupWeatherServiceTest()
		h := NewHandlerImpl(svc, logger)

		rr := httptest.NewRecorder()
		h.CheckSuitability(rr, httptest.NewRequest(http.MethodGet, "/weather/check?lat=1&lng=1&heatSensitivity=-1", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("GetForecast unavailable", func(t *testing.T) {
		svc, provider := setupWeatherServiceTest()
		provider.On("Forecast", mock.Anything, lisbon).Return(nil, errors.New("down")).Once()
		h := NewHandlerImpl(svc, logger)

		rr := httptest.NewRecorder()
		h.GetForecast(rr, httptest.NewRequest(http.MethodGet, "/weather/forecast?lat=38.7223&lng=-9.1393", nil))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}
