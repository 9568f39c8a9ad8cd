package weather

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-route-planner/config"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Current(ctx context.Context, p types.Point) (types.WeatherSnapshot, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(types.WeatherSnapshot), args.Error(1)
}

func (m *MockProvider) Forecast(ctx context.Context, p types.Point) ([]types.ForecastEntry, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ForecastEntry), args.Error(1)
}

var lisbon = types.Point{Latitude: 38.7223, Longitude: -9.1393}

func setupWeatherServiceTest() (*ServiceImpl, *MockProvider) {
	provider := new(MockProvider)
	return NewServiceImpl(provider, slog.New(slog.DiscardHandler)), provider
}

func TestServiceCurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("provider answer is cached", func(t *testing.T) {
		svc, provider := setupWeatherServiceTest()
		rainy := types.WeatherSnapshot{Temperature: 12, Condition: "Rain", Humidity: 90}
		provider.On("Current", mock.Anything, lisbon).Return(rainy, nil).Once()

		assert.Equal(t, rainy, svc.Current(ctx, lisbon))
		assert.Equal(t, rainy, svc.Current(ctx, lisbon))
		provider.AssertExpectations(t)
	})

	t.Run("provider failure yields default weather", func(t *testing.T) {
		svc, provider := setupWeatherServiceTest()
		provider.On("Current", mock.Anything, lisbon).Return(types.WeatherSnapshot{}, errors.New("502")).Once()

		got := svc.Current(ctx, lisbon)
		assert.Equal(t, types.DefaultWeather(), got)
		assert.Equal(t, 20.0, got.Temperature)
		assert.Equal(t, 60, got.Humidity)
	})

	t.Run("nil provider yields default weather", func(t *testing.T) {
		svc := NewServiceImpl(nil, slog.New(slog.DiscardHandler))
		assert.Equal(t, types.DefaultWeather(), svc.Current(ctx, lisbon))
	})
}

func TestServiceCheck(t *testing.T) {
	svc, provider := setupWeatherServiceTest()
	provider.On("Current", mock.Anything, lisbon).
		Return(types.WeatherSnapshot{Temperature: 5, Condition: "Clear", Humidity: 40}, nil).Once()

	res := svc.Check(context.Background(), lisbon, Sensitivity{Cold: 2})
	assert.False(t, res.Suitable)
	assert.Equal(t, 5.0, res.Weather.Temperature)
}

func TestServiceForecast(t *testing.T) {
	svc, provider := setupWeatherServiceTest()
	provider.On("Forecast", mock.Anything, lisbon).Return(nil, errors.New("down")).Once()

	_, err := svc.Forecast(context.Background(), lisbon)
	assert.Error(t, err)
}

func TestOpenWeatherClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		switch r.URL.Path {
		case "/data/2.5/weather":
			_, _ = w.Write([]byte(`{"main":{"temp":18.5,"feels_like":17.9,"humidity":72},"weather":[{"main":"Clouds","description":"broken clouds"}],"wind":{"speed":4.1}}`))
		case "/data/2.5/forecast":
			_, _ = w.Write([]byte(`{"list":[{"dt":1700000000,"main":{"temp":15,"humidity":80},"weather":[{"main":"Rain","description":"light rain"}],"wind":{"speed":3}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(config.WeatherConfig{BaseURL: srv.URL, APIKey: "k", Timeout: time.Second}, slog.New(slog.DiscardHandler))

	cur, err := client.Current(context.Background(), lisbon)
	require.NoError(t, err)
	assert.Equal(t, types.WeatherSnapshot{
		Temperature: 18.5, Condition: "Clouds", Description: "broken clouds", Humidity: 72, WindSpeed: 4.1, FeelsLike: 17.9,
	}, cur)

	fc, err := client.Forecast(context.Background(), lisbon)
	require.NoError(t, err)
	require.Len(t, fc, 1)
	assert.Equal(t, "Rain", fc[0].Condition)
	assert.Equal(t, int64(1700000000), fc[0].Time.Unix())

	noKey := NewOpenWeatherClient(config.WeatherConfig{BaseURL: srv.URL}, slog.New(slog.DiscardHandler))
	_, err = noKey.Current(context.Background(), lisbon)
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)
}
