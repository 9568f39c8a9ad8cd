package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/go-route-planner/config"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const defaultBaseURL = "https://api.openweathermap.org"

// Provider is the external weather API.
type Provider interface {
	Current(ctx context.Context, p types.Point) (types.WeatherSnapshot, error)
	Forecast(ctx context.Context, p types.Point) ([]types.ForecastEntry, error)
}

var _ Provider = (*OpenWeatherClient)(nil)

// OpenWeatherClient talks to the OpenWeatherMap 2.5 API.
type OpenWeatherClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	units      string
	lang       string
	logger     *slog.Logger
}

func NewOpenWeatherClient(cfg config.WeatherConfig, logger *slog.Logger) *OpenWeatherClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	units := cfg.Units
	if units == "" {
		units = "metric"
	}
	return &OpenWeatherClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		units:      units,
		lang:       cfg.Lang,
		logger:     logger,
	}
}

type owmReading struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (r owmReading) snapshot() types.WeatherSnapshot {
	s := types.WeatherSnapshot{
		Temperature: r.Main.Temp,
		Humidity:    r.Main.Humidity,
		WindSpeed:   r.Wind.Speed,
		FeelsLike:   r.Main.FeelsLike,
	}
	if len(r.Weather) > 0 {
		s.Condition = r.Weather[0].Main
		s.Description = r.Weather[0].Description
	}
	return s
}

func (c *OpenWeatherClient) get(ctx context.Context, path string, p types.Point, dst interface{}) error {
	if c.apiKey == "" || strings.HasPrefix(strings.ToLower(c.apiKey), "your") {
		return types.ErrProviderUnavailable
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(p.Latitude, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(p.Longitude, 'f', 6, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", c.units)
	if c.lang != "" {
		q.Set("lang", c.lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build weather request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("openweathermap returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode weather response: %w", err)
	}
	return nil
}

// Current returns the current conditions at p.
func (c *OpenWeatherClient) Current(ctx context.Context, p types.Point) (types.WeatherSnapshot, error) {
	var out owmReading
	if err := c.get(ctx, "/data/2.5/weather", p, &out); err != nil {
		return types.WeatherSnapshot{}, err
	}
	return out.snapshot(), nil
}

// Forecast returns the 5 day forecast in 3 hour steps.
func (c *OpenWeatherClient) Forecast(ctx context.Context, p types.Point) ([]types.ForecastEntry, error) {
	var out struct {
		List []owmReading `json:"list"`
	}
	if err := c.get(ctx, "/data/2.5/forecast", p, &out); err != nil {
		return nil, err
	}
	entries := make([]types.ForecastEntry, 0, len(out.List))
	for _, r := range out.List {
		entries = append(entries, types.ForecastEntry{
			Time:            time.Unix(r.Dt, 0).UTC(),
			WeatherSnapshot: r.snapshot(),
		})
	}
	return entries, nil
}
