package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-route-planner/config"
	"github.com/FACorreiaa/go-route-planner/internal/api/geo"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const defaultBaseURL = "https://api.openrouteservice.org"

// Profiles accepted by the directions endpoint.
var Profiles = map[string]struct{}{
	"foot-walking":    {},
	"foot-hiking":     {},
	"cycling-regular": {},
	"driving-car":     {},
	"wheelchair":      {},
}

// Route is a single directions answer.
type Route struct {
	DistanceKm      float64      `json:"distance_km"`
	DurationMinutes float64      `json:"duration_minutes"`
	Geometry        [][2]float64 `json:"geometry"` // [lon, lat] pairs
}

// Provider is what the directions handler needs from the routing API.
type Provider interface {
	Directions(ctx context.Context, from, to types.Point, profile string) (Route, error)
}

var (
	_ geo.RoutingProvider = (*Client)(nil)
	_ Provider            = (*Client)(nil)
)

// Client talks to OpenRouteService.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewClient(cfg config.RoutingConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logger,
	}
}

// Configured reports whether a usable API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != "" && !strings.HasPrefix(strings.ToLower(c.apiKey), "your")
}

type directionsResponse struct {
	Routes []struct {
		Summary summary `json:"summary"`
	} `json:"routes"`
	Features []struct {
		Properties struct {
			Summary summary `json:"summary"`
		} `json:"properties"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

type summary struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

func (c *Client) getDirections(ctx context.Context, from, to types.Point, profile string) (*directionsResponse, error) {
	if !c.Configured() {
		return nil, types.ErrProviderUnavailable
	}
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("start", fmt.Sprintf("%f,%f", from.Longitude, from.Latitude))
	q.Set("end", fmt.Sprintf("%f,%f", to.Longitude, to.Latitude))
	endpoint := fmt.Sprintf("%s/v2/directions/%s?%s", c.baseURL, url.PathEscape(profile), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directions request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/geo+json")

	var out directionsResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Distance returns the route distance in kilometres.
func (c *Client) Distance(ctx context.Context, from, to types.Point, profile string) (float64, error) {
	resp, err := c.getDirections(ctx, from, to, profile)
	if err != nil {
		return 0, err
	}
	switch {
	case len(resp.Routes) > 0:
		// JSON format already reports kilometres
		return resp.Routes[0].Summary.Distance, nil
	case len(resp.Features) > 0:
		return resp.Features[0].Properties.Summary.Distance / 1000, nil
	default:
		return 0, fmt.Errorf("directions response has no route")
	}
}

// Directions returns distance, duration and geometry of the route.
func (c *Client) Directions(ctx context.Context, from, to types.Point, profile string) (Route, error) {
	ctx, span := otel.Tracer("DirectionsClient").Start(ctx, "Directions", trace.WithAttributes(
		attribute.String("profile", profile),
	))
	defer span.End()

	resp, err := c.getDirections(ctx, from, to, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "directions failed")
		return Route{}, err
	}
	if len(resp.Features) == 0 {
		err = fmt.Errorf("directions response has no feature")
		span.SetStatus(codes.Error, err.Error())
		return Route{}, err
	}
	f := resp.Features[0]
	route := Route{
		DistanceKm:      f.Properties.Summary.Distance / 1000,
		DurationMinutes: f.Properties.Summary.Duration / 60,
		Geometry:        make([][2]float64, 0, len(f.Geometry.Coordinates)),
	}
	for _, coord := range f.Geometry.Coordinates {
		if len(coord) >= 2 {
			route.Geometry = append(route.Geometry, [2]float64{coord[0], coord[1]})
		}
	}
	span.SetStatus(codes.Ok, "directions retrieved")
	return route, nil
}

type matrixRequest struct {
	Locations [][2]float64 `json:"locations"`
	Metrics   []string     `json:"metrics"`
	Units     string       `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// Matrix returns the pairwise distance (km) and duration (s) matrices.
func (c *Client) Matrix(ctx context.Context, points []types.Point, profile string) (geo.Matrix, error) {
	if !c.Configured() {
		return geo.Matrix{}, types.ErrProviderUnavailable
	}
	body := matrixRequest{
		Locations: make([][2]float64, len(points)),
		Metrics:   []string{"distance", "duration"},
		Units:     "km",
	}
	for i, p := range points {
		body.Locations[i] = [2]float64{p.Longitude, p.Latitude}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return geo.Matrix{}, fmt.Errorf("failed to encode matrix request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", c.baseURL, url.PathEscape(profile))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return geo.Matrix{}, fmt.Errorf("failed to build matrix request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out matrixResponse
	if err := c.do(req, &out); err != nil {
		return geo.Matrix{}, err
	}

	distances, err := denseMatrix(out.Distances, len(points))
	if err != nil {
		return geo.Matrix{}, fmt.Errorf("distances: %w", err)
	}
	m := geo.Matrix{Distances: distances}
	if out.Durations != nil {
		if m.Durations, err = denseMatrix(out.Durations, len(points)); err != nil {
			return geo.Matrix{}, fmt.Errorf("durations: %w", err)
		}
	}
	return m, nil
}

func denseMatrix(in [][]*float64, n int) ([][]float64, error) {
	if len(in) != n {
		return nil, fmt.Errorf("expected %d rows, got %d", n, len(in))
	}
	out := make([][]float64, n)
	for i, row := range in {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), n)
		}
		out[i] = make([]float64, n)
		for j, v := range row {
			if i == j {
				continue
			}
			if v == nil {
				return nil, fmt.Errorf("no route between %d and %d", i, j)
			}
			out[i][j] = *v
		}
	}
	return out, nil
}

func (c *Client) do(req *http.Request, dst interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openrouteservice request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("openrouteservice returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode openrouteservice response: %w", err)
	}
	return nil
}
