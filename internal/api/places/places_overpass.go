package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/go-route-planner/config"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const (
	defaultOverpassURL = "https://overpass-api.de/api/interpreter"
	maxOverpassRadius  = 2000
	minOverpassRadius  = 500
	defaultMaxElements = 500
)

// Provider fetches places from an external source.
type Provider interface {
	Search(ctx context.Context, params types.PlaceSearchParams) ([]types.Place, error)
}

var _ Provider = (*OverpassClient)(nil)

type osmFilter struct {
	key    string
	values []string
}

// categoryFilters are the OSM tags queried for each category.
var categoryFilters = map[types.PlaceCategory][]osmFilter{
	types.PlaceCategoryRestaurant: {{"amenity", []string{"restaurant", "cafe", "fast_food"}}},
	types.PlaceCategoryLeisure:    {{"leisure", []string{"park", "playground"}}, {"amenity", []string{"zoo"}}},
	types.PlaceCategoryDiscovery:  {{"tourism", []string{"attraction", "viewpoint", "information"}}},
	types.PlaceCategoryCulture:    {{"tourism", []string{"museum"}}, {"amenity", []string{"arts_centre", "library", "theatre"}}},
}

// OverpassClient queries OpenStreetMap through the Overpass API.
type OverpassClient struct {
	httpClient  *http.Client
	endpoint    string
	maxElements int
	logger      *slog.Logger
}

func NewOverpassClient(cfg config.PlacesConfig, logger *slog.Logger) *OverpassClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	endpoint := cfg.OverpassURL
	if endpoint == "" {
		endpoint = defaultOverpassURL
	}
	maxElements := cfg.MaxElements
	if maxElements <= 0 {
		maxElements = defaultMaxElements
	}
	return &OverpassClient{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    endpoint,
		maxElements: maxElements,
		logger:      logger,
	}
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// retryableError marks upstream failures worth retrying with a smaller radius.
type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

// Search fetches places of one category. Busy or slow upstream answers are
// retried with radius/2 and radius/3 while the radius stays above 500 m.
func (c *OverpassClient) Search(ctx context.Context, params types.PlaceSearchParams) ([]types.Place, error) {
	l := c.logger.With(slog.String("method", "OverpassSearch"), slog.String("category", string(params.Category)))

	radius := params.RadiusMeters
	if radius > maxOverpassRadius {
		radius = maxOverpassRadius
	}

	var lastErr error
	for divisor := 1; divisor <= 3; divisor++ {
		r := radius / divisor
		if r < minOverpassRadius && divisor > 1 {
			break
		}
		places, err := c.search(ctx, params.Latitude, params.Longitude, r, params.Category)
		if err == nil {
			l.DebugContext(ctx, "Overpass answered", slog.Int("radius", r), slog.Int("places", len(places)))
			return places, nil
		}
		lastErr = err
		var re retryableError
		if !errors.As(err, &re) || ctx.Err() != nil {
			break
		}
		l.WarnContext(ctx, "Overpass busy, retrying with a smaller radius", slog.Int("radius", r), slog.Any("error", err))
	}
	return nil, lastErr
}

// BuildQuery renders the Overpass QL union for a category.
func BuildQuery(lat, lng float64, radius int, category types.PlaceCategory, limit int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)", radius,
		strconv.FormatFloat(lat, 'f', 6, 64), strconv.FormatFloat(lng, 'f', 6, 64))

	var b strings.Builder
	b.WriteString("[out:json][timeout:10];\n(\n")
	for _, f := range categoryFilters[category] {
		selector := fmt.Sprintf(`["%s"~"^(%s)$"]`, f.key, strings.Join(f.values, "|"))
		for _, kind := range []string{"node", "way"} {
			b.WriteString("  ")
			b.WriteString(kind)
			b.WriteString(selector)
			b.WriteString(around)
			b.WriteString(";\n")
		}
	}
	fmt.Fprintf(&b, ");\nout center %d;", limit)
	return b.String()
}

func (c *OverpassClient) search(ctx context.Context, lat, lng float64, radius int, category types.PlaceCategory) ([]types.Place, error) {
	query := BuildQuery(lat, lng, radius, category, c.maxElements)
	form := url.Values{"data": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, retryableError{fmt.Errorf("overpass timeout: %w", err)}
		}
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		err := fmt.Errorf("overpass returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retryableError{err}
		}
		return nil, err
	}

	var out overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	places := make([]types.Place, 0, len(out.Elements))
	for _, el := range out.Elements {
		if len(places) >= c.maxElements {
			break
		}
		if p, ok := toPlace(el, category); ok {
			places = append(places, p)
		}
	}
	return places, nil
}

// toPlace keeps the requested category so the stored row is found by the next
// store lookup for that category, even when the tags would suggest another.
func toPlace(el overpassElement, requested types.PlaceCategory) (types.Place, bool) {
	name := strings.TrimSpace(el.Tags["name"])
	if name == "" {
		return types.Place{}, false
	}
	lat, lon := el.Lat, el.Lon
	if el.Center != nil {
		lat, lon = el.Center.Lat, el.Center.Lon
	}
	if lat == 0 && lon == 0 {
		return types.Place{}, false
	}

	return types.Place{
		ID:          "osm_" + strconv.FormatInt(el.ID, 10),
		Name:        name,
		Category:    requested,
		Latitude:    lat,
		Longitude:   lon,
		Address:     addressFromTags(el.Tags),
		Description: el.Tags["description"],
		AverageCost: estimateCost(el.Tags),
	}, true
}

func addressFromTags(tags map[string]string) string {
	street := strings.TrimSpace(strings.Join(nonEmpty(tags["addr:street"], tags["addr:housenumber"]), " "))
	city := strings.TrimSpace(strings.Join(nonEmpty(tags["addr:postcode"], tags["addr:city"]), " "))
	return strings.Join(nonEmpty(street, city), ", ")
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func estimateCost(tags map[string]string) *float64 {
	var cost float64
	switch tags["amenity"] {
	case "fast_food":
		cost = 10
	case "cafe":
		cost = 15
	case "restaurant":
		cost = 25
		if strings.Contains(tags["cuisine"], "fine_dining") || tags["stars"] != "" {
			cost = 50
		}
	default:
		return nil
	}
	return &cost
}
