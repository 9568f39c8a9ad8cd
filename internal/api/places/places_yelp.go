package places

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/go-route-planner/config"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const (
	defaultYelpURL = "https://api.yelp.com"
	maxYelpRadius  = 40000
	yelpLimit      = 20
)

var _ Provider = (*YelpClient)(nil)

// yelpTerms maps categories to Yelp search terms.
var yelpTerms = map[types.PlaceCategory]string{
	types.PlaceCategoryRestaurant: "restaurants",
	types.PlaceCategoryCulture:    "museums",
	types.PlaceCategoryLeisure:    "parks",
	types.PlaceCategoryDiscovery:  "attractions",
}

// YelpClient searches the Yelp Fusion business API.
type YelpClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewYelpClient(cfg config.PlacesConfig, logger *slog.Logger) *YelpClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(cfg.YelpURL, "/")
	if baseURL == "" {
		baseURL = defaultYelpURL
	}
	return &YelpClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.YelpAPIKey,
		logger:     logger,
	}
}

// Configured reports whether a usable API key is present.
func (c *YelpClient) Configured() bool {
	return usableKey(c.apiKey)
}

func (c *YelpClient) Name() string { return "yelp" }

type yelpResponse struct {
	Businesses []yelpBusiness `json:"businesses"`
}

type yelpBusiness struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Coordinates struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"coordinates"`
	Location struct {
		Address1       string   `json:"address1"`
		City           string   `json:"city"`
		DisplayAddress []string `json:"display_address"`
	} `json:"location"`
}

// Search runs a business search around the point with the category's term.
func (c *YelpClient) Search(ctx context.Context, params types.PlaceSearchParams) ([]types.Place, error) {
	if !c.Configured() {
		return nil, types.ErrProviderUnavailable
	}
	term, ok := yelpTerms[params.Category]
	if !ok {
		term = strings.ToLower(string(params.Category))
	}

	q := url.Values{}
	q.Set("term", term)
	q.Set("latitude", strconv.FormatFloat(params.Latitude, 'f', 6, 64))
	q.Set("longitude", strconv.FormatFloat(params.Longitude, 'f', 6, 64))
	q.Set("radius", strconv.Itoa(min(params.RadiusMeters, maxYelpRadius)))
	q.Set("limit", strconv.Itoa(yelpLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/businesses/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build yelp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	var out yelpResponse
	if err := doJSON(c.httpClient, req, &out, "yelp"); err != nil {
		return nil, err
	}

	places := make([]types.Place, 0, len(out.Businesses))
	for _, b := range out.Businesses {
		if b.ID == "" || strings.TrimSpace(b.Name) == "" || b.Coordinates.Latitude == nil || b.Coordinates.Longitude == nil {
			continue
		}
		pt := types.Point{Latitude: *b.Coordinates.Latitude, Longitude: *b.Coordinates.Longitude}
		address := strings.Join(b.Location.DisplayAddress, ", ")
		if address == "" {
			address = b.Location.Address1
		}
		places = append(places, types.Place{
			ID:          "yelp_" + b.ID,
			Name:        strings.TrimSpace(b.Name),
			Category:    params.Category,
			Latitude:    pt.Latitude,
			Longitude:   pt.Longitude,
			Address:     address,
			AverageCost: yelpPriceCost(b.Price, pt),
		})
	}
	c.logger.DebugContext(ctx, "Yelp answered", slog.String("term", term), slog.Int("places", len(places)))
	return places, nil
}

func yelpPriceCost(price string, at types.Point) *float64 {
	var base float64
	switch price {
	case "":
		return costOf(defaultProviderCost)
	case "$", "€":
		base = 15
	case "$$", "€€":
		base = 30
	case "$$$", "€€€":
		base = 60
	case "$$$$", "€€€€":
		base = 100
	default:
		base = defaultProviderCost
	}
	return costOf(base * cityCostMultiplier(at))
}
