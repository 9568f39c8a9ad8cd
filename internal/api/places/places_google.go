package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FACorreiaa/go-route-planner/config"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const (
	defaultGoogleURL  = "https://places.googleapis.com"
	maxGoogleRadius   = 50000
	googleMaxResults  = 20
	googleFieldMask   = "places.id,places.displayName,places.location,places.priceLevel,places.formattedAddress,places.types"
	googleDefaultType = "point_of_interest"
)

var _ Provider = (*GooglePlacesClient)(nil)

// googleTypes maps categories to Google place types.
var googleTypes = map[types.PlaceCategory]string{
	types.PlaceCategoryRestaurant: "restaurant",
	types.PlaceCategoryCulture:    "museum",
	types.PlaceCategoryLeisure:    "park",
	types.PlaceCategoryDiscovery:  "tourist_attraction",
}

// GooglePlacesClient searches the Google Places (New) nearby endpoint.
type GooglePlacesClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewGooglePlacesClient(cfg config.PlacesConfig, logger *slog.Logger) *GooglePlacesClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(cfg.GoogleURL, "/")
	if baseURL == "" {
		baseURL = defaultGoogleURL
	}
	return &GooglePlacesClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.GoogleAPIKey,
		logger:     logger,
	}
}

// Configured reports whether a usable API key is present.
func (c *GooglePlacesClient) Configured() bool {
	return usableKey(c.apiKey)
}

func (c *GooglePlacesClient) Name() string { return "google_places" }

type googleLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type googleNearbyRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction struct {
		Circle struct {
			Center googleLatLng `json:"center"`
			Radius float64      `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type googleNearbyResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		Location         *googleLatLng `json:"location"`
		FormattedAddress string        `json:"formattedAddress"`
		PriceLevel       string        `json:"priceLevel"`
	} `json:"places"`
}

// Search runs a nearby search restricted to the category's place type.
func (c *GooglePlacesClient) Search(ctx context.Context, params types.PlaceSearchParams) ([]types.Place, error) {
	if !c.Configured() {
		return nil, types.ErrProviderUnavailable
	}
	placeType, ok := googleTypes[params.Category]
	if !ok {
		placeType = googleDefaultType
	}

	var body googleNearbyRequest
	body.IncludedTypes = []string{placeType}
	body.MaxResultCount = googleMaxResults
	body.LocationRestriction.Circle.Center = googleLatLng{Latitude: params.Latitude, Longitude: params.Longitude}
	body.LocationRestriction.Circle.Radius = float64(min(params.RadiusMeters, maxGoogleRadius))

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode google places request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/places:searchNearby", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build google places request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", googleFieldMask)

	var out googleNearbyResponse
	if err := doJSON(c.httpClient, req, &out, "google places"); err != nil {
		return nil, err
	}

	places := make([]types.Place, 0, len(out.Places))
	for _, p := range out.Places {
		if p.ID == "" || strings.TrimSpace(p.DisplayName.Text) == "" || p.Location == nil {
			continue
		}
		pt := types.Point{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude}
		places = append(places, types.Place{
			ID:          "gp_" + p.ID,
			Name:        strings.TrimSpace(p.DisplayName.Text),
			Category:    params.Category,
			Latitude:    pt.Latitude,
			Longitude:   pt.Longitude,
			Address:     p.FormattedAddress,
			AverageCost: googlePriceCost(p.PriceLevel, pt),
		})
	}
	c.logger.DebugContext(ctx, "Google Places answered", slog.String("type", placeType), slog.Int("places", len(places)))
	return places, nil
}

func googlePriceCost(level string, at types.Point) *float64 {
	var base float64
	switch level {
	case "":
		return costOf(defaultProviderCost)
	case "PRICE_LEVEL_FREE":
		base = 0
	case "PRICE_LEVEL_INEXPENSIVE":
		base = 15
	case "PRICE_LEVEL_MODERATE":
		base = 30
	case "PRICE_LEVEL_EXPENSIVE":
		base = 60
	case "PRICE_LEVEL_VERY_EXPENSIVE":
		base = 100
	default:
		base = defaultProviderCost
	}
	return costOf(base * cityCostMultiplier(at))
}
