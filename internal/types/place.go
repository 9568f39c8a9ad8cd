package types

import "strings"

// PlaceCategory is the activity family a place belongs to.
type PlaceCategory string

const (
	PlaceCategoryRestaurant PlaceCategory = "RESTAURANT"
	PlaceCategoryCulture    PlaceCategory = "CULTURE"
	PlaceCategoryLeisure    PlaceCategory = "LEISURE"
	PlaceCategoryDiscovery  PlaceCategory = "DISCOVERY"
)

// PlaceCategories lists every supported category in a stable order.
var PlaceCategories = []PlaceCategory{
	PlaceCategoryRestaurant,
	PlaceCategoryCulture,
	PlaceCategoryLeisure,
	PlaceCategoryDiscovery,
}

// ParsePlaceCategory matches a category case-insensitively.
func ParsePlaceCategory(s string) (PlaceCategory, bool) {
	for _, c := range PlaceCategories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a candidate visit target. Values are read-only snapshots for the
// lifetime of one generation request.
type Place struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Category          PlaceCategory `json:"category"`
	Latitude          float64       `json:"latitude"`
	Longitude         float64       `json:"longitude"`
	Address           string        `json:"address,omitempty"`
	Description       string        `json:"description,omitempty"`
	AverageCost       *float64      `json:"average_cost,omitempty"`        // nil means free or unknown
	EstimatedWaitTime *int          `json:"estimated_wait_time,omitempty"` // minutes
	ColdImpact        int           `json:"cold_impact"`
	HeatImpact        int           `json:"heat_impact"`
	HumidityImpact    int           `json:"humidity_impact"`
}

// Point returns the place coordinates.
func (p Place) Point() Point {
	return Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Cost returns the average cost, treating an unset value as 0.
func (p Place) Cost() float64 {
	if p.AverageCost == nil {
		return 0
	}
	return *p.AverageCost
}

// HasKnownCost reports whether the place carries a cost estimate.
func (p Place) HasKnownCost() bool {
	return p.AverageCost != nil
}

// WaitMinutes returns the estimated queueing time, 0 when unknown.
func (p Place) WaitMinutes() int {
	if p.EstimatedWaitTime == nil {
		return 0
	}
	return *p.EstimatedWaitTime
}

// WeatherNeutral reports whether the place is unaffected by cold, heat and humidity.
func (p Place) WeatherNeutral() bool {
	return p.ColdImpact == 0 && p.HeatImpact == 0 && p.HumidityImpact == 0
}

// PlaceSearchParams are the query parameters of a catalog search.
type PlaceSearchParams struct {
	Latitude     float64       `validate:"min=-90,max=90"`
	Longitude    float64       `validate:"min=-180,max=180"`
	RadiusMeters int           `validate:"gt=0,lte=50000"`
	Category     PlaceCategory `validate:"required,oneof=RESTAURANT CULTURE LEISURE DISCOVERY"`
}
