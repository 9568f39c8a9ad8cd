package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RouteType selects the scoring strategy and place-count multiplier of a route variant.
type RouteType string

const (
	RouteTypeEconomic RouteType = "ECONOMIC"
	RouteTypeBalanced RouteType = "BALANCED"
	RouteTypeComfort  RouteType = "COMFORT"
)

// RouteTypes is the order in which variants are generated and returned.
var RouteTypes = []RouteType{RouteTypeEconomic, RouteTypeBalanced, RouteTypeComfort}

// PlaceMultiplier scales the requested number of places for the route type.
func (t RouteType) PlaceMultiplier() float64 {
	switch t {
	case RouteTypeEconomic:
		return 0.8
	case RouteTypeComfort:
		return 1.2
	default:
		return 1.0
	}
}

// DisplayName is the human readable route title.
func (t RouteType) DisplayName() string {
	switch t {
	case RouteTypeEconomic:
		return "Economic route"
	case RouteTypeComfort:
		return "Comfort route"
	default:
		return "Balanced route"
	}
}

// TransportationMode is how the user moves between steps.
type TransportationMode string

const (
	TransportWalking         TransportationMode = "WALKING"
	TransportBicycle         TransportationMode = "BICYCLE"
	TransportPublicTransport TransportationMode = "PUBLIC_TRANSPORT"
	TransportCar             TransportationMode = "CAR"
	TransportMixed           TransportationMode = "MIXED"
)

var transportationModes = []TransportationMode{
	TransportWalking, TransportBicycle, TransportPublicTransport, TransportCar, TransportMixed,
}

// ParseTransportationMode resolves a mode case-insensitively. Empty or unknown
// values resolve to MIXED so downstream code never sees an unset mode.
func ParseTransportationMode(s string) TransportationMode {
	s = strings.TrimSpace(s)
	for _, m := range transportationModes {
		if strings.EqualFold(string(m), s) {
			return m
		}
	}
	return TransportMixed
}

// UnmarshalJSON normalizes null, empty and unknown values to MIXED.
func (m *TransportationMode) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*m = TransportMixed
		return nil
	}
	*m = ParseTransportationMode(*raw)
	return nil
}

// TimeSlot is the part of the day a step falls into.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "MORNING"
	TimeSlotAfternoon TimeSlot = "AFTERNOON"
	TimeSlotEvening   TimeSlot = "EVENING"
)

// TimeSlotForIndex maps a zero-based step position to its time slot.
func TimeSlotForIndex(i int) TimeSlot {
	switch {
	case i < 2:
		return TimeSlotMorning
	case i < 5:
		return TimeSlotAfternoon
	default:
		return TimeSlotEvening
	}
}

// DefaultNumberOfPlaces is used when a request does not state a target.
const DefaultNumberOfPlaces = 5

// RouteRequest is the input of route generation.
type RouteRequest struct {
	Latitude            float64            `json:"latitude" validate:"min=-90,max=90"`
	Longitude           float64            `json:"longitude" validate:"min=-180,max=180"`
	Activities          []PlaceCategory    `json:"activities" validate:"required,min=1,dive,oneof=RESTAURANT CULTURE LEISURE DISCOVERY"`
	MaxBudget           *float64           `json:"max_budget,omitempty" validate:"omitempty,gte=0"`
	NumberOfPlaces      int                `json:"number_of_places,omitempty" validate:"gte=0,lte=50"`
	TransportationMode  TransportationMode `json:"transportation_mode,omitempty"`
	ColdSensitivity     int                `json:"cold_sensitivity" validate:"gte=0"`
	HeatSensitivity     int                `json:"heat_sensitivity" validate:"gte=0"`
	HumiditySensitivity int                `json:"humidity_sensitivity" validate:"gte=0"`
	RequiredPlaceIDs    []string           `json:"required_place_ids,omitempty" validate:"omitempty,dive,required"`
}

// Origin returns the request location.
func (r RouteRequest) Origin() Point {
	return Point{Latitude: r.Latitude, Longitude: r.Longitude}
}

// HasBudget reports whether a maximum budget was set.
func (r RouteRequest) HasBudget() bool {
	return r.MaxBudget != nil
}

// Normalize applies request defaults: 5 places when unset and MIXED transport
// when the mode is absent or unrecognized.
func (r RouteRequest) Normalize() RouteRequest {
	if r.NumberOfPlaces <= 0 {
		r.NumberOfPlaces = DefaultNumberOfPlaces
	}
	r.TransportationMode = ParseTransportationMode(string(r.TransportationMode))
	return r
}

// Step is one visit of a route.
type Step struct {
	ID                   string   `json:"id"`
	Order                int      `json:"order"`
	Place                Place    `json:"place"`
	TimeSlot             TimeSlot `json:"time_slot"`
	EstimatedDuration    int      `json:"estimated_duration"`               // minutes
	DistanceFromPrevious *float64 `json:"distance_from_previous,omitempty"` // km, nil for the first step
	Cost                 float64  `json:"cost"`
	Notes                string   `json:"notes,omitempty"`
}

// GeneratedRoute is one assembled route variant.
type GeneratedRoute struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name" validate:"required,max=200"`
	RouteType          RouteType          `json:"route_type" validate:"oneof=ECONOMIC BALANCED COMFORT"`
	TotalBudget        float64            `json:"total_budget" validate:"gte=0"`
	TotalDuration      int                `json:"total_duration" validate:"gte=0"` // minutes
	TransportationMode TransportationMode `json:"transportation_mode"`
	City               string             `json:"city,omitempty" validate:"max=200"`
	Steps              []Step             `json:"steps"`
}

// SavedRoute is a generated route persisted for a user.
type SavedRoute struct {
	GeneratedRoute
	UserID     uuid.UUID `json:"user_id"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SaveRouteRequest is the body of a save call. IsFavorite keeps the stored
// value when omitted.
type SaveRouteRequest struct {
	GeneratedRoute
	IsFavorite *bool `json:"is_favorite,omitempty"`
}
