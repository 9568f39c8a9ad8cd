package weather

import (
	"strings"

	"github.com/FACorreiaa/go-route-planner/internal/types"
)

// Sensitivity holds the user's tolerance levels. Zero means insensitive.
type Sensitivity struct {
	Cold     int `json:"cold_sensitivity"`
	Heat     int `json:"heat_sensitivity"`
	Humidity int `json:"humidity_sensitivity"`
}

// SensitivityOf extracts the sensitivities of a route request.
func SensitivityOf(req types.RouteRequest) Sensitivity {
	return Sensitivity{Cold: req.ColdSensitivity, Heat: req.HeatSensitivity, Humidity: req.HumiditySensitivity}
}

var badConditions = []string{"Rain", "Thunderstorm", "Snow"}

// IsSuitable reports whether the weather is acceptable for outdoor visits.
// Rules short-circuit in order: cold, heat, humidity, precipitation.
func IsSuitable(w types.WeatherSnapshot, s Sensitivity) bool {
	if s.Cold > 0 && w.Temperature < float64(15-2*s.Cold) {
		return false
	}
	if s.Heat > 0 && w.Temperature > float64(25+2*s.Heat) {
		return false
	}
	if s.Humidity > 0 && w.Humidity > 70+5*s.Humidity {
		return false
	}
	for _, c := range badConditions {
		if strings.EqualFold(strings.TrimSpace(w.Condition), c) {
			return s.Cold < 3 && s.Heat < 3
		}
	}
	return true
}

// NeutralOnly keeps the places unaffected by weather. The input is not modified.
func NeutralOnly(places []types.Place) []types.Place {
	out := make([]types.Place, 0, len(places))
	for _, p := range places {
		if p.WeatherNeutral() {
			out = append(out, p)
		}
	}
	return out
}
