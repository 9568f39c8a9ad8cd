package types

import "time"

// WeatherSnapshot is the current conditions at a location.
type WeatherSnapshot struct {
	Temperature float64 `json:"temperature"` // °C
	Condition   string  `json:"condition"`   // provider main group, e.g. Clear, Rain
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`   // %
	WindSpeed   float64 `json:"wind_speed"` // m/s
	FeelsLike   float64 `json:"feels_like"` // °C
}

// DefaultWeather is the neutral snapshot used when no provider answer is available.
func DefaultWeather() WeatherSnapshot {
	return WeatherSnapshot{
		Temperature: 20.0,
		Condition:   "Clear",
		Description: "clear sky",
		Humidity:    60,
		WindSpeed:   10.0,
		FeelsLike:   20.0,
	}
}

// ForecastEntry is one 3-hour forecast step.
type ForecastEntry struct {
	Time time.Time `json:"time"`
	WeatherSnapshot
}

// WeatherCheckResponse is the result of a suitability check.
type WeatherCheckResponse struct {
	Suitable bool            `json:"suitable"`
	Weather  WeatherSnapshot `json:"weather"`
}
