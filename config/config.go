package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMode           string `mapstructure:"sslmode"`
			MaxConns          int32  `mapstructure:"maxconns"`
			MaxConnWaitingSec int    `mapstructure:"maxconnwaitingtime"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort       string        `mapstructure:"httpport"`
		Timeout        time.Duration `mapstructure:"httptimeout"`
		RateLimit      int           `mapstructure:"ratelimit"` // generate calls per minute per IP
		AllowedOrigins []string      `mapstructure:"allowedorigins"`
	} `mapstructure:"server"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Routing RoutingConfig `mapstructure:"routing"`
	Weather WeatherConfig `mapstructure:"weather"`
	Places  PlacesConfig  `mapstructure:"places"`
	Planner PlannerConfig `mapstructure:"planner"`
}

type JWTConfig struct {
	SecretKey      string        `mapstructure:"secretkey"`
	Issuer         string        `mapstructure:"issuer"`
	Audience       string        `mapstructure:"audience"`
	AccessTokenTTL time.Duration `mapstructure:"accesstokenttl"`
}

// RoutingConfig configures the OpenRouteService client.
type RoutingConfig struct {
	BaseURL  string        `mapstructure:"baseurl"`
	APIKey   string        `mapstructure:"apikey"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cachettl"`
}

// WeatherConfig configures the OpenWeatherMap client.
type WeatherConfig struct {
	BaseURL string        `mapstructure:"baseurl"`
	APIKey  string        `mapstructure:"apikey"`
	Timeout time.Duration `mapstructure:"timeout"`
	Units   string        `mapstructure:"units"`
	Lang    string        `mapstructure:"lang"`
}

// PlacesConfig configures the place providers and the search cache. Yelp and
// Google are only queried when their API keys are set.
type PlacesConfig struct {
	OverpassURL  string        `mapstructure:"overpassurl"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheTTL     time.Duration `mapstructure:"cachettl"`
	MaxElements  int           `mapstructure:"maxelements"`
	YelpURL      string        `mapstructure:"yelpurl"`
	YelpAPIKey   string        `mapstructure:"yelpapikey"`
	GoogleURL    string        `mapstructure:"googleurl"`
	GoogleAPIKey string        `mapstructure:"googleapikey"`
}

// PlannerConfig holds the generation radii. They are reported, not tuned.
type PlannerConfig struct {
	FetchRadiusMeters  int `mapstructure:"fetchradiusmeters"`
	SearchRadiusMeters int `mapstructure:"searchradiusmeters"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
