// Package config loads the demo application's settings.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/olablt/gio-viewport/geo"
)

// Config holds all application configuration.
type Config struct {
	Map     MapConfig     `mapstructure:"map"`
	Tiles   TilesConfig   `mapstructure:"tiles"`
	Persist PersistConfig `mapstructure:"persist"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

type MapConfig struct {
	Lat        float64 `mapstructure:"lat"`
	Lng        float64 `mapstructure:"lng"`
	Zoom       float64 `mapstructure:"zoom"`
	MinZoom    float64 `mapstructure:"min_zoom"`
	MaxZoom    float64 `mapstructure:"max_zoom"`
	Projection string  `mapstructure:"projection"`
	Lang       string  `mapstructure:"lang"`
}

type TilesConfig struct {
	URL         string   `mapstructure:"url"`
	Subdomains  []string `mapstructure:"subdomains"`
	ErrorURL    string   `mapstructure:"error_url"`
	Attribution string   `mapstructure:"attribution"`
	Retries     int      `mapstructure:"retries"`
	Margin      float64  `mapstructure:"margin"`
	Workers     int      `mapstructure:"workers"`
	CacheSize   int      `mapstructure:"cache_size"`
	RateLimit   float64  `mapstructure:"rate_limit"`
	UserAgent   string   `mapstructure:"user_agent"`
	Timeout     int      `mapstructure:"timeout"`
}

type PersistConfig struct {
	// Backend is "none", "memory" or "valkey".
	Backend    string `mapstructure:"backend"`
	Key        string `mapstructure:"key"`
	ValkeyAddr string `mapstructure:"valkey_addr"`
}

type MetricsConfig struct {
	// Addr serves /metrics when not empty.
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ParsedProjection parses Projection.
func (m MapConfig) ParsedProjection() (geo.Projection, error) {
	var p geo.Projection
	err := p.UnmarshalText([]byte(m.Projection))
	return p, err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("map.lat", 54.6872)
	v.SetDefault("map.lng", 25.2797)
	v.SetDefault("map.zoom", 12)
	v.SetDefault("map.min_zoom", 0)
	v.SetDefault("map.max_zoom", 19)
	v.SetDefault("map.projection", "spherical")
	v.SetDefault("map.lang", "en")
	v.SetDefault("tiles.url", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("tiles.subdomains", []string{})
	v.SetDefault("tiles.error_url", "")
	v.SetDefault("tiles.attribution", "© OpenStreetMap contributors")
	v.SetDefault("tiles.retries", 2)
	v.SetDefault("tiles.margin", 128)
	v.SetDefault("tiles.workers", 8)
	v.SetDefault("tiles.cache_size", 512)
	v.SetDefault("tiles.rate_limit", 0)
	v.SetDefault("tiles.user_agent", "gio-viewport/1.0")
	v.SetDefault("tiles.timeout", 15)
	v.SetDefault("persist.backend", "memory")
	v.SetDefault("persist.key", "viewport")
	v.SetDefault("persist.valkey_addr", "localhost:6379")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from defaults, the YAML file at path (optional,
// skipped when empty) and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// Environment variables: GIOVIEWPORT_TILES_URL → tiles.url
	v.SetEnvPrefix("GIOVIEWPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Map.Lat < -geo.MaxLatitude || c.Map.Lat > geo.MaxLatitude {
		errs = append(errs, fmt.Sprintf("map.lat must be within ±%g, got %g", geo.MaxLatitude, c.Map.Lat))
	}
	if c.Map.Lng < -geo.MaxLongitude || c.Map.Lng > geo.MaxLongitude {
		errs = append(errs, fmt.Sprintf("map.lng must be within ±%g, got %g", geo.MaxLongitude, c.Map.Lng))
	}
	if c.Map.MinZoom > c.Map.MaxZoom {
		errs = append(errs, fmt.Sprintf("map.min_zoom (%g) exceeds map.max_zoom (%g)", c.Map.MinZoom, c.Map.MaxZoom))
	}
	if _, err := c.Map.ParsedProjection(); err != nil {
		errs = append(errs, fmt.Sprintf("map.projection must be spherical or ellipsoidal, got %q", c.Map.Projection))
	}
	if c.Tiles.URL == "" {
		errs = append(errs, "tiles.url is required")
	}
	if c.Tiles.Retries < 0 {
		errs = append(errs, "tiles.retries must not be negative")
	}
	if c.Tiles.Workers <= 0 {
		errs = append(errs, "tiles.workers must be positive")
	}
	if c.Tiles.Timeout <= 0 {
		errs = append(errs, "tiles.timeout must be positive")
	}
	switch c.Persist.Backend {
	case "none", "memory":
	case "valkey":
		if c.Persist.ValkeyAddr == "" {
			errs = append(errs, "persist.valkey_addr is required for the valkey backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("persist.backend must be none, memory or valkey, got %q", c.Persist.Backend))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
