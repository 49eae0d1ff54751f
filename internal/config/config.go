package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the client
type Config struct {
	API           APIConfig           `yaml:"api"`
	Session       SessionConfig       `yaml:"session"`
	Map           MapConfig           `yaml:"map"`
	Feed          FeedConfig          `yaml:"feed"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Chat          ChatConfig          `yaml:"chat"`
	Bridge        BridgeConfig        `yaml:"bridge"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Log           LogConfig           `yaml:"log"`
}

// APIConfig holds REST backend configuration
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig holds session persistence configuration
type SessionConfig struct {
	// StartupPolicy is "discard" (drop any stored token on start) or "restore".
	StartupPolicy string `yaml:"startup_policy"`
	TokenFile     string `yaml:"token_file"`
}

// Point is a latitude/longitude pair in config files
type Point struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// MapConfig holds map surface and routing configuration
type MapConfig struct {
	ArcGISAPIKey    string `yaml:"arcgis_api_key"`
	RouteServiceURL string `yaml:"route_service_url"`
	DefaultCenter   Point  `yaml:"default_center"`
	DefaultZoom     int    `yaml:"default_zoom"`
	LocationZoom    int    `yaml:"location_zoom"`
	// DeviceLocation stands in for device GPS. Nil means geolocation is unavailable.
	DeviceLocation *Point `yaml:"device_location"`
}

// FeedConfig holds activity feed configuration
type FeedConfig struct {
	DefaultRadiusKm float64 `yaml:"default_radius_km"`
}

// NotificationsConfig holds notification polling configuration
type NotificationsConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	PushURL      string        `yaml:"push_url"`
}

// ChatConfig holds chat polling configuration
type ChatConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// BridgeConfig holds location picker delivery configuration
type BridgeConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// MetricsConfig holds prometheus exposition configuration
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	PolicyDiscard = "discard"
	PolicyRestore = "restore"

	DefaultRouteServiceURL = "https://route-api.arcgis.com/arcgis/rest/services/World/Route/NAServer/Route_World/solve"
)

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 15 * time.Second,
		},
		Session: SessionConfig{
			StartupPolicy: PolicyDiscard,
			TokenFile:     defaultTokenFile(),
		},
		Map: MapConfig{
			RouteServiceURL: DefaultRouteServiceURL,
			DefaultCenter:   Point{Latitude: 44.4268, Longitude: 26.1025},
			DefaultZoom:     13,
			LocationZoom:    14,
		},
		Feed: FeedConfig{
			DefaultRadiusKm: 10,
		},
		Notifications: NotificationsConfig{
			PollInterval: 10 * time.Second,
		},
		Chat: ChatConfig{
			PollInterval: 5 * time.Second,
		},
		Bridge: BridgeConfig{
			MaxAttempts:   10,
			RetryInterval: 50 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
// A missing file is not an error. Environment variables (optionally from
// a .env file in the working directory) override file values. Each
// override adjusts the defaults before the file and environment apply.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()
	for _, override := range overrides {
		override(cfg)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SOCIALEXPLORE_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SOCIALEXPLORE_ARCGIS_API_KEY"); v != "" {
		c.Map.ArcGISAPIKey = v
	}
	if v := os.Getenv("SOCIALEXPLORE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SOCIALEXPLORE_TOKEN_FILE"); v != "" {
		c.Session.TokenFile = v
	}
	if v := os.Getenv("SOCIALEXPLORE_SESSION_POLICY"); v != "" {
		c.Session.StartupPolicy = v
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
}

// Validate checks values that would otherwise fail deep inside a component
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Session.StartupPolicy {
	case PolicyDiscard, PolicyRestore:
	default:
		return fmt.Errorf("session.startup_policy must be %q or %q, got %q",
			PolicyDiscard, PolicyRestore, c.Session.StartupPolicy)
	}
	if c.Notifications.PollInterval <= 0 {
		return fmt.Errorf("notifications.poll_interval must be positive")
	}
	if c.Chat.PollInterval <= 0 {
		return fmt.Errorf("chat.poll_interval must be positive")
	}
	if c.Bridge.MaxAttempts < 1 {
		return fmt.Errorf("bridge.max_attempts must be at least 1")
	}
	if c.Feed.DefaultRadiusKm <= 0 {
		return fmt.Errorf("feed.default_radius_km must be positive")
	}
	return nil
}

// RoutingEnabled reports whether the external routing service can be called
func (c *MapConfig) RoutingEnabled() bool {
	return c.ArcGISAPIKey != ""
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".socialexplore-token.json"
	}
	return filepath.Join(home, ".socialexplore", "token.json")
}
