package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Log           LogConfig
	HTTP          HTTPConfig
	Sources       SourcesConfig
	ShipmentStore ShipmentStoreConfig
	Reload        ReloadConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// SourceConfig holds the connection settings for one order source feed
type SourceConfig struct {
	BaseURL        string
	AccessToken    string
	TimeoutSeconds int
}

// SourcesConfig holds the per-source feed settings
type SourcesConfig struct {
	Shopify    SourceConfig
	VTEX       SourceConfig
	Tiendanube SourceConfig
}

// ShipmentStoreConfig holds the shipment store client settings
type ShipmentStoreConfig struct {
	BaseURL        string
	APIToken       string
	TimeoutSeconds int
}

// ReloadConfig holds the periodic reload scheduler settings
type ReloadConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with LOGISTICS_ prefix (e.g., LOGISTICS_SHIPMENT_STORE_API_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("LOGISTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Sources: SourcesConfig{
			Shopify: SourceConfig{
				BaseURL:        v.GetString("sources.shopify.base_url"),
				AccessToken:    v.GetString("sources.shopify.access_token"),
				TimeoutSeconds: v.GetInt("sources.shopify.timeout_seconds"),
			},
			VTEX: SourceConfig{
				BaseURL:        v.GetString("sources.vtex.base_url"),
				AccessToken:    v.GetString("sources.vtex.access_token"),
				TimeoutSeconds: v.GetInt("sources.vtex.timeout_seconds"),
			},
			Tiendanube: SourceConfig{
				BaseURL:        v.GetString("sources.tiendanube.base_url"),
				AccessToken:    v.GetString("sources.tiendanube.access_token"),
				TimeoutSeconds: v.GetInt("sources.tiendanube.timeout_seconds"),
			},
		},
		ShipmentStore: ShipmentStoreConfig{
			BaseURL:        v.GetString("shipment_store.base_url"),
			APIToken:       v.GetString("shipment_store.api_token"),
			TimeoutSeconds: v.GetInt("shipment_store.timeout_seconds"),
		},
		Reload: ReloadConfig{
			Enabled:  v.GetBool("reload.enabled"),
			Interval: v.GetDuration("reload.interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "logistics-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly
	// configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Reload.Interval == 0 {
		cfg.Reload.Interval = 5 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Reload.Interval < time.Second {
		return fmt.Errorf("reload.interval must be at least one second")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.ShipmentStore.BaseURL == "" {
			return fmt.Errorf("shipment_store.base_url is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}
