// Package config loads the service configuration from an optional YAML file
// overlaid with environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"forecast-backend/application/query"
	"forecast-backend/domain/versioning"
	"forecast-backend/pkg/utils"
)

// Environment is the deployment environment
type Environment string

// Supported environments
const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Variant names a version may use.
const (
	VariantStandard = "standard"
	VariantRewrite  = "rewrite"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string      `yaml:"serverAddress" validate:"required"`
	Environment   Environment `yaml:"environment" validate:"oneof=development staging production"`
	ServiceName   string      `yaml:"serviceName" validate:"required"`

	// Logging
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`

	// ConfigFile is the YAML file the configuration was read from, if any.
	ConfigFile string `yaml:"-"`

	Query    QueryConfig     `yaml:"query"`
	Forecast ForecastConfig  `yaml:"forecast"`
	Features Features        `yaml:"features"`
	Versions []VersionConfig `yaml:"versions" validate:"min=1,dive"`

	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// QueryConfig is the query policy and version negotiation configuration.
type QueryConfig struct {
	MaxTop               int    `yaml:"maxTop" validate:"min=1"`
	AssumeDefaultVersion bool   `yaml:"assumeDefaultVersion"`
	DefaultVersion       string `yaml:"defaultVersion" validate:"required"`
	// DefaultAllowedDirectives applies to versions without their own list. Empty means all.
	DefaultAllowedDirectives []string `yaml:"defaultAllowedDirectives"`
	CacheMaxAgeSeconds       int      `yaml:"cacheMaxAgeSeconds" validate:"min=0"`
}

// ForecastConfig configures the synthetic data source.
type ForecastConfig struct {
	Count int `yaml:"count" validate:"min=1,max=1000"`
	// Seed fixes the random sequence. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// Features holds feature flags
type Features struct {
	EnableMetrics bool   `yaml:"enableMetrics"`
	EnableTracing bool   `yaml:"enableTracing"`
	OTLPEndpoint  string `yaml:"otlpEndpoint" validate:"omitempty,hostname_port"`
}

// VersionConfig declares one served API version.
type VersionConfig struct {
	Version    string `yaml:"version" validate:"required"`
	Deprecated bool   `yaml:"deprecated"`
	Variant    string `yaml:"variant" validate:"oneof=standard rewrite"`
	// AllowedDirectives overrides the default allowed set when non-empty.
	AllowedDirectives []string `yaml:"allowedDirectives"`
	// UnsupportedKeys are query keys rejected outright by this version.
	UnsupportedKeys []string `yaml:"unsupportedKeys"`
	// StripDirectives are removed from the raw query by the rewrite variant.
	StripDirectives []string `yaml:"stripDirectives"`
}

// Default returns the built-in configuration: 1.0 on the standard variant
// and 2.0 on the rewrite variant.
func Default() *Config {
	return &Config{
		ServerAddress: ":8080",
		Environment:   Development,
		ServiceName:   "forecast-backend",
		LogLevel:      "info",
		Query: QueryConfig{
			MaxTop:               10,
			AssumeDefaultVersion: true,
			DefaultVersion:       "1.0",
			CacheMaxAgeSeconds:   60,
		},
		Forecast: ForecastConfig{Count: 5},
		Versions: []VersionConfig{
			{Version: "1.0", Variant: VariantStandard},
			{
				Version:         "2.0",
				Variant:         VariantRewrite,
				UnsupportedKeys: []string{"$expand", "$apply", "$search", "$compute"},
				StripDirectives: []string{"top", "skip"},
			},
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file named by
// CONFIG_FILE and finally environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = Environment(getEnv("ENVIRONMENT", string(cfg.Environment)))
	cfg.ServiceName = getEnv("SERVICE_NAME", cfg.ServiceName)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))

	cfg.Query.MaxTop = getEnvInt("MAX_TOP", cfg.Query.MaxTop)
	cfg.Query.AssumeDefaultVersion = getEnvBool("ASSUME_DEFAULT_VERSION", cfg.Query.AssumeDefaultVersion)
	cfg.Query.DefaultVersion = getEnv("DEFAULT_API_VERSION", cfg.Query.DefaultVersion)
	cfg.Query.CacheMaxAgeSeconds = getEnvInt("CACHE_MAX_AGE_SECONDS", cfg.Query.CacheMaxAgeSeconds)

	cfg.Forecast.Count = getEnvInt("FORECAST_COUNT", cfg.Forecast.Count)
	if v := os.Getenv("FORECAST_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FORECAST_SEED must be an integer: %w", err)
		}
		cfg.Forecast.Seed = seed
	}

	cfg.Features.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.Features.EnableMetrics)
	cfg.Features.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.Features.EnableTracing)
	cfg.Features.OTLPEndpoint = getEnv("OTLP_ENDPOINT", cfg.Features.OTLPEndpoint)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}
	return nil
}

// Validate checks field constraints and the cross-field rules of the version table.
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Features.EnableTracing && c.Features.OTLPEndpoint == "" {
		return fmt.Errorf("invalid configuration: OTLP_ENDPOINT is required when tracing is enabled")
	}

	seen := make(map[versioning.APIVersion]bool, len(c.Versions))
	for _, vc := range c.Versions {
		v, err := versioning.Parse(vc.Version)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if seen[v.Key()] {
			return fmt.Errorf("invalid configuration: version %s is declared twice", v)
		}
		seen[v.Key()] = true

		if _, err := ParseDirectives(vc.AllowedDirectives); err != nil {
			return fmt.Errorf("invalid configuration: version %s: %w", v, err)
		}
		if _, err := ParseDirectives(vc.StripDirectives); err != nil {
			return fmt.Errorf("invalid configuration: version %s: %w", v, err)
		}
	}

	if _, err := ParseDirectives(c.Query.DefaultAllowedDirectives); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	def, err := versioning.Parse(c.Query.DefaultVersion)
	if err != nil {
		return fmt.Errorf("invalid configuration: default version: %w", err)
	}
	if c.Query.AssumeDefaultVersion && !seen[def.Key()] {
		return fmt.Errorf("invalid configuration: default version %s is not declared", def)
	}
	return nil
}

// ParseDirectives converts configured directive names into kinds. Nil stays nil.
func ParseDirectives(names []string) ([]query.DirectiveKind, error) {
	if len(names) == 0 {
		return nil, nil
	}
	kinds := make([]query.DirectiveKind, 0, len(names))
	for _, n := range names {
		kind, ok := query.ParseDirectiveKind(n)
		if !ok {
			return nil, fmt.Errorf("unknown query directive %q", n)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
