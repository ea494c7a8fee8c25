// Package config provides configuration management for the evidence service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the evidence service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings for the DOI cache.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// HTTP contains the retrying HTTP client settings shared by all sources.
	HTTP HTTPClientConfig `mapstructure:"http"`
	// Sources contains the per-tier upstream settings.
	Sources SourcesConfig `mapstructure:"sources"`
	// Pipeline contains resolution pipeline settings.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Enabled controls whether the Postgres-backed DOI cache is used. When
	// false the service falls back to an in-memory cache.
	Enabled bool `mapstructure:"enabled"`
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool.
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open.
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// HTTPClientConfig holds the shared upstream HTTP client settings.
type HTTPClientConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxAttempts is the total attempt ceiling per request, first try included.
	MaxAttempts int `mapstructure:"max_attempts"`
	// BaseDelay is the base backoff delay between retries.
	BaseDelay time.Duration `mapstructure:"base_delay"`
	// UserAgent is sent with every upstream request.
	UserAgent string `mapstructure:"user_agent"`
	// RateLimit is the global maximum upstream requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// RateBurst is the token bucket burst size.
	RateBurst int `mapstructure:"rate_burst"`
}

// SourcesConfig holds the per-tier upstream settings.
type SourcesConfig struct {
	// NCBI contains E-utilities settings shared by the PMC and PubMed tiers.
	NCBI NCBIConfig `mapstructure:"ncbi"`
	// Elsevier contains the publisher API tier settings.
	Elsevier ElsevierConfig `mapstructure:"elsevier"`
	// UBN contains the scraped repository tier settings.
	UBN UBNConfig `mapstructure:"ubn"`
	// Grobid contains the PDF extraction service settings.
	Grobid GrobidConfig `mapstructure:"grobid"`
	// Unpaywall contains the open-access tier settings.
	Unpaywall UnpaywallConfig `mapstructure:"unpaywall"`
}

// NCBIConfig holds NCBI E-utilities settings.
type NCBIConfig struct {
	// Email identifies the caller to NCBI per their usage policy.
	Email string `mapstructure:"email"`
	// APIKey raises the allowed request rate (loaded from EVIDENCE_SOURCES_NCBI_API_KEY).
	APIKey string `mapstructure:"-"`
}

// ElsevierConfig holds the publisher API tier settings.
type ElsevierConfig struct {
	// APIKey is the Elsevier API key (loaded from EVIDENCE_SOURCES_ELSEVIER_API_KEY).
	// The tier is disabled without it.
	APIKey string `mapstructure:"-"`
	// PublisherNames lists the publisher display names routed to this tier.
	PublisherNames []string `mapstructure:"publisher_names"`
}

// UBNConfig holds the scraped repository tier settings.
type UBNConfig struct {
	// BaseURL is the repository discovery UI root. The tier is disabled
	// without it.
	BaseURL string `mapstructure:"base_url"`
	// MaxPDFSize is the maximum document size in bytes.
	MaxPDFSize int64 `mapstructure:"max_pdf_size"`
}

// GrobidConfig holds the PDF extraction service settings.
type GrobidConfig struct {
	// BaseURL is the GROBID instance root. PDF-based tiers are disabled
	// without it.
	BaseURL string `mapstructure:"base_url"`
}

// UnpaywallConfig holds the open-access tier settings.
type UnpaywallConfig struct {
	// Email is required by the Unpaywall API terms. The tier is disabled
	// without it.
	Email string `mapstructure:"email"`
}

// PipelineConfig holds resolution pipeline settings.
type PipelineConfig struct {
	// MaxWorkers bounds the number of DOIs resolved concurrently.
	MaxWorkers int `mapstructure:"max_workers"`
	// Domains lists the analysis domains run per document.
	Domains []string `mapstructure:"domains"`
	// CacheEnabled controls the read-through DOI result cache.
	CacheEnabled bool `mapstructure:"cache_enabled"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("EVIDENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/evidence-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Sources.NCBI.APIKey = os.Getenv("EVIDENCE_SOURCES_NCBI_API_KEY")
	cfg.Sources.Elsevier.APIKey = os.Getenv("EVIDENCE_SOURCES_ELSEVIER_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "evidence")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "evidence_service")
	// Default to "require" for production security. Use EVIDENCE_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// HTTP client defaults
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.max_attempts", 4)
	v.SetDefault("http.base_delay", "2s")
	v.SetDefault("http.user_agent", "labsignal-evidence-service/1.0")
	v.SetDefault("http.rate_limit", 3.0) // NCBI allows max 3 req/sec without API key
	v.SetDefault("http.rate_burst", 3)

	// Source defaults
	v.SetDefault("sources.ncbi.email", "")
	v.SetDefault("sources.elsevier.publisher_names", []string{"Elsevier BV", "Elsevier"})
	v.SetDefault("sources.ubn.base_url", "")
	v.SetDefault("sources.ubn.max_pdf_size", 100*1024*1024)
	v.SetDefault("sources.grobid.base_url", "http://localhost:8070")
	v.SetDefault("sources.unpaywall.email", "")

	// Pipeline defaults
	v.SetDefault("pipeline.max_workers", 4)
	v.SetDefault("pipeline.domains", []string{"animal", "ethics"})
	v.SetDefault("pipeline.cache_enabled", true)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
		}
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.HTTP.MaxAttempts <= 0 {
		return fmt.Errorf("http max_attempts must be positive")
	}
	if c.HTTP.RateLimit <= 0 {
		return fmt.Errorf("http rate_limit must be positive")
	}

	if c.Pipeline.MaxWorkers <= 0 {
		return fmt.Errorf("pipeline max_workers must be positive")
	}
	validDomains := map[string]bool{"animal": true, "ethics": true}
	for _, d := range c.Pipeline.Domains {
		if !validDomains[strings.ToLower(d)] {
			return fmt.Errorf("unknown analysis domain: %s", d)
		}
	}

	return nil
}
