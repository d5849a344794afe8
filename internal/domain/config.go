package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Download DownloadConfig `mapstructure:"download"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CORSConfig contains the cross-origin policy applied to every route
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"` // "*" allows any origin
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// DownloadConfig bounds the lifetime of a single relay.
// A zero duration disables the bound.
type DownloadConfig struct {
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"` // Metadata and page fetch
	RelayTimeout    time.Duration `mapstructure:"relay_timeout"`    // Whole request, including streaming
	MediaHosts      []string      `mapstructure:"media_hosts"`      // CDN hosts scraped media may be relayed from
	AllowPlainHTTP  bool          `mapstructure:"allow_plain_http"`
}

// MediaPolicy returns the host policy applied to scraped media URLs
func (c DownloadConfig) MediaPolicy() MediaHostPolicy {
	return MediaHostPolicy{Hosts: c.MediaHosts, AllowHTTP: c.AllowPlainHTTP}
}

// FetcherConfig configures the outbound HTTP client
type FetcherConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPageBytes   int64         `mapstructure:"max_page_bytes"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ShutdownTimeout: 30 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"http://localhost:5173"},
			AllowedMethods:   []string{"POST"},
			AllowedHeaders:   []string{"Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
		},
		Download: DownloadConfig{
			MetadataTimeout: 30 * time.Second,
			RelayTimeout:    30 * time.Minute,
			MediaHosts:      []string{"cdninstagram.com", "fbcdn.net", "twimg.com"},
		},
		Fetcher: FetcherConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ConnectTimeout: 10 * time.Second,
			MaxPageBytes:   10 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
