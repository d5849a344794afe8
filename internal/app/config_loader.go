package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"github.com/yourusername/media-relay-go/internal/domain"
)

// EnvPrefix is the prefix for environment overrides, e.g. MEDIARELAY_SERVER_PORT
const EnvPrefix = "MEDIARELAY"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.mediarelay")
		v.AddConfigPath("/etc/mediarelay")
	}

	// Defaults must be known to viper for AutomaticEnv to apply on Unmarshal
	setDefaults(v, config)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Hosting platforms inject a bare PORT
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind port env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)
	v.SetDefault("server.shutdown_timeout", config.Server.ShutdownTimeout)

	v.SetDefault("cors.allowed_origins", config.CORS.AllowedOrigins)
	v.SetDefault("cors.allowed_methods", config.CORS.AllowedMethods)
	v.SetDefault("cors.allowed_headers", config.CORS.AllowedHeaders)
	v.SetDefault("cors.exposed_headers", config.CORS.ExposedHeaders)
	v.SetDefault("cors.allow_credentials", config.CORS.AllowCredentials)

	v.SetDefault("download.metadata_timeout", config.Download.MetadataTimeout)
	v.SetDefault("download.relay_timeout", config.Download.RelayTimeout)
	v.SetDefault("download.media_hosts", config.Download.MediaHosts)
	v.SetDefault("download.allow_plain_http", config.Download.AllowPlainHTTP)

	v.SetDefault("fetcher.user_agent", config.Fetcher.UserAgent)
	v.SetDefault("fetcher.connect_timeout", config.Fetcher.ConnectTimeout)
	v.SetDefault("fetcher.max_page_bytes", config.Fetcher.MaxPageBytes)

	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)

	v.SetDefault("metrics.enabled", config.Metrics.Enabled)
	v.SetDefault("metrics.path", config.Metrics.Path)
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration and reports every problem found
func validateConfig(config *domain.Config) error {
	var result *multierror.Error

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("invalid server port: %d", config.Server.Port))
	}

	if config.Download.MetadataTimeout < 0 || config.Download.RelayTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("download timeouts cannot be negative"))
	} else if config.Download.RelayTimeout > 0 && config.Download.MetadataTimeout > config.Download.RelayTimeout {
		result = multierror.Append(result, fmt.Errorf("metadata timeout %s exceeds relay timeout %s",
			config.Download.MetadataTimeout, config.Download.RelayTimeout))
	}

	if len(config.Download.MediaHosts) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one download media host must be configured"))
	}

	if config.Fetcher.MaxPageBytes < 0 {
		result = multierror.Append(result, fmt.Errorf("fetcher max page bytes cannot be negative"))
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one CORS origin must be configured"))
	}
	for _, origin := range config.CORS.AllowedOrigins {
		if origin == "*" && config.CORS.AllowCredentials {
			result = multierror.Append(result, fmt.Errorf("wildcard CORS origin cannot be combined with credentials"))
			break
		}
	}

	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		result = multierror.Append(result, fmt.Errorf("metrics path must start with /: %q", config.Metrics.Path))
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return result.ErrorOrNil()
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, config)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
