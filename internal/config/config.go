package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL         string   `mapstructure:"api_base_url"`    // Backend REST base, e.g. http://localhost:4000/api
	APIKey             string   `mapstructure:"api_key"`         // Bearer token; also sent in the socket authenticate message
	StatusPort         int      `mapstructure:"status_port"`     // Local ops/status HTTP listener
	AllowedOrigins     []string `mapstructure:"allowed_origins"` // CORS for the status listener (dashboard dev server)
	LogLevel           string   `mapstructure:"log_level"`
	RequestTimeoutSec  int      `mapstructure:"request_timeout_sec"`  // Per REST request; 0 = default 30s
	ConnectTimeoutSec  int      `mapstructure:"connect_timeout_sec"`  // Socket dial bound; 0 = default 10s
	ReconnectAttempts  int      `mapstructure:"reconnect_attempts"`   // Max automatic reconnects; 0 = default 5
	ReconnectDelayMs   int      `mapstructure:"reconnect_delay_ms"`   // Fixed delay between attempts; 0 = default 1000
	PollIntervalMs     int      `mapstructure:"poll_interval_ms"`     // Job status polling; 0 = default 2000
	CacheMaxEntries    int      `mapstructure:"cache_max_entries"`    // Query cache bound; 0 = default 1024
	RefetchPerSec      float64  `mapstructure:"refetch_per_sec"`      // Background refetch rate cap; 0 = default 10
	RefetchBurst       int      `mapstructure:"refetch_burst"`        // Token bucket burst; 0 = default 20
	OTLPEndpoint       string   `mapstructure:"otlp_endpoint"`        // Tracing; empty = disabled
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"` // Graceful shutdown wait
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/reachforge/")
	viper.AddConfigPath("$HOME/.reachforge")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("api_base_url", "http://localhost:4000/api")
	viper.SetDefault("api_key", "")
	viper.SetDefault("status_port", 8090)
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("log_level", "info")
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("connect_timeout_sec", 10)
	viper.SetDefault("reconnect_attempts", 5)
	viper.SetDefault("reconnect_delay_ms", 1000)
	viper.SetDefault("poll_interval_ms", 2000)
	viper.SetDefault("cache_max_entries", 1024)
	viper.SetDefault("refetch_per_sec", 10.0)
	viper.SetDefault("refetch_burst", 20)
	viper.SetDefault("otlp_endpoint", "")
	viper.SetDefault("shutdown_timeout_sec", 15)

	// Environment variables
	viper.SetEnvPrefix("REACHFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := url.Parse(cfg.APIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid api_base_url: %w", err)
	}

	return &cfg, nil
}

// SocketURL derives the event-stream endpoint from the REST base URL:
// same network location, http(s) upgraded to ws(s), /ws path.
func (c *Config) SocketURL() (string, error) {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid api_base_url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in api_base_url", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String(), nil
}
