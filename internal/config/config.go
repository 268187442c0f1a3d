package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. INVENTORY_SERVER_PORT.
	EnvPrefix = "INVENTORY"
	// ConfigFileEnv names the variable holding the YAML file path.
	ConfigFileEnv = "INVENTORY_CONFIG_FILE"
	// DefaultConfigFile is read when present and ConfigFileEnv is unset.
	DefaultConfigFile = "config.yaml"
	// DefaultDatasetSource is the public superstore order sample.
	DefaultDatasetSource = "https://raw.githubusercontent.com/leonism/sample-superstore/master/data/superstore.csv"
)

// Config holds all application configuration. Leaf fields use split_words so
// that only prefixed variables are read (READ_TIMEOUT -> INVENTORY_SERVER_READ_TIMEOUT).
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	AllowedOrigins  []string      `yaml:"allowed_origins" split_words:"true"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatasetConfig locates the order dataset.
type DatasetConfig struct {
	Source       string        `yaml:"source" split_words:"true"` // local path or http(s) URL
	FetchTimeout time.Duration `yaml:"fetch_timeout" split_words:"true"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"` // json or text
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true"`
	Burst   int     `yaml:"burst" split_words:"true"`
}

type DashboardConfig struct {
	PageSize int `yaml:"page_size" split_words:"true"`
}

type ExportConfig struct {
	FileName  string `yaml:"file_name" split_words:"true"`
	BOMPrefix bool   `yaml:"bom_prefix" split_words:"true"`
}

type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" split_words:"true"`
	WriteBufferSize int           `yaml:"write_buffer_size" split_words:"true"`
	PingPeriod      time.Duration `yaml:"ping_period" split_words:"true"`
	PongWait        time.Duration `yaml:"pong_wait" split_words:"true"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8050,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Dataset: DatasetConfig{
			Source:       DefaultDatasetSource,
			FetchTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     50,
			Burst:   100,
		},
		Dashboard: DashboardConfig{
			PageSize: 10,
		},
		Export: ExportConfig{
			FileName: "filtered_inventory.csv",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file, then the
// environment. A missing default config file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, explicit := os.LookupEnv(ConfigFileEnv)
	if !explicit || path == "" {
		path = DefaultConfigFile
	}
	if err := loadFromFile(path, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// The bare PORT variable is honoured; INVENTORY_SERVER_PORT wins over it
	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", p, err)
		}
		cfg.Server.Port = port
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file at path onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if strings.TrimSpace(c.Dataset.Source) == "" {
		return errors.New("dataset source must be set")
	}
	if c.Dataset.FetchTimeout <= 0 {
		return errors.New("dataset fetch timeout must be positive")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format: %q", c.Logging.Format)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("invalid rate limit: rps=%v burst=%d", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	if c.Dashboard.PageSize <= 0 {
		return fmt.Errorf("invalid page size: %d", c.Dashboard.PageSize)
	}
	if c.WebSocket.PingPeriod <= 0 || c.WebSocket.PongWait <= c.WebSocket.PingPeriod {
		return errors.New("websocket pong wait must exceed a positive ping period")
	}
	return nil
}
