package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// OrchestratorConfig represents the orchestrator service configuration
type OrchestratorConfig struct {
	Server    OrchestratorServerConfig `mapstructure:"server"`
	Workers   []WorkerConfig           `mapstructure:"workers"`
	Client    ClientConfig             `mapstructure:"client"`
	Health    HealthConfig             `mapstructure:"health"`
	Ingestion IngestionConfig          `mapstructure:"ingestion"`
	Scheduler SchedulerConfig          `mapstructure:"scheduler"`
	RateLimit RateLimiterConfig        `mapstructure:"rate_limit"`
	Metrics   MetricsConfig            `mapstructure:"metrics"`
	Logging   LoggingConfig            `mapstructure:"logging"`
}

// OrchestratorServerConfig holds the user-facing gRPC and HTTP listeners
type OrchestratorServerConfig struct {
	Name            string        `mapstructure:"name"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// WorkerConfig describes one shard. ID defaults to "<host>:<port>".
type WorkerConfig struct {
	ID   string `mapstructure:"id"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Address returns the dial address of the worker
func (w WorkerConfig) Address() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// ClientConfig holds shard RPC client configuration
type ClientConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	InitWorkers int           `mapstructure:"init_workers"`
}

// HealthConfig holds health monitoring configuration. GateWait bounds how
// long ingestion waits for the fleet to become healthy before holding its
// current payload back.
type HealthConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	PingTimeout    time.Duration `mapstructure:"ping_timeout"`
	GateWait       time.Duration `mapstructure:"gate_wait"`
	StartupTimeout time.Duration `mapstructure:"startup_timeout"`
}

// IngestionConfig holds the Kafka ingestion source configuration
type IngestionConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	Group        string        `mapstructure:"group"`
	ClientID     string        `mapstructure:"client_id"`
	Handler      string        `mapstructure:"handler"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// SchedulerConfig holds poll scheduler configuration
type SchedulerConfig struct {
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
}

// RateLimiterConfig holds HTTP gateway rate limiting configuration
type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// DefaultOrchestratorConfig returns default configuration values
func DefaultOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		Server: OrchestratorServerConfig{
			Name:            "orchestrator",
			Host:            "0.0.0.0",
			Port:            50050,
			HTTPPort:        8080,
			ShutdownTimeout: 30 * time.Second,
		},
		Client: ClientConfig{
			Timeout:     5 * time.Second,
			InitWorkers: 4,
		},
		Health: HealthConfig{
			Interval:       time.Second,
			PingTimeout:    time.Second,
			GateWait:       time.Second,
			StartupTimeout: time.Minute,
		},
		Ingestion: IngestionConfig{
			Topic:        "graph-edges",
			Group:        "graphmesh-orchestrator",
			Handler:      "enqueue",
			PollTimeout:  100 * time.Millisecond,
			PollInterval: 10 * time.Millisecond,
		},
		Scheduler: SchedulerConfig{
			WaitTimeout: 5 * time.Millisecond,
		},
		RateLimit: RateLimiterConfig{
			RequestsPerSecond: 1000,
			BurstSize:         2000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			Output:    "stdout",
			DrainWait: 10 * time.Second,
		},
	}
}

// LoadOrchestratorConfig loads configuration from file and environment variables
func LoadOrchestratorConfig(configPath string) (*OrchestratorConfig, error) {
	cfg := DefaultOrchestratorConfig()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// the file is optional when the environment provides what is needed
	if err := v.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read config file %s: %v. Using defaults and environment variables.\n", configPath, err)
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvironmentOverrides(cfg)

	for i := range cfg.Workers {
		if cfg.Workers[i].Host == "" {
			cfg.Workers[i].Host = "localhost"
		}
		if cfg.Workers[i].ID == "" {
			cfg.Workers[i].ID = cfg.Workers[i].Address()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvironmentOverrides(cfg *OrchestratorConfig) {
	if name := os.Getenv("ORCHESTRATOR_NAME"); name != "" {
		cfg.Server.Name = name
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.HTTPPort = p
		}
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Ingestion.Brokers = strings.Split(brokers, ",")
		cfg.Ingestion.Enabled = true
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		cfg.Ingestion.Topic = topic
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

// Validate validates the configuration
func (c *OrchestratorConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if len(c.Workers) == 0 {
		return errors.New("at least one worker is required")
	}
	seen := make(map[string]bool, len(c.Workers))
	for i, w := range c.Workers {
		if w.Port <= 0 || w.Port > 65535 {
			return fmt.Errorf("workers[%d].port must be between 1 and 65535", i)
		}
		if seen[w.ID] {
			return fmt.Errorf("workers[%d].id %q is duplicated", i, w.ID)
		}
		seen[w.ID] = true
	}
	if c.Ingestion.Enabled {
		if len(c.Ingestion.Brokers) == 0 {
			return errors.New("ingestion.brokers is required when ingestion is enabled")
		}
		if c.Ingestion.Topic == "" {
			return errors.New("ingestion.topic is required when ingestion is enabled")
		}
		if c.Ingestion.Group == "" {
			return errors.New("ingestion.group is required when ingestion is enabled")
		}
	}
	if c.Health.Interval <= 0 {
		return errors.New("health.interval must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0) {
		return errors.New("rate_limit.requests_per_second and rate_limit.burst_size must be positive")
	}
	return validateLogging(&c.Logging)
}

// WorkerIDs returns the configured worker ids in placement order
func (c *OrchestratorConfig) WorkerIDs() []string {
	ids := make([]string, len(c.Workers))
	for i, w := range c.Workers {
		ids[i] = w.ID
	}
	return ids
}
