package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ShardServerConfig holds the shard's gRPC server configuration
type ShardServerConfig struct {
	ShardID         string        `yaml:"shard_id"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	MaxConnections  int           `yaml:"max_connections"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SeedConfig points at an optional graph document loaded at startup
type SeedConfig struct {
	Path string `yaml:"path"`
}

// PeerConfig holds configuration for calls to peer shards
type PeerConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// GossipConfig holds gossip protocol configuration
type GossipConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	BindPort       int           `yaml:"bind_port" mapstructure:"bind_port"`
	SeedNodes      []string      `yaml:"seed_nodes" mapstructure:"seed_nodes"`
	GossipInterval time.Duration `yaml:"gossip_interval" mapstructure:"gossip_interval"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
	ProbeInterval  time.Duration `yaml:"probe_interval" mapstructure:"probe_interval"`
}

// MetricsConfig holds metrics and health endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Port    int    `yaml:"port" mapstructure:"port"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig holds logging configuration. Output is "stdout", "stderr"
// or a file path. DrainWait bounds how long buffered entries wait for data
// processing to go idle before they are written anyway.
type LoggingConfig struct {
	Level     string        `yaml:"level" mapstructure:"level"`
	Format    string        `yaml:"format" mapstructure:"format"`
	Output    string        `yaml:"output" mapstructure:"output"`
	DrainWait time.Duration `yaml:"drain_wait" mapstructure:"drain_wait"`
}

// ShardConfig represents the complete configuration for a worker shard
type ShardConfig struct {
	Server  ShardServerConfig `yaml:"server"`
	Seed    SeedConfig        `yaml:"seed"`
	Peers   PeerConfig        `yaml:"peers"`
	Gossip  GossipConfig      `yaml:"gossip"`
	Metrics MetricsConfig     `yaml:"metrics"`
	Logging LoggingConfig     `yaml:"logging"`
}

// LoadShardConfig loads shard configuration from a YAML file
func LoadShardConfig(filePath string) (*ShardConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseShardConfig(data)
}

// ParseShardConfig parses, defaults and validates shard configuration
func ParseShardConfig(data []byte) (*ShardConfig, error) {
	var cfg ShardConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setShardDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setShardDefaults(cfg *ShardConfig) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 50051
	}
	// peers dial the shard by its id
	if cfg.Server.ShardID == "" {
		cfg.Server.ShardID = fmt.Sprintf("localhost:%d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Peers.Timeout == 0 {
		cfg.Peers.Timeout = 5 * time.Second
	}

	setGossipDefaults(&cfg.Gossip)
	setMetricsDefaults(&cfg.Metrics, 9091)
	setLoggingDefaults(&cfg.Logging)
}

func setGossipDefaults(g *GossipConfig) {
	if g.BindPort == 0 {
		g.BindPort = 7946
	}
	if g.GossipInterval == 0 {
		g.GossipInterval = 200 * time.Millisecond
	}
	if g.ProbeTimeout == 0 {
		g.ProbeTimeout = 500 * time.Millisecond
	}
	if g.ProbeInterval == 0 {
		g.ProbeInterval = time.Second
	}
}

func setMetricsDefaults(m *MetricsConfig, port int) {
	if m.Port == 0 {
		m.Port = port
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "json"
	}
	if l.Output == "" {
		l.Output = "stdout"
	}
	if l.DrainWait == 0 {
		l.DrainWait = 10 * time.Second
	}
}

// Validate validates the configuration
func (c *ShardConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Metrics.Enabled && c.Metrics.Port == c.Server.Port {
		return fmt.Errorf("metrics.port must differ from server.port")
	}
	if err := validateLogging(&c.Logging); err != nil {
		return err
	}
	return nil
}

func validateLogging(l *LoggingConfig) error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch l.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be one of: json, console")
	}
	return nil
}
