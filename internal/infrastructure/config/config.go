package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for a radiomesh node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Transport TransportConfig `yaml:"transport"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Journal   JournalConfig   `yaml:"journal"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NodeConfig contains the pub/sub node's identity and channel binding.
type NodeConfig struct {
	// ID names this node in logs, telemetry and the bridge client ID.
	ID string `yaml:"id"`

	// Channel is the shared radio channel (1-14). Every peer must use
	// the same channel.
	Channel int `yaml:"channel"`

	// Standalone selects the extended transport bring-up for nodes
	// running without a managed network stack.
	Standalone bool `yaml:"standalone"`

	// SendRepeat transmits each published frame this many times.
	SendRepeat int `yaml:"send_repeat"`

	// TickInterval is the processing loop's periodic wake-up in
	// milliseconds. The loop also wakes immediately on inbound traffic.
	TickInterval int `yaml:"tick_interval"`

	// Subscriptions are topic patterns subscribed at startup. Matching
	// messages are logged and, when the bridge is enabled, republished
	// to the broker.
	Subscriptions []string `yaml:"subscriptions"`
}

// TransportConfig contains UDP broadcast transport settings.
type TransportConfig struct {
	// PortBase is the UDP port for channel zero; channel n uses
	// PortBase+n.
	PortBase int `yaml:"port_base"`

	// BroadcastAddr is the IPv4 broadcast destination.
	BroadcastAddr string `yaml:"broadcast_addr"`
}

// BridgeConfig contains MQTT broker bridging settings.
type BridgeConfig struct {
	Enabled     bool                  `yaml:"enabled"`
	Broker      BridgeBrokerConfig    `yaml:"broker"`
	Auth        BridgeAuthConfig      `yaml:"auth"`
	QoS         int                   `yaml:"qos"`
	TopicPrefix string                `yaml:"topic_prefix"`
	Reconnect   BridgeReconnectConfig `yaml:"reconnect"`
}

// BridgeBrokerConfig contains MQTT broker connection details.
type BridgeBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// BridgeAuthConfig contains MQTT authentication credentials.
type BridgeAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// BridgeReconnectConfig contains MQTT reconnection settings in seconds.
type BridgeReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// TelemetryConfig contains InfluxDB connection settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// JournalConfig contains the SQLite message journal settings.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// Retain caps the number of journal rows kept per direction; older
	// rows are pruned. Zero keeps everything.
	Retain int `yaml:"retain"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RADIOMESH_SECTION_KEY
// For example: RADIOMESH_NODE_CHANNEL, RADIOMESH_JOURNAL_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:           "node-001",
			Channel:      1,
			Standalone:   true,
			SendRepeat:   1,
			TickInterval: 100,
		},
		Transport: TransportConfig{
			PortBase: 17000,
		},
		Bridge: BridgeConfig{
			Broker: BridgeBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS:         1,
			TopicPrefix: "radiomesh",
			Reconnect: BridgeReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Journal: JournalConfig{
			Path:        "./data/radiomesh.db",
			WALMode:     true,
			BusyTimeout: 5,
			Retain:      10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RADIOMESH_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Node
	if v := os.Getenv("RADIOMESH_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}
	if v := os.Getenv("RADIOMESH_NODE_CHANNEL"); v != "" {
		if ch, err := strconv.Atoi(v); err == nil {
			cfg.Node.Channel = ch
		}
	}

	// Journal
	if v := os.Getenv("RADIOMESH_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// Bridge
	if v := os.Getenv("RADIOMESH_BRIDGE_HOST"); v != "" {
		cfg.Bridge.Broker.Host = v
	}
	if v := os.Getenv("RADIOMESH_BRIDGE_USERNAME"); v != "" {
		cfg.Bridge.Auth.Username = v
	}
	if v := os.Getenv("RADIOMESH_BRIDGE_PASSWORD"); v != "" {
		cfg.Bridge.Auth.Password = v
	}

	// Telemetry
	if v := os.Getenv("RADIOMESH_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	}
	if c.Node.Channel < 1 || c.Node.Channel > 14 {
		errs = append(errs, "node.channel must be between 1 and 14")
	}
	if c.Node.SendRepeat < 1 {
		errs = append(errs, "node.send_repeat must be at least 1")
	}
	if c.Node.TickInterval < 1 {
		errs = append(errs, "node.tick_interval must be at least 1 millisecond")
	}

	// The highest channel still has to map onto a valid UDP port.
	if c.Transport.PortBase < 1 || c.Transport.PortBase > 65535-14 {
		errs = append(errs, "transport.port_base must be between 1 and 65521")
	}

	if c.Bridge.QoS < 0 || c.Bridge.QoS > 2 {
		errs = append(errs, "bridge.qos must be 0, 1, or 2")
	}
	if c.Bridge.Enabled && c.Bridge.TopicPrefix == "" {
		errs = append(errs, "bridge.topic_prefix is required when the bridge is enabled")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.URL == "" {
			errs = append(errs, "telemetry.url is required when telemetry is enabled")
		}
		if c.Telemetry.Token == "" {
			errs = append(errs, "telemetry.token is required when telemetry is enabled (set RADIOMESH_TELEMETRY_TOKEN environment variable)")
		}
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when the journal is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetTickInterval returns the processing loop interval as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Node.TickInterval) * time.Millisecond
}

// GetBusyTimeout returns the journal's SQLite busy timeout as a Duration.
func (c *Config) GetBusyTimeout() time.Duration {
	return time.Duration(c.Journal.BusyTimeout) * time.Second
}
