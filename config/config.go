package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Transports supported by the listener
const (
	TransportMQTT = "mqtt"
	TransportNATS = "nats"
)

// Notification backends
const (
	NotifyBackendExec  = "exec"
	NotifyBackendBeeep = "beeep"
	NotifyBackendNone  = "none"
)

// envPrefix is prepended to every environment override
const envPrefix = "AUTHCODE_"

type Config struct {
	Transport string        `json:"transport" yaml:"transport"`
	MQTT      MQTTConfig    `json:"mqtt" yaml:"mqtt"`
	NATS      NATSConfig    `json:"nats" yaml:"nats"`
	Notify    NotifyConfig  `json:"notify" yaml:"notify"`
	Logging   LogConfig     `json:"logging" yaml:"logging"`
	Metrics   MetricsConfig `json:"metrics" yaml:"metrics"`
}

type MQTTConfig struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Topic    string `json:"topic" yaml:"topic"`
	ClientID string `json:"clientId" yaml:"clientId"`
}

type NATSConfig struct {
	URL      string `json:"url" yaml:"url"`
	Subject  string `json:"subject" yaml:"subject"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

type NotifyConfig struct {
	Backend string `json:"backend" yaml:"backend"` // exec, beeep or none
	Title   string `json:"title" yaml:"title"`
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level"`           // debug, info, warn, error
	OutputPath string `json:"outputPath" yaml:"outputPath"` // file path, "stdout" or "stderr"
	Encoding   string `json:"encoding" yaml:"encoding"`     // json or console
	MaxSize    int    `json:"maxSize" yaml:"maxSize"`       // megabytes, file output only
	MaxAge     int    `json:"maxAge" yaml:"maxAge"`         // days
	MaxBackups int    `json:"maxBackups" yaml:"maxBackups"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Address string `json:"address" yaml:"address"`
	Path    string `json:"path" yaml:"path"`
}

// Default returns a configuration populated with default values only
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads and parses the configuration file. A missing file is not an
// error; the defaults and environment overrides are used instead.
func Load(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := decode(path, data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	config.setDefaults()

	// Validate the configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// applyEnv overlays AUTHCODE_* environment variables onto the loaded file values
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MQTT_ENDPOINT":  &c.MQTT.Endpoint,
		"MQTT_USERNAME":  &c.MQTT.Username,
		"MQTT_PASSWORD":  &c.MQTT.Password,
		"MQTT_TOPIC":     &c.MQTT.Topic,
		"MQTT_CLIENT_ID": &c.MQTT.ClientID,
		"TRANSPORT":      &c.Transport,
		"NATS_URL":       &c.NATS.URL,
		"NATS_SUBJECT":   &c.NATS.Subject,
		"LOG_LEVEL":      &c.Logging.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := lookup(envPrefix + "MQTT_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMQTT_PORT: %w", envPrefix, err)
		}
		c.MQTT.Port = port
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.Transport == "" {
		c.Transport = TransportMQTT
	}

	// Set defaults for mqtt
	if c.MQTT.Endpoint == "" {
		c.MQTT.Endpoint = "localhost"
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "test/topic"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "authcode-listener-" + uuid.NewString()
	}

	// Set defaults for nats
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "authcode"
	}

	// Set defaults for notifications
	if c.Notify.Backend == "" {
		c.Notify.Backend = NotifyBackendExec
	}
	if c.Notify.Title == "" {
		c.Notify.Title = "Verification Code Listener"
	}

	// Set defaults for logging
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.OutputPath == "" {
		c.Logging.OutputPath = "stdout"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "console"
	}
	if c.Logging.MaxSize <= 0 {
		c.Logging.MaxSize = 10
	}

	// Set defaults for metrics
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":2112"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// validateConfig performs validation of all configuration values
func validateConfig(cfg *Config) error {
	switch cfg.Transport {
	case TransportMQTT:
		if cfg.MQTT.Endpoint == "" {
			return fmt.Errorf("mqtt endpoint is required")
		}
		if cfg.MQTT.Port < 1 || cfg.MQTT.Port > 65535 {
			return fmt.Errorf("invalid mqtt port: %d", cfg.MQTT.Port)
		}
		if cfg.MQTT.Topic == "" {
			return fmt.Errorf("mqtt topic is required")
		}
	case TransportNATS:
		if cfg.NATS.URL == "" {
			return fmt.Errorf("nats url is required")
		}
		if cfg.NATS.Subject == "" {
			return fmt.Errorf("nats subject is required")
		}
	default:
		return fmt.Errorf("invalid transport: %s", cfg.Transport)
	}

	switch cfg.Notify.Backend {
	case NotifyBackendExec, NotifyBackendBeeep, NotifyBackendNone:
	default:
		return fmt.Errorf("invalid notify backend: %s", cfg.Notify.Backend)
	}

	// Validate logging config
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	switch cfg.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log encoding: %s", cfg.Logging.Encoding)
	}

	return nil
}

// ApplyOverrides applies command line flag overrides to the configuration
func (c *Config) ApplyOverrides(endpoint string, port int, topic, transport, logLevel string) error {
	if endpoint != "" {
		c.MQTT.Endpoint = endpoint
	}
	if port > 0 {
		c.MQTT.Port = port
	}
	if topic != "" {
		c.MQTT.Topic = topic
		c.NATS.Subject = topic
	}
	if transport != "" {
		c.Transport = transport
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	return validateConfig(c)
}

// Topic returns the subscription topic for the configured transport
func (c *Config) Topic() string {
	if c.Transport == TransportNATS {
		return c.NATS.Subject
	}
	return c.MQTT.Topic
}
