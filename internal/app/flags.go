package app

import (
	"flag"
	"fmt"

	"authcode-listener/config"
)

// Flags are the command line options shared by both entry points
type Flags struct {
	ConfigPath string
	Endpoint   string
	Port       int
	Topic      string
	Transport  string
	LogLevel   string
}

// RegisterFlags defines the shared flags on fs
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "appsettings.json", "path to config file (JSON or YAML, optional)")
	fs.StringVar(&f.Endpoint, "endpoint", "", "override mqtt broker host (empty = use config)")
	fs.IntVar(&f.Port, "port", 0, "override mqtt broker port (0 = use config)")
	fs.StringVar(&f.Topic, "topic", "", "override topic or subject (empty = use config)")
	fs.StringVar(&f.Transport, "transport", "", "override transport: mqtt or nats (empty = use config)")
	fs.StringVar(&f.LogLevel, "log-level", "", "override log level (empty = use config)")
	return f
}

// LoadConfig loads the config file and applies the flag overrides
func (f *Flags) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyOverrides(f.Endpoint, f.Port, f.Topic, f.Transport, f.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid flag override: %w", err)
	}
	return cfg, nil
}
