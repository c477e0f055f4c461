package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nesting levels: DESKMATE_DIALOGUE__IDLE_TIMEOUT sets dialogue.idle_timeout.
const EnvPrefix = "DESKMATE_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DESKMATE_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validTransports = map[Transport]bool{
	TransportHTTP:   true,
	TransportNATS:   true,
	TransportDryRun: true,
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Server.JournalRetention < 0 {
		return fmt.Errorf("server.journal_retention must be non-negative")
	}

	d := c.Dialogue
	if d.AcceptThreshold <= 0 || d.AcceptThreshold > 1 {
		return fmt.Errorf("dialogue.accept_threshold %.2f must be in (0, 1]", d.AcceptThreshold)
	}
	if d.IdleTimeout <= 0 {
		return fmt.Errorf("dialogue.idle_timeout must be positive")
	}
	if d.SweepInterval <= 0 {
		return fmt.Errorf("dialogue.sweep_interval must be positive")
	}
	if d.MaxReprompts < 0 {
		return fmt.Errorf("dialogue.max_reprompts must be non-negative")
	}
	switch d.Backend {
	case BackendMemory, "":
	case BackendRedis:
		if d.RedisAddr == "" {
			return fmt.Errorf("dialogue.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid dialogue.backend %q: must be memory or redis", d.Backend)
	}

	if c.Dispatch.Timeout <= 0 {
		return fmt.Errorf("dispatch.timeout must be positive")
	}

	for _, name := range c.CollaboratorNamesSorted() {
		cc := c.Collaborators[name]
		if !validTransports[cc.Transport] {
			return fmt.Errorf("collaborators.%s: invalid transport %q: must be one of http, nats, dryrun", name, cc.Transport)
		}
		if cc.Transport == TransportHTTP && cc.URL == "" {
			return fmt.Errorf("collaborators.%s: url is required for the http transport", name)
		}
		if cc.Transport == TransportNATS && c.NATS.URL == "" {
			return fmt.Errorf("collaborators.%s: nats.url is required for the nats transport", name)
		}
	}

	if c.Log.Level != "" && !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log.format %q: must be json or console", c.Log.Format)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CollaboratorNamesSorted returns configured collaborator names in order.
func (c *Config) CollaboratorNamesSorted() []string {
	names := make([]string, 0, len(c.Collaborators))
	for n := range c.Collaborators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// UsesNATS reports whether any collaborator needs the NATS connection.
func (c *Config) UsesNATS() bool {
	for _, cc := range c.Collaborators {
		if cc.Transport == TransportNATS {
			return true
		}
	}
	return false
}
