package config

import "time"

// Transport identifies how a collaborator is reached.
type Transport string

const (
	TransportHTTP   Transport = "http"
	TransportNATS   Transport = "nats"
	TransportDryRun Transport = "dryrun"
)

// Backend identifies the dialogue state store.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Config is the top-level deskmate configuration, corresponding to .deskmate.yml.
type Config struct {
	Server        ServerConfig                  `yaml:"server" koanf:"server"`
	Dialogue      DialogueConfig                `yaml:"dialogue" koanf:"dialogue"`
	Dispatch      DispatchConfig                `yaml:"dispatch" koanf:"dispatch"`
	Collaborators map[string]CollaboratorConfig `yaml:"collaborators" koanf:"collaborators"`
	NATS          NATSConfig                    `yaml:"nats" koanf:"nats"`
	Compose       ComposeConfig                 `yaml:"compose" koanf:"compose"`
	Log           LogConfig                     `yaml:"log" koanf:"log"`
	// Timezone is the IANA zone relative times are resolved in.
	Timezone string `yaml:"timezone" koanf:"timezone"`
}

// ServerConfig holds HTTP surface settings.
type ServerConfig struct {
	Port               int    `yaml:"port" koanf:"port"`
	AllowAllOrigins    bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	SlackSigningSecret string `yaml:"slack_signing_secret" koanf:"slack_signing_secret"`
	SlackBotToken      string `yaml:"slack_bot_token" koanf:"slack_bot_token"`
	DBPath             string `yaml:"db_path" koanf:"db_path"`
	// JournalRetention bounds how long dispatch journal entries are kept.
	JournalRetention time.Duration `yaml:"journal_retention" koanf:"journal_retention"`
}

// DialogueConfig holds clarification dialogue settings.
type DialogueConfig struct {
	AcceptThreshold float64       `yaml:"accept_threshold" koanf:"accept_threshold"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" koanf:"idle_timeout"`
	SweepInterval   time.Duration `yaml:"sweep_interval" koanf:"sweep_interval"`
	MaxReprompts    int           `yaml:"max_reprompts" koanf:"max_reprompts"`
	Backend         Backend       `yaml:"backend" koanf:"backend"`
	RedisAddr       string        `yaml:"redis_addr" koanf:"redis_addr"`
	RedisDB         int           `yaml:"redis_db" koanf:"redis_db"`
	KeyPrefix       string        `yaml:"key_prefix" koanf:"key_prefix"`
}

// DispatchConfig holds action dispatch settings.
type DispatchConfig struct {
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
}

// CollaboratorConfig describes one external action service.
type CollaboratorConfig struct {
	Transport Transport `yaml:"transport" koanf:"transport"`
	// URL is the endpoint for the http transport.
	URL string `yaml:"url,omitempty" koanf:"url"`
	// Subject is the subject prefix for the nats transport.
	Subject string `yaml:"subject,omitempty" koanf:"subject"`
}

// NATSConfig holds the shared NATS connection settings.
type NATSConfig struct {
	URL string `yaml:"url" koanf:"url"`
}

// ComposeConfig holds response phrasing settings.
type ComposeConfig struct {
	// Seed fixes phrase selection; 0 seeds from the clock.
	Seed int64 `yaml:"seed" koanf:"seed"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
