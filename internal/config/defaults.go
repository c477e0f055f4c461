package config

import "time"

// DefaultPath is where the CLI looks for configuration.
const DefaultPath = ".deskmate.yml"

// CollaboratorNames lists the collaborators every config declares.
var CollaboratorNames = []string{"mail", "tasks", "documents", "spreadsheets", "calendar", "notes"}

// DefaultCollaborators routes every collaborator to the dry-run transport.
func DefaultCollaborators() map[string]CollaboratorConfig {
	m := make(map[string]CollaboratorConfig, len(CollaboratorNames))
	for _, name := range CollaboratorNames {
		m[name] = CollaboratorConfig{Transport: TransportDryRun}
	}
	return m
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8080,
			DBPath:           "deskmate.db",
			JournalRetention: 30 * 24 * time.Hour,
		},
		Dialogue: DialogueConfig{
			AcceptThreshold: 0.75,
			IdleTimeout:     15 * time.Minute,
			SweepInterval:   time.Minute,
			MaxReprompts:    1,
			Backend:         BackendMemory,
			RedisAddr:       "localhost:6379",
			KeyPrefix:       "deskmate:pending:",
		},
		Dispatch: DispatchConfig{
			Timeout: 10 * time.Second,
		},
		Collaborators: DefaultCollaborators(),
		NATS: NATSConfig{
			URL: "nats://127.0.0.1:4222",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Timezone: "UTC",
	}
}
