package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .deskmate.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to deskmate! Let's connect your assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. HTTP port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 2. Dialogue store.
	backendPrompt := promptui.Select{
		Label: "Where should open conversations be kept",
		Items: []string{
			"memory - lost on restart",
			"redis  - survives restarts",
		},
	}
	backendIdx, _, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend selection: %w", err)
	}
	if backendIdx == 1 {
		cfg.Dialogue.Backend = BackendRedis
		addrPrompt := promptui.Prompt{Label: "Redis address", Default: cfg.Dialogue.RedisAddr}
		if cfg.Dialogue.RedisAddr, err = addrPrompt.Run(); err != nil {
			return nil, fmt.Errorf("redis address: %w", err)
		}
	}

	// 3. One transport per collaborator.
	for _, name := range CollaboratorNames {
		cc, err := promptCollaborator(name)
		if err != nil {
			return nil, err
		}
		cfg.Collaborators[name] = cc
	}

	if cfg.UsesNATS() {
		natsPrompt := promptui.Prompt{Label: "NATS server URL", Default: cfg.NATS.URL}
		if cfg.NATS.URL, err = natsPrompt.Run(); err != nil {
			return nil, fmt.Errorf("nats url: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

func promptCollaborator(name string) (CollaboratorConfig, error) {
	sel := promptui.Select{
		Label: fmt.Sprintf("How is the %s service reached", name),
		Items: []string{string(TransportDryRun), string(TransportHTTP), string(TransportNATS)},
	}
	_, choice, err := sel.Run()
	if err != nil {
		return CollaboratorConfig{}, fmt.Errorf("%s transport: %w", name, err)
	}

	cc := CollaboratorConfig{Transport: Transport(choice)}
	switch cc.Transport {
	case TransportHTTP:
		p := promptui.Prompt{Label: fmt.Sprintf("%s endpoint URL", name), Validate: validateURL}
		if cc.URL, err = p.Run(); err != nil {
			return CollaboratorConfig{}, fmt.Errorf("%s url: %w", name, err)
		}
	case TransportNATS:
		p := promptui.Prompt{Label: fmt.Sprintf("%s subject prefix", name), Default: "deskmate." + name}
		if cc.Subject, err = p.Run(); err != nil {
			return CollaboratorConfig{}, fmt.Errorf("%s subject: %w", name, err)
		}
	}
	return cc, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("enter a port between 1 and 65535")
	}
	return nil
}

func validateURL(s string) error {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("url must start with http:// or https://")
	}
	return nil
}
