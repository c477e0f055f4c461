package collaborator

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/ziadkadry99/deskmate/internal/config"
	"github.com/ziadkadry99/deskmate/internal/dispatch"
)

// Build creates a dispatch registry from the configured collaborators. nc
// may be nil when no collaborator uses the nats transport. Dry-run
// collaborators share the returned CallLog.
func Build(cfg *config.Config, nc Requester, logger *zap.Logger) (*dispatch.Registry, *CallLog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := dispatch.NewRegistry()
	calls := NewCallLog(DefaultCallLogSize)

	for _, name := range cfg.CollaboratorNamesSorted() {
		cc := cfg.Collaborators[name]
		switch cc.Transport {
		case config.TransportHTTP:
			reg.Register(name, NewHTTP(name, cc.URL, cfg.Dispatch.Timeout))
		case config.TransportNATS:
			if nc == nil {
				return nil, nil, fmt.Errorf("collaborator %s uses nats but no connection is open", name)
			}
			reg.Register(name, NewNATS(name, cc.Subject, nc))
		case config.TransportDryRun, "":
			reg.Register(name, NewDryRun(name, calls))
		default:
			return nil, nil, fmt.Errorf("collaborator %s: unsupported transport %q", name, cc.Transport)
		}
		logger.Debug("collaborator registered", zap.String("name", name), zap.String("transport", string(cc.Transport)))
	}
	return reg, calls, nil
}

// Connect opens the shared NATS connection.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("deskmate"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return nc, nil
}
