package collaborator

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Requester is the part of *nats.Conn the NATS transport needs.
type Requester interface {
	RequestWithContext(ctx context.Context, subject string, data []byte) (*nats.Msg, error)
}

// NATS sends each operation as a request on "<subject>.<operation>".
type NATS struct {
	name    string
	subject string
	conn    Requester
}

// NewNATS returns a collaborator requesting on subject's operation subjects.
func NewNATS(name, subject string, conn Requester) *NATS {
	if subject == "" {
		subject = "deskmate." + name
	}
	return &NATS{name: name, subject: subject, conn: conn}
}

// Subject returns the subject an operation is requested on.
func (n *NATS) Subject(operation string) string {
	return n.subject + "." + operation
}

// Invoke issues the request and decodes the reply.
func (n *NATS) Invoke(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	payload, err := newRequest(operation, params)
	if err != nil {
		return nil, err
	}

	msg, err := n.conn.RequestWithContext(ctx, n.Subject(operation), payload)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("%s is not listening on %s: %w", n.name, n.Subject(operation), err)
		}
		return nil, fmt.Errorf("requesting %s: %w", n.Subject(operation), err)
	}
	return decode(n.name, operation, msg.Data)
}
