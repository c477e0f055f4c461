package bots

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDedupSize is how many recent event ids the gateway remembers.
const DefaultDedupSize = 2048

// MessageHandler processes incoming messages and produces responses.
// A nil response means nothing should be sent.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error)
}

// Interrupter is implemented by handlers that can abort a user's running
// request before msg waits its turn.
type Interrupter interface {
	Interrupt(msg IncomingMessage) bool
}

// Gateway is the platform-agnostic bot gateway that routes messages
// to a handler for processing. Platforms retry deliveries they consider
// unacknowledged, so a message whose event id was already seen is dropped.
type Gateway struct {
	handler MessageHandler
	seen    *lru.Cache[string, time.Time]
	now     func() time.Time
}

// NewGateway creates a new Gateway with the given message handler.
func NewGateway(handler MessageHandler) *Gateway {
	g, err := NewGatewaySize(handler, DefaultDedupSize)
	if err != nil {
		panic(err)
	}
	return g
}

// NewGatewaySize is NewGateway with an explicit dedup window.
func NewGatewaySize(handler MessageHandler, size int) (*Gateway, error) {
	seen, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, fmt.Errorf("creating dedup cache: %w", err)
	}
	return &Gateway{handler: handler, seen: seen, now: time.Now}, nil
}

// Process routes an incoming message through the handler.
func (g *Gateway) Process(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	if msg.EventID != "" {
		key := string(msg.Platform) + ":" + msg.EventID
		if ok, _ := g.seen.ContainsOrAdd(key, g.now()); ok {
			return nil, nil
		}
	}
	return g.handler.HandleMessage(ctx, msg)
}

// Interrupt passes msg to the handler's out-of-band abort, if it has one,
// and reports whether a running request was aborted.
func (g *Gateway) Interrupt(msg IncomingMessage) bool {
	if i, ok := g.handler.(Interrupter); ok {
		return i.Interrupt(msg)
	}
	return false
}
