package collaborator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ziadkadry99/deskmate/internal/dispatch"
)

const maxResponseBytes = 1 << 20

// HTTP posts operations to a single collaborator endpoint.
type HTTP struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTP returns a collaborator posting to url.
func NewHTTP(name, url string, timeout time.Duration) *HTTP {
	return &HTTP{
		name: name,
		url:  url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Invoke POSTs the operation and decodes the reply.
func (h *HTTP) Invoke(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	payload, err := newRequest(operation, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", h.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", h.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", h.name, err)
	}

	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("%s returned status %d", h.name, resp.StatusCode)
		var ce *dispatch.CollaboratorError
		if _, err := decode(h.name, operation, body); errors.As(err, &ce) {
			msg = ce.Message
		}
		return nil, &dispatch.CollaboratorError{Collaborator: h.name, Operation: operation, Message: msg}
	}
	return decode(h.name, operation, body)
}
