// Package collaborator provides the transports deskmate uses to reach its
// action services: JSON over HTTP, NATS request/reply, and an in-process
// dry run.
package collaborator

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ziadkadry99/deskmate/internal/dispatch"
)

// Request is the JSON body sent to a collaborator.
type Request struct {
	RequestID string         `json:"request_id"`
	Operation string         `json:"operation"`
	Params    map[string]any `json:"params"`
}

// Response is the JSON body a collaborator answers with.
type Response struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func newRequest(operation string, params map[string]any) ([]byte, error) {
	req := Request{RequestID: uuid.New().String(), Operation: operation, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", operation, err)
	}
	return data, nil
}

// decode interprets a response body. A response with ok=false becomes a
// CollaboratorError carrying the collaborator's own text.
func decode(name, operation string, body []byte) (map[string]any, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", name, err)
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("%s could not %s", name, operation)
		}
		return nil, &dispatch.CollaboratorError{Collaborator: name, Operation: operation, Message: msg}
	}
	data := resp.Data
	if data == nil {
		data = map[string]any{}
	}
	if resp.Message != "" {
		data["message"] = resp.Message
	}
	return data, nil
}
