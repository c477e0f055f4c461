package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/deskmate/internal/intent"
)

// userPrefix namespaces every dashboard user id so a browser client cannot
// act as a user from another platform.
const userPrefix = "dashboard:"

// chatQueueSize is how many messages one socket may have waiting.
const chatQueueSize = 64

func (d *Dashboard) upgrader() *websocket.Upgrader {
	u := &websocket.Upgrader{}
	if d.anyOrigin {
		u.CheckOrigin = func(*http.Request) bool { return true }
	}
	return u
}

// scopeUser maps a client-supplied id into the dashboard namespace.
func scopeUser(id string) string {
	if strings.HasPrefix(id, userPrefix) {
		return id
	}
	return userPrefix + id
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type    string `json:"type"`    // "message" or "cancel"
	UserID  string `json:"user_id"` // empty uses the connection's id; always prefixed with dashboard:
	Content string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type        string     `json:"type"` // "response", "cancelled" or "error"
	UserID      string     `json:"user_id"`
	Content     string     `json:"content,omitempty"`
	Suggestions []string   `json:"suggestions,omitempty"`
	Intent      intent.Tag `json:"intent,omitempty"`
	State       string     `json:"state,omitempty"`
}

// chatConn serializes writes to one socket. Messages are handled one at a
// time in arrival order; cancels are handled by the reader so they can
// interrupt a slow action.
type chatConn struct {
	conn   *websocket.Conn
	userID string
	logger *zap.Logger
	mu     sync.Mutex
}

func (c *chatConn) send(resp chatResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(resp); err != nil {
		c.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func (c *chatConn) sendError(userID, message string) {
	c.send(chatResponse{Type: "error", UserID: userID, Content: message})
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader().Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &chatConn{conn: conn, userID: userPrefix + uuid.NewString(), logger: d.logger}
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	queue := make(chan chatRequest, chatQueueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for req := range queue {
			if ctx.Err() != nil {
				continue
			}
			d.handleChatMessage(ctx, c, req)
		}
	}()
	defer func() {
		close(queue)
		cancel()
		wg.Wait()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			c.sendError("", "invalid message format")
			continue
		}
		if req.UserID == "" {
			req.UserID = c.userID
		} else {
			req.UserID = scopeUser(req.UserID)
		}

		switch req.Type {
		case "message":
			if req.Content == "" {
				c.sendError(req.UserID, "content is required")
				continue
			}
			d.engine.Interrupt(req.UserID, req.Content)
			queue <- req
		case "cancel":
			if err := d.engine.CancelPending(ctx, req.UserID); err != nil {
				c.sendError(req.UserID, "cancel failed: "+err.Error())
				continue
			}
			c.send(chatResponse{Type: "cancelled", UserID: req.UserID})
		default:
			c.sendError(req.UserID, "unknown message type: "+req.Type)
		}
	}
}

func (d *Dashboard) handleChatMessage(ctx context.Context, c *chatConn, req chatRequest) {
	reply := d.engine.HandleMessage(ctx, req.UserID, req.Content)
	if reply.Silent {
		return
	}
	c.send(chatResponse{
		Type:        "response",
		UserID:      req.UserID,
		Content:     reply.Text,
		Suggestions: reply.SuggestedReplies,
		Intent:      reply.Intent,
		State:       reply.State,
	})
}
