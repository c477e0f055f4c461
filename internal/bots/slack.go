package bots

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SlackPostMessageURL is the Web API method replies are posted to.
const SlackPostMessageURL = "https://slack.com/api/chat.postMessage"

// slackMention matches user and bot references like <@U123> or <@U123|name>.
var slackMention = regexp.MustCompile(`<@[^>]+>`)

// Sender delivers a reply outside the webhook response.
type Sender interface {
	Send(ctx context.Context, msg *OutgoingMessage) error
}

// SlackHandler handles incoming Slack webhook events.
type SlackHandler struct {
	gateway       *Gateway
	signingSecret string
	sender        Sender
	logger        *zap.Logger
	now           func() time.Time
	queue         userQueue
}

// SlackOption configures a SlackHandler.
type SlackOption func(*SlackHandler)

// WithSender acknowledges events immediately and delivers replies through s.
// Messages from one user are processed in arrival order. Without a sender the
// reply is returned in the webhook response body.
func WithSender(s Sender) SlackOption {
	return func(h *SlackHandler) { h.sender = s }
}

// WithSlackLogger sets the logger.
func WithSlackLogger(l *zap.Logger) SlackOption {
	return func(h *SlackHandler) { h.logger = l }
}

// NewSlackHandler creates a new Slack event handler.
func NewSlackHandler(gateway *Gateway, signingSecret string, opts ...SlackOption) *SlackHandler {
	h := &SlackHandler{
		gateway:       gateway,
		signingSecret: signingSecret,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// slackEvent represents the top-level Slack event payload.
type slackEvent struct {
	Type      string          `json:"type"`
	Token     string          `json:"token"`
	Challenge string          `json:"challenge"`
	EventID   string          `json:"event_id"`
	Event     slackInnerEvent `json:"event"`
}

// slackInnerEvent represents the inner event in a Slack event_callback.
type slackInnerEvent struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
	User     string `json:"user"`
	Text     string `json:"text"`
	Channel  string `json:"channel"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
	BotID    string `json:"bot_id"`
}

// HandleEvent handles incoming Slack events (HTTP POST).
func (h *SlackHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verify Slack request signature if signing secret is configured.
	if h.signingSecret != "" {
		if !h.verifySignature(r, body) {
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var event slackEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "url_verification":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"challenge": event.Challenge})
		return

	case "event_callback":
		// Skip bot messages and edits to avoid loops.
		if event.Event.BotID != "" || event.Event.Subtype != "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if event.Event.Type != "message" && event.Event.Type != "app_mention" {
			w.WriteHeader(http.StatusOK)
			return
		}

		msg := IncomingMessage{
			Platform:  PlatformSlack,
			EventID:   event.EventID,
			ChannelID: event.Event.Channel,
			UserID:    event.Event.User,
			Text:      stripSlackMentions(event.Event.Text),
			ThreadID:  event.Event.ThreadTS,
			Timestamp: event.Event.TS,
		}

		if h.sender != nil {
			w.WriteHeader(http.StatusOK)
			h.gateway.Interrupt(msg)
			ctx := context.WithoutCancel(r.Context())
			h.queue.Do(UserKey(msg.Platform, msg.UserID), func() { h.deliver(ctx, msg) })
			return
		}

		resp, err := h.gateway.Process(r.Context(), msg)
		if err != nil {
			http.Error(w, "processing error", http.StatusInternalServerError)
			return
		}
		if resp == nil {
			w.WriteHeader(http.StatusOK)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(formatSlackMessage(resp))
		return

	default:
		w.WriteHeader(http.StatusOK)
	}
}

// Wait blocks until replies being delivered in the background are sent.
func (h *SlackHandler) Wait() { h.queue.Wait() }

func (h *SlackHandler) deliver(ctx context.Context, msg IncomingMessage) {
	resp, err := h.gateway.Process(ctx, msg)
	if err != nil {
		h.logger.Warn("processing slack message failed", zap.String("channel", msg.ChannelID), zap.Error(err))
		return
	}
	if resp == nil {
		return
	}
	if err := h.sender.Send(ctx, resp); err != nil {
		h.logger.Warn("posting slack reply failed", zap.String("channel", msg.ChannelID), zap.Error(err))
	}
}

// verifySignature verifies the Slack request signature using HMAC-SHA256.
func (h *SlackHandler) verifySignature(r *http.Request, body []byte) bool {
	timestamp := r.Header.Get("X-Slack-Request-Timestamp")
	signature := r.Header.Get("X-Slack-Signature")

	if timestamp == "" || signature == "" {
		return false
	}
	if !verifyTimestamp(timestamp, h.now()) {
		return false
	}

	return hmac.Equal([]byte(signSlack(h.signingSecret, timestamp, body)), []byte(signature))
}

func signSlack(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

// verifyTimestamp checks that the request timestamp is within 5 minutes.
func verifyTimestamp(timestamp string, now time.Time) bool {
	var ts int64
	if _, err := fmt.Sscanf(timestamp, "%d", &ts); err != nil {
		return false
	}
	diff := now.Unix() - ts
	if diff < 0 {
		diff = -diff
	}
	return diff <= 300
}

// slackResponse represents a simple Slack response message.
type slackResponse struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

// formatSlackMessage creates a Slack-formatted response payload.
func formatSlackMessage(msg *OutgoingMessage) *slackResponse {
	resp := &slackResponse{
		Channel: msg.ChannelID,
		Text:    msg.Text,
	}
	if msg.ThreadID != "" {
		resp.ThreadTS = msg.ThreadID
	}

	if strings.Contains(resp.Text, "\n") {
		lines := strings.Split(resp.Text, "\n")
		for i, line := range lines {
			if strings.HasPrefix(line, "- ") {
				lines[i] = "• " + line[2:]
			}
		}
		resp.Text = strings.Join(lines, "\n")
	}

	return resp
}

// SlackPoster posts replies with chat.postMessage using a bot token.
type SlackPoster struct {
	url    string
	token  string
	client *http.Client
}

// NewSlackPoster returns a poster for the given bot token.
func NewSlackPoster(token string) *SlackPoster {
	return &SlackPoster{
		url:    SlackPostMessageURL,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts msg to its channel.
func (p *SlackPoster) Send(ctx context.Context, msg *OutgoingMessage) error {
	body, err := json.Marshal(formatSlackMessage(msg))
	if err != nil {
		return fmt.Errorf("marshalling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	if !result.OK {
		return fmt.Errorf("slack rejected message: %s", result.Error)
	}
	return nil
}

func stripSlackMentions(text string) string {
	return strings.Join(strings.Fields(slackMention.ReplaceAllString(text, " ")), " ")
}
