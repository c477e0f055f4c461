package bots

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// mentionTag matches the <at>Name</at> markup Teams puts around @mentions.
var mentionTag = regexp.MustCompile(`(?i)<at>[^<]*</at>`)

// TeamsHandler answers Bot Framework activities inline in the HTTP response.
type TeamsHandler struct {
	gateway *Gateway
	logger  *zap.Logger
}

// TeamsOption configures a TeamsHandler.
type TeamsOption func(*TeamsHandler)

// WithTeamsLogger sets the logger.
func WithTeamsLogger(l *zap.Logger) TeamsOption {
	return func(h *TeamsHandler) { h.logger = l }
}

// NewTeamsHandler creates a new Teams activity handler.
func NewTeamsHandler(gateway *Gateway, opts ...TeamsOption) *TeamsHandler {
	h := &TeamsHandler{gateway: gateway, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type teamsActivity struct {
	Type         string            `json:"type"`
	ID           string            `json:"id"`
	Timestamp    string            `json:"timestamp"`
	Text         string            `json:"text"`
	From         teamsAccount      `json:"from"`
	Recipient    teamsAccount      `json:"recipient"`
	Conversation teamsConversation `json:"conversation"`
	ChannelID    string            `json:"channelId"`
	ServiceURL   string            `json:"serviceUrl"`
	ReplyToID    string            `json:"replyToId"`
}

type teamsAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

type teamsConversation struct {
	ID string `json:"id"`
}

// teamsReply is the message activity written back.
type teamsReply struct {
	Type             string                 `json:"type"`
	Text             string                 `json:"text"`
	TextFormat       string                 `json:"textFormat"`
	InputHint        string                 `json:"inputHint"`
	ReplyToID        string                 `json:"replyToId,omitempty"`
	From             *teamsAccount          `json:"from,omitempty"`
	Recipient        *teamsAccount          `json:"recipient,omitempty"`
	Conversation     *teamsConversation     `json:"conversation,omitempty"`
	SuggestedActions *teamsSuggestedActions `json:"suggestedActions,omitempty"`
}

type teamsSuggestedActions struct {
	Actions []teamsCardAction `json:"actions"`
}

type teamsCardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// HandleActivity handles incoming Teams bot activities (HTTP POST).
func (h *TeamsHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var activity teamsActivity
	if err := json.Unmarshal(body, &activity); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if activity.Type != "message" || activity.From.Role == "bot" {
		w.WriteHeader(http.StatusOK)
		return
	}

	resp, err := h.gateway.Process(r.Context(), IncomingMessage{
		Platform:  PlatformTeams,
		EventID:   activity.ID,
		ChannelID: activity.Conversation.ID,
		UserID:    activity.From.ID,
		UserName:  activity.From.Name,
		Text:      stripMentions(activity.Text),
		ThreadID:  activity.ID,
		Timestamp: activity.Timestamp,
	})
	if err != nil {
		h.logger.Warn("teams activity failed", zap.String("activity", activity.ID), zap.Error(err))
		http.Error(w, "processing error", http.StatusInternalServerError)
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newTeamsReply(activity, resp))
}

func newTeamsReply(in teamsActivity, msg *OutgoingMessage) teamsReply {
	reply := teamsReply{
		Type:         "message",
		Text:         msg.Text,
		TextFormat:   "plain",
		InputHint:    "acceptingInput",
		ReplyToID:    msg.ThreadID,
		From:         &teamsAccount{ID: in.Recipient.ID, Name: in.Recipient.Name},
		Recipient:    &teamsAccount{ID: in.From.ID, Name: in.From.Name},
		Conversation: &teamsConversation{ID: in.Conversation.ID},
	}
	if len(msg.Suggestions) > 0 {
		reply.InputHint = "expectingInput"
		actions := make([]teamsCardAction, len(msg.Suggestions))
		for i, s := range msg.Suggestions {
			actions[i] = teamsCardAction{Type: "imBack", Title: s, Value: s}
		}
		reply.SuggestedActions = &teamsSuggestedActions{Actions: actions}
	}
	return reply
}

func stripMentions(text string) string {
	return strings.TrimSpace(mentionTag.ReplaceAllString(text, ""))
}
