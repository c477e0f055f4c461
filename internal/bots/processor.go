package bots

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/deskmate/internal/assistant"
)

// Assistant is the conversational engine the processor forwards to.
type Assistant interface {
	HandleMessage(ctx context.Context, userID, text string) assistant.Reply
}

type interruptible interface {
	Interrupt(userID, text string) bool
}

// Processor connects incoming bot messages to the assistant.
type Processor struct {
	assistant Assistant
}

// NewProcessor creates a new message processor.
func NewProcessor(a Assistant) *Processor {
	return &Processor{assistant: a}
}

// HandleMessage forwards the text to the assistant under a per-platform
// user id and renders the reply. Suggested replies become numbered lines
// the user can answer with a digit.
func (p *Processor) HandleMessage(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return &OutgoingMessage{
			ChannelID: msg.ChannelID,
			ThreadID:  msg.ThreadID,
			Text:      "I received an empty message. Please provide some text.",
		}, nil
	}
	if p.assistant == nil {
		return nil, fmt.Errorf("assistant not configured")
	}

	reply := p.assistant.HandleMessage(ctx, UserKey(msg.Platform, msg.UserID), text)
	if reply.Silent {
		return nil, nil
	}

	return &OutgoingMessage{
		ChannelID:   msg.ChannelID,
		ThreadID:    msg.ThreadID,
		Text:        Render(reply),
		Suggestions: reply.SuggestedReplies,
	}, nil
}

// Interrupt aborts the sender's running request when msg is a cancel word.
func (p *Processor) Interrupt(msg IncomingMessage) bool {
	a, ok := p.assistant.(interruptible)
	if !ok {
		return false
	}
	return a.Interrupt(UserKey(msg.Platform, msg.UserID), strings.TrimSpace(msg.Text))
}

// UserKey scopes a platform user id so users on different platforms never
// share a dialogue.
func UserKey(p Platform, userID string) string {
	return string(p) + ":" + userID
}

// Render flattens a reply into plain text.
func Render(r assistant.Reply) string {
	if len(r.SuggestedReplies) == 0 {
		return r.Text
	}
	var b strings.Builder
	b.WriteString(r.Text)
	for i, s := range r.SuggestedReplies {
		fmt.Fprintf(&b, "\n%d. %s", i+1, s)
	}
	return b.String()
}
