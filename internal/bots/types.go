package bots

// Platform identifies the messaging platform. It prefixes user ids so a
// Slack user and a Teams user never share a dialogue.
type Platform string

const (
	PlatformSlack Platform = "slack"
	PlatformTeams Platform = "teams"
)

// IncomingMessage is a chat message normalized across platforms.
type IncomingMessage struct {
	Platform Platform
	// EventID is the platform's delivery id; redeliveries reuse it.
	EventID   string
	ChannelID string
	UserID    string
	UserName  string
	Text      string
	// ThreadID is where the reply goes: a Slack thread ts or the Teams
	// activity being answered.
	ThreadID  string
	Timestamp string
}

// OutgoingMessage is the rendered reply.
type OutgoingMessage struct {
	ChannelID string
	ThreadID  string
	// Text already carries suggestions as numbered lines.
	Text string
	// Suggestions are offered again as buttons where the platform has them.
	Suggestions []string
}
