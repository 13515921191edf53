// Package turn defines the transport-level envelope for one inbound chat
// message and the outbound messages it triggers. Channel adapters decode wire
// payloads into an Activity; the core never touches raw bytes.
package turn

import "strings"

// Activity types understood by the turn processor.
const (
	TypeMessage            = "message"
	TypeConversationUpdate = "conversationUpdate"
)

// ChannelMSTeams identifies the Teams channel, which cannot serve the
// attachment prompt and skips it.
const ChannelMSTeams = "msteams"

// Attachment references an uploaded or generated piece of media.
type Attachment struct {
	ContentType string `json:"contentType"`
	ContentURL  string `json:"contentUrl"`
	Name        string `json:"name,omitempty"`
}

// IsImage reports whether the attachment is an accepted profile picture type.
func (a Attachment) IsImage() bool {
	switch strings.ToLower(strings.TrimSpace(a.ContentType)) {
	case "image/jpeg", "image/png":
		return true
	}
	return false
}

// Activity is one inbound or outbound chat message.
type Activity struct {
	Type             string       `json:"type"`
	ID               string       `json:"id,omitempty"`
	ConversationID   string       `json:"conversationId"`
	UserID           string       `json:"userId"`
	ChannelID        string       `json:"channelId,omitempty"`
	Text             string       `json:"text,omitempty"`
	Attachments      []Attachment `json:"attachments,omitempty"`
	SuggestedActions []string     `json:"suggestedActions,omitempty"`
}

// Context carries one inbound activity through a turn and collects the
// outbound activities produced while handling it. It is not safe for
// concurrent use; the processor guarantees one turn per conversation at a
// time.
type Context struct {
	Activity Activity

	replies []Activity
}

// NewContext wraps an inbound activity for processing.
func NewContext(a Activity) *Context {
	return &Context{Activity: a}
}

// Text returns the trimmed inbound message text.
func (c *Context) Text() string {
	return strings.TrimSpace(c.Activity.Text)
}

// ConversationID returns the id of the conversation this turn belongs to.
func (c *Context) ConversationID() string { return c.Activity.ConversationID }

// UserID returns the opaque channel identity of the sender.
func (c *Context) UserID() string { return c.Activity.UserID }

// ChannelID returns the originating channel, e.g. "webchat" or "msteams".
func (c *Context) ChannelID() string { return c.Activity.ChannelID }

// Send queues a plain text reply.
func (c *Context) Send(text string) {
	c.reply(Activity{Type: TypeMessage, Text: text})
}

// SendWithActions queues a text reply carrying suggested action buttons.
func (c *Context) SendWithActions(text string, actions ...string) {
	c.reply(Activity{Type: TypeMessage, Text: text, SuggestedActions: actions})
}

// SendAttachment queues a reply carrying a media attachment and optional caption.
func (c *Context) SendAttachment(att Attachment, caption string) {
	c.reply(Activity{Type: TypeMessage, Text: caption, Attachments: []Attachment{att}})
}

func (c *Context) reply(a Activity) {
	a.ConversationID = c.Activity.ConversationID
	a.UserID = c.Activity.UserID
	a.ChannelID = c.Activity.ChannelID
	c.replies = append(c.replies, a)
}

// Replies returns the outbound activities collected so far, in send order.
func (c *Context) Replies() []Activity {
	return c.replies
}

// DropReplies discards everything queued so far. The processor uses it when a
// turn fails midway and only an apology should reach the user.
func (c *Context) DropReplies() {
	c.replies = nil
}

// Counters summarizes outbound volume for the turn log line.
func (c *Context) Counters() (messages, attachments int) {
	messages = len(c.replies)
	for _, r := range c.replies {
		attachments += len(r.Attachments)
	}
	return messages, attachments
}
