package slack

import "github.com/soyeahso/linkpost/internal/formenc"

// Channel is an entry of conversations.list.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsChannel  bool   `json:"is_channel,omitempty"`
	IsPrivate  bool   `json:"is_private,omitempty"`
	IsArchived bool   `json:"is_archived,omitempty"`
	IsMember   bool   `json:"is_member,omitempty"`
}

type conversationsListResponse struct {
	OK       any       `json:"ok"`
	Error    string    `json:"error,omitempty"`
	Channels []Channel `json:"channels"`
}

// OutboundMessage is one chat.postMessage call. Channel must be a resolved
// channel id. ThreadTS, when set, posts the message as a threaded reply.
type OutboundMessage struct {
	Channel  string
	Text     string
	ThreadTS string
}

func (m OutboundMessage) form() *formenc.Form {
	f := &formenc.Form{}
	f.Set("channel", m.Channel)
	f.Set("text", m.Text)
	if m.ThreadTS != "" {
		f.Set("thread_ts", m.ThreadTS)
	}
	return f
}

// PostResult is a successful chat.postMessage response.
type PostResult struct {
	Channel string
	// TS identifies the posted message; pass it as ThreadTS to reply.
	TS string
	// Payload is the full decoded response body.
	Payload map[string]any
}
