package types

import "github.com/google/uuid"

// Message is a single posted text. PubDate is unix seconds.
type Message struct {
	ID       int64     `json:"id"`
	AuthorID uuid.UUID `json:"author_id"`
	Text     string    `json:"text"`
	PubDate  int64     `json:"pub_date"`
}

// TimelineItem is a message joined with its author's display fields.
type TimelineItem struct {
	Message
	Username    string `json:"username"`
	GravatarURL string `json:"gravatar_url"`
}

// Timeline is a page of messages. FollowedByViewer is only meaningful on
// user timelines viewed by an authenticated user.
type Timeline struct {
	Messages         []TimelineItem `json:"messages"`
	FollowedByViewer bool           `json:"followed_by_viewer"`
}

// CreateMessageRequest represents the expected JSON body for posting a message.
type CreateMessageRequest struct {
	Text string `json:"text"`
}

// LegacyMessage mirrors the flat record shape of the old listing API, with
// the publication date pre-formatted server side.
type LegacyMessage struct {
	Text     string `json:"text"`
	PubDate  string `json:"pub_date"`
	Username string `json:"username"`
}

// LegacyMessageList is the envelope of the old /data endpoints.
type LegacyMessageList struct {
	Messages []LegacyMessage `json:"messages"`
}
