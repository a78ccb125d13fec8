package models

import "time"

// Message represents a chat message. Seq is the per-chat message id:
// it is assigned by the message repository from a per-chat counter and
// defines the total order of the chat, independent of wall clocks.
type Message struct {
	ID        int       `db:"id" json:"-"`
	ChatID    int       `db:"chat_id" json:"chat_id"`
	Seq       int       `db:"seq" json:"message_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Text      string    `db:"text" json:"text"`
	MediaRef  *string   `db:"media_ref" json:"media_ref"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	Deleted   bool      `db:"deleted" json:"deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatEvent is broadcast through websockets as a refresh hint. It is
// never authoritative: clients converge through the next poll.
type ChatEvent struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID int      `json:"message_id,omitempty"`
	UserID    int      `json:"user_id,omitempty"`
	Active    bool     `json:"active,omitempty"`
}
