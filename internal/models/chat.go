package models

import "time"

// Chat represents a conversation between exactly two users. The pair
// is stored normalized (User1ID < User2ID) so the unique index on it
// guarantees at most one live chat per pair.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	User1ID   int       `db:"user1_id" json:"user1_id"`
	User2ID   int       `db:"user2_id" json:"user2_id"`
	Deleted   bool      `db:"deleted" json:"deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OtherParticipant returns the participant that is not userID.
func (c Chat) OtherParticipant(userID int) int {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// LastMessage is the preview of the newest non-deleted message in a chat.
type LastMessage struct {
	MessageID int       `json:"id"`
	SenderID  int       `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSummary is the per-user view of a chat returned by ListChats.
// LastActivity drives the list ordering: the latest non-deleted
// message time, or the chat creation time when the chat is empty.
type ChatSummary struct {
	ChatID       int          `json:"chat_id"`
	Participants [2]int       `json:"participants"`
	FriendID     int          `json:"friend_id"`
	LastMessage  *LastMessage `json:"last_message"`
	UnreadCount  int          `json:"unread_count"`
	LastActivity time.Time    `json:"last_activity"`
	CreatedAt    time.Time    `json:"created_at"`
}
