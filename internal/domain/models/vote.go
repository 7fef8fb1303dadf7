package models

// Vote records a thumbs up/down on a message. At most one vote exists per
// (chat, message) pair; voting again overwrites the previous value.
type Vote struct {
	ChatID    string `json:"chatId" db:"chat_id"`
	MessageID string `json:"messageId" db:"message_id"`
	IsUpvoted bool   `json:"isUpvoted" db:"is_upvoted"`
}
