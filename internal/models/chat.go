package models

import "time"

// ChatMessage is a single directed message about one listing.
// Rows are append-only: nothing updates or deletes them.
type ChatMessage struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint  `gorm:"not null;index:idx_chat_thread,priority:1" json:"productId"`

	SenderID   string `gorm:"type:text;not null;index;uniqueIndex:idx_chat_client_msg,priority:1" json:"senderId"`
	ReceiverID string `gorm:"type:text;not null;index" json:"receiverId"`
	Content    string `gorm:"type:text;not null" json:"content"`

	// Idempotency key (client-generated) so a retried send is not stored twice
	ClientMessageID *string `gorm:"type:text;uniqueIndex:idx_chat_client_msg,priority:2" json:"clientMessageId,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_chat_thread,priority:2" json:"createdAt"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Involves reports whether userID sent or received the message.
func (m *ChatMessage) Involves(userID string) bool {
	return userID != "" && (m.SenderID == userID || m.ReceiverID == userID)
}

// Counterpart returns the other party from userID's point of view.
func (m *ChatMessage) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Between reports whether the message was exchanged by exactly a and b.
func (m *ChatMessage) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// Before orders messages by creation time, then by identifier.
func (m *ChatMessage) Before(other *ChatMessage) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
