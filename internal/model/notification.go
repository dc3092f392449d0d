package model

import "time"

type Notification struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientRole  ParticipantRole `gorm:"column:recipient_role;size:16;index:idx_recipient;not null" json:"recipientRole"`
	RecipientID    uint64          `gorm:"column:recipient_id;index:idx_recipient;not null" json:"recipientId"`
	Type           string          `gorm:"column:type;size:64;not null" json:"type"`
	Body           string          `gorm:"column:body;type:text" json:"body"`
	ConversationID *uint64         `gorm:"column:conversation_id;index" json:"conversationId,omitempty"`
	OrderID        *uint64         `gorm:"column:order_id;index" json:"orderId,omitempty"`
	ReadAt         *time.Time      `gorm:"column:read_at" json:"readAt,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
