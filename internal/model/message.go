package model

import "time"

type ParticipantRole string

const (
	RoleUser   ParticipantRole = "user"
	RoleSeller ParticipantRole = "seller"
)

func (r ParticipantRole) Valid() bool {
	return r == RoleUser || r == RoleSeller
}

type Message struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64          `gorm:"column:conversation_id;index" json:"conversationId"`
	Sender         uint64          `gorm:"column:sender;index" json:"sender"`
	SenderRole     ParticipantRole `gorm:"column:sender_role;size:16;not null" json:"senderRole"`
	Text           string          `gorm:"type:text;not null" json:"text"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
