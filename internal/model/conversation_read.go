package model

import "time"

// ConversationRead is one participant's read marker for a conversation.
// Messages from the other side created after LastReadAt count as unread.
type ConversationRead struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64          `gorm:"column:conversation_id;uniqueIndex:uniq_conv_reader" json:"conversationId"`
	ReaderRole     ParticipantRole `gorm:"column:reader_role;size:16;uniqueIndex:uniq_conv_reader" json:"readerRole"`
	ReaderID       uint64          `gorm:"column:reader_id;uniqueIndex:uniq_conv_reader" json:"readerId"`
	LastReadAt     time.Time       `gorm:"column:last_read_at" json:"lastReadAt"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ConversationRead) TableName() string {
	return "conversation_reads"
}
