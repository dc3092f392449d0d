package model

import "time"

type Conversation struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupTitle  string    `gorm:"column:group_title;size:255" json:"groupTitle"`
	UserID      uint64    `gorm:"column:user_id;index:idx_user_seller,unique" json:"userId"`
	SellerID    uint64    `gorm:"column:seller_id;index:idx_user_seller,unique" json:"sellerId"`
	LastMessage *string   `gorm:"column:last_message;type:text" json:"lastMessage"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// HasParticipant reports whether the given role/id pair is a member of the
// conversation. User and seller id ranges may overlap, so the role is part
// of the identity.
func (c Conversation) HasParticipant(role ParticipantRole, id uint64) bool {
	switch role {
	case RoleUser:
		return c.UserID == id
	case RoleSeller:
		return c.SellerID == id
	}
	return false
}
