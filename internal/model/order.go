package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
)

type Order struct {
	ID             uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint64      `gorm:"column:user_id;index;not null" json:"userId"`
	SellerID       uint64      `gorm:"column:seller_id;index;not null" json:"sellerId"`
	ProductID      uint64      `gorm:"column:product_id;index;not null" json:"productId"`
	Quantity       int         `gorm:"not null" json:"quantity"`
	TotalCents     int64       `gorm:"column:total_cents;not null" json:"totalCents"`
	Status         OrderStatus `gorm:"column:status;size:32;not null" json:"status"`
	ConversationID *uint64     `gorm:"column:conversation_id;index" json:"conversationId,omitempty"`
	ShippedAt      *time.Time  `gorm:"column:shipped_at" json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time  `gorm:"column:delivered_at" json:"deliveredAt,omitempty"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}
