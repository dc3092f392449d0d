package model

import "time"

type Product struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    uint64    `gorm:"column:seller_id;index;not null" json:"sellerId"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	PriceCents  int64     `gorm:"column:price_cents;not null" json:"priceCents"`
	Stock       int       `gorm:"not null" json:"stock"`
	ImageURL    *string   `gorm:"size:512" json:"imageUrl,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}
