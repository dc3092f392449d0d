package model

import "time"

type Seller struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ShopName     string    `gorm:"column:shop_name;size:120;not null" json:"shopName"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Seller) TableName() string {
	return "sellers"
}
