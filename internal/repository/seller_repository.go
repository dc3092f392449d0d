package repository

import (
	"context"

	"github.com/localmart/localmart-backend/internal/model"
	"gorm.io/gorm"
)

type SellerRepository interface {
	Create(ctx context.Context, s *model.Seller) error
	FindByID(ctx context.Context, id uint64) (*model.Seller, error)
	FindByEmail(ctx context.Context, email string) (*model.Seller, error)
	SetDB(db *gorm.DB)
}

type sellerRepository struct {
	db *gorm.DB
}

func NewSellerRepository(db *gorm.DB) SellerRepository {
	return &sellerRepository{db: db}
}

func (r *sellerRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *sellerRepository) Create(ctx context.Context, s *model.Seller) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sellerRepository) FindByID(ctx context.Context, id uint64) (*model.Seller, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var s model.Seller
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sellerRepository) FindByEmail(ctx context.Context, email string) (*model.Seller, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var s model.Seller
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
