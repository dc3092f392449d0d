package repository

import (
	"context"

	"github.com/localmart/localmart-backend/internal/model"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, limit, offset int) ([]model.Product, error)
	ListBySeller(ctx context.Context, sellerID uint64) ([]model.Product, error)
	UpdateImageURL(ctx context.Context, id uint64, imageURL string) error
	SetDB(db *gorm.DB)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uint64) (*model.Product, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var list []model.Product
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepository) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Product, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Product
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepository) UpdateImageURL(ctx context.Context, id uint64, imageURL string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("image_url", imageURL).Error
}
