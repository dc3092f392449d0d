package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/repository"
	"gorm.io/gorm"
)

// ImageUploader stores raw image bytes and returns a public URL.
type ImageUploader interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

type ProductService interface {
	Create(ctx context.Context, sellerID uint64, name, description string, priceCents int64, stock int) (*model.Product, error)
	Get(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, limit, offset int) ([]model.Product, error)
	ListBySeller(ctx context.Context, sellerID uint64) ([]model.Product, error)
	AttachImage(ctx context.Context, productID, sellerID uint64, data []byte, contentType string) (string, error)
}

type productService struct {
	repo     repository.ProductRepository
	uploader ImageUploader
}

func NewProductService(repo repository.ProductRepository, uploader ImageUploader) ProductService {
	return &productService{repo: repo, uploader: uploader}
}

func (s *productService) Create(ctx context.Context, sellerID uint64, name, description string, priceCents int64, stock int) (*model.Product, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	if priceCents < 0 || stock < 0 {
		return nil, errors.New("price and stock must be non-negative")
	}
	p := &model.Product{
		SellerID:    sellerID,
		Name:        name,
		Description: description,
		PriceCents:  priceCents,
		Stock:       stock,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *productService) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Product, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

func (s *productService) AttachImage(ctx context.Context, productID, sellerID uint64, data []byte, contentType string) (string, error) {
	if s.uploader == nil {
		return "", errors.New("image upload is not configured")
	}
	p, err := s.Get(ctx, productID)
	if err != nil {
		return "", err
	}
	if p.SellerID != sellerID {
		return "", ErrForbidden
	}
	path := fmt.Sprintf("products/%d/image", productID)
	url, err := s.uploader.Upload(ctx, path, data, contentType)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateImageURL(ctx, productID, url); err != nil {
		return "", err
	}
	return url, nil
}
