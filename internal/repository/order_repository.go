package repository

import (
	"context"
	"errors"
	"time"

	"github.com/localmart/localmart-backend/internal/model"
	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type OrderRepository interface {
	CreateWithStockDecrement(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error)
	LinkConversation(ctx context.Context, orderID, convID uint64) error
	MarkShipped(ctx context.Context, id, sellerID uint64) (int64, error)
	MarkDelivered(ctx context.Context, id, userID uint64) (int64, error)
	SetDB(db *gorm.DB)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) SetDB(db *gorm.DB) {
	r.db = db
}

// CreateWithStockDecrement inserts the order and decrements product stock in
// one transaction; the guarded UPDATE keeps stock from going negative under
// concurrent orders.
func (r *orderRepository) CreateWithStockDecrement(ctx context.Context, o *model.Order) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).
			Where("id = ? AND stock >= ?", o.ProductID, o.Quantity).
			Update("stock", gorm.Expr("stock - ?", o.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}
		return tx.Create(o).Error
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) LinkConversation(ctx context.Context, orderID, convID uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("conversation_id", convID).Error
}

func (r *orderRepository) MarkShipped(ctx context.Context, id, sellerID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND seller_id = ? AND status = ?", id, sellerID, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusShipped,
			"shipped_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *orderRepository) MarkDelivered(ctx context.Context, id, userID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.OrderStatusShipped).
		Updates(map[string]interface{}{
			"status":       model.OrderStatusDelivered,
			"delivered_at": now,
		})
	return res.RowsAffected, res.Error
}
