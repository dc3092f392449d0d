package repository

import (
	"context"
	"testing"

	"github.com/localmart/localmart-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWithStockDecrement(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	p := &model.Product{SellerID: 3, Name: "tomatoes", Description: "1kg", PriceCents: 650, Stock: 5}
	require.NoError(t, db.Create(p).Error)

	o := &model.Order{UserID: 7, SellerID: 3, ProductID: p.ID, Quantity: 2, TotalCents: 1300, Status: model.OrderStatusPending}
	require.NoError(t, repo.CreateWithStockDecrement(ctx, o))
	require.NotZero(t, o.ID)

	var got model.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 3, got.Stock)
}

func TestCreateWithStockDecrementInsufficient(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	p := &model.Product{SellerID: 3, Name: "tubes", Description: "", PriceCents: 900, Stock: 1}
	require.NoError(t, db.Create(p).Error)

	o := &model.Order{UserID: 7, SellerID: 3, ProductID: p.ID, Quantity: 2, TotalCents: 1800, Status: model.OrderStatusPending}
	err := repo.CreateWithStockDecrement(ctx, o)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing committed: stock untouched, no order row.
	var got model.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 1, got.Stock)
	var count int64
	require.NoError(t, db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrderStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	p := &model.Product{SellerID: 3, Name: "basil", PriceCents: 250, Stock: 10}
	require.NoError(t, db.Create(p).Error)
	o := &model.Order{UserID: 7, SellerID: 3, ProductID: p.ID, Quantity: 1, TotalCents: 250, Status: model.OrderStatusPending}
	require.NoError(t, repo.CreateWithStockDecrement(ctx, o))

	// Wrong seller cannot ship.
	n, err := repo.MarkShipped(ctx, o.ID, 99)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Cannot deliver before shipping.
	n, err = repo.MarkDelivered(ctx, o.ID, 7)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.MarkShipped(ctx, o.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.MarkDelivered(ctx, o.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, got.Status)
	assert.NotNil(t, got.ShippedAt)
	assert.NotNil(t, got.DeliveredAt)
}
