package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type OrderService interface {
	Create(ctx context.Context, userID, productID uint64, quantity int) (*model.Order, error)
	Get(ctx context.Context, orderID uint64, ident ParticipantRef) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error)
	MessageSeller(ctx context.Context, orderID, userID uint64) (*model.Conversation, error)
	MarkShipped(ctx context.Context, orderID, sellerID uint64) error
	MarkDelivered(ctx context.Context, orderID, userID uint64) error
}

// ParticipantRef names one side of an order or conversation.
type ParticipantRef struct {
	Role model.ParticipantRole
	ID   uint64
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	convSvc     ConversationService
	notifSvc    NotificationService
}

func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, convSvc ConversationService, notifSvc NotificationService) OrderService {
	return &orderService{orderRepo: orderRepo, productRepo: productRepo, convSvc: convSvc, notifSvc: notifSvc}
}

func (s *orderService) Create(ctx context.Context, userID, productID uint64, quantity int) (*model.Order, error) {
	if quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	o := &model.Order{
		UserID:     userID,
		SellerID:   p.SellerID,
		ProductID:  productID,
		Quantity:   quantity,
		TotalCents: p.PriceCents * int64(quantity),
		Status:     model.OrderStatusPending,
	}
	if err := s.orderRepo.CreateWithStockDecrement(ctx, o); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, ErrOutOfStock
		}
		return nil, err
	}

	// Open the buyer/seller conversation and drop a system line into it.
	// Both are best-effort: the order stands even if messaging is down.
	cv, err := s.convSvc.CreateOrGet(ctx, p.Name, userID, p.SellerID)
	if err != nil {
		log.Warn().Err(err).Uint64("orderID", o.ID).Msg("order conversation setup failed")
		return o, nil
	}
	if err := s.orderRepo.LinkConversation(ctx, o.ID, cv.ID); err != nil {
		log.Warn().Err(err).Uint64("orderID", o.ID).Msg("order conversation link failed")
	}
	text := fmt.Sprintf("Order #%d placed: %d x %s", o.ID, quantity, p.Name)
	if _, _, err := s.convSvc.AppendMessage(ctx, cv.ID, userID, model.RoleUser, text); err != nil {
		log.Warn().Err(err).Uint64("orderID", o.ID).Msg("order message failed")
	}
	oid := o.ID
	s.notifSvc.Notify(ctx, model.RoleSeller, p.SellerID, "order_placed", text, &cv.ID, &oid)
	return o, nil
}

func (s *orderService) Get(ctx context.Context, orderID uint64, ident ParticipantRef) (*model.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch ident.Role {
	case model.RoleUser:
		if o.UserID != ident.ID {
			return nil, ErrForbidden
		}
	case model.RoleSeller:
		if o.SellerID != ident.ID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *orderService) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *orderService) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error) {
	return s.orderRepo.ListBySeller(ctx, sellerID)
}

// MessageSeller resolves (or lazily creates) the conversation behind an
// order's "message seller" action.
func (s *orderService) MessageSeller(ctx context.Context, orderID, userID uint64) (*model.Conversation, error) {
	o, err := s.Get(ctx, orderID, ParticipantRef{Role: model.RoleUser, ID: userID})
	if err != nil {
		return nil, err
	}
	p, err := s.productRepo.FindByID(ctx, o.ProductID)
	title := ""
	if err == nil {
		title = p.Name
	}
	cv, err := s.convSvc.CreateOrGet(ctx, title, o.UserID, o.SellerID)
	if err != nil {
		return nil, err
	}
	if o.ConversationID == nil {
		if err := s.orderRepo.LinkConversation(ctx, o.ID, cv.ID); err != nil {
			log.Warn().Err(err).Uint64("orderID", o.ID).Msg("order conversation link failed")
		}
	}
	return cv, nil
}

func (s *orderService) MarkShipped(ctx context.Context, orderID, sellerID uint64) error {
	n, err := s.orderRepo.MarkShipped(ctx, orderID, sellerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *orderService) MarkDelivered(ctx context.Context, orderID, userID uint64) error {
	n, err := s.orderRepo.MarkDelivered(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
