package service

import (
	"context"
	"errors"
	"strings"

	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/repository"
	"gorm.io/gorm"
)

type ConversationService interface {
	CreateOrGet(ctx context.Context, groupTitle string, userID, sellerID uint64) (*model.Conversation, error)
	Get(ctx context.Context, convID uint64) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Conversation, error)
	ListForSeller(ctx context.Context, sellerID uint64) ([]model.Conversation, error)
	ListMessages(ctx context.Context, convID uint64) ([]model.Message, error)
	AppendMessage(ctx context.Context, convID, sender uint64, role model.ParticipantRole, text string) (*model.Message, *model.Conversation, error)
	MarkRead(ctx context.Context, convID uint64, role model.ParticipantRole, readerID uint64) error
	UnreadCount(ctx context.Context, convID uint64, role model.ParticipantRole, readerID uint64) (int64, error)
}

type conversationService struct {
	convRepo   repository.ConversationRepository
	userRepo   repository.UserRepository
	sellerRepo repository.SellerRepository
}

func NewConversationService(convRepo repository.ConversationRepository, userRepo repository.UserRepository, sellerRepo repository.SellerRepository) ConversationService {
	return &conversationService{convRepo: convRepo, userRepo: userRepo, sellerRepo: sellerRepo}
}

// CreateOrGet is idempotent: an existing (user, seller) pair returns the
// stored row unchanged. Both participants must exist.
func (s *conversationService) CreateOrGet(ctx context.Context, groupTitle string, userID, sellerID uint64) (*model.Conversation, error) {
	if userID == 0 || sellerID == 0 {
		return nil, ErrNotFound
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.sellerRepo.FindByID(ctx, sellerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.convRepo.FindOrCreate(ctx, groupTitle, userID, sellerID)
}

func (s *conversationService) Get(ctx context.Context, convID uint64) (*model.Conversation, error) {
	cv, err := s.convRepo.FindByID(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cv, nil
}

func (s *conversationService) ListForUser(ctx context.Context, userID uint64) ([]model.Conversation, error) {
	return s.convRepo.FindByUser(ctx, userID)
}

func (s *conversationService) ListForSeller(ctx context.Context, sellerID uint64) ([]model.Conversation, error) {
	return s.convRepo.FindBySeller(ctx, sellerID)
}

func (s *conversationService) ListMessages(ctx context.Context, convID uint64) ([]model.Message, error) {
	if _, err := s.Get(ctx, convID); err != nil {
		return nil, err
	}
	return s.convRepo.ListMessages(ctx, convID)
}

// AppendMessage validates, persists and returns the canonical message along
// with its parent conversation. When role is absent or invalid it is inferred
// from the conversation membership, matching the user side first.
func (s *conversationService) AppendMessage(ctx context.Context, convID, sender uint64, role model.ParticipantRole, text string) (*model.Message, *model.Conversation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, ErrEmptyMessage
	}
	cv, err := s.Get(ctx, convID)
	if err != nil {
		return nil, nil, err
	}
	if !role.Valid() {
		if cv.UserID == sender {
			role = model.RoleUser
		} else {
			role = model.RoleSeller
		}
	}
	if !cv.HasParticipant(role, sender) {
		return nil, nil, ErrNotParticipant
	}
	msg := &model.Message{
		ConversationID: convID,
		Sender:         sender,
		SenderRole:     role,
		Text:           text,
	}
	if err := s.convRepo.AppendMessage(ctx, msg); err != nil {
		return nil, nil, err
	}
	return msg, cv, nil
}

// MarkRead moves the caller's read marker to now. Only participants hold
// markers.
func (s *conversationService) MarkRead(ctx context.Context, convID uint64, role model.ParticipantRole, readerID uint64) error {
	cv, err := s.Get(ctx, convID)
	if err != nil {
		return err
	}
	if !cv.HasParticipant(role, readerID) {
		return ErrNotParticipant
	}
	return s.convRepo.MarkRead(ctx, convID, role, readerID)
}

func (s *conversationService) UnreadCount(ctx context.Context, convID uint64, role model.ParticipantRole, readerID uint64) (int64, error) {
	cv, err := s.Get(ctx, convID)
	if err != nil {
		return 0, err
	}
	if !cv.HasParticipant(role, readerID) {
		return 0, ErrNotParticipant
	}
	return s.convRepo.CountUnreadMessages(ctx, convID, role, readerID)
}
