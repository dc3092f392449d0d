package service

import (
	"context"

	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/repository"
	"github.com/rs/zerolog/log"
)

type NotificationService interface {
	Notify(ctx context.Context, role model.ParticipantRole, recipientID uint64, typ, body string, convID, orderID *uint64)
	List(ctx context.Context, role model.ParticipantRole, recipientID uint64, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, role model.ParticipantRole, recipientID uint64) error
	MarkByConversation(ctx context.Context, role model.ParticipantRole, recipientID, convID uint64) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// Notify is best-effort; it logs errors but does not return them to avoid
// breaking main flows.
func (s *notificationService) Notify(ctx context.Context, role model.ParticipantRole, recipientID uint64, typ, body string, convID, orderID *uint64) {
	if recipientID == 0 || typ == "" || !role.Valid() {
		return
	}
	n := &model.Notification{
		RecipientRole:  role,
		RecipientID:    recipientID,
		Type:           typ,
		Body:           body,
		ConversationID: convID,
		OrderID:        orderID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Warn().Err(err).Str("recipient", string(role)).Uint64("id", recipientID).Msg("notification write failed")
	}
}

func (s *notificationService) List(ctx context.Context, role model.ParticipantRole, recipientID uint64, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	list, err := s.repo.ListByRecipient(ctx, role, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, role, recipientID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, role model.ParticipantRole, recipientID uint64) error {
	return s.repo.MarkAllRead(ctx, role, recipientID)
}

func (s *notificationService) MarkByConversation(ctx context.Context, role model.ParticipantRole, recipientID, convID uint64) error {
	if recipientID == 0 || convID == 0 {
		return nil
	}
	return s.repo.MarkByConversation(ctx, role, recipientID, convID)
}
