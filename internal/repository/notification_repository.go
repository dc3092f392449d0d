package repository

import (
	"context"
	"time"

	"github.com/localmart/localmart-backend/internal/model"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, role model.ParticipantRole, id uint64, unreadOnly bool, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, role model.ParticipantRole, id uint64) (int64, error)
	MarkAllRead(ctx context.Context, role model.ParticipantRole, id uint64) error
	MarkByConversation(ctx context.Context, role model.ParticipantRole, id, convID uint64) error
	SetDB(db *gorm.DB)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, role model.ParticipantRole, id uint64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	q := r.db.WithContext(ctx).
		Where("recipient_role = ? AND recipient_id = ?", role, id)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var list []model.Notification
	if err := q.Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, role model.ParticipantRole, id uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_role = ? AND recipient_id = ? AND read_at IS NULL", role, id).
		Count(&cnt).Error
	return cnt, err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, role model.ParticipantRole, id uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_role = ? AND recipient_id = ? AND read_at IS NULL", role, id).
		Update("read_at", time.Now()).Error
}

func (r *notificationRepository) MarkByConversation(ctx context.Context, role model.ParticipantRole, id, convID uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_role = ? AND recipient_id = ? AND conversation_id = ? AND read_at IS NULL", role, id, convID).
		Update("read_at", time.Now()).Error
}
