package repository

import (
	"context"
	"errors"
	"time"

	"github.com/localmart/localmart-backend/internal/model"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	FindOrCreate(ctx context.Context, groupTitle string, userID, sellerID uint64) (*model.Conversation, error)
	FindByID(ctx context.Context, id uint64) (*model.Conversation, error)
	FindByUser(ctx context.Context, userID uint64) ([]model.Conversation, error)
	FindBySeller(ctx context.Context, sellerID uint64) ([]model.Conversation, error)
	AppendMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, convID uint64) ([]model.Message, error)
	MarkRead(ctx context.Context, convID uint64, role model.ParticipantRole, readerID uint64) error
	CountUnreadMessages(ctx context.Context, convID uint64, role model.ParticipantRole, readerID uint64) (int64, error)
	SetDB(db *gorm.DB)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *conversationRepository) FindOrCreate(ctx context.Context, groupTitle string, userID, sellerID uint64) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	cv := model.Conversation{UserID: userID, SellerID: sellerID}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND seller_id = ?", userID, sellerID).
		Attrs(model.Conversation{GroupTitle: groupTitle}).
		FirstOrCreate(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint64) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	if err := r.db.WithContext(ctx).First(&cv, id).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) FindByUser(ctx context.Context, userID uint64) ([]model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *conversationRepository) FindBySeller(ctx context.Context, sellerID uint64) ([]model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("updated_at DESC, created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// AppendMessage inserts the message and refreshes the parent conversation's
// last_message/updated_at with the same timestamp, in one transaction.
func (r *conversationRepository) AppendMessage(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	now := time.Now()
	msg.CreatedAt = now
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]interface{}{
				"last_message": msg.Text,
				"updated_at":   now,
			}).Error
	})
}

// MarkRead upserts the reader's marker, moving last_read_at to now.
func (r *conversationRepository) MarkRead(ctx context.Context, convID uint64, role model.ParticipantRole, readerID uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	state := model.ConversationRead{ConversationID: convID, ReaderRole: role, ReaderID: readerID}
	return r.db.WithContext(ctx).
		Where("conversation_id = ? AND reader_role = ? AND reader_id = ?", convID, role, readerID).
		Assign(model.ConversationRead{LastReadAt: time.Now()}).
		FirstOrCreate(&state).Error
}

// CountUnreadMessages counts the other side's messages newer than the
// reader's marker. A reader with no marker has never opened the
// conversation, so every message from the other side counts.
func (r *conversationRepository) CountUnreadMessages(ctx context.Context, convID uint64, role model.ParticipantRole, readerID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var state model.ConversationRead
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND reader_role = ? AND reader_id = ?", convID, role, readerID).
		First(&state).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	q := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_role <> ?", convID, role)
	if err == nil {
		q = q.Where("created_at > ?", state.LastReadAt)
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, convID uint64) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
