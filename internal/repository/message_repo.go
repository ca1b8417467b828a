package repository

import (
	"notably/internal/domain"
	"notably/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(m *models.Message) error {
	return r.db.Create(m).Error
}

func (r *MessageRepository) GetByID(id uint) (*models.Message, error) {
	var m models.Message
	err := r.db.First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByClientID finds a message by its client-generated uuid; used to
// deduplicate retried sends.
func (r *MessageRepository) GetByClientID(clientID string, senderID uint) (*models.Message, error) {
	var m models.Message
	err := r.db.Where("client_id = ? AND sender_id = ?", clientID, senderID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) Update(m *models.Message) error {
	return r.db.Save(m).Error
}

// Conversation returns messages between two users, newest first. Visibility
// filtering for the viewer happens in the service layer.
func (r *MessageRepository) Conversation(userID, otherID uint, limit, offset int) ([]models.Message, error) {
	var list []models.Message
	err := r.db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, otherID, otherID, userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// ListUnread returns messages from otherID to userID lacking a read receipt,
// in id order starting after afterID. Soft-delete visibility is applied by the
// caller; the id cursor is what lets callers page past messages they skip.
func (r *MessageRepository) ListUnread(userID, otherID, afterID uint, limit int) ([]models.Message, error) {
	var list []models.Message
	q := r.db.Where("receiver_id = ? AND sender_id = ? AND id > ?", userID, otherID, afterID).
		Where("NOT EXISTS (SELECT 1 FROM message_reads WHERE message_reads.message_id = messages.id AND message_reads.user_id = ?)", userID).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

// MarkDelivered flips still-sent messages from otherID to userID to delivered.
func (r *MessageRepository) MarkDelivered(userID, otherID uint) error {
	return r.db.Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND status = ?", userID, otherID, domain.MessageStatusSent).
		Update("status", domain.MessageStatusDelivered).Error
}

func (r *MessageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).Count(&count).Error
	return count, err
}
