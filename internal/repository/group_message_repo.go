package repository

import (
	"notably/internal/domain"
	"notably/internal/models"

	"gorm.io/gorm"
)

type GroupMessageRepository struct {
	db *gorm.DB
}

func NewGroupMessageRepository(db *gorm.DB) *GroupMessageRepository {
	return &GroupMessageRepository{db: db}
}

func (r *GroupMessageRepository) Create(m *models.GroupMessage) error {
	return r.db.Create(m).Error
}

func (r *GroupMessageRepository) GetByID(id uint) (*models.GroupMessage, error) {
	var m models.GroupMessage
	err := r.db.First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GroupMessageRepository) GetByClientID(clientID string, senderID uint) (*models.GroupMessage, error) {
	var m models.GroupMessage
	err := r.db.Where("client_id = ? AND sender_id = ?", clientID, senderID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GroupMessageRepository) Update(m *models.GroupMessage) error {
	return r.db.Save(m).Error
}

func (r *GroupMessageRepository) ListByGroup(groupID uint, limit, offset int) ([]models.GroupMessage, error) {
	var list []models.GroupMessage
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// ListRecent returns the newest n messages of a group; the bell feed scans
// these for the latest one still visible to the viewer.
func (r *GroupMessageRepository) ListRecent(groupID uint, n int) ([]models.GroupMessage, error) {
	var list []models.GroupMessage
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at DESC").Limit(n).Find(&list).Error
	return list, err
}

// ListUnread returns group messages not sent by userID, excluding system
// messages, lacking a read receipt for userID, in id order starting after
// afterID. Soft-delete visibility is applied by the caller; the id cursor
// lets it page past messages it skips.
func (r *GroupMessageRepository) ListUnread(groupID, userID, afterID uint, limit int) ([]models.GroupMessage, error) {
	var list []models.GroupMessage
	q := r.db.Where("group_id = ? AND sender_id <> ? AND message_type <> ? AND id > ?",
		groupID, userID, domain.MessageTypeSystem, afterID).
		Where("NOT EXISTS (SELECT 1 FROM group_message_reads WHERE group_message_reads.message_id = group_messages.id AND group_message_reads.user_id = ?)", userID).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *GroupMessageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.GroupMessage{}).Count(&count).Error
	return count, err
}
