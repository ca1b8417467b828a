package repository

import (
	"notably/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReadReceiptRepository persists per-user read state for direct and group
// messages. Inserts are idempotent via the unique (message, user) index and
// ON CONFLICT DO NOTHING, so concurrent marks from multiple devices of the
// same user cannot create duplicates.
type ReadReceiptRepository struct {
	db *gorm.DB
}

func NewReadReceiptRepository(db *gorm.DB) *ReadReceiptRepository {
	return &ReadReceiptRepository{db: db}
}

// InsertIgnore inserts a direct-message receipt unless one already exists.
func (r *ReadReceiptRepository) InsertIgnore(receipt *models.MessageRead) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(receipt).Error
}

func (r *ReadReceiptRepository) Get(messageID, userID uint) (*models.MessageRead, error) {
	var receipt models.MessageRead
	err := r.db.Where("message_id = ? AND user_id = ?", messageID, userID).First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// InsertIgnoreGroup inserts a group-message receipt unless one already exists.
func (r *ReadReceiptRepository) InsertIgnoreGroup(receipt *models.GroupMessageRead) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(receipt).Error
}

func (r *ReadReceiptRepository) GetGroup(messageID, userID uint) (*models.GroupMessageRead, error) {
	var receipt models.GroupMessageRead
	err := r.db.Where("message_id = ? AND user_id = ?", messageID, userID).First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListReaders returns the receipts for a group message, ordered by read time.
func (r *ReadReceiptRepository) ListReaders(messageID uint) ([]models.GroupMessageRead, error) {
	var list []models.GroupMessageRead
	err := r.db.Where("message_id = ?", messageID).Order("read_at ASC").Find(&list).Error
	return list, err
}
