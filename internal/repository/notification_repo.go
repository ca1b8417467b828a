package repository

import (
	"notably/internal/domain"
	"notably/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *NotificationRepository) ListByUser(userID uint, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("user_id = ? AND type <> ?", userID, domain.NotificationBellDismiss).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// ListByType returns a user's notifications of one type, newest first.
func (r *NotificationRepository) ListByType(userID uint, notifType string) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("user_id = ? AND type = ?", userID, notifType).
		Order("updated_at DESC").Find(&list).Error
	return list, err
}

// ListDismissals returns every bell_dismiss watermark row of a user.
func (r *NotificationRepository) ListDismissals(userID uint) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("user_id = ? AND type = ?", userID, domain.NotificationBellDismiss).
		Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountUnreadByType(userID uint, notifType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND is_read = ?", userID, notifType, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(id, userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
}

func (r *NotificationRepository) MarkReadByType(userID uint, notifType string) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND is_read = ?", userID, notifType, false).
		Update("is_read", true).Error
}

// MarkReadFrom marks unread rows of one type from a specific sender as read.
func (r *NotificationRepository) MarkReadFrom(userID uint, notifType string, fromUserID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND from_user_id = ? AND is_read = ?", userID, notifType, fromUserID, false).
		Update("is_read", true).Error
}

func (r *NotificationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Count(&count).Error
	return count, err
}

// ListAll returns raw notification rows for the admin audit view, watermarks
// included. Underlying history stays intact for this reader.
func (r *NotificationRepository) ListAll(limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
