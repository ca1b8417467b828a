package repository

import (
	"notably/internal/models"

	"gorm.io/gorm"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

type DashboardStats struct {
	TotalUsers         int64 `json:"total_users"`
	TotalGroups        int64 `json:"total_groups"`
	TotalMessages      int64 `json:"total_messages"`
	TotalGroupMessages int64 `json:"total_group_messages"`
	TotalNotes         int64 `json:"total_notes"`
	TotalNotifications int64 `json:"total_notifications"`
	OnlineUsers        int64 `json:"online_users"` // filled from the presence cache
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	r.db.Model(&models.User{}).Count(&s.TotalUsers)
	r.db.Model(&models.Group{}).Count(&s.TotalGroups)
	r.db.Model(&models.Message{}).Count(&s.TotalMessages)
	r.db.Model(&models.GroupMessage{}).Count(&s.TotalGroupMessages)
	r.db.Model(&models.Note{}).Count(&s.TotalNotes)
	r.db.Model(&models.Notification{}).Count(&s.TotalNotifications)
	return &s, nil
}

// ListUsers returns users with search, role filter, and pagination.
func (r *AdminRepository) ListUsers(search, role string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		q = q.Where("username LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}
