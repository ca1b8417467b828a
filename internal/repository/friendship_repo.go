package repository

import (
	"notably/internal/domain"
	"notably/internal/models"

	"gorm.io/gorm"
)

type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func (r *FriendshipRepository) Create(f *models.Friendship) error {
	return r.db.Create(f).Error
}

func (r *FriendshipRepository) GetByID(id uint) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.First(&f, id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetBetween finds the friendship row between two users in either direction.
func (r *FriendshipRepository) GetBetween(userID, otherID uint) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		userID, otherID, otherID, userID).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FriendshipRepository) Update(f *models.Friendship) error {
	return r.db.Save(f).Error
}

func (r *FriendshipRepository) Delete(id uint) error {
	return r.db.Delete(&models.Friendship{}, id).Error
}

// ListFriends returns accepted friendships involving the user, with the
// other side preloaded.
func (r *FriendshipRepository) ListFriends(userID uint) ([]models.Friendship, error) {
	var list []models.Friendship
	err := r.db.Preload("User").Preload("Friend").
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, domain.FriendshipAccepted).
		Order("updated_at DESC").Find(&list).Error
	return list, err
}

func (r *FriendshipRepository) ListPendingFor(userID uint) ([]models.Friendship, error) {
	var list []models.Friendship
	err := r.db.Preload("User").
		Where("friend_id = ? AND status = ?", userID, domain.FriendshipPending).
		Order("created_at DESC").Find(&list).Error
	return list, err
}

// AreFriends reports whether an accepted friendship exists between two users.
func (r *FriendshipRepository) AreFriends(userID, otherID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Friendship{}).
		Where("((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)) AND status = ?",
			userID, otherID, otherID, userID, domain.FriendshipAccepted).
		Count(&count).Error
	return count > 0, err
}

// IsBlocked reports whether either side has blocked the other.
func (r *FriendshipRepository) IsBlocked(userID, otherID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Friendship{}).
		Where("((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)) AND status = ?",
			userID, otherID, otherID, userID, domain.FriendshipBlocked).
		Count(&count).Error
	return count > 0, err
}
