package models

import (
	"time"

	"notably/internal/domain"

	"gorm.io/gorm"
)

// Friendship links two users. A PENDING row is the friend request itself;
// accepting flips the status. (user_id, friend_id) is unique per direction.
type Friendship struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_user_friend" json:"user_id"`
	FriendID  uint           `gorm:"not null;uniqueIndex:idx_user_friend;index" json:"friend_id"`
	Status    string         `gorm:"size:20;not null;index" json:"status"` // PENDING, ACCEPTED, BLOCKED
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User   User `gorm:"foreignKey:UserID" json:"-"`
	Friend User `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
}

func (Friendship) TableName() string {
	return "friendships"
}

func (f *Friendship) IsAccepted() bool { return f.Status == domain.FriendshipAccepted }
