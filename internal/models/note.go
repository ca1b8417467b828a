package models

import (
	"time"

	"gorm.io/gorm"
)

type Note struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OwnerID   uint           `gorm:"not null;index" json:"owner_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Content   string         `gorm:"type:text" json:"content"`
	Pinned    bool           `gorm:"not null;default:false" json:"pinned"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Owner  User        `gorm:"foreignKey:OwnerID" json:"-"`
	Shares []NoteShare `gorm:"foreignKey:NoteID" json:"shares,omitempty"`
}

func (Note) TableName() string {
	return "notes"
}

type NoteShare struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	NoteID     uint      `gorm:"not null;uniqueIndex:idx_note_user" json:"note_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_note_user;index" json:"user_id"`
	Permission string    `gorm:"size:20;not null;default:'read'" json:"permission"` // read, edit
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (NoteShare) TableName() string {
	return "note_shares"
}

func (s *NoteShare) CanEdit() bool { return s.Permission == "edit" }
