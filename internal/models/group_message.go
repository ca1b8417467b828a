package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupMessage mirrors Message but is scoped to a group instead of a
// single receiver. DeletedFor semantics are identical.
type GroupMessage struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ClientID        string         `gorm:"type:varchar(36);uniqueIndex:idx_gm_client_sender" json:"client_id"`
	GroupID         uint           `gorm:"not null;index" json:"group_id"`
	SenderID        uint           `gorm:"not null;uniqueIndex:idx_gm_client_sender;index" json:"sender_id"`
	Content         string         `gorm:"type:text" json:"content"`
	MessageType     string         `gorm:"size:20;not null;default:'text'" json:"message_type"`
	AttachmentURL   string         `gorm:"size:512" json:"attachment_url"`
	IsDeletedForAll bool           `gorm:"not null;default:false" json:"is_deleted_for_all"`
	DeletedFor      UserIDList     `gorm:"type:text" json:"-"`
	EditedAt        *time.Time     `json:"edited_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Group  Group `gorm:"foreignKey:GroupID" json:"-"`
	Sender User  `gorm:"foreignKey:SenderID" json:"-"`
}

func (GroupMessage) TableName() string {
	return "group_messages"
}

func (m *GroupMessage) VisibleTo(viewerID uint) bool {
	return !m.IsDeletedForAll && !m.DeletedFor.Contains(viewerID)
}

type GroupMessageRead struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_gm_message_reader" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_gm_message_reader;index" json:"user_id"`
	ReadAt    time.Time `gorm:"not null" json:"read_at"`

	Message GroupMessage `gorm:"foreignKey:MessageID" json:"-"`
}

func (GroupMessageRead) TableName() string {
	return "group_message_reads"
}
