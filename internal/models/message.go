package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// UserIDList is an ordered set of user ids stored as a JSON text column.
// Decoding is fail-open: an unreadable value is treated as the empty list,
// since an unparseable deletion marker must not hide messages incorrectly.
type UserIDList []uint

func (l *UserIDList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		log.Printf("[models] user id list: unexpected column type %T, treating as empty", value)
		*l = nil
		return nil
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		log.Printf("[models] user id list: malformed value %q, treating as empty: %v", raw, err)
		*l = nil
		return nil
	}
	*l = ids
	return nil
}

func (l UserIDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]uint(l))
	if err != nil {
		return nil, fmt.Errorf("encode user id list: %w", err)
	}
	return string(b), nil
}

func (l UserIDList) Contains(userID uint) bool {
	for _, id := range l {
		if id == userID {
			return true
		}
	}
	return false
}

// Add appends userID preserving order, without duplicates.
func (l UserIDList) Add(userID uint) UserIDList {
	if l.Contains(userID) {
		return l
	}
	return append(l, userID)
}

// Message is a direct message between two users.
type Message struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ClientID        string         `gorm:"type:varchar(36);uniqueIndex:idx_client_sender" json:"client_id"` // client-generated uuid for dedup
	SenderID        uint           `gorm:"not null;uniqueIndex:idx_client_sender;index" json:"sender_id"`
	ReceiverID      uint           `gorm:"not null;index" json:"receiver_id"`
	Content         string         `gorm:"type:text" json:"content"`
	MessageType     string         `gorm:"size:20;not null;default:'text'" json:"message_type"` // text, image, file, system
	AttachmentURL   string         `gorm:"size:512" json:"attachment_url"`
	Status          string         `gorm:"size:20;not null;default:'sent';index" json:"status"` // sent, delivered, read
	IsDeletedForAll bool           `gorm:"not null;default:false" json:"is_deleted_for_all"`
	DeletedFor      UserIDList     `gorm:"type:text" json:"-"`
	EditedAt        *time.Time     `json:"edited_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

// VisibleTo reports whether the viewer should see this message. A message is
// hidden when deleted for everyone or deleted locally for this viewer.
func (m *Message) VisibleTo(viewerID uint) bool {
	return !m.IsDeletedForAll && !m.DeletedFor.Contains(viewerID)
}

// MessageRead is an insert-only read receipt, unique per (message, user).
// First read wins; the row is never updated.
type MessageRead struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_message_reader" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_message_reader;index" json:"user_id"`
	ReadAt    time.Time `gorm:"not null" json:"read_at"`

	Message Message `gorm:"foreignKey:MessageID" json:"-"`
}

func (MessageRead) TableName() string {
	return "message_reads"
}
