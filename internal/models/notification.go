package models

import (
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"
)

// Notification is a raw event row. Rows of type bell_dismiss are watermarks:
// Data carries {"scope": "fr"|"inv"|"dm"|"group", "other_user_id"?, "group_id"?}
// and suppresses bell feed items in that scope with activity at or before the
// row's CreatedAt. Watermarks never delete underlying history.
type Notification struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	Type       string         `gorm:"size:50;not null;index" json:"type"`
	FromUserID *uint          `gorm:"index" json:"from_user_id"`
	GroupID    *uint          `gorm:"index" json:"group_id"`
	Title      string         `gorm:"size:255" json:"title"`
	Body       string         `gorm:"type:text" json:"body"`
	Data       string         `gorm:"type:text" json:"data"` // JSON payload
	IsRead     bool           `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// DataMap decodes the Data payload. Malformed payloads decode to an empty
// map rather than failing the caller.
func (n *Notification) DataMap() map[string]interface{} {
	if n.Data == "" {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(n.Data), &m); err != nil {
		log.Printf("[models] notification %d: malformed data payload, treating as empty: %v", n.ID, err)
		return map[string]interface{}{}
	}
	return m
}

// DataUint reads a numeric field out of the Data payload; 0 when absent.
func (n *Notification) DataUint(key string) uint {
	v, ok := n.DataMap()[key]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0
	}
	return uint(f)
}

// DataString reads a string field out of the Data payload; "" when absent.
func (n *Notification) DataString(key string) string {
	v, _ := n.DataMap()[key].(string)
	return v
}

func EncodeData(data map[string]interface{}) string {
	if data == nil {
		return ""
	}
	b, _ := json.Marshal(data)
	return string(b)
}
