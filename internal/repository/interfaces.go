package repository

import (
	"notably/internal/models"
)

// MessageRepositoryInterface is the contract the read-state and bell services
// have on direct-message storage.
type MessageRepositoryInterface interface {
	GetByID(id uint) (*models.Message, error)
	Update(m *models.Message) error
	ListUnread(userID, otherID, afterID uint, limit int) ([]models.Message, error)
}

// GroupMessageRepositoryInterface is the contract on group-message storage.
type GroupMessageRepositoryInterface interface {
	GetByID(id uint) (*models.GroupMessage, error)
	ListRecent(groupID uint, n int) ([]models.GroupMessage, error)
	ListUnread(groupID, userID, afterID uint, limit int) ([]models.GroupMessage, error)
}

// ReadReceiptRepositoryInterface is the contract on receipt storage. Inserts
// must be idempotent per (message, user).
type ReadReceiptRepositoryInterface interface {
	InsertIgnore(receipt *models.MessageRead) error
	Get(messageID, userID uint) (*models.MessageRead, error)
	InsertIgnoreGroup(receipt *models.GroupMessageRead) error
	GetGroup(messageID, userID uint) (*models.GroupMessageRead, error)
}

// NotificationRepositoryInterface is the contract the bell service has on
// notification storage.
type NotificationRepositoryInterface interface {
	Create(n *models.Notification) error
	ListByType(userID uint, notifType string) ([]models.Notification, error)
	ListDismissals(userID uint) ([]models.Notification, error)
	CountUnreadByType(userID uint, notifType string) (int64, error)
}

// MembershipRepositoryInterface is the contract on group membership, used for
// fan-out snapshots and group unread walks.
type MembershipRepositoryInterface interface {
	IsMember(groupID, userID uint) (bool, error)
	ListMembers(groupID uint) ([]models.GroupMember, error)
	ListMemberships(userID uint) ([]models.GroupMember, error)
}

// AdminListerInterface enumerates admin users for the broadcaster's admin
// fan-out path.
type AdminListerInterface interface {
	ListAdmins() ([]models.User, error)
}
