package domain

import "fmt"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

const (
	FriendshipPending  = "PENDING"
	FriendshipAccepted = "ACCEPTED"
	FriendshipBlocked  = "BLOCKED"
)

const (
	GroupRoleMember = "member"
	GroupRoleAdmin  = "admin"
	GroupRoleOwner  = "owner"
)

const (
	InviteStatusPending  = "PENDING"
	InviteStatusAccepted = "ACCEPTED"
	InviteStatusDeclined = "DECLINED"
)

const (
	NotificationFriendRequest = "friend_request"
	NotificationGroupInvite   = "group_invite"
	NotificationMessage       = "message"
	NotificationGroupMessage  = "group_message"
	NotificationSystem        = "system"
	NotificationBellDismiss   = "bell_dismiss"
)

// Bell feed scopes used by dismiss watermarks.
const (
	BellScopeFriendRequests = "fr"
	BellScopeGroupInvites   = "inv"
	BellScopeDirectMessage  = "dm"
	BellScopeGroup          = "group"
)

// Sentinel ids for the aggregated bell feed items.
const (
	BellItemFriendRequests = "friend-requests"
	BellItemGroupInvites   = "group-invites"
)

const (
	NotePermissionRead = "read"
	NotePermissionEdit = "edit"
)

// BellGroupLookback is how many recent messages per group the bell feed
// inspects when looking for the latest one still visible to the viewer.
const BellGroupLookback = 10

func UserRoom(userID uint) string   { return fmt.Sprintf("user_%d", userID) }
func GroupRoom(groupID uint) string { return fmt.Sprintf("group_%d", groupID) }

// ParseGroupRoom extracts the group id from a "group_<id>" room name.
func ParseGroupRoom(room string) (uint, bool) {
	var id uint
	if _, err := fmt.Sscanf(room, "group_%d", &id); err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
