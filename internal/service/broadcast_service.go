package service

import (
	"log"

	"notably/internal/domain"
	"notably/internal/models"
	"notably/internal/repository"
)

// Emitter is the realtime transport handle. Delivery is fire-and-forget;
// emitting to a room with no connections is a no-op.
type Emitter interface {
	EmitToRoom(room, event string, payload interface{})
}

// BroadcastService maps domain events to socket rooms. It is called
// synchronously after the triggering write completes, so events for the same
// record go out in write order. It never returns delivery errors.
type BroadcastService struct {
	emitter Emitter
	groups  repository.MembershipRepositoryInterface
	admins  repository.AdminListerInterface
}

func NewBroadcastService(emitter Emitter, groups repository.MembershipRepositoryInterface, admins repository.AdminListerInterface) *BroadcastService {
	return &BroadcastService{emitter: emitter, groups: groups, admins: admins}
}

func (s *BroadcastService) MessageSent(m *models.Message) {
	payload := directMessagePayload(m)
	s.emitter.EmitToRoom(domain.UserRoom(m.ReceiverID), "message:new", payload)
	s.emitter.EmitToRoom(domain.UserRoom(m.SenderID), "message:new", payload)
}

func (s *BroadcastService) MessageEdited(m *models.Message) {
	payload := directMessagePayload(m)
	s.emitter.EmitToRoom(domain.UserRoom(m.ReceiverID), "message:edited", payload)
	s.emitter.EmitToRoom(domain.UserRoom(m.SenderID), "message:edited", payload)
}

func (s *BroadcastService) MessageRecalled(m *models.Message) {
	payload := map[string]interface{}{"id": m.ID, "sender_id": m.SenderID, "receiver_id": m.ReceiverID}
	s.emitter.EmitToRoom(domain.UserRoom(m.ReceiverID), "message:recalled", payload)
	s.emitter.EmitToRoom(domain.UserRoom(m.SenderID), "message:recalled", payload)
}

// MessageRead tells the sender their message was read.
func (s *BroadcastService) MessageRead(messageID, readerID, senderID uint) {
	s.emitter.EmitToRoom(domain.UserRoom(senderID), "message:read", map[string]interface{}{
		"message_id": messageID,
		"reader_id":  readerID,
	})
}

// ConversationRead tells the other participant their whole conversation was
// caught up on.
func (s *BroadcastService) ConversationRead(otherID, readerID uint) {
	s.emitter.EmitToRoom(domain.UserRoom(otherID), "conversation:read", map[string]interface{}{
		"reader_id": readerID,
	})
}

// GroupMessageRead surfaces a read receipt to the group room.
func (s *BroadcastService) GroupMessageRead(groupID, messageID, readerID uint) {
	s.emitter.EmitToRoom(domain.GroupRoom(groupID), "group_message:read", map[string]interface{}{
		"message_id": messageID,
		"reader_id":  readerID,
	})
}

// GroupMessageSent fans a new group message out to the group room for open
// conversations and to every current member's personal room exactly once,
// sender included. Membership is snapshotted at emit time.
func (s *BroadcastService) GroupMessageSent(m *models.GroupMessage) {
	payload := groupMessagePayload(m)
	s.emitter.EmitToRoom(domain.GroupRoom(m.GroupID), "group_message:new", payload)
	members, err := s.groups.ListMembers(m.GroupID)
	if err != nil {
		log.Printf("[broadcast] group %d member snapshot failed: %v", m.GroupID, err)
		return
	}
	seen := make(map[uint]struct{}, len(members))
	for _, member := range members {
		if _, ok := seen[member.UserID]; ok {
			continue
		}
		seen[member.UserID] = struct{}{}
		s.emitter.EmitToRoom(domain.UserRoom(member.UserID), "group_message:new", payload)
	}
}

func (s *BroadcastService) GroupMessageEdited(m *models.GroupMessage) {
	s.emitter.EmitToRoom(domain.GroupRoom(m.GroupID), "group_message:edited", groupMessagePayload(m))
}

func (s *BroadcastService) GroupMessageRecalled(m *models.GroupMessage) {
	s.emitter.EmitToRoom(domain.GroupRoom(m.GroupID), "group_message:recalled", map[string]interface{}{
		"id": m.ID, "group_id": m.GroupID, "sender_id": m.SenderID,
	})
}

func (s *BroadcastService) FriendRequest(toUserID uint, from *models.User) {
	s.emitter.EmitToRoom(domain.UserRoom(toUserID), "friend:request", map[string]interface{}{
		"from_user_id": from.ID,
		"username":     from.Username,
	})
}

func (s *BroadcastService) FriendAccepted(toUserID uint, by *models.User) {
	s.emitter.EmitToRoom(domain.UserRoom(toUserID), "friend:accepted", map[string]interface{}{
		"by_user_id": by.ID,
		"username":   by.Username,
	})
}

func (s *BroadcastService) GroupInvited(inviteeID uint, inv *models.GroupInvite) {
	s.emitter.EmitToRoom(domain.UserRoom(inviteeID), "group:invited", map[string]interface{}{
		"invite_id":  inv.ID,
		"group_id":   inv.GroupID,
		"inviter_id": inv.InviterID,
	})
}

func (s *BroadcastService) NoteShared(userID uint, note *models.Note, sharerID uint) {
	s.emitter.EmitToRoom(domain.UserRoom(userID), "note:shared", map[string]interface{}{
		"note_id":   note.ID,
		"title":     note.Title,
		"sharer_id": sharerID,
	})
}

// BellUpdated pokes a user's devices to refresh their badge counts.
func (s *BroadcastService) BellUpdated(userID uint) {
	s.emitter.EmitToRoom(domain.UserRoom(userID), "bell:updated", map[string]interface{}{})
}

// AdminBroadcast enumerates admin users and targets each one's personal room.
// No shared admins room is assumed reliable.
func (s *BroadcastService) AdminBroadcast(event string, payload interface{}) {
	admins, err := s.admins.ListAdmins()
	if err != nil {
		log.Printf("[broadcast] admin enumeration failed: %v", err)
		return
	}
	for _, admin := range admins {
		s.emitter.EmitToRoom(domain.UserRoom(admin.ID), event, payload)
	}
}

func directMessagePayload(m *models.Message) map[string]interface{} {
	return map[string]interface{}{
		"id":             m.ID,
		"client_id":      m.ClientID,
		"sender_id":      m.SenderID,
		"receiver_id":    m.ReceiverID,
		"content":        m.Content,
		"message_type":   m.MessageType,
		"attachment_url": m.AttachmentURL,
		"status":         m.Status,
		"edited_at":      m.EditedAt,
		"created_at":     m.CreatedAt,
	}
}

func groupMessagePayload(m *models.GroupMessage) map[string]interface{} {
	return map[string]interface{}{
		"id":             m.ID,
		"client_id":      m.ClientID,
		"group_id":       m.GroupID,
		"sender_id":      m.SenderID,
		"content":        m.Content,
		"message_type":   m.MessageType,
		"attachment_url": m.AttachmentURL,
		"edited_at":      m.EditedAt,
		"created_at":     m.CreatedAt,
	}
}
