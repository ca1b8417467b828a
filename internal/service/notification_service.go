package service

import (
	"fmt"

	"notably/internal/domain"
	"notably/internal/models"
	"notably/internal/repository"
)

// NotificationService writes raw notification rows and pokes the recipient's
// bell over the realtime channel. Group messages do not get rows here; the
// bell feed derives group activity from the messages themselves.
type NotificationService struct {
	repo        *repository.NotificationRepository
	broadcaster *BroadcastService
}

func NewNotificationService(repo *repository.NotificationRepository, broadcaster *BroadcastService) *NotificationService {
	return &NotificationService{repo: repo, broadcaster: broadcaster}
}

func (s *NotificationService) notify(userID uint, notifType, title, body string, fromUserID, groupID *uint, data map[string]interface{}) error {
	n := &models.Notification{
		UserID:     userID,
		Type:       notifType,
		Title:      title,
		Body:       body,
		FromUserID: fromUserID,
		GroupID:    groupID,
		Data:       models.EncodeData(data),
	}
	if err := s.repo.Create(n); err != nil {
		return err
	}
	s.broadcaster.BellUpdated(userID)
	return nil
}

func (s *NotificationService) NotifyFriendRequest(toUserID uint, from *models.User) error {
	return s.notify(toUserID, domain.NotificationFriendRequest, "Friend request",
		from.Username+" sent you a friend request",
		&from.ID, nil, map[string]interface{}{"from_user_id": from.ID})
}

func (s *NotificationService) NotifyGroupInvite(toUserID uint, inv *models.GroupInvite, groupName string) error {
	return s.notify(toUserID, domain.NotificationGroupInvite, "Group invite",
		fmt.Sprintf("You were invited to %s", groupName),
		&inv.InviterID, &inv.GroupID, map[string]interface{}{"invite_id": inv.ID, "group_id": inv.GroupID})
}

// NotifyDirectMessage records a message notification for the receiver. The
// bell feed groups these by other_user_id.
func (s *NotificationService) NotifyDirectMessage(m *models.Message, senderName string) error {
	return s.notify(m.ReceiverID, domain.NotificationMessage, senderName,
		m.Content,
		&m.SenderID, nil, map[string]interface{}{"other_user_id": m.SenderID, "message_id": m.ID})
}

func (s *NotificationService) NotifyNoteShared(toUserID uint, note *models.Note, sharer *models.User) error {
	return s.notify(toUserID, domain.NotificationSystem, "Note shared",
		sharer.Username+" shared a note with you: "+note.Title,
		&sharer.ID, nil, map[string]interface{}{"note_id": note.ID})
}

// MarkMessagesReadFrom marks dm notification rows from one sender as read,
// typically when the recipient opens that conversation.
func (s *NotificationService) MarkMessagesReadFrom(userID, otherID uint) error {
	return s.repo.MarkReadFrom(userID, domain.NotificationMessage, otherID)
}

func (s *NotificationService) MarkFriendRequestsRead(userID uint) error {
	return s.repo.MarkReadByType(userID, domain.NotificationFriendRequest)
}

func (s *NotificationService) MarkGroupInvitesRead(userID uint) error {
	return s.repo.MarkReadByType(userID, domain.NotificationGroupInvite)
}
