package service

import (
	"errors"
	"time"

	"notably/internal/domain"
	"notably/internal/models"
	"notably/internal/repository"

	"gorm.io/gorm"
)

var ErrBlocked = errors.New("conversation blocked")

// MessagingService owns the write paths for direct and group messages:
// sending with client-id dedup, edits, recalls (delete for everyone) and
// local per-user deletes. Every successful write is followed synchronously
// by the matching broadcast, so per-record event order matches write order.
type MessagingService struct {
	messages      *repository.MessageRepository
	groupMessages *repository.GroupMessageRepository
	friendships   *repository.FriendshipRepository
	groups        *repository.GroupRepository
	users         *repository.UserRepository
	notifications *NotificationService
	broadcaster   *BroadcastService
}

func NewMessagingService(
	messages *repository.MessageRepository,
	groupMessages *repository.GroupMessageRepository,
	friendships *repository.FriendshipRepository,
	groups *repository.GroupRepository,
	users *repository.UserRepository,
	notifications *NotificationService,
	broadcaster *BroadcastService,
) *MessagingService {
	return &MessagingService{
		messages:      messages,
		groupMessages: groupMessages,
		friendships:   friendships,
		groups:        groups,
		users:         users,
		notifications: notifications,
		broadcaster:   broadcaster,
	}
}

// SendDirect stores a direct message and notifies the receiver. A repeated
// clientID from the same sender returns the already-stored message.
func (s *MessagingService) SendDirect(senderID, receiverID uint, clientID, content, messageType, attachmentURL string) (*models.Message, error) {
	if _, err := s.users.GetByID(receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	blocked, err := s.friendships.IsBlocked(senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}
	if clientID != "" {
		if existing, err := s.messages.GetByClientID(clientID, senderID); err == nil {
			return existing, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	m := &models.Message{
		ClientID:      clientID,
		SenderID:      senderID,
		ReceiverID:    receiverID,
		Content:       content,
		MessageType:   messageType,
		AttachmentURL: attachmentURL,
		Status:        domain.MessageStatusSent,
	}
	if err := s.messages.Create(m); err != nil {
		return nil, err
	}
	sender, err := s.users.GetByID(senderID)
	if err != nil {
		return nil, err
	}
	if err := s.notifications.NotifyDirectMessage(m, sender.Username); err != nil {
		return nil, err
	}
	s.broadcaster.MessageSent(m)
	return m, nil
}

// EditDirect changes the content of the sender's own message.
func (s *MessagingService) EditDirect(messageID, userID uint, content string) (*models.Message, error) {
	m, err := s.messages.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.SenderID != userID {
		return nil, ErrForbidden
	}
	now := time.Now()
	m.Content = content
	m.EditedAt = &now
	if err := s.messages.Update(m); err != nil {
		return nil, err
	}
	s.broadcaster.MessageEdited(m)
	return m, nil
}

// RecallDirect deletes the sender's message for everyone.
func (s *MessagingService) RecallDirect(messageID, userID uint) error {
	m, err := s.messages.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if m.SenderID != userID {
		return ErrForbidden
	}
	m.IsDeletedForAll = true
	if err := s.messages.Update(m); err != nil {
		return err
	}
	s.broadcaster.MessageRecalled(m)
	return nil
}

// DeleteDirectForMe hides a message for one participant without touching
// what the other side sees.
func (s *MessagingService) DeleteDirectForMe(messageID, userID uint) error {
	m, err := s.messages.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if m.SenderID != userID && m.ReceiverID != userID {
		return ErrForbidden
	}
	m.DeletedFor = m.DeletedFor.Add(userID)
	return s.messages.Update(m)
}

// ListConversation returns the visible slice of a conversation for viewerID,
// newest first, and flips delivery status for messages that just arrived.
func (s *MessagingService) ListConversation(viewerID, otherID uint, limit, offset int) ([]models.Message, error) {
	if err := s.messages.MarkDelivered(viewerID, otherID); err != nil {
		return nil, err
	}
	list, err := s.messages.Conversation(viewerID, otherID, limit, offset)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Message, 0, len(list))
	for i := range list {
		if list[i].VisibleTo(viewerID) {
			visible = append(visible, list[i])
		}
	}
	return visible, nil
}

// SendGroup stores a group message and fans it out. Membership is required;
// no notification rows are written, the bell feed reads group activity from
// the messages directly.
func (s *MessagingService) SendGroup(groupID, senderID uint, clientID, content, messageType, attachmentURL string) (*models.GroupMessage, error) {
	if _, err := s.groups.GetByID(groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	member, err := s.groups.IsMember(groupID, senderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrForbidden
	}
	if clientID != "" {
		if existing, err := s.groupMessages.GetByClientID(clientID, senderID); err == nil {
			return existing, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	m := &models.GroupMessage{
		ClientID:      clientID,
		GroupID:       groupID,
		SenderID:      senderID,
		Content:       content,
		MessageType:   messageType,
		AttachmentURL: attachmentURL,
	}
	if err := s.groupMessages.Create(m); err != nil {
		return nil, err
	}
	s.broadcaster.GroupMessageSent(m)
	return m, nil
}

func (s *MessagingService) EditGroup(messageID, userID uint, content string) (*models.GroupMessage, error) {
	m, err := s.groupMessages.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.SenderID != userID {
		return nil, ErrForbidden
	}
	now := time.Now()
	m.Content = content
	m.EditedAt = &now
	if err := s.groupMessages.Update(m); err != nil {
		return nil, err
	}
	s.broadcaster.GroupMessageEdited(m)
	return m, nil
}

// RecallGroup deletes a group message for everyone. The sender may recall
// their own message; group admins and the owner may moderate any message.
func (s *MessagingService) RecallGroup(messageID, userID uint) error {
	m, err := s.groupMessages.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if m.SenderID != userID {
		member, err := s.groups.GetMember(m.GroupID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrForbidden
			}
			return err
		}
		if member.Role != domain.GroupRoleAdmin && member.Role != domain.GroupRoleOwner {
			return ErrForbidden
		}
	}
	m.IsDeletedForAll = true
	if err := s.groupMessages.Update(m); err != nil {
		return err
	}
	s.broadcaster.GroupMessageRecalled(m)
	return nil
}

func (s *MessagingService) DeleteGroupForMe(messageID, userID uint) error {
	m, err := s.groupMessages.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	member, err := s.groups.IsMember(m.GroupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrForbidden
	}
	m.DeletedFor = m.DeletedFor.Add(userID)
	return s.groupMessages.Update(m)
}

// ListGroupMessages returns the visible slice of a group conversation for
// viewerID, newest first.
func (s *MessagingService) ListGroupMessages(groupID, viewerID uint, limit, offset int) ([]models.GroupMessage, error) {
	member, err := s.groups.IsMember(groupID, viewerID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrForbidden
	}
	list, err := s.groupMessages.ListByGroup(groupID, limit, offset)
	if err != nil {
		return nil, err
	}
	visible := make([]models.GroupMessage, 0, len(list))
	for i := range list {
		if list[i].VisibleTo(viewerID) {
			visible = append(visible, list[i])
		}
	}
	return visible, nil
}
