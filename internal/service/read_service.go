package service

import (
	"errors"
	"time"

	"notably/internal/domain"
	"notably/internal/models"
	"notably/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// readBatchSize is the page size for batch mark-read operations.
const readBatchSize = 500

// ReadService tracks per-user read state for direct and group messages.
// Receipts are insert-only and idempotent: the first read wins and there is
// no transition back to unread.
type ReadService struct {
	messages      repository.MessageRepositoryInterface
	groupMessages repository.GroupMessageRepositoryInterface
	receipts      repository.ReadReceiptRepositoryInterface
	groups        repository.MembershipRepositoryInterface
	broadcaster   *BroadcastService
}

func NewReadService(
	messages repository.MessageRepositoryInterface,
	groupMessages repository.GroupMessageRepositoryInterface,
	receipts repository.ReadReceiptRepositoryInterface,
	groups repository.MembershipRepositoryInterface,
	broadcaster *BroadcastService,
) *ReadService {
	return &ReadService{messages: messages, groupMessages: groupMessages, receipts: receipts, groups: groups, broadcaster: broadcaster}
}

// MarkRead records that userID has read a direct message. Calling it again
// returns the original receipt with its first ReadAt. Only the receiver may
// mark a message read.
func (s *ReadService) MarkRead(messageID, userID uint) (*models.MessageRead, error) {
	m, err := s.messages.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.ReceiverID != userID {
		return nil, ErrForbidden
	}
	receipt := &models.MessageRead{MessageID: messageID, UserID: userID, ReadAt: time.Now()}
	if err := s.receipts.InsertIgnore(receipt); err != nil {
		return nil, err
	}
	if m.Status != domain.MessageStatusRead {
		m.Status = domain.MessageStatusRead
		if err := s.messages.Update(m); err != nil {
			return nil, err
		}
	}
	s.broadcaster.MessageRead(messageID, userID, m.SenderID)
	// Re-fetch so a duplicate call returns the first receipt, not the
	// ignored insert.
	return s.receipts.Get(messageID, userID)
}

// MarkGroupRead records that a group member has read a group message.
func (s *ReadService) MarkGroupRead(messageID, userID uint) (*models.GroupMessageRead, error) {
	m, err := s.groupMessages.GetByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	member, err := s.groups.IsMember(m.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrForbidden
	}
	receipt := &models.GroupMessageRead{MessageID: messageID, UserID: userID, ReadAt: time.Now()}
	if err := s.receipts.InsertIgnoreGroup(receipt); err != nil {
		return nil, err
	}
	s.broadcaster.GroupMessageRead(m.GroupID, messageID, userID)
	return s.receipts.GetGroup(messageID, userID)
}

// MarkConversationRead marks every unread visible message from otherID to
// userID as read, page by page. Pages advance on an id cursor, not on the
// receipts written, so messages skipped as hidden still move the scan
// forward. Returns how many receipts were written.
func (s *ReadService) MarkConversationRead(userID, otherID uint) (int, error) {
	marked := 0
	var cursor uint
	for {
		unread, err := s.messages.ListUnread(userID, otherID, cursor, readBatchSize)
		if err != nil {
			return marked, err
		}
		now := time.Now()
		for i := range unread {
			if !unread[i].VisibleTo(userID) {
				continue
			}
			receipt := &models.MessageRead{MessageID: unread[i].ID, UserID: userID, ReadAt: now}
			if err := s.receipts.InsertIgnore(receipt); err != nil {
				return marked, err
			}
			if unread[i].Status != domain.MessageStatusRead {
				unread[i].Status = domain.MessageStatusRead
				if err := s.messages.Update(&unread[i]); err != nil {
					return marked, err
				}
			}
			marked++
		}
		if len(unread) < readBatchSize {
			if marked > 0 {
				s.broadcaster.ConversationRead(otherID, userID)
			}
			return marked, nil
		}
		cursor = unread[len(unread)-1].ID
	}
}

// MarkGroupMessagesRead marks every unread visible message in a group as
// read for userID.
func (s *ReadService) MarkGroupMessagesRead(groupID, userID uint) (int, error) {
	member, err := s.groups.IsMember(groupID, userID)
	if err != nil {
		return 0, err
	}
	if !member {
		return 0, ErrForbidden
	}
	marked := 0
	var cursor uint
	for {
		unread, err := s.groupMessages.ListUnread(groupID, userID, cursor, readBatchSize)
		if err != nil {
			return marked, err
		}
		now := time.Now()
		for i := range unread {
			if !unread[i].VisibleTo(userID) {
				continue
			}
			receipt := &models.GroupMessageRead{MessageID: unread[i].ID, UserID: userID, ReadAt: now}
			if err := s.receipts.InsertIgnoreGroup(receipt); err != nil {
				return marked, err
			}
			marked++
		}
		if len(unread) < readBatchSize {
			return marked, nil
		}
		cursor = unread[len(unread)-1].ID
	}
}

// CountUnreadDirect counts visible messages from otherID to userID that have
// no read receipt.
func (s *ReadService) CountUnreadDirect(userID, otherID uint) (int, error) {
	unread, err := s.messages.ListUnread(userID, otherID, 0, 0)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range unread {
		if unread[i].VisibleTo(userID) {
			count++
		}
	}
	return count, nil
}

// CountUnreadGroup counts messages in a group that userID has not read,
// skipping the user's own messages, system messages, and hidden ones.
func (s *ReadService) CountUnreadGroup(groupID, userID uint) (int, error) {
	unread, err := s.groupMessages.ListUnread(groupID, userID, 0, 0)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range unread {
		if unread[i].VisibleTo(userID) {
			count++
		}
	}
	return count, nil
}
