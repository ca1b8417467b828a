package service

import (
	"errors"
	"testing"
	"time"

	"notably/internal/domain"
	"notably/internal/models"
)

type readFixture struct {
	receipts      *mockReceiptRepo
	messages      *mockMessageRepo
	groupMessages *mockGroupMessageRepo
	memberships   *mockMembershipRepo
	emitter       *mockEmitter
	svc           *ReadService
}

func newReadFixture() *readFixture {
	receipts := newMockReceiptRepo()
	messages := newMockMessageRepo(receipts)
	groupMessages := newMockGroupMessageRepo(receipts)
	memberships := newMockMembershipRepo()
	emitter := &mockEmitter{}
	broadcaster := NewBroadcastService(emitter, memberships, &mockAdminLister{})
	return &readFixture{
		receipts:      receipts,
		messages:      messages,
		groupMessages: groupMessages,
		memberships:   memberships,
		emitter:       emitter,
		svc:           NewReadService(messages, groupMessages, receipts, memberships, broadcaster),
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	f := newReadFixture()
	msg := f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1, Content: "hi"})

	first, err := f.svc.MarkRead(msg.ID, 1)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if first.MessageID != msg.ID || first.UserID != 1 {
		t.Fatalf("unexpected receipt %+v", first)
	}
	if msg.Status != domain.MessageStatusRead {
		t.Errorf("status = %q, want read", msg.Status)
	}

	time.Sleep(2 * time.Millisecond)
	second, err := f.svc.MarkRead(msg.ID, 1)
	if err != nil {
		t.Fatalf("repeat MarkRead: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("repeat returned a new receipt: %d vs %d", second.ID, first.ID)
	}
	if !second.ReadAt.Equal(first.ReadAt) {
		t.Errorf("ReadAt changed on repeat: %v vs %v", second.ReadAt, first.ReadAt)
	}
}

func TestMarkReadNotifiesSender(t *testing.T) {
	f := newReadFixture()
	msg := f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1})

	if _, err := f.svc.MarkRead(msg.ID, 1); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if got := f.emitter.countRoom(domain.UserRoom(2)); got != 1 {
		t.Errorf("sender room events = %d, want 1", got)
	}
}

func TestMarkReadErrors(t *testing.T) {
	f := newReadFixture()
	if _, err := f.svc.MarkRead(99, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing message: err = %v, want ErrNotFound", err)
	}
	msg := f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1})
	if _, err := f.svc.MarkRead(msg.ID, 3); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-receiver: err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.MarkRead(msg.ID, 2); !errors.Is(err, ErrForbidden) {
		t.Errorf("sender marking own message: err = %v, want ErrForbidden", err)
	}
}

func TestMarkConversationRead(t *testing.T) {
	f := newReadFixture()
	first := f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1, Content: "a"})
	f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1, Content: "b"})
	hidden := f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1, Content: "c"})
	hidden.DeletedFor = hidden.DeletedFor.Add(1)

	marked, err := f.svc.MarkConversationRead(1, 2)
	if err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	if marked != 2 {
		t.Errorf("marked = %d, want 2 (hidden message skipped)", marked)
	}
	if got, _ := f.messages.GetByID(first.ID); got.Status != domain.MessageStatusRead {
		t.Errorf("status = %q, want read", got.Status)
	}

	count, err := f.svc.CountUnreadDirect(1, 2)
	if err != nil {
		t.Fatalf("CountUnreadDirect: %v", err)
	}
	if count != 0 {
		t.Errorf("unread after mark = %d, want 0", count)
	}
	if got := f.emitter.countRoom(domain.UserRoom(2)); got != 1 {
		t.Errorf("conversation read events = %d, want 1", got)
	}

	// A second pass has nothing left to mark and stays silent.
	marked, err = f.svc.MarkConversationRead(1, 2)
	if err != nil {
		t.Fatalf("second MarkConversationRead: %v", err)
	}
	if marked != 0 {
		t.Errorf("second pass marked = %d, want 0", marked)
	}
	if got := f.emitter.countRoom(domain.UserRoom(2)); got != 1 {
		t.Errorf("no-op pass emitted extra events: %d", got)
	}
}

func TestMarkConversationReadAllHiddenBacklog(t *testing.T) {
	f := newReadFixture()
	// A full page of recalled messages writes no receipts, so progress has
	// to come from the id cursor, not from the unread set shrinking.
	for i := 0; i < readBatchSize; i++ {
		msg := f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1})
		msg.IsDeletedForAll = true
	}
	f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1, Content: "still here"})

	done := make(chan struct{})
	var marked int
	var err error
	go func() {
		marked, err = f.svc.MarkConversationRead(1, 2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("MarkConversationRead did not finish")
	}
	if err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	if marked != 1 {
		t.Errorf("marked = %d, want 1 (only the visible message)", marked)
	}
}

func TestMarkGroupMessagesReadAllHiddenBacklog(t *testing.T) {
	f := newReadFixture()
	f.memberships.addMember(5, 1)
	f.memberships.addMember(5, 2)
	for i := 0; i < readBatchSize; i++ {
		msg := f.groupMessages.add(&models.GroupMessage{GroupID: 5, SenderID: 2})
		msg.DeletedFor = msg.DeletedFor.Add(1)
	}

	done := make(chan struct{})
	var marked int
	var err error
	go func() {
		marked, err = f.svc.MarkGroupMessagesRead(5, 1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("MarkGroupMessagesRead did not finish")
	}
	if err != nil {
		t.Fatalf("MarkGroupMessagesRead: %v", err)
	}
	if marked != 0 {
		t.Errorf("marked = %d, want 0", marked)
	}
}

func TestCountUnreadDirectSkipsHidden(t *testing.T) {
	f := newReadFixture()
	f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1})
	recalled := f.messages.add(&models.Message{SenderID: 2, ReceiverID: 1})
	recalled.IsDeletedForAll = true

	count, err := f.svc.CountUnreadDirect(1, 2)
	if err != nil {
		t.Fatalf("CountUnreadDirect: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestMarkGroupRead(t *testing.T) {
	f := newReadFixture()
	f.memberships.addMember(5, 1)
	f.memberships.addMember(5, 2)
	msg := f.groupMessages.add(&models.GroupMessage{GroupID: 5, SenderID: 2, Content: "hello"})

	receipt, err := f.svc.MarkGroupRead(msg.ID, 1)
	if err != nil {
		t.Fatalf("MarkGroupRead: %v", err)
	}
	if receipt.MessageID != msg.ID || receipt.UserID != 1 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if got := f.emitter.countRoom(domain.GroupRoom(5)); got != 1 {
		t.Errorf("group room events = %d, want 1", got)
	}

	if _, err := f.svc.MarkGroupRead(msg.ID, 9); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-member: err = %v, want ErrForbidden", err)
	}
}

func TestMarkGroupMessagesRead(t *testing.T) {
	f := newReadFixture()
	f.memberships.addMember(5, 1)
	f.memberships.addMember(5, 2)
	f.groupMessages.add(&models.GroupMessage{GroupID: 5, SenderID: 2})
	f.groupMessages.add(&models.GroupMessage{GroupID: 5, SenderID: 2})
	f.groupMessages.add(&models.GroupMessage{GroupID: 5, SenderID: 1}) // own, never unread
	f.groupMessages.add(&models.GroupMessage{GroupID: 5, SenderID: 2, MessageType: domain.MessageTypeSystem})

	marked, err := f.svc.MarkGroupMessagesRead(5, 1)
	if err != nil {
		t.Fatalf("MarkGroupMessagesRead: %v", err)
	}
	if marked != 2 {
		t.Errorf("marked = %d, want 2", marked)
	}

	count, err := f.svc.CountUnreadGroup(5, 1)
	if err != nil {
		t.Fatalf("CountUnreadGroup: %v", err)
	}
	if count != 0 {
		t.Errorf("unread after mark = %d, want 0", count)
	}

	if _, err := f.svc.MarkGroupMessagesRead(5, 9); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-member: err = %v, want ErrForbidden", err)
	}
}
