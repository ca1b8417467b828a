package service

import (
	"testing"

	"notably/internal/domain"
	"notably/internal/models"
)

func TestMessageSentTargetsBothParticipants(t *testing.T) {
	emitter := &mockEmitter{}
	svc := NewBroadcastService(emitter, newMockMembershipRepo(), &mockAdminLister{})

	svc.MessageSent(&models.Message{ID: 1, SenderID: 2, ReceiverID: 3})

	if len(emitter.events) != 2 {
		t.Fatalf("events = %d, want 2", len(emitter.events))
	}
	if emitter.countRoom(domain.UserRoom(2)) != 1 || emitter.countRoom(domain.UserRoom(3)) != 1 {
		t.Errorf("wrong rooms: %+v", emitter.events)
	}
	for _, e := range emitter.events {
		if e.Event != "message:new" {
			t.Errorf("event = %q, want message:new", e.Event)
		}
	}
}

func TestGroupMessageFanOutOncePerMember(t *testing.T) {
	emitter := &mockEmitter{}
	memberships := newMockMembershipRepo()
	svc := NewBroadcastService(emitter, memberships, &mockAdminLister{})

	memberships.addMember(7, 1)
	memberships.addMember(7, 2)
	memberships.addMember(7, 3)
	memberships.addMember(7, 3) // duplicate membership row must not double-send

	svc.GroupMessageSent(&models.GroupMessage{ID: 1, GroupID: 7, SenderID: 1, Content: "hi"})

	// One group room emit plus one per distinct member, sender included.
	if got := len(emitter.events); got != 4 {
		t.Fatalf("events = %d, want 4: %+v", got, emitter.events)
	}
	if emitter.countRoom(domain.GroupRoom(7)) != 1 {
		t.Errorf("group room emits = %d, want 1", emitter.countRoom(domain.GroupRoom(7)))
	}
	for _, userID := range []uint{1, 2, 3} {
		if got := emitter.countRoom(domain.UserRoom(userID)); got != 1 {
			t.Errorf("user %d room emits = %d, want 1", userID, got)
		}
	}
}

func TestGroupMessageFanOutEmptyGroup(t *testing.T) {
	emitter := &mockEmitter{}
	svc := NewBroadcastService(emitter, newMockMembershipRepo(), &mockAdminLister{})

	svc.GroupMessageSent(&models.GroupMessage{ID: 1, GroupID: 9, SenderID: 1})

	// Only the group room emit; no members to fan out to.
	if got := len(emitter.events); got != 1 {
		t.Errorf("events = %d, want 1", got)
	}
}

func TestAdminBroadcast(t *testing.T) {
	emitter := &mockEmitter{}
	admins := &mockAdminLister{admins: []models.User{{ID: 4}, {ID: 8}}}
	svc := NewBroadcastService(emitter, newMockMembershipRepo(), admins)

	svc.AdminBroadcast("admin:alert", map[string]interface{}{"title": "disk"})

	if len(emitter.events) != 2 {
		t.Fatalf("events = %d, want 2", len(emitter.events))
	}
	if emitter.countRoom(domain.UserRoom(4)) != 1 || emitter.countRoom(domain.UserRoom(8)) != 1 {
		t.Errorf("wrong rooms: %+v", emitter.events)
	}
}

func TestBellUpdated(t *testing.T) {
	emitter := &mockEmitter{}
	svc := NewBroadcastService(emitter, newMockMembershipRepo(), &mockAdminLister{})

	svc.BellUpdated(5)

	if len(emitter.events) != 1 || emitter.events[0].Room != domain.UserRoom(5) || emitter.events[0].Event != "bell:updated" {
		t.Errorf("events = %+v", emitter.events)
	}
}
