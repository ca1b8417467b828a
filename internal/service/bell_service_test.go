package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"notably/internal/domain"
	"notably/internal/models"
)

type bellFixture struct {
	notifications *mockNotificationRepo
	memberships   *mockMembershipRepo
	groupMessages *mockGroupMessageRepo
	receipts      *mockReceiptRepo
	svc           *BellService
}

func newBellFixture() *bellFixture {
	receipts := newMockReceiptRepo()
	messages := newMockMessageRepo(receipts)
	groupMessages := newMockGroupMessageRepo(receipts)
	memberships := newMockMembershipRepo()
	notifications := newMockNotificationRepo()
	broadcaster := NewBroadcastService(&mockEmitter{}, memberships, &mockAdminLister{})
	reads := NewReadService(messages, groupMessages, receipts, memberships, broadcaster)
	return &bellFixture{
		notifications: notifications,
		memberships:   memberships,
		groupMessages: groupMessages,
		receipts:      receipts,
		svc:           NewBellService(notifications, memberships, groupMessages, reads),
	}
}

func (f *bellFixture) addNotification(n models.Notification) {
	if err := f.notifications.Create(&n); err != nil {
		panic(err)
	}
}

func feedItem(feed *BellFeed, id string) *BellItem {
	for i := range feed.Items {
		if feed.Items[i].ID == id {
			return &feed.Items[i]
		}
	}
	return nil
}

func TestBellFeedAggregatesFriendRequests(t *testing.T) {
	f := newBellFixture()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		from := uint(10 + i)
		f.addNotification(models.Notification{
			UserID:     1,
			Type:       domain.NotificationFriendRequest,
			FromUserID: &from,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	feed, err := f.svc.BuildBellFeed(1, 1, 20)
	if err != nil {
		t.Fatalf("BuildBellFeed: %v", err)
	}
	item := feedItem(feed, domain.BellItemFriendRequests)
	if item == nil {
		t.Fatalf("no friend-requests item in %+v", feed.Items)
	}
	if item.Count != 3 {
		t.Errorf("count = %d, want 3", item.Count)
	}
	if !item.Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("timestamp = %v, want latest request time", item.Timestamp)
	}
}

func TestBellFeedCollapsesMessagesPerSender(t *testing.T) {
	f := newBellFixture()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		from := uint(2)
		f.addNotification(models.Notification{
			UserID:     1,
			Type:       domain.NotificationMessage,
			FromUserID: &from,
			Body:       fmt.Sprintf("msg %d", i),
			Data:       models.EncodeData(map[string]interface{}{"other_user_id": 2}),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	from3 := uint(3)
	f.addNotification(models.Notification{
		UserID:     1,
		Type:       domain.NotificationMessage,
		FromUserID: &from3,
		Body:       "from three",
		CreatedAt:  base,
		UpdatedAt:  base,
	})

	feed, err := f.svc.BuildBellFeed(1, 1, 20)
	if err != nil {
		t.Fatalf("BuildBellFeed: %v", err)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("items = %d, want 2 (one per counterpart)", len(feed.Items))
	}
	item := feedItem(feed, "dm_2")
	if item == nil {
		t.Fatal("no dm_2 item")
	}
	if item.Count != 4 {
		t.Errorf("count = %d, want 4", item.Count)
	}
	if item.Preview != "msg 3" {
		t.Errorf("preview = %q, want latest body", item.Preview)
	}
	// Falls back to FromUserID when the payload lacks a counterpart id.
	if feedItem(feed, "dm_3") == nil {
		t.Error("no dm_3 item")
	}
}

func TestBellDismissSuppressesUntilNewActivity(t *testing.T) {
	f := newBellFixture()
	from := uint(2)
	f.addNotification(models.Notification{
		UserID:     1,
		Type:       domain.NotificationMessage,
		FromUserID: &from,
		Body:       "old",
		CreatedAt:  time.Now().Add(-time.Hour),
		UpdatedAt:  time.Now().Add(-time.Hour),
	})

	if err := f.svc.Dismiss(1, domain.BellScopeDirectMessage, 2); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	feed, err := f.svc.BuildBellFeed(1, 1, 20)
	if err != nil {
		t.Fatalf("BuildBellFeed: %v", err)
	}
	if feedItem(feed, "dm_2") != nil {
		t.Fatal("dismissed dm item still present")
	}

	// Newer activity moves past the watermark and resurfaces the item.
	f.addNotification(models.Notification{
		UserID:     1,
		Type:       domain.NotificationMessage,
		FromUserID: &from,
		Body:       "new",
		CreatedAt:  time.Now().Add(time.Minute),
		UpdatedAt:  time.Now().Add(time.Minute),
	})
	feed, err = f.svc.BuildBellFeed(1, 1, 20)
	if err != nil {
		t.Fatalf("BuildBellFeed: %v", err)
	}
	item := feedItem(feed, "dm_2")
	if item == nil {
		t.Fatal("dm item did not resurface after new activity")
	}
	if item.Preview != "new" {
		t.Errorf("preview = %q, want %q", item.Preview, "new")
	}
}

func TestBellDismissScopesAreIndependent(t *testing.T) {
	f := newBellFixture()
	from := uint(2)
	old := time.Now().Add(-time.Hour)
	f.addNotification(models.Notification{
		UserID: 1, Type: domain.NotificationFriendRequest, FromUserID: &from,
		CreatedAt: old, UpdatedAt: old,
	})
	f.addNotification(models.Notification{
		UserID: 1, Type: domain.NotificationMessage, FromUserID: &from, Body: "hey",
		CreatedAt: old, UpdatedAt: old,
	})

	if err := f.svc.Dismiss(1, domain.BellScopeFriendRequests, 0); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	feed, err := f.svc.BuildBellFeed(1, 1, 20)
	if err != nil {
		t.Fatalf("BuildBellFeed: %v", err)
	}
	if feedItem(feed, domain.BellItemFriendRequests) != nil {
		t.Error("friend-requests item should be suppressed")
	}
	if feedItem(feed, "dm_2") == nil {
		t.Error("dm item should be untouched by a fr dismiss")
	}
}

func TestBellFeedGroupActivitySkipsHidden(t *testing.T) {
	f := newBellFixture()
	f.memberships.addMember(7, 1)
	f.memberships.addMember(7, 2)
	base := time.Now().Add(-time.Hour)
	f.groupMessages.add(&models.GroupMessage{GroupID: 7, SenderID: 2, Content: "visible", CreatedAt: base})
	hidden := f.groupMessages.add(&models.GroupMessage{GroupID: 7, SenderID: 2, Content: "hidden", CreatedAt: base.Add(time.Minute)})
	hidden.DeletedFor = hidden.DeletedFor.Add(1)

	feed, err := f.svc.BuildBellFeed(1, 1, 20)
	if err != nil {
		t.Fatalf("BuildBellFeed: %v", err)
	}
	item := feedItem(feed, "group_7")
	if item == nil {
		t.Fatal("no group item")
	}
	if item.Preview != "visible" {
		t.Errorf("preview = %q, want the latest visible message", item.Preview)
	}
	if !item.Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want the visible message time", item.Timestamp)
	}
}

func TestDismissValidation(t *testing.T) {
	f := newBellFixture()
	if err := f.svc.Dismiss(1, "nonsense", 0); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("unknown scope: err = %v, want ErrInvalidScope", err)
	}
	if err := f.svc.Dismiss(1, domain.BellScopeDirectMessage, 0); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("dm without target: err = %v, want ErrInvalidScope", err)
	}
	if err := f.svc.Dismiss(1, domain.BellScopeGroup, 0); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("group without target: err = %v, want ErrInvalidScope", err)
	}
}

func TestBellFeedPagination(t *testing.T) {
	f := newBellFixture()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		from := uint(10 + i)
		f.addNotification(models.Notification{
			UserID:     1,
			Type:       domain.NotificationMessage,
			FromUserID: &from,
			Body:       fmt.Sprintf("from %d", from),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	feed, err := f.svc.BuildBellFeed(1, 2, 2)
	if err != nil {
		t.Fatalf("BuildBellFeed: %v", err)
	}
	p := feed.Pagination
	if p.TotalItems != 5 || p.TotalPages != 3 || p.CurrentPage != 2 {
		t.Errorf("pagination = %+v", p)
	}
	if !p.HasNextPage || !p.HasPrevPage {
		t.Errorf("expected both page flags set, got %+v", p)
	}
	if len(feed.Items) != 2 {
		t.Errorf("page items = %d, want 2", len(feed.Items))
	}
	// Newest first across page boundaries.
	if !feed.Items[0].Timestamp.After(feed.Items[1].Timestamp) {
		t.Error("items not sorted newest first")
	}

	last, err := f.svc.BuildBellFeed(1, 3, 2)
	if err != nil {
		t.Fatalf("BuildBellFeed last page: %v", err)
	}
	if len(last.Items) != 1 || last.Pagination.HasNextPage {
		t.Errorf("last page = %d items, has_next=%v", len(last.Items), last.Pagination.HasNextPage)
	}
}

func TestBadgeCount(t *testing.T) {
	f := newBellFixture()
	from := uint(2)
	f.addNotification(models.Notification{UserID: 1, Type: domain.NotificationFriendRequest, FromUserID: &from})
	f.addNotification(models.Notification{UserID: 1, Type: domain.NotificationMessage, FromUserID: &from})
	f.addNotification(models.Notification{UserID: 1, Type: domain.NotificationMessage, FromUserID: &from})
	f.addNotification(models.Notification{UserID: 1, Type: domain.NotificationMessage, FromUserID: &from, IsRead: true})

	f.memberships.addMember(7, 1)
	f.memberships.addMember(7, 2)
	f.groupMessages.add(&models.GroupMessage{GroupID: 7, SenderID: 2, Content: "x"})

	counts, err := f.svc.BadgeCount(1)
	if err != nil {
		t.Fatalf("BadgeCount: %v", err)
	}
	if counts.FR != 1 || counts.DM != 2 || counts.Group != 1 || counts.Inv != 0 {
		t.Errorf("counts = %+v", counts)
	}
	if counts.Total != 4 {
		t.Errorf("total = %d, want 4", counts.Total)
	}
}
