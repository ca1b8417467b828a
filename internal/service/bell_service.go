package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"notably/internal/domain"
	"notably/internal/models"
	"notably/internal/repository"
)

var ErrInvalidScope = errors.New("invalid bell scope")

// BellItem is one entry in the aggregated bell feed. Raw events are collapsed
// to one item per (scope, counterpart) so N messages from the same sender
// show as a single row.
type BellItem struct {
	ID          string    `json:"id"`
	Scope       string    `json:"scope"`
	Count       int       `json:"count"`
	OtherUserID uint      `json:"other_user_id,omitempty"`
	GroupID     uint      `json:"group_id,omitempty"`
	Title       string    `json:"title"`
	Preview     string    `json:"preview"`
	Timestamp   time.Time `json:"timestamp"`
}

type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalItems   int  `json:"total_items"`
	ItemsPerPage int  `json:"items_per_page"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
}

type BellFeed struct {
	Items      []BellItem `json:"items"`
	Pagination Pagination `json:"pagination"`
}

type BadgeCounts struct {
	Total int `json:"total"`
	DM    int `json:"dm"`
	Group int `json:"group"`
	FR    int `json:"fr"`
	Inv   int `json:"inv"`
}

// watermarks are the reduction of a user's bell_dismiss rows: the latest
// dismissal timestamp per scope (and per counterpart for dm/group scopes).
// An item is suppressed only while its activity timestamp is at or before
// the watermark; newer activity resurfaces it.
type watermarks struct {
	fr    time.Time
	inv   time.Time
	dm    map[uint]time.Time
	group map[uint]time.Time
}

// BellService builds the aggregated notification feed. Everything is
// recomputed lazily per call; inputs are bounded (memberships, last few
// messages per group), so no cached projection is kept.
type BellService struct {
	notifications repository.NotificationRepositoryInterface
	groups        repository.MembershipRepositoryInterface
	groupMessages repository.GroupMessageRepositoryInterface
	reads         *ReadService
}

func NewBellService(
	notifications repository.NotificationRepositoryInterface,
	groups repository.MembershipRepositoryInterface,
	groupMessages repository.GroupMessageRepositoryInterface,
	reads *ReadService,
) *BellService {
	return &BellService{notifications: notifications, groups: groups, groupMessages: groupMessages, reads: reads}
}

// BuildBellFeed assembles the deduplicated feed for a user: one aggregate
// item for friend requests, one for group invites, the latest message per
// DM counterpart, and the latest visible activity per group, each filtered
// through the dismiss watermarks, merged, sorted newest first and paginated.
func (s *BellService) BuildBellFeed(userID uint, page, limit int) (*BellFeed, error) {
	wm, err := s.loadWatermarks(userID)
	if err != nil {
		return nil, err
	}

	var items []BellItem
	if item, err := s.friendRequestItem(userID, wm); err != nil {
		return nil, err
	} else if item != nil {
		items = append(items, *item)
	}
	if item, err := s.groupInviteItem(userID, wm); err != nil {
		return nil, err
	} else if item != nil {
		items = append(items, *item)
	}
	dmItems, err := s.directMessageItems(userID, wm)
	if err != nil {
		return nil, err
	}
	items = append(items, dmItems...)
	groupItems, err := s.groupActivityItems(userID, wm)
	if err != nil {
		return nil, err
	}
	items = append(items, groupItems...)

	sortItemsByTimestampDesc(items)
	return paginate(items, page, limit), nil
}

// Dismiss records a suppression watermark for one scope at the current time.
// Nothing is deleted; feed builds recompute suppression lazily.
func (s *BellService) Dismiss(userID uint, scope string, targetID uint) error {
	data := map[string]interface{}{"scope": scope}
	switch scope {
	case domain.BellScopeFriendRequests, domain.BellScopeGroupInvites:
	case domain.BellScopeDirectMessage:
		if targetID == 0 {
			return fmt.Errorf("dm dismiss requires a counterpart id: %w", ErrInvalidScope)
		}
		data["other_user_id"] = targetID
	case domain.BellScopeGroup:
		if targetID == 0 {
			return fmt.Errorf("group dismiss requires a group id: %w", ErrInvalidScope)
		}
		data["group_id"] = targetID
	default:
		return fmt.Errorf("unknown bell scope %q: %w", scope, ErrInvalidScope)
	}
	return s.notifications.Create(&models.Notification{
		UserID: userID,
		Type:   domain.NotificationBellDismiss,
		Data:   models.EncodeData(data),
		IsRead: true,
	})
}

// BadgeCount is the cheap aggregate: unread notification rows for the fr,
// inv and dm scopes, plus a per-membership unread walk for groups. This is
// deliberately a different computation path than the feed; only
// zero-vs-nonzero agreement with BuildBellFeed is promised.
func (s *BellService) BadgeCount(userID uint) (*BadgeCounts, error) {
	fr, err := s.notifications.CountUnreadByType(userID, domain.NotificationFriendRequest)
	if err != nil {
		return nil, err
	}
	inv, err := s.notifications.CountUnreadByType(userID, domain.NotificationGroupInvite)
	if err != nil {
		return nil, err
	}
	dm, err := s.notifications.CountUnreadByType(userID, domain.NotificationMessage)
	if err != nil {
		return nil, err
	}
	memberships, err := s.groups.ListMemberships(userID)
	if err != nil {
		return nil, err
	}
	group := 0
	for _, m := range memberships {
		n, err := s.reads.CountUnreadGroup(m.GroupID, userID)
		if err != nil {
			return nil, err
		}
		group += n
	}
	counts := &BadgeCounts{FR: int(fr), Inv: int(inv), DM: int(dm), Group: group}
	counts.Total = counts.FR + counts.Inv + counts.DM + counts.Group
	return counts, nil
}

func (s *BellService) loadWatermarks(userID uint) (*watermarks, error) {
	rows, err := s.notifications.ListDismissals(userID)
	if err != nil {
		return nil, err
	}
	wm := &watermarks{dm: make(map[uint]time.Time), group: make(map[uint]time.Time)}
	for i := range rows {
		row := &rows[i]
		switch row.DataString("scope") {
		case domain.BellScopeFriendRequests:
			if row.CreatedAt.After(wm.fr) {
				wm.fr = row.CreatedAt
			}
		case domain.BellScopeGroupInvites:
			if row.CreatedAt.After(wm.inv) {
				wm.inv = row.CreatedAt
			}
		case domain.BellScopeDirectMessage:
			if other := row.DataUint("other_user_id"); other != 0 && row.CreatedAt.After(wm.dm[other]) {
				wm.dm[other] = row.CreatedAt
			}
		case domain.BellScopeGroup:
			if gid := row.DataUint("group_id"); gid != 0 && row.CreatedAt.After(wm.group[gid]) {
				wm.group[gid] = row.CreatedAt
			}
		}
	}
	return wm, nil
}

// friendRequestItem collapses all pending friend requests into a single
// aggregate item with a fixed sentinel id.
func (s *BellService) friendRequestItem(userID uint, wm *watermarks) (*BellItem, error) {
	rows, err := s.notifications.ListByType(userID, domain.NotificationFriendRequest)
	if err != nil {
		return nil, err
	}
	count := 0
	var latest time.Time
	for i := range rows {
		if rows[i].IsRead {
			continue
		}
		count++
		if rows[i].UpdatedAt.After(latest) {
			latest = rows[i].UpdatedAt
		}
	}
	if count == 0 || !latest.After(wm.fr) {
		return nil, nil
	}
	return &BellItem{
		ID:        domain.BellItemFriendRequests,
		Scope:     domain.BellScopeFriendRequests,
		Count:     count,
		Title:     "Friend requests",
		Preview:   fmt.Sprintf("%d pending friend request(s)", count),
		Timestamp: latest,
	}, nil
}

func (s *BellService) groupInviteItem(userID uint, wm *watermarks) (*BellItem, error) {
	rows, err := s.notifications.ListByType(userID, domain.NotificationGroupInvite)
	if err != nil {
		return nil, err
	}
	count := 0
	var latest time.Time
	for i := range rows {
		if rows[i].IsRead {
			continue
		}
		count++
		if rows[i].UpdatedAt.After(latest) {
			latest = rows[i].UpdatedAt
		}
	}
	if count == 0 || !latest.After(wm.inv) {
		return nil, nil
	}
	return &BellItem{
		ID:        domain.BellItemGroupInvites,
		Scope:     domain.BellScopeGroupInvites,
		Count:     count,
		Title:     "Group invites",
		Preview:   fmt.Sprintf("%d pending group invite(s)", count),
		Timestamp: latest,
	}, nil
}

// directMessageItems groups message notifications by the other participant
// and keeps only the most recent per counterpart.
func (s *BellService) directMessageItems(userID uint, wm *watermarks) ([]BellItem, error) {
	rows, err := s.notifications.ListByType(userID, domain.NotificationMessage)
	if err != nil {
		return nil, err
	}
	type perUser struct {
		latest  time.Time
		count   int
		preview string
	}
	byOther := make(map[uint]*perUser)
	for i := range rows {
		row := &rows[i]
		if row.IsRead {
			continue
		}
		other := row.DataUint("other_user_id")
		if other == 0 && row.FromUserID != nil {
			other = *row.FromUserID
		}
		if other == 0 {
			continue
		}
		entry := byOther[other]
		if entry == nil {
			entry = &perUser{}
			byOther[other] = entry
		}
		entry.count++
		if row.UpdatedAt.After(entry.latest) {
			entry.latest = row.UpdatedAt
			entry.preview = row.Body
		}
	}
	var items []BellItem
	for other, entry := range byOther {
		if !entry.latest.After(wm.dm[other]) {
			continue
		}
		items = append(items, BellItem{
			ID:          fmt.Sprintf("dm_%d", other),
			Scope:       domain.BellScopeDirectMessage,
			Count:       entry.count,
			OtherUserID: other,
			Title:       "New messages",
			Preview:     entry.preview,
			Timestamp:   entry.latest,
		})
	}
	return items, nil
}

// groupActivityItems derives one item per group the user belongs to, from
// the most recent of the last few messages still visible to this user.
func (s *BellService) groupActivityItems(userID uint, wm *watermarks) ([]BellItem, error) {
	memberships, err := s.groups.ListMemberships(userID)
	if err != nil {
		return nil, err
	}
	var items []BellItem
	for _, m := range memberships {
		recent, err := s.groupMessages.ListRecent(m.GroupID, domain.BellGroupLookback)
		if err != nil {
			return nil, err
		}
		var latest *models.GroupMessage
		for i := range recent {
			if recent[i].VisibleTo(userID) {
				latest = &recent[i]
				break
			}
		}
		if latest == nil || !latest.CreatedAt.After(wm.group[m.GroupID]) {
			continue
		}
		items = append(items, BellItem{
			ID:        fmt.Sprintf("group_%d", m.GroupID),
			Scope:     domain.BellScopeGroup,
			Count:     1,
			GroupID:   m.GroupID,
			Title:     "Group activity",
			Preview:   latest.Content,
			Timestamp: latest.CreatedAt,
		})
	}
	return items, nil
}

func sortItemsByTimestampDesc(items []BellItem) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
}

func paginate(items []BellItem, page, limit int) *BellFeed {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	total := len(items)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pageItems := items[start:end]
	if pageItems == nil {
		pageItems = []BellItem{}
	}
	return &BellFeed{
		Items: pageItems,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: limit,
			HasNextPage:  page*limit < total,
			HasPrevPage:  page > 1 && total > 0,
		},
	}
}
