package service

import (
	"sort"
	"time"

	"notably/internal/domain"
	"notably/internal/models"

	"gorm.io/gorm"
)

// Hand-rolled in-memory mocks for the repository interfaces the core
// services depend on.

type emitted struct {
	Room    string
	Event   string
	Payload interface{}
}

type mockEmitter struct {
	events []emitted
}

func (m *mockEmitter) EmitToRoom(room, event string, payload interface{}) {
	m.events = append(m.events, emitted{Room: room, Event: event, Payload: payload})
}

func (m *mockEmitter) countRoom(room string) int {
	n := 0
	for _, e := range m.events {
		if e.Room == room {
			n++
		}
	}
	return n
}

type mockReceiptRepo struct {
	direct map[[2]uint]*models.MessageRead
	group  map[[2]uint]*models.GroupMessageRead
	nextID uint
}

func newMockReceiptRepo() *mockReceiptRepo {
	return &mockReceiptRepo{
		direct: make(map[[2]uint]*models.MessageRead),
		group:  make(map[[2]uint]*models.GroupMessageRead),
		nextID: 1,
	}
}

func (m *mockReceiptRepo) InsertIgnore(receipt *models.MessageRead) error {
	key := [2]uint{receipt.MessageID, receipt.UserID}
	if _, ok := m.direct[key]; ok {
		return nil
	}
	stored := *receipt
	stored.ID = m.nextID
	m.nextID++
	m.direct[key] = &stored
	return nil
}

func (m *mockReceiptRepo) Get(messageID, userID uint) (*models.MessageRead, error) {
	if r, ok := m.direct[[2]uint{messageID, userID}]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReceiptRepo) InsertIgnoreGroup(receipt *models.GroupMessageRead) error {
	key := [2]uint{receipt.MessageID, receipt.UserID}
	if _, ok := m.group[key]; ok {
		return nil
	}
	stored := *receipt
	stored.ID = m.nextID
	m.nextID++
	m.group[key] = &stored
	return nil
}

func (m *mockReceiptRepo) GetGroup(messageID, userID uint) (*models.GroupMessageRead, error) {
	if r, ok := m.group[[2]uint{messageID, userID}]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockMessageRepo struct {
	messages map[uint]*models.Message
	receipts *mockReceiptRepo
	nextID   uint
}

func newMockMessageRepo(receipts *mockReceiptRepo) *mockMessageRepo {
	return &mockMessageRepo{messages: make(map[uint]*models.Message), receipts: receipts, nextID: 1}
}

func (m *mockMessageRepo) add(msg *models.Message) *models.Message {
	if msg.ID == 0 {
		msg.ID = m.nextID
		m.nextID++
	}
	if msg.Status == "" {
		msg.Status = domain.MessageStatusSent
	}
	m.messages[msg.ID] = msg
	return msg
}

func (m *mockMessageRepo) GetByID(id uint) (*models.Message, error) {
	if msg, ok := m.messages[id]; ok {
		return msg, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMessageRepo) Update(msg *models.Message) error {
	m.messages[msg.ID] = msg
	return nil
}

func (m *mockMessageRepo) ListUnread(userID, otherID, afterID uint, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.SenderID != otherID || msg.ReceiverID != userID || msg.ID <= afterID {
			continue
		}
		if _, err := m.receipts.Get(msg.ID, userID); err == nil {
			continue
		}
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockGroupMessageRepo struct {
	messages map[uint]*models.GroupMessage
	receipts *mockReceiptRepo
	nextID   uint
}

func newMockGroupMessageRepo(receipts *mockReceiptRepo) *mockGroupMessageRepo {
	return &mockGroupMessageRepo{messages: make(map[uint]*models.GroupMessage), receipts: receipts, nextID: 1}
}

func (m *mockGroupMessageRepo) add(msg *models.GroupMessage) *models.GroupMessage {
	if msg.ID == 0 {
		msg.ID = m.nextID
		m.nextID++
	}
	if msg.MessageType == "" {
		msg.MessageType = domain.MessageTypeText
	}
	m.messages[msg.ID] = msg
	return msg
}

func (m *mockGroupMessageRepo) GetByID(id uint) (*models.GroupMessage, error) {
	if msg, ok := m.messages[id]; ok {
		return msg, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupMessageRepo) ListRecent(groupID uint, n int) ([]models.GroupMessage, error) {
	var out []models.GroupMessage
	for _, msg := range m.messages {
		if msg.GroupID == groupID {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *mockGroupMessageRepo) ListUnread(groupID, userID, afterID uint, limit int) ([]models.GroupMessage, error) {
	var out []models.GroupMessage
	for _, msg := range m.messages {
		if msg.GroupID != groupID || msg.SenderID == userID || msg.MessageType == domain.MessageTypeSystem || msg.ID <= afterID {
			continue
		}
		if _, err := m.receipts.GetGroup(msg.ID, userID); err == nil {
			continue
		}
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockNotificationRepo struct {
	rows   []models.Notification
	nextID uint
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{nextID: 1}
}

func (m *mockNotificationRepo) Create(n *models.Notification) error {
	if n.ID == 0 {
		n.ID = m.nextID
		m.nextID++
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	m.rows = append(m.rows, *n)
	return nil
}

func (m *mockNotificationRepo) ListByType(userID uint, notifType string) ([]models.Notification, error) {
	var out []models.Notification
	for _, row := range m.rows {
		if row.UserID == userID && row.Type == notifType {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) ListDismissals(userID uint) ([]models.Notification, error) {
	return m.ListByType(userID, domain.NotificationBellDismiss)
}

func (m *mockNotificationRepo) CountUnreadByType(userID uint, notifType string) (int64, error) {
	var count int64
	for _, row := range m.rows {
		if row.UserID == userID && row.Type == notifType && !row.IsRead {
			count++
		}
	}
	return count, nil
}

type mockMembershipRepo struct {
	members map[uint][]uint // groupID -> userIDs
}

func newMockMembershipRepo() *mockMembershipRepo {
	return &mockMembershipRepo{members: make(map[uint][]uint)}
}

func (m *mockMembershipRepo) addMember(groupID, userID uint) {
	m.members[groupID] = append(m.members[groupID], userID)
}

func (m *mockMembershipRepo) IsMember(groupID, userID uint) (bool, error) {
	for _, id := range m.members[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMembershipRepo) ListMembers(groupID uint) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for _, id := range m.members[groupID] {
		out = append(out, models.GroupMember{GroupID: groupID, UserID: id})
	}
	return out, nil
}

func (m *mockMembershipRepo) ListMemberships(userID uint) ([]models.GroupMember, error) {
	var out []models.GroupMember
	var groupIDs []uint
	for gid := range m.members {
		groupIDs = append(groupIDs, gid)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })
	for _, gid := range groupIDs {
		for _, id := range m.members[gid] {
			if id == userID {
				out = append(out, models.GroupMember{GroupID: gid, UserID: userID})
			}
		}
	}
	return out, nil
}

type mockAdminLister struct {
	admins []models.User
}

func (m *mockAdminLister) ListAdmins() ([]models.User, error) {
	return m.admins, nil
}
