package repository

import (
	"notably/internal/domain"
	"notably/internal/models"

	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(g *models.Group) error {
	return r.db.Create(g).Error
}

func (r *GroupRepository) GetByID(id uint) (*models.Group, error) {
	var g models.Group
	err := r.db.First(&g, id).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) Update(g *models.Group) error {
	return r.db.Save(g).Error
}

func (r *GroupRepository) Delete(id uint) error {
	return r.db.Delete(&models.Group{}, id).Error
}

func (r *GroupRepository) AddMember(m *models.GroupMember) error {
	return r.db.Create(m).Error
}

func (r *GroupRepository) RemoveMember(groupID, userID uint) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

func (r *GroupRepository) GetMember(groupID, userID uint) (*models.GroupMember, error) {
	var m models.GroupMember
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GroupRepository) UpdateMember(m *models.GroupMember) error {
	return r.db.Save(m).Error
}

func (r *GroupRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).Count(&count).Error
	return count > 0, err
}

// ListMembers returns the current membership snapshot for fan-out.
func (r *GroupRepository) ListMembers(groupID uint) ([]models.GroupMember, error) {
	var list []models.GroupMember
	err := r.db.Preload("User").Where("group_id = ?", groupID).Find(&list).Error
	return list, err
}

// ListMemberships returns every group membership of a user.
func (r *GroupRepository) ListMemberships(userID uint) ([]models.GroupMember, error) {
	var list []models.GroupMember
	err := r.db.Where("user_id = ?", userID).Find(&list).Error
	return list, err
}

func (r *GroupRepository) ListGroupsForUser(userID uint) ([]models.Group, error) {
	var list []models.Group
	err := r.db.Joins("JOIN group_members ON group_members.group_id = chat_groups.id").
		Where("group_members.user_id = ?", userID).
		Order("chat_groups.updated_at DESC").Find(&list).Error
	return list, err
}

func (r *GroupRepository) CreateInvite(inv *models.GroupInvite) error {
	return r.db.Create(inv).Error
}

func (r *GroupRepository) GetInvite(id uint) (*models.GroupInvite, error) {
	var inv models.GroupInvite
	err := r.db.Preload("Group").First(&inv, id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GroupRepository) GetPendingInvite(groupID, inviteeID uint) (*models.GroupInvite, error) {
	var inv models.GroupInvite
	err := r.db.Where("group_id = ? AND invitee_id = ? AND status = ?",
		groupID, inviteeID, domain.InviteStatusPending).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GroupRepository) UpdateInvite(inv *models.GroupInvite) error {
	return r.db.Save(inv).Error
}

func (r *GroupRepository) ListInvitesFor(userID uint) ([]models.GroupInvite, error) {
	var list []models.GroupInvite
	err := r.db.Preload("Group").Preload("Inviter").
		Where("invitee_id = ? AND status = ?", userID, domain.InviteStatusPending).
		Order("created_at DESC").Find(&list).Error
	return list, err
}
