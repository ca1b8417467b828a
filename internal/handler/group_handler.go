package handler

import (
	"errors"
	"net/http"
	"strconv"

	"notably/internal/domain"
	"notably/internal/middleware"
	"notably/internal/models"
	"notably/internal/repository"
	"notably/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupHandler struct {
	groups      *repository.GroupRepository
	users       *repository.UserRepository
	messaging   *service.MessagingService
	reads       *service.ReadService
	notifSvc    *service.NotificationService
	broadcaster *service.BroadcastService
}

func NewGroupHandler(
	groups *repository.GroupRepository,
	users *repository.UserRepository,
	messaging *service.MessagingService,
	reads *service.ReadService,
	notifSvc *service.NotificationService,
	broadcaster *service.BroadcastService,
) *GroupHandler {
	return &GroupHandler{groups: groups, users: users, messaging: messaging, reads: reads, notifSvc: notifSvc, broadcaster: broadcaster}
}

func (h *GroupHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=128"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g := &models.Group{Name: req.Name, Description: req.Description, OwnerID: userID}
	if err := h.groups.Create(g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	member := &models.GroupMember{GroupID: g.ID, UserID: userID, Role: domain.GroupRoleOwner}
	if err := h.groups.AddMember(member); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": g})
}

func (h *GroupHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := paramUint(c, "id")
	member, err := h.groups.IsMember(groupID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}
	g, err := h.groups.GetByID(groupID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	members, err := h.groups.ListMembers(groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g, "members": members})
}

func (h *GroupHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.groups.ListGroupsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": list})
}

func (h *GroupHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := paramUint(c, "id")
	if !h.requireRole(c, groupID, userID, domain.GroupRoleAdmin, domain.GroupRoleOwner) {
		return
	}
	g, err := h.groups.GetByID(groupID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.AvatarURL != nil {
		g.AvatarURL = *req.AvatarURL
	}
	if err := h.groups.Update(g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g})
}

// Leave removes the caller from the group. The owner cannot leave.
func (h *GroupHandler) Leave(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := paramUint(c, "id")
	member, err := h.groups.GetMember(groupID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not a member"})
		return
	}
	if member.Role == domain.GroupRoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "owner cannot leave the group"})
		return
	}
	if err := h.groups.RemoveMember(groupID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leave failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := paramUint(c, "id")
	targetID := paramUint(c, "user_id")
	if !h.requireRole(c, groupID, userID, domain.GroupRoleAdmin, domain.GroupRoleOwner) {
		return
	}
	target, err := h.groups.GetMember(groupID, targetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	if target.Role == domain.GroupRoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot remove the owner"})
		return
	}
	if err := h.groups.RemoveMember(groupID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *GroupHandler) UpdateMemberRole(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := paramUint(c, "id")
	targetID := paramUint(c, "user_id")
	if !h.requireRole(c, groupID, userID, domain.GroupRoleOwner) {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required,oneof=member admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := h.groups.GetMember(groupID, targetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	if target.Role == domain.GroupRoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot change the owner role"})
		return
	}
	target.Role = req.Role
	if err := h.groups.UpdateMember(target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": target})
}

// Invite creates a pending group invite and notifies the invitee.
func (h *GroupHandler) Invite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := paramUint(c, "id")
	if !h.requireRole(c, groupID, userID, domain.GroupRoleAdmin, domain.GroupRoleOwner) {
		return
	}
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.users.GetByID(req.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if member, err := h.groups.IsMember(groupID, req.UserID); err == nil && member {
		c.JSON(http.StatusConflict, gin.H{"error": "already a member"})
		return
	}
	if _, err := h.groups.GetPendingInvite(groupID, req.UserID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "invite already pending"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	inv := &models.GroupInvite{GroupID: groupID, InviterID: userID, InviteeID: req.UserID, Status: domain.InviteStatusPending}
	if err := h.groups.CreateInvite(inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invite failed"})
		return
	}
	g, err := h.groups.GetByID(groupID)
	if err == nil {
		if err := h.notifSvc.NotifyGroupInvite(req.UserID, inv, g.Name); err == nil {
			h.broadcaster.GroupInvited(req.UserID, inv)
		}
	}
	c.JSON(http.StatusCreated, gin.H{"invite": inv})
}

func (h *GroupHandler) AcceptInvite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	inv, err := h.groups.GetInvite(paramUint(c, "invite_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
		return
	}
	if inv.InviteeID != userID || inv.Status != domain.InviteStatusPending {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your pending invite"})
		return
	}
	inv.Status = domain.InviteStatusAccepted
	if err := h.groups.UpdateInvite(inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "accept failed"})
		return
	}
	member := &models.GroupMember{GroupID: inv.GroupID, UserID: userID, Role: domain.GroupRoleMember}
	if err := h.groups.AddMember(member); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "accept failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invite": inv, "member": member})
}

func (h *GroupHandler) DeclineInvite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	inv, err := h.groups.GetInvite(paramUint(c, "invite_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
		return
	}
	if inv.InviteeID != userID || inv.Status != domain.InviteStatusPending {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your pending invite"})
		return
	}
	inv.Status = domain.InviteStatusDeclined
	if err := h.groups.UpdateInvite(inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "decline failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invite": inv})
}

func (h *GroupHandler) ListInvites(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.groups.ListInvitesFor(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": list})
}

func (h *GroupHandler) SendMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := paramUint(c, "id")
	var req struct {
		ClientID      string `json:"client_id"`
		Content       string `json:"content"`
		MessageType   string `json:"message_type"`
		AttachmentURL string `json:"attachment_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Content == "" && req.AttachmentURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty message"})
		return
	}
	if req.ClientID == "" {
		req.ClientID = uuid.New().String()
	}
	m, err := h.messaging.SendGroup(groupID, userID, req.ClientID, req.Content, req.MessageType, req.AttachmentURL)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": m})
}

func (h *GroupHandler) Messages(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := paramUint(c, "id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.messaging.ListGroupMessages(groupID, userID, limit, offset)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *GroupHandler) EditMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.messaging.EditGroup(paramUint(c, "message_id"), userID, req.Content)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": m})
}

func (h *GroupHandler) RecallMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.messaging.RecallGroup(paramUint(c, "message_id"), userID); err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *GroupHandler) DeleteMessageForMe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.messaging.DeleteGroupForMe(paramUint(c, "message_id"), userID); err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkMessageRead records a receipt for one group message.
func (h *GroupHandler) MarkMessageRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	receipt, err := h.reads.MarkGroupRead(paramUint(c, "message_id"), userID)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt})
}

// MarkAllRead marks the whole group conversation read for the caller.
func (h *GroupHandler) MarkAllRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	marked, err := h.reads.MarkGroupMessagesRead(paramUint(c, "id"), userID)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

func (h *GroupHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := paramUint(c, "id")
	member, err := h.groups.IsMember(groupID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}
	count, err := h.reads.CountUnreadGroup(groupID, userID)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *GroupHandler) requireRole(c *gin.Context, groupID, userID uint, roles ...string) bool {
	member, err := h.groups.GetMember(groupID, userID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return false
	}
	for _, r := range roles {
		if member.Role == r {
			return true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "insufficient group role"})
	return false
}
