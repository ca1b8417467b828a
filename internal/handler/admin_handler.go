package handler

import (
	"net/http"
	"strconv"

	"notably/internal/cache"
	"notably/internal/repository"
	"notably/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admin         *repository.AdminRepository
	users         *repository.UserRepository
	messages      *repository.MessageRepository
	groupMessages *repository.GroupMessageRepository
	notifications *repository.NotificationRepository
	presence      *cache.PresenceCache
	broadcaster   *service.BroadcastService
}

func NewAdminHandler(
	admin *repository.AdminRepository,
	users *repository.UserRepository,
	messages *repository.MessageRepository,
	groupMessages *repository.GroupMessageRepository,
	notifications *repository.NotificationRepository,
	presence *cache.PresenceCache,
	broadcaster *service.BroadcastService,
) *AdminHandler {
	return &AdminHandler{
		admin:         admin,
		users:         users,
		messages:      messages,
		groupMessages: groupMessages,
		notifications: notifications,
		presence:      presence,
		broadcaster:   broadcaster,
	}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.admin.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	if h.presence != nil {
		if online, err := h.presence.CountOnline(c.Request.Context()); err == nil {
			stats.OnlineUsers = online
		}
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	search := c.Query("search")
	role := c.Query("role")
	users, total, err := h.admin.ListUsers(search, role, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total, "page": page, "limit": limit})
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,oneof=USER ADMIN"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.GetByID(paramUint(c, "id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	u.Role = req.Role
	if err := h.users.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Notifications is the audit view over all notification rows, dismissal
// watermarks included.
func (h *AdminHandler) Notifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.notifications.ListAll(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// RecallMessage hides a direct message from both participants. Moderation
// bypasses the sender-only rule.
func (h *AdminHandler) RecallMessage(c *gin.Context) {
	m, err := h.messages.GetByID(paramUint(c, "id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	m.IsDeletedForAll = true
	if err := h.messages.Update(m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recall failed"})
		return
	}
	h.broadcaster.MessageRecalled(m)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) RecallGroupMessage(c *gin.Context) {
	m, err := h.groupMessages.GetByID(paramUint(c, "id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	m.IsDeletedForAll = true
	if err := h.groupMessages.Update(m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recall failed"})
		return
	}
	h.broadcaster.GroupMessageRecalled(m)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Alert pushes a monitoring event to every connected admin.
func (h *AdminHandler) Alert(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
		Body  string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.broadcaster.AdminBroadcast("admin:alert", gin.H{"title": req.Title, "body": req.Body})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
