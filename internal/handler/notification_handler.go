package handler

import (
	"net/http"
	"strconv"

	"notably/internal/middleware"
	"notably/internal/repository"
	"notably/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *repository.NotificationRepository
	notifSvc      *service.NotificationService
	bell          *service.BellService
}

func NewNotificationHandler(
	notifications *repository.NotificationRepository,
	notifSvc *service.NotificationService,
	bell *service.BellService,
) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, notifSvc: notifSvc, bell: bell}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.notifications.ListByUser(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// Bell returns the aggregated bell feed, newest activity first.
func (h *NotificationHandler) Bell(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	feed, err := h.bell.BuildBellFeed(userID, page, limit)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// Dismiss records a watermark for one bell scope. The dismissed item
// stays hidden until newer activity arrives in that scope.
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Scope    string `json:"scope" binding:"required"`
		TargetID uint   `json:"target_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.bell.Dismiss(userID, req.Scope, req.TargetID); err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) Badge(c *gin.Context) {
	userID := middleware.GetUserID(c)
	counts, err := h.bell.BadgeCount(userID)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.notifications.MarkRead(paramUint(c, "id"), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mark failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) MarkFriendRequestsRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.notifSvc.MarkFriendRequestsRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mark failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) MarkGroupInvitesRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.notifSvc.MarkGroupInvitesRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mark failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
