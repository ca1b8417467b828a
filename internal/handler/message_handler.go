package handler

import (
	"net/http"
	"strconv"

	"notably/internal/middleware"
	"notably/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messaging *service.MessagingService
	reads     *service.ReadService
	notifSvc  *service.NotificationService
}

func NewMessageHandler(
	messaging *service.MessagingService,
	reads *service.ReadService,
	notifSvc *service.NotificationService,
) *MessageHandler {
	return &MessageHandler{messaging: messaging, reads: reads, notifSvc: notifSvc}
}

// Send stores a direct message. The client may pass its own uuid for dedup;
// one is assigned otherwise.
func (h *MessageHandler) Send(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		ReceiverID    uint   `json:"receiver_id" binding:"required"`
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
	m, err := h.messaging.SendDirect(userID, req.ReceiverID, req.ClientID, req.Content, req.MessageType, req.AttachmentURL)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": m})
}

// Conversation lists visible messages with another user, newest first.
func (h *MessageHandler) Conversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID := paramUint(c, "user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.messaging.ListConversation(userID, otherID, limit, offset)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *MessageHandler) Edit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.messaging.EditDirect(paramUint(c, "id"), userID, req.Content)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": m})
}

// Recall deletes the caller's own message for everyone.
func (h *MessageHandler) Recall(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.messaging.RecallDirect(paramUint(c, "id"), userID); err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteForMe hides the message only for the caller.
func (h *MessageHandler) DeleteForMe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.messaging.DeleteDirectForMe(paramUint(c, "id"), userID); err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkRead records a read receipt for one message. Idempotent; repeated
// calls return the original receipt.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	receipt, err := h.reads.MarkRead(paramUint(c, "id"), userID)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt})
}

// MarkConversationRead marks a whole conversation read. This is the explicit
// open-conversation action, never implicit on fetch.
func (h *MessageHandler) MarkConversationRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID := paramUint(c, "user_id")
	marked, err := h.reads.MarkConversationRead(userID, otherID)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	if err := h.notifSvc.MarkMessagesReadFrom(userID, otherID); err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// UnreadCount returns the visible unread count for one conversation.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	count, err := h.reads.CountUnreadDirect(userID, paramUint(c, "user_id"))
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}
