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
	"gorm.io/gorm"
)

type FriendHandler struct {
	friendships *repository.FriendshipRepository
	users       *repository.UserRepository
	notifSvc    *service.NotificationService
	broadcaster *service.BroadcastService
}

func NewFriendHandler(
	friendships *repository.FriendshipRepository,
	users *repository.UserRepository,
	notifSvc *service.NotificationService,
	broadcaster *service.BroadcastService,
) *FriendHandler {
	return &FriendHandler{friendships: friendships, users: users, notifSvc: notifSvc, broadcaster: broadcaster}
}

// Request sends a friend request to another user.
func (h *FriendHandler) Request(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if targetID == 0 || uint(targetID) == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	if _, err := h.users.GetByID(uint(targetID)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if existing, err := h.friendships.GetBetween(userID, uint(targetID)); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "friendship already exists", "status": existing.Status})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	f := &models.Friendship{UserID: userID, FriendID: uint(targetID), Status: domain.FriendshipPending}
	if err := h.friendships.Create(f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}
	me, err := h.users.GetByID(userID)
	if err == nil {
		if err := h.notifSvc.NotifyFriendRequest(uint(targetID), me); err == nil {
			h.broadcaster.FriendRequest(uint(targetID), me)
		}
	}
	c.JSON(http.StatusCreated, gin.H{"friendship": f})
}

// Accept accepts a pending friend request addressed to the caller.
func (h *FriendHandler) Accept(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	f, err := h.friendships.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	if f.FriendID != userID || f.Status != domain.FriendshipPending {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your pending request"})
		return
	}
	f.Status = domain.FriendshipAccepted
	if err := h.friendships.Update(f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if me, err := h.users.GetByID(userID); err == nil {
		h.broadcaster.FriendAccepted(f.UserID, me)
	}
	c.JSON(http.StatusOK, gin.H{"friendship": f})
}

// Decline removes a pending request addressed to the caller.
func (h *FriendHandler) Decline(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	f, err := h.friendships.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	if f.FriendID != userID || f.Status != domain.FriendshipPending {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your pending request"})
		return
	}
	if err := h.friendships.Delete(f.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Remove unfriends another user.
func (h *FriendHandler) Remove(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	f, err := h.friendships.GetBetween(userID, uint(otherID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "friendship not found"})
		return
	}
	if err := h.friendships.Delete(f.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Block blocks another user; an existing friendship row is converted.
func (h *FriendHandler) Block(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if otherID == 0 || uint(otherID) == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	f, err := h.friendships.GetBetween(userID, uint(otherID))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		f = &models.Friendship{UserID: userID, FriendID: uint(otherID), Status: domain.FriendshipBlocked}
		if err := h.friendships.Create(f); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "block failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"friendship": f})
		return
	}
	f.Status = domain.FriendshipBlocked
	if err := h.friendships.Update(f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "block failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friendship": f})
}

func (h *FriendHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.friendships.ListFriends(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": list})
}

func (h *FriendHandler) ListPending(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.friendships.ListPendingFor(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}
