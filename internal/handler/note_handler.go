package handler

import (
	"errors"
	"net/http"

	"notably/internal/domain"
	"notably/internal/middleware"
	"notably/internal/models"
	"notably/internal/repository"
	"notably/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NoteHandler struct {
	notes       *repository.NoteRepository
	users       *repository.UserRepository
	notifSvc    *service.NotificationService
	broadcaster *service.BroadcastService
}

func NewNoteHandler(
	notes *repository.NoteRepository,
	users *repository.UserRepository,
	notifSvc *service.NotificationService,
	broadcaster *service.BroadcastService,
) *NoteHandler {
	return &NoteHandler{notes: notes, users: users, notifSvc: notifSvc, broadcaster: broadcaster}
}

func (h *NoteHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Title   string `json:"title" binding:"required,min=1,max=255"`
		Content string `json:"content"`
		Pinned  bool   `json:"pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n := &models.Note{OwnerID: userID, Title: req.Title, Content: req.Content, Pinned: req.Pinned}
	if err := h.notes.Create(n); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"note": n})
}

func (h *NoteHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	n, ok := h.loadVisible(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": n})
}

func (h *NoteHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	own, err := h.notes.ListByOwner(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	shared, err := h.notes.ListSharedWith(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": own, "shared": shared})
}

func (h *NoteHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	n, ok := h.loadVisible(c, userID)
	if !ok {
		return
	}
	if n.OwnerID != userID {
		share, err := h.notes.GetShare(n.ID, userID)
		if err != nil || !share.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "read-only access"})
			return
		}
	}
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title != nil {
		n.Title = *req.Title
	}
	if req.Content != nil {
		n.Content = *req.Content
	}
	if err := h.notes.Update(n); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": n})
}

// Pin toggles the pinned flag. Pinning is a per-owner ordering hint,
// so only the owner may change it.
func (h *NoteHandler) Pin(c *gin.Context) {
	userID := middleware.GetUserID(c)
	n, ok := h.loadOwned(c, userID)
	if !ok {
		return
	}
	n.Pinned = !n.Pinned
	if err := h.notes.Update(n); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": n})
}

func (h *NoteHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	n, ok := h.loadOwned(c, userID)
	if !ok {
		return
	}
	if err := h.notes.Delete(n.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NoteHandler) Share(c *gin.Context) {
	userID := middleware.GetUserID(c)
	n, ok := h.loadOwned(c, userID)
	if !ok {
		return
	}
	var req struct {
		UserID     uint   `json:"user_id" binding:"required"`
		Permission string `json:"permission" binding:"omitempty,oneof=read edit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot share with yourself"})
		return
	}
	if req.Permission == "" {
		req.Permission = domain.NotePermissionRead
	}
	if _, err := h.users.GetByID(req.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	share, err := h.notes.GetShare(n.ID, req.UserID)
	switch {
	case err == nil:
		share.Permission = req.Permission
		if err := h.notes.UpdateShare(share); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "share failed"})
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		share = &models.NoteShare{NoteID: n.ID, UserID: req.UserID, Permission: req.Permission}
		if err := h.notes.CreateShare(share); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "share failed"})
			return
		}
		sharer, err := h.users.GetByID(userID)
		if err == nil {
			if err := h.notifSvc.NotifyNoteShared(req.UserID, n, sharer); err == nil {
				h.broadcaster.NoteShared(req.UserID, n, userID)
			}
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "share failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"share": share})
}

func (h *NoteHandler) Unshare(c *gin.Context) {
	userID := middleware.GetUserID(c)
	n, ok := h.loadOwned(c, userID)
	if !ok {
		return
	}
	targetID := paramUint(c, "user_id")
	if err := h.notes.DeleteShare(n.ID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unshare failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NoteHandler) loadVisible(c *gin.Context, userID uint) (*models.Note, bool) {
	n, err := h.notes.GetByID(paramUint(c, "id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
		return nil, false
	}
	if n.OwnerID == userID {
		return n, true
	}
	if _, err := h.notes.GetShare(n.ID, userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
		return nil, false
	}
	return n, true
}

func (h *NoteHandler) loadOwned(c *gin.Context, userID uint) (*models.Note, bool) {
	n, err := h.notes.GetByID(paramUint(c, "id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
		return nil, false
	}
	if n.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "owner only"})
		return nil, false
	}
	return n, true
}
