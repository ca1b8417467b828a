package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"notably/internal/middleware"
	"notably/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSize = 10 << 20 // 10 MB

type UploadHandler struct {
	cld cloudinary.Client
}

func NewUploadHandler(cld cloudinary.Client) *UploadHandler {
	return &UploadHandler{cld: cld}
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Upload stores a chat or note attachment and returns its URL. Images get a
// thumbnail as well.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID := middleware.GetUserID(c)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	defer file.Close()

	folder := c.DefaultPostForm("folder", "attachments")
	if folder != "attachments" && folder != "notes" && folder != "avatars" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown folder"})
		return
	}
	publicID := fmt.Sprintf("u%d_%s", userID, uuid.New().String())

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if imageExtensions[ext] {
		url, thumb, err := h.cld.UploadImage(c.Request.Context(), file, folder, publicID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"url": url, "thumbnail_url": thumb, "kind": "image"})
		return
	}

	url, err := h.cld.UploadFile(c.Request.Context(), file, folder, publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "kind": "file"})
}
