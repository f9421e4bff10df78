package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	images storage.ImageStore
}

// NewHandlers creates a new handlers instance
func NewHandlers(images storage.ImageStore) *Handlers {
	return &Handlers{images: images}
}

// deleteHostedImage removes an image from the hosting service by URL.
// Failures are logged and swallowed; a leaked image never fails a request.
func (h *Handlers) deleteHostedImage(c *gin.Context, url string) {
	publicID := storage.PublicIDFromURL(url)
	if publicID == "" {
		return
	}
	if err := h.images.Delete(c.Request.Context(), publicID); err != nil {
		logger.WarnWithFields("failed to delete hosted image", err)
	}
}
