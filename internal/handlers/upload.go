package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/util"
)

const maxUploadBytes = 5 << 20 // 5 MiB

// UploadImage accepts a multipart image, sniffs its content type server
// side, and forwards it to the hosting service
// POST /api/upload/image
func (h *Handlers) UploadImage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if h.images == nil {
		util.RespondInternalError(c, "image uploads are not configured")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		util.RespondBadRequest(c, "image file is required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		util.RespondBadRequest(c, "image must be 5MB or smaller")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.ErrorWithFields("failed to open uploaded file", err)
		util.RespondInternalError(c, "failed to read upload")
		return
	}
	defer file.Close()

	// Sniff the real content type rather than trusting the client header
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		logger.ErrorWithFields("failed to read uploaded file", err)
		util.RespondInternalError(c, "failed to read upload")
		return
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		util.RespondBadRequest(c, "only image uploads are allowed")
		return
	}

	reader := io.MultiReader(bytes.NewReader(head), file)
	result, err := h.images.Upload(c.Request.Context(), reader, userID)
	if err != nil {
		logger.ErrorWithFields("image upload failed", err)
		util.RespondInternalError(c, "failed to upload image")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       result.URL,
		"public_id": result.PublicID,
	})
}
