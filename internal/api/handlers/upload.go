package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokefolio/pokefolio/internal/services"
)

type UploadHandler struct {
	images *services.ImageStorageService
}

func NewUploadHandler(images *services.ImageStorageService) *UploadHandler {
	return &UploadHandler{images: images}
}

// Upload accepts a multipart image for listings and messages. The stored
// filename and public URL come back in the response; clients attach the
// filename to listings or messages.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'image' is required"})
		return
	}
	if file.Size > services.MaxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image exceeds maximum size of 5MB"})
		return
	}

	f, err := file.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	// Read one byte past the cap so oversized bodies that lied about
	// their size are still rejected by SaveImage.
	data, err := io.ReadAll(io.LimitReader(f, services.MaxImageSize+1))
	if err != nil {
		fail(c, err)
		return
	}

	filename, err := h.images.SaveImage(data)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"filename": filename,
		"url":      h.images.PublicURL(filename),
	})
}
