package services

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pokefolio/pokefolio/internal/apperr"
)

// MaxImageSize is the upload size cap.
const MaxImageSize = 5 << 20

// ImageStorageService stores uploaded listing and message images on disk
// and serves them back by public URL.
type ImageStorageService struct {
	storageDir string
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// NewImageStorageService creates the storage directory if needed.
func NewImageStorageService(storageDir string) *ImageStorageService {
	if storageDir == "" {
		storageDir = "./data/uploads"
	}

	if err := os.MkdirAll(storageDir, 0755); err != nil {
		// Log error but don't fail - will fail on actual writes
		fmt.Printf("Warning: could not create upload directory: %v\n", err)
	}

	return &ImageStorageService{
		storageDir: storageDir,
	}
}

// SaveImage validates and writes image data, returning the stored filename.
// The content type is sniffed from the bytes, never trusted from headers.
func (s *ImageStorageService) SaveImage(imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", apperr.Validationf("empty image data")
	}
	if len(imageData) > MaxImageSize {
		return "", apperr.Validationf("image exceeds maximum size of 5MB")
	}

	contentType := http.DetectContentType(imageData)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", apperr.Validationf("unsupported image type %s (jpeg, png, webp only)", contentType)
	}

	filename := uuid.New().String() + ext
	filePath := filepath.Join(s.storageDir, filename)

	if err := os.WriteFile(filePath, imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return filename, nil
}

// PublicURL returns the URL path the router serves the file under.
func (s *ImageStorageService) PublicURL(filename string) string {
	return "/images/uploads/" + filename
}

// GetStorageDir returns the storage directory path.
func (s *ImageStorageService) GetStorageDir() string {
	return s.storageDir
}
