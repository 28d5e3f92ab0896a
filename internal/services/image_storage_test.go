package services

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pokefolio/pokefolio/internal/apperr"
)

// Minimal valid file headers, enough for content sniffing.
var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}
	webpHeader = append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 8)...)
)

func TestSaveImageTypes(t *testing.T) {
	svc := NewImageStorageService(t.TempDir())

	tests := []struct {
		name    string
		data    []byte
		wantExt string
	}{
		{"png", pngHeader, ".png"},
		{"jpeg", jpegHeader, ".jpg"},
		{"webp", webpHeader, ".webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename, err := svc.SaveImage(tt.data)
			if err != nil {
				t.Fatalf("SaveImage failed: %v", err)
			}
			if !strings.HasSuffix(filename, tt.wantExt) {
				t.Errorf("filename = %q, want %s extension", filename, tt.wantExt)
			}

			stored, err := os.ReadFile(filepath.Join(svc.GetStorageDir(), filename))
			if err != nil {
				t.Fatalf("stored file unreadable: %v", err)
			}
			if !bytes.Equal(stored, tt.data) {
				t.Error("stored bytes differ from the upload")
			}
		})
	}
}

func TestSaveImageRejections(t *testing.T) {
	svc := NewImageStorageService(t.TempDir())

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"oversized", make([]byte, MaxImageSize+1)},
		{"not an image", []byte("<html><body>hi</body></html>")},
		{"gif not allowed", []byte("GIF89a\x00\x00\x00\x00\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SaveImage(tt.data); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	svc := NewImageStorageService(t.TempDir())

	if got := svc.PublicURL("abc.png"); got != "/images/uploads/abc.png" {
		t.Errorf("PublicURL = %q, want /images/uploads/abc.png", got)
	}
}
