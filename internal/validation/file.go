package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// AvatarConstraints are the rules for profile avatars.
var AvatarConstraints = FileConstraints{
	AllowedMimeTypes: map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	},
	AllowedExtensions: map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
	},
	MaxSize: 5 << 20, // 5MB
}

// ValidateFile checks an upload against constraints and returns the MIME type
// sniffed from its content. The declared Content-Type header is ignored.
func ValidateFile(header *multipart.FileHeader, constraints FileConstraints) (string, error) {
	if header.Size > constraints.MaxSize {
		return "", fmt.Errorf("file too large: maximum size is %d MB", constraints.MaxSize/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constraints.AllowedExtensions[ext] {
		return "", fmt.Errorf("invalid file extension: %q", ext)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return sniff(file, constraints)
}

func sniff(r io.Reader, constraints FileConstraints) (string, error) {
	// http.DetectContentType looks at most at 512 bytes
	buffer := make([]byte, 512)
	n, err := io.ReadFull(r, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	if !constraints.AllowedMimeTypes[detected] {
		return "", fmt.Errorf("invalid file type (detected: %s)", detected)
	}

	return detected, nil
}
