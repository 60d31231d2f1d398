package validate

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"chat-backend/internal/apperr"
)

const (
	MaxIconWidth  = 70
	MaxIconHeight = 70
)

// ValidImageExtensions lists the extensions accepted for channel images.
var ValidImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// Image checks that r holds a decodable image. A nil reader is accepted.
func Image(r io.Reader) error {
	if r == nil {
		return nil
	}
	if _, _, err := image.DecodeConfig(r); err != nil {
		return apperr.Validation("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	return nil
}

// IconImageSize rejects icons larger than 70x70 pixels. A nil reader means no
// icon and is accepted.
func IconImageSize(r io.Reader) error {
	if r == nil {
		return nil
	}
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return apperr.Validation("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if cfg.Width > MaxIconWidth || cfg.Height > MaxIconHeight {
		return apperr.Validation("Icon image should be less than or equal to %dx%d pixels - size you uploaded : %dx%d.",
			MaxIconWidth, MaxIconHeight, cfg.Width, cfg.Height)
	}
	return nil
}

// ImageFileExtension rejects file names whose extension is not an allowed
// image extension. The comparison is case-insensitive.
func ImageFileExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, valid := range ValidImageExtensions {
		if ext == valid {
			return nil
		}
	}
	return apperr.Validation("Unsupported file extension. Only %s are allowed.", strings.Join(ValidImageExtensions, ", "))
}
