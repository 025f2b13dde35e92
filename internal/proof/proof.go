// Package proof carries the photo attached to a QR payment or a shipment receipt.
// The engine never inspects the bytes; it only passes them through to the remote API.
package proof

import (
	"path/filepath"
	"strings"

	"github.com/esteh-pos/stock-console/internal/apperr"
)

// MaxSize mirrors the upload limit of the remote API.
const MaxSize = 5 << 20

// File is an uploaded image.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Validate rejects empty, oversized or non-image files.
func (f *File) Validate() error {
	if f == nil || len(f.Data) == 0 {
		return apperr.Validationf("proof image is empty")
	}
	if len(f.Data) > MaxSize {
		return apperr.Validationf("proof image is %d bytes, limit is %d", len(f.Data), MaxSize)
	}
	if f.ContentType != "" && !strings.HasPrefix(f.ContentType, "image/") {
		return apperr.Validationf("proof must be an image, got %s", f.ContentType)
	}
	return nil
}

// FileName returns a usable multipart file name.
func (f *File) FileName() string {
	if f.Name == "" {
		return "bukti.jpg"
	}
	return filepath.Base(f.Name)
}
