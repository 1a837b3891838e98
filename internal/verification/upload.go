package verification

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gkash/gkash_api/internal/apperr"
)

// MaxImageBytes bounds a single uploaded image.
const MaxImageBytes = 5 << 20

// ImageFromUpload reads a multipart file into an Image. Only JPEG and PNG
// images up to MaxImageBytes are accepted.
func ImageFromUpload(fh *multipart.FileHeader) (Image, error) {
	if fh == nil {
		return Image{}, apperr.Validation("image is required")
	}
	if fh.Size > MaxImageBytes {
		return Image{}, apperr.Validation(fmt.Sprintf("%s exceeds the %d MB limit", fh.Filename, MaxImageBytes>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return Image{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Image{}, apperr.Validation(fmt.Sprintf("%s is empty", fh.Filename))
	}
	if len(data) > MaxImageBytes {
		return Image{}, apperr.Validation(fmt.Sprintf("%s exceeds the %d MB limit", fh.Filename, MaxImageBytes>>20))
	}
	contentType := http.DetectContentType(data)
	switch contentType {
	case "image/jpeg", "image/png":
	default:
		return Image{}, apperr.Validation(fmt.Sprintf("%s must be a jpeg or png image", fh.Filename))
	}
	return Image{Data: data, ContentType: contentType, Filename: fh.Filename}, nil
}
