package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"strings"

	"campusnest/internal/models"
	"campusnest/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	MediaMaxDimension = 1600
	MediaWebPQuality  = 80
)

var allowedVideoTypes = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
}

// UploadMediaInput is one uploaded file.
type UploadMediaInput struct {
	Bucket      string
	Filename    string
	ContentType string
	Content     []byte
}

// MediaService normalizes uploads and writes them to object storage.
type MediaService struct {
	store    storage.ObjectStore
	maxBytes int64
}

// NewMediaService returns a MediaService that rejects uploads above maxBytes.
func NewMediaService(store storage.ObjectStore, maxBytes int64) *MediaService {
	return &MediaService{store: store, maxBytes: maxBytes}
}

// Upload stores the file and returns its public URL. Images are re-encoded as
// WebP no larger than 1600px on either side. Videos are stored unchanged and
// only accepted in the listings bucket.
func (s *MediaService) Upload(ctx context.Context, in UploadMediaInput) (string, error) {
	if !storage.ValidBucket(in.Bucket) {
		return "", models.NewValidationError(fmt.Sprintf("Unknown bucket %q", in.Bucket))
	}
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if s.maxBytes > 0 && int64(len(in.Content)) > s.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes>>20))
	}

	detected := normalizeContentType(http.DetectContentType(in.Content))
	if ext, ok := videoExtension(detected, in.ContentType); ok {
		if in.Bucket != storage.BucketListings {
			return "", models.NewValidationError("Videos can only be attached to listings")
		}
		return s.put(ctx, in.Bucket, uuid.NewString()+ext, in.Content)
	}

	if !strings.HasPrefix(detected, "image/") {
		return "", models.NewValidationError("Unsupported file type")
	}
	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resizeToFit(decoded, MediaMaxDimension), &webp.Options{Quality: MediaWebPQuality}); err != nil {
		return "", models.NewInternalError(err)
	}
	return s.put(ctx, in.Bucket, uuid.NewString()+".webp", buf.Bytes())
}

func (s *MediaService) put(ctx context.Context, bucket, name string, data []byte) (string, error) {
	url, err := s.store.Put(ctx, bucket, name, bytes.NewReader(data))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return url, nil
}

// videoExtension accepts a video when either the sniffed or the declared
// type is a known video type. Sniffing misses some QuickTime files.
func videoExtension(detected, declared string) (string, bool) {
	if ext, ok := allowedVideoTypes[detected]; ok {
		return ext, true
	}
	if detected == "application/octet-stream" {
		ext, ok := allowedVideoTypes[normalizeContentType(declared)]
		return ext, ok
	}
	return "", false
}

func normalizeContentType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// resizeToFit scales src down so neither side exceeds maxSide.
func resizeToFit(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	newW, newH := maxSide, maxSide
	if w >= h {
		newH = max(1, h*maxSide/w)
	} else {
		newW = max(1, w*maxSide/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
