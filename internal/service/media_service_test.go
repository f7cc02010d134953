package service

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"campusnest/internal/models"
	"campusnest/internal/storage"
	"campusnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/webp"
)

func newMediaService(t *testing.T, maxBytes int64) (*MediaService, string) {
	t.Helper()
	root := t.TempDir()
	return NewMediaService(storage.NewLocalStore(root, "http://localhost:8375/uploads"), maxBytes), root
}

func storedPath(t *testing.T, root, url string) string {
	t.Helper()
	rel, ok := strings.CutPrefix(url, "http://localhost:8375/uploads/")
	require.True(t, ok, url)
	return filepath.Join(root, filepath.FromSlash(rel))
}

func TestMediaService_ImageIsResizedToWebP(t *testing.T) {
	svc, root := newMediaService(t, 25<<20)

	url, err := svc.Upload(context.Background(), UploadMediaInput{
		Bucket:      storage.BucketListings,
		Filename:    "room.png",
		ContentType: "image/png",
		Content:     testutil.PNG(t, 2400, 1200),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".webp"), url)

	data, err := os.ReadFile(storedPath(t, root, url))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestMediaService_SmallImageKeepsSize(t *testing.T) {
	svc, root := newMediaService(t, 25<<20)

	url, err := svc.Upload(context.Background(), UploadMediaInput{
		Bucket:  storage.BucketAvatars,
		Content: testutil.PNG(t, 64, 48),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(storedPath(t, root, url))
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)
}

func TestMediaService_VideoPassThrough(t *testing.T) {
	svc, root := newMediaService(t, 25<<20)
	// Minimal ISO BMFF header; sniffed as video/mp4.
	mp4 := append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypmp42\x00\x00\x00\x00mp42isom")...)

	url, err := svc.Upload(context.Background(), UploadMediaInput{
		Bucket:      storage.BucketListings,
		ContentType: "video/mp4",
		Content:     mp4,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".mp4"), url)

	data, err := os.ReadFile(storedPath(t, root, url))
	require.NoError(t, err)
	assert.Equal(t, mp4, data)

	_, err = svc.Upload(context.Background(), UploadMediaInput{Bucket: storage.BucketAvatars, Content: mp4})
	assert.Equal(t, models.CodeValidation, appCode(err))
}

func TestMediaService_Rejections(t *testing.T) {
	svc, _ := newMediaService(t, 1024)
	ctx := context.Background()

	tests := []struct {
		name string
		in   UploadMediaInput
	}{
		{"unknown bucket", UploadMediaInput{Bucket: "docs", Content: []byte("x")}},
		{"empty", UploadMediaInput{Bucket: storage.BucketAvatars}},
		{"too large", UploadMediaInput{Bucket: storage.BucketAvatars, Content: bytes.Repeat([]byte("a"), 2048)}},
		{"not media", UploadMediaInput{Bucket: storage.BucketAvatars, Content: []byte("hello, plain text")}},
		{"corrupt png", UploadMediaInput{Bucket: storage.BucketAvatars, Content: append([]byte("\x89PNG\r\n\x1a\n"), 0, 1, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.in)
			assert.Equal(t, models.CodeValidation, appCode(err))
		})
	}
}
