package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"campusnest/internal/models"
	"campusnest/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestUploadMedia(t *testing.T) {
	ts := newTestServer(t)
	seller := testutil.CreateUser(t, ts.db, "seller", models.RoleSeller)
	token := ts.tokenFor(t, seller)

	tests := []struct {
		name           string
		bucket         string
		field          string
		content        []byte
		expectedStatus int
	}{
		{"Listing photo", "listings", "file", testutil.PNG(t, 64, 48), fiber.StatusCreated},
		{"Avatar", "avatars", "file", testutil.PNG(t, 32, 32), fiber.StatusCreated},
		{"Unknown bucket", "secrets", "file", testutil.PNG(t, 8, 8), fiber.StatusBadRequest},
		{"Not an image", "listings", "file", []byte("plain text, not media"), fiber.StatusBadRequest},
		{"Wrong field", "listings", "image", testutil.PNG(t, 8, 8), fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tt.field, "upload.png", tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/uploads/"+tt.bucket, body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := ts.app.Test(req, -1)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			require.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus != fiber.StatusCreated {
				return
			}
			url := decode[map[string]string](t, resp)["url"]
			require.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/"+tt.bucket+"/"), url)
			assert.True(t, strings.HasSuffix(url, ".webp"), url)

			stored := filepath.Join(ts.config.StorageDir, tt.bucket, filepath.Base(url))
			_, err = os.Stat(stored)
			assert.NoError(t, err)
		})
	}
}

func TestUploadMedia_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartUpload(t, "file", "upload.png", testutil.PNG(t, 8, 8))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/listings", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
