package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusnest/internal/config"
	"campusnest/internal/models"
	"campusnest/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-that-is-long-enough-for-hs256"

type testServer struct {
	*Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

// newTestServer builds the full app on SQLite and miniredis.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:           "test",
		JWTSecret:     testJWTSecret,
		StorageDir:    t.TempDir(),
		PublicBaseURL: "http://localhost:8080/uploads",
		FeatureFlags:  "realtime_chat=on",
	}
	db := testutil.NewSQLiteDB(t)

	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testServer{Server: s, app: s.NewApp(), db: db, mr: mr}
}

func (ts *testServer) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := ts.generateToken(u.ID)
	require.NoError(t, err)
	return token
}

func (ts *testServer) makeAdmin(t *testing.T, u *models.User) {
	t.Helper()
	require.NoError(t, ts.db.Model(u).Update("is_admin", true).Error)
}

// do sends a JSON request. body may be nil; token may be empty.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
