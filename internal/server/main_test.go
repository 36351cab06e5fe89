package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/events"
	"yatube/internal/media"
	"yatube/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// smallGIF is a 2x1 GIF image.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type testServer struct {
	*Server
	app    *fiber.App
	db     *gorm.DB
	redis  *miniredis.Miniredis
	media  *media.Storage
	events *events.Recorder
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8000",
		Env:            "test",
		FeatureFlags:   "index_cache=on,events=on",
		JWTSecret:      "test-secret-that-is-at-least-32-chars",
		JWTTTL:         time.Hour,
		LoginURL:       "/auth/login/",
		AllowedOrigins: "http://localhost:8000",
		IndexCacheTTL:  20 * time.Second,
		PostsPerPage:   10,
		MediaURL:       "/media/",
		MaxUploadMB:    1,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, testConfig())
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := media.NewStorage(afero.NewMemMapFs(), int64(cfg.MaxUploadMB)<<20)
	recorder := &events.Recorder{}

	s, err := NewServerWithDeps(cfg, Deps{DB: db, Redis: rdb, Media: store, Events: recorder})
	require.NoError(t, err)

	return &testServer{Server: s, app: s.App(), db: db, redis: mr, media: store, events: recorder}
}

func (ts *testServer) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "hash"}
	require.NoError(t, ts.db.Create(u).Error)
	return u
}

func (ts *testServer) group(t *testing.T, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, ts.db.Create(g).Error)
	return g
}

func (ts *testServer) post(t *testing.T, author *models.User, text string, group *models.Group) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID, CreatedAt: time.Now()}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, ts.db.Omit("Author", "Group").Create(p).Error)
	return p
}

// token signs user in and returns their session token.
func (ts *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := ts.authService.IssueToken(user)
	require.NoError(t, err)
	return token
}

type request struct {
	method      string
	target      string
	body        io.Reader
	contentType string
	token       string
	json        bool
}

func (ts *testServer) do(t *testing.T, r request) *http.Response {
	t.Helper()
	if r.method == "" {
		r.method = http.MethodGet
	}
	req := httptest.NewRequest(r.method, r.target, r.body)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: r.token})
	}
	if r.json {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "text/html")
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (ts *testServer) get(t *testing.T, target, token string) *http.Response {
	t.Helper()
	return ts.do(t, request{target: target, token: token})
}

func (ts *testServer) postForm(t *testing.T, target, token string, values url.Values) *http.Response {
	t.Helper()
	return ts.do(t, request{
		method:      http.MethodPost,
		target:      target,
		body:        strings.NewReader(values.Encode()),
		contentType: fiber.MIMEApplicationForm,
		token:       token,
	})
}

// postMultipart submits fields plus an optional image named filename.
func (ts *testServer) postMultipart(t *testing.T, target, token string, fields map[string]string, filename string, image []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return ts.do(t, request{
		method:      http.MethodPost,
		target:      target,
		body:        &buf,
		contentType: w.FormDataContentType(),
		token:       token,
	})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// listing is the JSON shape of a paginated page.
type listing struct {
	PageObj struct {
		Posts []models.Post `json:"posts"`
		Page  struct {
			Number   int   `json:"number"`
			NumPages int   `json:"num_pages"`
			Total    int64 `json:"total"`
		} `json:"page"`
	} `json:"page_obj"`
}

func (ts *testServer) listing(t *testing.T, target, token string) listing {
	t.Helper()
	resp := ts.do(t, request{target: target, token: token, json: true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out listing
	decodeJSON(t, resp, &out)
	return out
}
