package server

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!Passw0rd"

func sessionFrom(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c.Value
		}
	}
	t.Fatalf("response sets no %s cookie", sessionCookie)
	return ""
}

func TestSignupLoginLogout(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, "/auth/signup/", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = ts.postForm(t, "/auth/signup/", "", url.Values{
		"username": {"leo"},
		"email":    {"leo@example.com"},
		"password": {testPassword},
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.NotEmpty(t, sessionFrom(t, resp))

	t.Run("wrong password is rerendered", func(t *testing.T) {
		resp := ts.postForm(t, "/auth/login/", "", url.Values{"username": {"leo"}, "password": {"nope"}})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Please enter a correct username and password.")
	})

	t.Run("login follows a local next", func(t *testing.T) {
		resp := ts.postForm(t, "/auth/login/", "", url.Values{
			"username": {"leo"},
			"password": {testPassword},
			"next":     {"/follow/"},
		})
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/follow/", resp.Header.Get("Location"))
	})

	t.Run("login ignores a foreign next", func(t *testing.T) {
		resp := ts.postForm(t, "/auth/login/", "", url.Values{
			"username": {"leo"},
			"password": {testPassword},
			"next":     {"https://evil.example/"},
		})
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		resp := ts.postForm(t, "/auth/login/", "", url.Values{"username": {"leo"}, "password": {testPassword}})
		token := sessionFrom(t, resp)

		resp = ts.get(t, "/create/", token)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp = ts.get(t, "/auth/logout/", token)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)

		resp = ts.get(t, "/create/", token)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/auth/login/?next=/create/", resp.Header.Get("Location"))
	})
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.user(t, "taken")

	resp := ts.postForm(t, "/auth/signup/", "", url.Values{
		"username": {"taken"},
		"email":    {"x@example.com"},
		"password": {testPassword},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "already exists")

	resp = ts.do(t, request{
		method:      http.MethodPost,
		target:      "/auth/signup/",
		body:        strings.NewReader(`{"username":"ann","email":"bad","password":"short"}`),
		contentType: fiber.MIMEApplicationJSON,
		json:        true,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBearerTokenIsAccepted(t *testing.T) {
	ts := newTestServer(t)
	leo := ts.user(t, "leo")

	req := request{target: "/create/", json: true}
	resp := ts.do(t, req)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	httpReq, _ := http.NewRequest(http.MethodGet, "/create/", nil)
	httpReq.Header.Set("Authorization", "Bearer "+ts.token(t, leo))
	httpReq.Header.Set("Accept", "application/json")
	resp, err := ts.app.Test(httpReq, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
