package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/events"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectedPagesRedirectAnonymousVisitors(t *testing.T) {
	ts := newTestServer(t)
	leo := ts.user(t, "leo")
	post := ts.post(t, leo, "hello", nil)

	tests := []struct {
		method string
		target string
		want   string
	}{
		{http.MethodGet, "/create/", "/auth/login/?next=/create/"},
		{http.MethodGet, "/follow/", "/auth/login/?next=/follow/"},
		{http.MethodGet, fmt.Sprintf("/posts/%d/edit/", post.ID), fmt.Sprintf("/auth/login/?next=/posts/%d/edit/", post.ID)},
		{http.MethodPost, fmt.Sprintf("/posts/%d/comment/", post.ID), fmt.Sprintf("/auth/login/?next=/posts/%d/comment/", post.ID)},
		{http.MethodGet, "/profile/leo/follow/", "/auth/login/?next=/profile/leo/follow/"},
		{http.MethodGet, "/profile/leo/unfollow/", "/auth/login/?next=/profile/leo/unfollow/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			resp := ts.do(t, request{method: tt.method, target: tt.target})
			assert.Equal(t, fiber.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.want, resp.Header.Get("Location"))
		})
	}
}

func TestProtectedPagesRejectAnonymousAPIClients(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, request{target: "/create/", json: true})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPublicPagesRender(t *testing.T) {
	ts := newTestServer(t)
	leo := ts.user(t, "leo")
	cats := ts.group(t, "cats")
	post := ts.post(t, leo, "Cats are great", cats)

	for _, target := range []string{"/", "/group/cats/", "/profile/leo/", fmt.Sprintf("/posts/%d/", post.ID)} {
		t.Run(target, func(t *testing.T) {
			resp := ts.get(t, target, "")
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
			assert.Contains(t, readBody(t, resp), "Cats are great")
		})
	}
}

func TestMissingObjectsAre404(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{"/group/nope/", "/profile/ghost/", "/posts/999/", "/posts/abc/", "/no/such/page/"} {
		t.Run(target, func(t *testing.T) {
			resp := ts.get(t, target, "")
			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), "Page not found")
		})
	}

	resp := ts.do(t, request{target: "/posts/999/", json: true})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var body models.ErrorResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, models.CodeNotFound, body.Code)
}

func TestIndexPagination(t *testing.T) {
	ts := newTestServer(t)
	leo := ts.user(t, "leo")
	for i := 0; i < 13; i++ {
		ts.post(t, leo, fmt.Sprintf("post %d", i), nil)
	}

	first := ts.listing(t, "/", "")
	assert.Len(t, first.PageObj.Posts, 10)
	assert.Equal(t, 2, first.PageObj.Page.NumPages)
	assert.Equal(t, "post 12", first.PageObj.Posts[0].Text)

	second := ts.listing(t, "/?page=2", "")
	assert.Len(t, second.PageObj.Posts, 3)
	assert.Equal(t, "post 0", second.PageObj.Posts[2].Text)
}

func TestCreatePost(t *testing.T) {
	ts := newTestServer(t)
	leo := ts.user(t, "leo")
	cats := ts.group(t, "cats")
	token := ts.token(t, leo)

	resp := ts.get(t, "/create/", token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Group cats")

	resp = ts.postMultipart(t, "/create/", token, map[string]string{
		"text":  "Look at this",
		"group": fmt.Sprint(cats.ID),
	}, "small.gif", smallGIF)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))

	var post models.Post
	require.NoError(t, ts.db.First(&post).Error)
	assert.Equal(t, "Look at this", post.Text)
	assert.Equal(t, "posts/small.gif", post.Image)
	assert.Equal(t, leo.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, cats.ID, *post.GroupID)
	assert.Equal(t, []string{events.PostCreated}, ts.events.Types())

	img := ts.get(t, "/media/posts/small.gif", "")
	require.Equal(t, fiber.StatusOK, img.StatusCode)
	assert.Equal(t, string(smallGIF), readBody(t, img))
}

func TestCreatePostInvalidFormIsRerendered(t *testing.T) {
	ts := newTestServer(t)
	leo := ts.user(t, "leo")
	token := ts.token(t, leo)

	resp := ts.postMultipart(t, "/create/", token, map[string]string{"text": "   ", "group": "77"}, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "Select a valid choice.")

	resp = ts.postMultipart(t, "/create/", token, map[string]string{"text": "hi"}, "notes.gif", []byte("not an image"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Upload a valid image.")

	var count int64
	require.NoError(t, ts.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, ts.events.Events())
}

func TestEditPost(t *testing.T) {
	ts := newTestServer(t)
	leo := ts.user(t, "leo")
	ann := ts.user(t, "ann")
	cats := ts.group(t, "cats")
	dogs := ts.group(t, "dogs")
	post := ts.post(t, leo, "original", cats)
	editURL := fmt.Sprintf("/posts/%d/edit/", post.ID)
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	t.Run("non owner is sent to the post", func(t *testing.T) {
		annToken := ts.token(t, ann)

		resp := ts.get(t, editURL, annToken)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, detailURL, resp.Header.Get("Location"))

		resp = ts.postForm(t, editURL, annToken, url.Values{"text": {"hijacked"}})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, detailURL, resp.Header.Get("Location"))

		resp = ts.do(t, request{
			method:      http.MethodPost,
			target:      editURL,
			token:       annToken,
			contentType: "multipart/form-data; boundary=xyz",
			body:        strings.NewReader("--xyz\r\nnot a part header"),
		})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, detailURL, resp.Header.Get("Location"))

		var stored models.Post
		require.NoError(t, ts.db.First(&stored, post.ID).Error)
		assert.Equal(t, "original", stored.Text)
	})

	t.Run("owner moves the post to another group", func(t *testing.T) {
		token := ts.token(t, leo)

		resp := ts.get(t, editURL, token)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "original")

		resp = ts.postForm(t, editURL, token, url.Values{"text": {"edited"}, "group": {fmt.Sprint(dogs.ID)}})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, detailURL, resp.Header.Get("Location"))

		assert.Empty(t, ts.listing(t, "/group/cats/", "").PageObj.Posts)
		moved := ts.listing(t, "/group/dogs/", "").PageObj.Posts
		require.Len(t, moved, 1)
		assert.Equal(t, "edited", moved[0].Text)
	})

	t.Run("invalid edit is rerendered", func(t *testing.T) {
		resp := ts.postForm(t, editURL, ts.token(t, leo), url.Values{"text": {""}})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "This field is required.")
	})

	t.Run("missing post", func(t *testing.T) {
		resp := ts.get(t, "/posts/999/edit/", ts.token(t, leo))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestAddComment(t *testing.T) {
	ts := newTestServer(t)
	leo := ts.user(t, "leo")
	ann := ts.user(t, "ann")
	post := ts.post(t, leo, "hello", nil)
	token := ts.token(t, ann)
	target := fmt.Sprintf("/posts/%d/comment/", post.ID)
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	resp := ts.postForm(t, target, token, url.Values{"text": {"   "}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, detailURL, resp.Header.Get("Location"))

	var count int64
	require.NoError(t, ts.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)

	resp = ts.postForm(t, target, token, url.Values{"text": {"Nice post"}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, detailURL, resp.Header.Get("Location"))

	detail := ts.get(t, detailURL, "")
	require.Equal(t, fiber.StatusOK, detail.StatusCode)
	assert.Contains(t, readBody(t, detail), "Nice post")

	resp = ts.postForm(t, "/posts/999/comment/", token, url.Values{"text": {"hello"}})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
