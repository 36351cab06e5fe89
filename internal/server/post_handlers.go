package server

import (
	"log/slog"

	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Index lists every post, newest first.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.feedService.Index(c.UserContext(), c.Query("page"))
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, "posts/index", fiber.Map{
		"title":    "Latest updates",
		"page_obj": page,
	})
}

// GroupPosts lists the posts of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	page, err := s.feedService.Group(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, "posts/group_list", fiber.Map{
		"title":    page.Group.Title,
		"group":    page.Group,
		"page_obj": &page.PostPage,
	})
}

// Profile lists an author's posts with follow controls for the viewer.
func (s *Server) Profile(c *fiber.Ctx) error {
	page, err := s.feedService.Profile(c.UserContext(), c.Params("username"), currentUserID(c), c.Query("page"))
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, "posts/profile", fiber.Map{
		"title":           page.Author.FullName(),
		"author":          page.Author,
		"page_obj":        &page.PostPage,
		"post_count":      page.PostCount,
		"following":       page.Following,
		"can_follow":      page.CanFollow,
		"follower_count":  page.FollowerCount,
		"following_count": page.FollowingCount,
	})
}

// PostDetail shows one post and its comments.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	detail, err := s.postService.Detail(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, "posts/post_detail", fiber.Map{
		"title":             detail.Post.String(),
		"post":              detail.Post,
		"comments":          detail.Comments,
		"author_post_count": detail.PostCount,
	})
}

// postFormPage gathers what the create/edit template needs.
func (s *Server) postFormPage(c *fiber.Ctx, form validation.PostForm, post *models.Post) (fiber.Map, error) {
	groups, err := s.postService.GroupChoices(c.UserContext())
	if err != nil {
		return nil, err
	}
	data := fiber.Map{
		"title":  "New post",
		"form":   form,
		"groups": groups,
	}
	if post != nil {
		data["title"] = "Edit post"
		data["is_edit"] = true
		data["post_id"] = post.ID
		data["current_image"] = post.Image
	}
	return data, nil
}

func (s *Server) CreatePostPage(c *fiber.Ctx) error {
	data, err := s.postFormPage(c, validation.PostForm{}, nil)
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, "posts/create_post", data)
}

// CreatePost publishes a post by the viewer and sends them to their profile.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var form validation.PostForm
	if err := c.BodyParser(&form); err != nil {
		return s.respondError(c, models.NewValidationError("invalid form data"))
	}

	upload, closeUpload, err := formUpload(c, "image")
	if err != nil {
		return s.respondError(c, err)
	}
	defer closeUpload()

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Form:     form,
		Image:    upload,
	})
	if err != nil {
		data, derr := s.postFormPage(c, form, nil)
		if derr != nil {
			return s.respondError(c, derr)
		}
		return s.renderForm(c, "posts/create_post", data, err)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusCreated).JSON(post)
	}
	return c.Redirect(profileURL(currentUser(c).Username), fiber.StatusFound)
}

// EditPostPage shows the edit form to the post's author. Everyone else is
// sent back to the post.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	post, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	if post.AuthorID != currentUserID(c) {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}

	form := validation.PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = fmtID(*post.GroupID)
	}
	data, err := s.postFormPage(c, form, post)
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, "posts/create_post", data)
}

func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}

	// Someone else's post: leave before reading the body.
	existing, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	if existing.AuthorID != currentUserID(c) {
		return c.Redirect(postURL(id), fiber.StatusFound)
	}

	var form validation.PostForm
	if err := c.BodyParser(&form); err != nil {
		return s.respondError(c, models.NewValidationError("invalid form data"))
	}

	upload, closeUpload, err := formUpload(c, "image")
	if err != nil {
		return s.respondError(c, err)
	}
	defer closeUpload()

	post, err := s.postService.Update(c.UserContext(), service.UpdatePostInput{
		PostID:   id,
		EditorID: currentUserID(c),
		Form:     form,
		Image:    upload,
	})
	switch {
	case models.HasCode(err, models.CodeForbidden):
		return c.Redirect(postURL(id), fiber.StatusFound)
	case models.IsValidation(err):
		current, gerr := s.postService.Get(c.UserContext(), id)
		if gerr != nil {
			return s.respondError(c, gerr)
		}
		data, derr := s.postFormPage(c, form, current)
		if derr != nil {
			return s.respondError(c, derr)
		}
		return s.renderForm(c, "posts/create_post", data, err)
	case err != nil:
		return s.respondError(c, err)
	}

	if wantsJSON(c) {
		return c.JSON(post)
	}
	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

// AddComment stores a comment and returns to the post. A blank comment is
// dropped without telling the browser.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}

	var form validation.CommentForm
	if err := c.BodyParser(&form); err != nil {
		return s.respondError(c, models.NewValidationError("invalid form data"))
	}

	comment, err := s.commentService.Add(c.UserContext(), currentUserID(c), id, form)
	switch {
	case models.IsValidation(err):
		if wantsJSON(c) {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
		middleware.Logger.DebugContext(c.UserContext(), "comment rejected",
			slog.Uint64("post_id", uint64(id)), slog.String("error", err.Error()))
	case err != nil:
		return s.respondError(c, err)
	case wantsJSON(c):
		return c.Status(fiber.StatusCreated).JSON(comment)
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

// formUpload returns the uploaded file in field, or nil when none was sent.
// The returned func closes the file and is always safe to call.
func formUpload(c *fiber.Ctx, field string) (*media.Upload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Size == 0 || fh.Filename == "" {
		return nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &media.Upload{Filename: fh.Filename, Content: f}, func() { _ = f.Close() }, nil
}
