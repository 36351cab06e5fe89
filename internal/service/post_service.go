package service

import (
	"context"
	"log/slog"
	"time"

	"yatube/internal/cache"
	"yatube/internal/events"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

const invalidGroupMessage = "Select a valid choice. That choice is not one of the available choices."

// ImageStore persists uploaded post images.
type ImageStore interface {
	SaveImage(ctx context.Context, dir string, up media.Upload) (string, error)
	Delete(name string) error
}

// PostService handles post detail, creation and editing.
type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	groups   repository.GroupRepository
	images   ImageStore
	events   events.Publisher
	rdb      *redis.Client
	now      func() time.Time
}

// CreatePostInput is the create-post form plus the signed-in author.
type CreatePostInput struct {
	AuthorID uint
	Form     validation.PostForm
	Image    *media.Upload
}

// UpdatePostInput is the edit-post form submitted by EditorID.
type UpdatePostInput struct {
	PostID   uint
	EditorID uint
	Form     validation.PostForm
	Image    *media.Upload
}

// PostDetail is a post with its comments, newest first.
type PostDetail struct {
	Post      models.Post      `json:"post"`
	Comments  []models.Comment `json:"comments"`
	PostCount int64            `json:"author_post_count"`
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	groups repository.GroupRepository,
	images ImageStore,
	publisher events.Publisher,
	rdb *redis.Client,
) *PostService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &PostService{
		posts:    posts,
		comments: comments,
		groups:   groups,
		images:   images,
		events:   publisher,
		rdb:      rdb,
		now:      time.Now,
	}
}

// Get returns a post with its author and group.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// Detail returns a post, its comments and the author's total post count.
func (s *PostService) Detail(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: *post, Comments: comments, PostCount: count}, nil
}

// GroupChoices lists the groups a post can be filed under, ordered by title.
func (s *PostService) GroupChoices(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := cache.Aside(ctx, s.rdb, cache.GroupChoicesKey, &groups, cache.GroupChoicesTTL, func() error {
		var err error
		groups, err = s.groups.List(ctx)
		return err
	})
	return groups, err
}

// Create validates the form and stores a new post by in.AuthorID.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (_ *models.Post, err error) {
	ctx, end := observability.StartSpan(ctx, "PostService", "Create",
		attribute.Int("author_id", int(in.AuthorID)))
	defer func() { end(err) }()

	image, err := s.clean(ctx, in.Form, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:      in.Form.Text,
		AuthorID:  in.AuthorID,
		GroupID:   in.Form.GroupID(),
		Image:     image,
		CreatedAt: s.now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.discard(ctx, image)
		return nil, err
	}

	observability.PostsCreated.Inc()
	middleware.Logger.InfoContext(ctx, "post created",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.Uint64("author_id", uint64(post.AuthorID)))
	publish(ctx, s.events, events.Event{
		Type:       events.PostCreated,
		OccurredAt: post.CreatedAt,
		ActorID:    post.AuthorID,
		AuthorID:   post.AuthorID,
		PostID:     post.ID,
		GroupID:    post.GroupID,
	})
	return post, nil
}

// Update applies the edit form. Only the author may edit a post; anyone else
// gets a FORBIDDEN error and the post is left untouched.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (_ *models.Post, err error) {
	ctx, end := observability.StartSpan(ctx, "PostService", "Update",
		attribute.Int("post_id", int(in.PostID)))
	defer func() { end(err) }()

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.EditorID {
		return nil, models.NewForbiddenError("only the author can edit this post")
	}

	image, err := s.clean(ctx, in.Form, in.Image)
	if err != nil {
		return nil, err
	}

	post.Text = in.Form.Text
	post.GroupID = in.Form.GroupID()
	switch {
	case image != "":
		post.Image = image
	case in.Form.ClearImage:
		post.Image = ""
	}

	if err := s.posts.Update(ctx, post); err != nil {
		s.discard(ctx, image)
		return nil, err
	}

	observability.PostsEdited.Inc()
	middleware.Logger.InfoContext(ctx, "post edited", slog.Uint64("post_id", uint64(post.ID)))
	publish(ctx, s.events, events.Event{
		Type:       events.PostEdited,
		OccurredAt: s.now(),
		ActorID:    in.EditorID,
		AuthorID:   post.AuthorID,
		PostID:     post.ID,
		GroupID:    post.GroupID,
	})
	return post, nil
}

// clean validates form and, when every field is valid, stores the upload.
// All field problems are reported together.
func (s *PostService) clean(ctx context.Context, form validation.PostForm, upload *media.Upload) (string, error) {
	fields := map[string]string{}
	if err := mergeFields(fields, validation.Struct(form)); err != nil {
		return "", err
	}

	if groupID := form.GroupID(); groupID != nil {
		ok, err := s.groups.Exists(ctx, *groupID)
		if err != nil {
			return "", err
		}
		if !ok {
			fields["group"] = invalidGroupMessage
		}
	} else if _, bad := fields["group"]; !bad && form.Group != "" && form.Group != "0" {
		fields["group"] = invalidGroupMessage
	}

	if len(fields) > 0 {
		return "", models.NewFieldValidationError(fields)
	}
	if upload == nil || s.images == nil {
		return "", nil
	}

	name, err := s.images.SaveImage(ctx, media.PostsDir, *upload)
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *PostService) discard(ctx context.Context, image string) {
	if image == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(image); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove orphaned image",
			slog.String("image", image), slog.String("error", err.Error()))
	}
}
