package service

import (
	"context"
	"log/slog"
	"time"

	"yatube/internal/events"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	events   events.Publisher
	now      func() time.Time
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, publisher events.Publisher) *CommentService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &CommentService{comments: comments, posts: posts, events: publisher, now: time.Now}
}

// Add stores a comment by authorID on postID. A missing post is NOT_FOUND;
// an empty text is a validation error and nothing is stored.
func (s *CommentService) Add(ctx context.Context, authorID, postID uint, form validation.CommentForm) (*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:      form.Text,
		PostID:    post.ID,
		AuthorID:  authorID,
		CreatedAt: s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	observability.CommentsCreated.Inc()
	middleware.Logger.InfoContext(ctx, "comment added",
		slog.Uint64("comment_id", uint64(comment.ID)),
		slog.Uint64("post_id", uint64(post.ID)))
	publish(ctx, s.events, events.Event{
		Type:       events.CommentCreated,
		OccurredAt: comment.CreatedAt,
		ActorID:    authorID,
		AuthorID:   post.AuthorID,
		PostID:     post.ID,
		CommentID:  comment.ID,
	})
	return comment, nil
}
