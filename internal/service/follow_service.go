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
)

// FollowService maintains the follow graph between users.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	events  events.Publisher
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, publisher events.Publisher) *FollowService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &FollowService{follows: follows, users: users, events: publisher}
}

// Follow subscribes viewerID to the author named username and returns the
// author. Following oneself or someone already followed changes nothing.
func (s *FollowService) Follow(ctx context.Context, viewerID uint, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == viewerID {
		return author, nil
	}

	created, err := s.follows.Create(ctx, viewerID, author.ID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.Follows.WithLabelValues("follow").Inc()
		middleware.Logger.InfoContext(ctx, "follow created", slog.Uint64("author_id", uint64(author.ID)))
		publish(ctx, s.events, events.Event{
			Type:       events.FollowCreated,
			OccurredAt: time.Now(),
			ActorID:    viewerID,
			AuthorID:   author.ID,
		})
	}
	return author, nil
}

// Unfollow removes the subscription. It is NOT_FOUND when the author does not
// exist or viewerID was not following them.
func (s *FollowService) Unfollow(ctx context.Context, viewerID uint, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	deleted, err := s.follows.Delete(ctx, viewerID, author.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, models.NewNotFoundError("follow", username)
	}

	observability.Follows.WithLabelValues("unfollow").Inc()
	middleware.Logger.InfoContext(ctx, "follow deleted", slog.Uint64("author_id", uint64(author.ID)))
	publish(ctx, s.events, events.Event{
		Type:       events.FollowDeleted,
		OccurredAt: time.Now(),
		ActorID:    viewerID,
		AuthorID:   author.ID,
	})
	return author, nil
}
