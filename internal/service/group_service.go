package service

import (
	"context"
	"log/slog"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"github.com/redis/go-redis/v9"
)

// GroupService creates communities. Groups are managed by operators, so
// nothing in the web UI calls Create.
type GroupService struct {
	groups repository.GroupRepository
	rdb    *redis.Client
}

func NewGroupService(groups repository.GroupRepository, rdb *redis.Client) *GroupService {
	return &GroupService{groups: groups, rdb: rdb}
}

// Create validates form and stores the group.
func (s *GroupService) Create(ctx context.Context, form validation.GroupForm) (*models.Group, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Slug = strings.TrimSpace(form.Slug)
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	group := &models.Group{Title: form.Title, Slug: form.Slug, Description: form.Description}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, s.rdb, cache.GroupChoicesKey)
	middleware.Logger.InfoContext(ctx, "group created", slog.String("slug", group.Slug))
	return group, nil
}

// List returns every group ordered by title.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}
