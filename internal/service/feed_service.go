package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedService builds the paginated post listings: index, group, profile and follow feed.
type FeedService struct {
	posts   repository.PostRepository
	groups  repository.GroupRepository
	users   repository.UserRepository
	follows repository.FollowRepository
	perPage int
}

// PostPage is one page of posts plus its pagination metadata.
type PostPage struct {
	Posts []models.Post   `json:"posts"`
	Page  pagination.Page `json:"page"`
}

// GroupPage is a group listing.
type GroupPage struct {
	Group models.Group `json:"group"`
	PostPage
}

// ProfilePage is an author's listing as seen by a particular viewer.
type ProfilePage struct {
	Author         models.User `json:"author"`
	PostCount      int64       `json:"post_count"`
	FollowerCount  int64       `json:"follower_count"`
	FollowingCount int64       `json:"following_count"`
	// Following is true when a signed-in viewer other than the author follows them.
	Following bool `json:"following"`
	// CanFollow is false for anonymous viewers and for the author themself.
	CanFollow bool `json:"can_follow"`
	PostPage
}

func NewFeedService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	perPage int,
) *FeedService {
	if perPage <= 0 {
		perPage = pagination.PageSize
	}
	return &FeedService{posts: posts, groups: groups, users: users, follows: follows, perPage: perPage}
}

func (s *FeedService) page(ctx context.Context, filter repository.PostFilter, rawPage string) (_ PostPage, err error) {
	ctx, end := observability.StartSpan(ctx, "FeedService", "page",
		attribute.Int("filter.author_id", int(filter.AuthorID)),
		attribute.Int("filter.group_id", int(filter.GroupID)),
		attribute.Int("filter.follower_id", int(filter.FollowerID)),
	)
	defer func() { end(err) }()

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return PostPage{}, err
	}
	page := pagination.New(total, rawPage, s.perPage)
	if total == 0 {
		return PostPage{Posts: []models.Post{}, Page: page}, nil
	}

	posts, err := s.posts.List(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return PostPage{}, err
	}
	return PostPage{Posts: posts, Page: page}, nil
}

// Index lists every post, newest first.
func (s *FeedService) Index(ctx context.Context, rawPage string) (*PostPage, error) {
	p, err := s.page(ctx, repository.PostFilter{}, rawPage)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Group lists the posts of the group with the given slug.
func (s *FeedService) Group(ctx context.Context, slug, rawPage string) (*GroupPage, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	p, err := s.page(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &GroupPage{Group: *group, PostPage: p}, nil
}

// Profile lists an author's posts. viewerID is 0 for anonymous visitors.
func (s *FeedService) Profile(ctx context.Context, username string, viewerID uint, rawPage string) (*ProfilePage, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p, err := s.page(ctx, repository.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, err
	}

	out := &ProfilePage{
		Author:    *author,
		PostCount: p.Page.Total,
		CanFollow: viewerID != 0 && viewerID != author.ID,
		PostPage:  p,
	}
	if out.CanFollow {
		if out.Following, err = s.follows.Exists(ctx, viewerID, author.ID); err != nil {
			return nil, err
		}
	}
	if out.FollowerCount, err = s.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if out.FollowingCount, err = s.follows.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	return out, nil
}

// FollowFeed lists posts by the authors viewerID follows.
func (s *FeedService) FollowFeed(ctx context.Context, viewerID uint, rawPage string) (*PostPage, error) {
	if viewerID == 0 {
		return nil, models.NewUnauthorizedError("sign in to see your feed")
	}
	p, err := s.page(ctx, repository.PostFilter{FollowerID: viewerID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
