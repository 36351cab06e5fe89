package service

import (
	"context"
	"testing"
	"time"

	"yatube/internal/database"
	"yatube/internal/events"
	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/repository"

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

type testEnv struct {
	db       *gorm.DB
	posts    repository.PostRepository
	comments repository.CommentRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	media    *media.Storage
	events   *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testEnv{
		db:       db,
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		groups:   repository.NewGroupRepository(db),
		users:    repository.NewUserRepository(db),
		follows:  repository.NewFollowRepository(db),
		media:    media.NewStorage(afero.NewMemMapFs(), 1<<20),
		events:   &events.Recorder{},
	}
}

func (e *testEnv) postService() *PostService {
	return NewPostService(e.posts, e.comments, e.groups, e.media, e.events, nil)
}

func (e *testEnv) feedService() *FeedService {
	return NewFeedService(e.posts, e.groups, e.users, e.follows, 10)
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "hash"}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) group(t *testing.T, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, e.db.Create(g).Error)
	return g
}

// seedPosts inserts n posts one second apart so the last one is the newest.
func (e *testEnv) seedPosts(t *testing.T, n int, author *models.User, group *models.Group) []models.Post {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		p := models.Post{Text: "text", AuthorID: author.ID, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(t, e.db.Omit("Author", "Group").Create(&p).Error)
		out = append(out, p)
	}
	return out
}

// postRepoStub lets a test replace individual repository calls.
type postRepoStub struct {
	repository.PostRepository
	getByIDFn func(ctx context.Context, id uint) (*models.Post, error)
	createFn  func(ctx context.Context, post *models.Post) error
	updateFn  func(ctx context.Context, post *models.Post) error
}

func (s postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return s.PostRepository.GetByID(ctx, id)
}

func (s postRepoStub) Create(ctx context.Context, post *models.Post) error {
	if s.createFn != nil {
		return s.createFn(ctx, post)
	}
	return s.PostRepository.Create(ctx, post)
}

func (s postRepoStub) Update(ctx context.Context, post *models.Post) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, post)
	}
	return s.PostRepository.Update(ctx, post)
}

type followRepoStub struct {
	repository.FollowRepository
	createFn func(ctx context.Context, userID, authorID uint) (bool, error)
}

func (s followRepoStub) Create(ctx context.Context, userID, authorID uint) (bool, error) {
	if s.createFn != nil {
		return s.createFn(ctx, userID, authorID)
	}
	return s.FollowRepository.Create(ctx, userID, authorID)
}

func repositoryAll() repository.PostFilter {
	return repository.PostFilter{}
}
