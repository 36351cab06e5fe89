// Package seed creates demo data for local development and tests.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var groupTitles = []string{
	"Books", "Music", "Travel", "Cooking", "Photography", "Gardening",
	"Cinema", "Hiking", "Programming", "History", "Science", "Pets",
}

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Yatube!Demo2026"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db       *gorm.DB
	opts     Options
	rnd      *rand.Rand
	password string
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed uses the clock.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, opts: opts, rnd: rand.New(rand.NewSource(seed)), password: string(hash)}, nil
}

// CreateUser persists a user with a unique username derived from a fake name.
func (f *Factory) CreateUser(ctx context.Context, n int, overrides ...func(*models.User)) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, n))
	username = strings.NewReplacer(" ", "", "'", "").Replace(username)

	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: first,
		LastName:  last,
		Password:  f.password,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateGroup persists a group whose slug is unique within a run.
func (f *Factory) CreateGroup(ctx context.Context, n int) (*models.Group, error) {
	title := groupTitles[n%len(groupTitles)]
	group := &models.Group{
		Title:       title,
		Slug:        fmt.Sprintf("%s-%d", strings.ToLower(title), n),
		Description: gofakeit.Sentence(12),
	}
	if err := f.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// BuildPost constructs a post by author without persisting it. Roughly
// two thirds of posts land in a group when groups are given.
func (f *Factory) BuildPost(author *models.User, groups []models.Group) *models.Post {
	post := &models.Post{
		Text:      gofakeit.Paragraph(1, f.rnd.Intn(4)+1, 12, "\n\n"),
		AuthorID:  author.ID,
		CreatedAt: f.createdAt(),
	}
	if len(groups) > 0 && f.rnd.Intn(3) > 0 {
		id := groups[f.rnd.Intn(len(groups))].ID
		post.GroupID = &id
	}
	return post
}

// CreatePostsBatch persists posts in a single insert.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).CreateInBatches(posts, 100).Error
}

// CreateComment persists a comment on post by author.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		Text:      gofakeit.Sentence(f.rnd.Intn(15) + 3),
		PostID:    post.ID,
		AuthorID:  author.ID,
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rnd.Intn(48)+1) * time.Hour),
	}
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow makes user follow author. Self-follows are skipped.
func (f *Factory) CreateFollow(ctx context.Context, user, author *models.User) error {
	if user.ID == author.ID {
		return nil
	}
	return f.db.WithContext(ctx).Create(&models.Follow{UserID: user.ID, AuthorID: author.ID}).Error
}

func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute
	return time.Now().Add(-back)
}
