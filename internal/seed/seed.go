package seed

import (
	"context"
	"fmt"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// Options controls how much data Seed creates.
type Options struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	// FollowsPerUser is how many other authors each seeded user follows.
	FollowsPerUser int
	// MaxDays spreads post dates over this many days back from now.
	MaxDays  int
	Clean    bool
	RandSeed int64
}

// DefaultOptions is a small but browsable data set.
func DefaultOptions() Options {
	return Options{Users: 10, Groups: 4, Posts: 60, Comments: 120, FollowsPerUser: 3, MaxDays: 90}
}

// Result counts what Seed created.
type Result struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seed populates the database with fake users, groups, posts, comments and follows.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	middleware.Logger.InfoContext(ctx, "Starting database seeding",
		slog.Int("users", opts.Users),
		slog.Int("groups", opts.Groups),
		slog.Int("posts", opts.Posts),
	)

	if opts.Clean {
		if err := ClearAll(ctx, db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser(ctx, i)
		if err != nil {
			return res, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	res.Users = len(users)

	groups := make([]models.Group, 0, opts.Groups)
	for i := 0; i < opts.Groups; i++ {
		group, err := f.CreateGroup(ctx, i)
		if err != nil {
			return res, fmt.Errorf("create group: %w", err)
		}
		groups = append(groups, *group)
	}
	res.Groups = len(groups)

	if len(users) == 0 {
		middleware.Logger.InfoContext(ctx, "No users to author posts, seeding stopped early")
		return res, nil
	}

	posts := make([]*models.Post, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		posts = append(posts, f.BuildPost(users[f.rnd.Intn(len(users))], groups))
	}
	if err := f.CreatePostsBatch(ctx, posts); err != nil {
		return res, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)

	if len(posts) > 0 {
		for i := 0; i < opts.Comments; i++ {
			post := posts[f.rnd.Intn(len(posts))]
			author := users[f.rnd.Intn(len(users))]
			if _, err := f.CreateComment(ctx, post, author); err != nil {
				return res, fmt.Errorf("create comment: %w", err)
			}
			res.Comments++
		}
	}

	for i, user := range users {
		// Follow the next few users round-robin so every pair is distinct.
		for k := 1; k <= opts.FollowsPerUser && k < len(users); k++ {
			author := users[(i+k)%len(users)]
			if err := f.CreateFollow(ctx, user, author); err != nil {
				return res, fmt.Errorf("create follow: %w", err)
			}
			res.Follows++
		}
	}

	middleware.Logger.InfoContext(ctx, "Database seeding completed",
		slog.Int("users", res.Users),
		slog.Int("groups", res.Groups),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("follows", res.Follows),
	)
	return res, nil
}

// ClearAll deletes every row from the domain tables, children first.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "Clearing existing data")
	tables := []interface{}{&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}}
	for _, model := range tables {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
