package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Env holds the connections a command works against.
type Env struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis is nil when it is not reachable.
	Redis *redis.Client
	// Shared connections are owned by the caller and left open by Close.
	Shared bool
}

// Close releases the connections held by e.
func (e *Env) Close() {
	if e.Shared {
		return
	}
	if sqlDB, err := e.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
}

// Opener builds the Env for a command run.
type Opener func(ctx context.Context) (*Env, error)

// OpenFromConfig loads configuration and connects to the configured database and Redis.
func OpenFromConfig(_ context.Context) (*Env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	middleware.ConfigureLogger(cfg.Env, cfg.LogLevel, os.Stderr)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &Env{Config: cfg, DB: db, Redis: cache.Connect(cfg.RedisURL)}, nil
}

// NewRootCmd assembles the command tree. open is called lazily by the
// subcommands that need a database.
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "yatubectl",
		Short: "Operator tool for the yatube blog",
		Long: `yatubectl manages a yatube deployment.

Subcommands:
  migrate  - Apply, revert or inspect schema migrations
  seed     - Fill the database with fake users, groups and posts
  group    - Create, list and load groups
  user     - Create accounts`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCmd(open),
		newSeedCmd(open),
		newGroupCmd(open),
		newUserCmd(open),
	)
	return root
}

// Execute runs the root command against the configured environment.
func Execute() {
	if err := NewRootCmd(OpenFromConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// describe spells out per-field validation messages.
func describe(err error) string {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || len(appErr.Fields) == 0 {
		return err.Error()
	}
	keys := make([]string, 0, len(appErr.Fields))
	for k := range appErr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(err.Error())
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, appErr.Fields[k])
	}
	return b.String()
}

// withEnv opens the environment, runs fn and closes it again.
func withEnv(cmd *cobra.Command, open Opener, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := open(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(ctx, env)
}
