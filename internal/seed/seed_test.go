package seed

import (
	"context"
	"testing"

	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSeed(t *testing.T) {
	db := newTestDB(t)
	opts := Options{Users: 5, Groups: 3, Posts: 20, Comments: 10, FollowsPerUser: 2, RandSeed: 42}

	res, err := Seed(context.Background(), db, opts)
	require.NoError(t, err)

	assert.Equal(t, &Result{Users: 5, Groups: 3, Posts: 20, Comments: 10, Follows: 10}, res)
	assert.EqualValues(t, 5, count(t, db, &models.User{}))
	assert.EqualValues(t, 3, count(t, db, &models.Group{}))
	assert.EqualValues(t, 20, count(t, db, &models.Post{}))
	assert.EqualValues(t, 10, count(t, db, &models.Comment{}))
	assert.EqualValues(t, 10, count(t, db, &models.Follow{}))

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("user_id = author_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword)))
}

func TestSeed_FollowsCappedByUserCount(t *testing.T) {
	db := newTestDB(t)
	res, err := Seed(context.Background(), db, Options{Users: 2, FollowsPerUser: 5, RandSeed: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Follows)
}

func TestSeed_NoUsers(t *testing.T) {
	db := newTestDB(t)
	res, err := Seed(context.Background(), db, Options{Groups: 2, Posts: 10, RandSeed: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Groups)
	assert.Zero(t, res.Posts)
	assert.EqualValues(t, 0, count(t, db, &models.Post{}))
}

func TestSeed_Clean(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	opts := Options{Users: 3, Groups: 1, Posts: 5, Comments: 2, FollowsPerUser: 1, RandSeed: 7}

	_, err := Seed(ctx, db, opts)
	require.NoError(t, err)

	opts.Clean = true
	opts.RandSeed = 8
	_, err = Seed(ctx, db, opts)
	require.NoError(t, err)

	assert.EqualValues(t, 3, count(t, db, &models.User{}))
	assert.EqualValues(t, 5, count(t, db, &models.Post{}))
}

func TestFactory_CreateFollowSkipsSelf(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	f, err := NewFactory(db, Options{RandSeed: 3})
	require.NoError(t, err)

	user, err := f.CreateUser(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, f.CreateFollow(ctx, user, user))
	assert.EqualValues(t, 0, count(t, db, &models.Follow{}))
}

func TestFactory_BuildPostWithoutGroups(t *testing.T) {
	db := newTestDB(t)
	f, err := NewFactory(db, Options{RandSeed: 5, MaxDays: 1})
	require.NoError(t, err)

	author := &models.User{ID: 9}
	for i := 0; i < 10; i++ {
		post := f.BuildPost(author, nil)
		assert.Nil(t, post.GroupID)
		assert.Equal(t, uint(9), post.AuthorID)
		assert.NotEmpty(t, post.Text)
	}
}
