package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/social-api/internal/broker"
	"github.com/d60-Lab/social-api/internal/cache"
	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
)

type fixture struct {
	db         *gorm.DB
	mr         *miniredis.Miniredis
	rdb        *redis.Client
	queue      *broker.Queue
	monitor    *broker.Monitor
	following  *cache.FollowingCache
	users      repository.UserRepository
	profiles   repository.ProfileRepository
	posts      repository.PostRepository
	reactions  repository.ReactionRepository
	commentary repository.CommentaryRepository
	follows    repository.FollowRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	queue := broker.NewQueue(rdb, "test:jobs")
	return &fixture{
		db:         db,
		mr:         mr,
		rdb:        rdb,
		queue:      queue,
		monitor:    broker.NewMonitor(queue, 200*time.Millisecond, time.Hour),
		following:  cache.NewFollowingCache(rdb, time.Minute),
		users:      repository.NewUserRepository(db),
		profiles:   repository.NewProfileRepository(db),
		posts:      repository.NewPostRepository(db),
		reactions:  repository.NewReactionRepository(db),
		commentary: repository.NewCommentaryRepository(db),
		follows:    repository.NewFollowRepository(db),
	}
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	u := &model.User{ID: uuid.New().String(), Email: email, Password: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) profile(t *testing.T, u *model.User, username string) *model.Profile {
	t.Helper()
	p := &model.Profile{ID: uuid.New().String(), UserID: u.ID, Username: username}
	require.NoError(t, f.profiles.Create(context.Background(), p))
	return p
}

func (f *fixture) post(t *testing.T, owner *model.User, title string, at time.Time) *model.Post {
	t.Helper()
	p := &model.Post{ID: uuid.New().String(), OwnerID: owner.ID, Title: title, Content: "c", CreatedAt: at}
	require.NoError(t, f.posts.Create(context.Background(), p))
	return p
}

func (f *fixture) immediate() *ImmediateScheduler {
	return NewImmediateScheduler(f.posts, f.users)
}

func (f *fixture) postService(s Scheduler) PostService {
	return NewPostService(f.posts, f.reactions, f.commentary, f.follows, f.following, s)
}
