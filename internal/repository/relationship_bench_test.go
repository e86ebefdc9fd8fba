package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/d60-Lab/social-api/internal/model"
)

func BenchmarkFollowWrite_And_FolloweeIDs(b *testing.B) {
	db := setupDB(b)
	followRepo := NewFollowRepository(db)
	ctx := context.Background()

	// 预创建部分用户
	users := make([]model.User, 1000)
	for i := range users {
		users[i] = model.User{ID: fmt.Sprintf("u%04d", i), Email: fmt.Sprintf("u%04d@example.com", i), Password: "p"}
	}
	if err := db.CreateInBatches(&users, 200).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rng.Intn(len(users))].ID
		to := users[rng.Intn(len(users))].ID
		if from == to {
			continue
		}
		_ = followRepo.Create(ctx, from, to)
		_, _ = followRepo.FolloweeIDs(ctx, from)
	}
}

func BenchmarkReactToggle(b *testing.B) {
	db := setupDB(b)
	reactRepo := NewReactionRepository(db)
	ctx := context.Background()

	// 构造：N 个用户反复在同一批帖子上切换赞/踩
	const N = 200
	users := make([]model.User, N)
	for i := range users {
		users[i] = model.User{ID: fmt.Sprintf("u%04d", i), Email: fmt.Sprintf("u%04d@example.com", i), Password: "p"}
	}
	if err := db.CreateInBatches(&users, 100).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}
	posts := make([]model.Post, 20)
	for i := range posts {
		posts[i] = model.Post{ID: fmt.Sprintf("p%03d", i), OwnerID: users[0].ID, Title: "t", Content: "c"}
	}
	if err := db.Create(&posts).Error; err != nil {
		b.Fatalf("seed posts: %v", err)
	}

	kinds := []model.ReactionKind{model.ReactionLike, model.ReactionDislike}
	b.ResetTimer()
	b.Run("React", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = reactRepo.React(ctx, users[i%N].ID, posts[i%len(posts)].ID, kinds[i%2])
		}
	})

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	b.Run("CountsByPosts", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = reactRepo.CountsByPosts(ctx, ids)
		}
	})
}
