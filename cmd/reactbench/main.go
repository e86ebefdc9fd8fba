// reactbench 在真实数据库上压测并发赞/踩切换，并校验每个 (user, post) 至多一行。
//
//	USERS=200 POSTS=20 OPS=20000 CONC=16 go run ./cmd/reactbench
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/social-api/config"
	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
	"github.com/d60-Lab/social-api/internal/service"
	"github.com/d60-Lab/social-api/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	USERS := envInt("USERS", 200)
	POSTS := envInt("POSTS", 20)
	OPS := envInt("OPS", 20000)
	CONC := envInt("CONC", 16)

	ctx := context.Background()
	postRepo := repository.NewPostRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	reactions := service.NewReactionService(reactionRepo, postRepo)

	users := make([]model.User, USERS)
	for i := range users {
		id := uuid.New().String()
		users[i] = model.User{ID: id, Email: id[:8] + "@bench.local", Password: "x"}
	}
	_ = db.CreateInBatches(&users, 1000).Error
	posts := make([]model.Post, POSTS)
	for i := range posts {
		posts[i] = model.Post{ID: uuid.New().String(), OwnerID: users[i%USERS].ID, Title: fmt.Sprintf("bench %d", i), Content: "x"}
	}
	_ = db.CreateInBatches(&posts, 1000).Error

	feed := make(chan int, OPS)
	for i := 0; i < OPS; i++ {
		feed <- i
	}
	close(feed)

	var (
		mu       sync.Mutex
		lat      = make([]time.Duration, 0, OPS)
		outcomes = map[repository.ReactOutcome]int{}
		errs     int
		wg       sync.WaitGroup
	)
	t0 := time.Now()
	for w := 0; w < CONC; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for range feed {
				u := users[rng.Intn(USERS)].ID
				p := posts[rng.Intn(POSTS)].ID
				kind := model.ReactionLike
				if rng.Intn(2) == 0 {
					kind = model.ReactionDislike
				}
				st := time.Now()
				out, err := reactions.React(ctx, u, p, kind)
				d := time.Since(st)
				mu.Lock()
				lat = append(lat, d)
				if err != nil {
					errs++
				} else {
					outcomes[out]++
				}
				mu.Unlock()
			}
		}(int64(w) + 1)
	}
	wg.Wait()
	total := time.Since(t0)

	// 不变量：每个 (user, post) 至多一行，计数与行数一致
	var dup int64
	_ = db.Raw(`SELECT COUNT(*) FROM (
		SELECT user_id, post_id FROM reactions GROUP BY user_id, post_id HAVING COUNT(*) > 1
	) d`).Scan(&dup).Error
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	counts := must(reactionRepo.CountsByPosts(ctx, ids))
	var rows int64
	_ = db.Model(&model.Reaction{}).Where("post_id IN ?", ids).Count(&rows).Error
	var summed int64
	for _, c := range counts {
		summed += c.Likes + c.Dislikes
	}

	fmt.Printf("USERS=%d, POSTS=%d, OPS=%d, CONC=%d, driver=%s\n", USERS, POSTS, OPS, CONC, cfg.Database.Driver)
	fmt.Printf("React total: %v, per op: %v, p50: %v, p95: %v, p99: %v, errors: %d\n",
		total, total/time.Duration(OPS), pct(lat, 0.50), pct(lat, 0.95), pct(lat, 0.99), errs)
	fmt.Printf("Outcomes: created=%d switched=%d unchanged=%d\n",
		outcomes[repository.ReactCreated], outcomes[repository.ReactSwitched], outcomes[repository.ReactUnchanged])
	fmt.Printf("Rows=%d, counted=%d, duplicate pairs=%d\n", rows, summed, dup)
	if dup > 0 || rows != summed {
		fmt.Println("INVARIANT VIOLATED")
		os.Exit(1)
	}
}
