package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/social-api/config"
	"github.com/d60-Lab/social-api/internal/api/handler"
	"github.com/d60-Lab/social-api/internal/broker"
	"github.com/d60-Lab/social-api/internal/cache"
	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
	"github.com/d60-Lab/social-api/internal/service"
	"github.com/d60-Lab/social-api/pkg/token"
)

type testServer struct {
	router  *gin.Engine
	db      *gorm.DB
	mr      *miniredis.Miniredis
	queue   *broker.Queue
	monitor *broker.Monitor
	tokens  *token.Manager
	users   repository.UserRepository
	posts   repository.PostRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
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

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode

	queue := broker.NewQueue(rdb, "test:jobs")
	// 未探测前视为不可用
	monitor := broker.NewMonitor(queue, 200*time.Millisecond, time.Hour)

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	commentaryRepo := repository.NewCommentaryRepository(db)
	followRepo := repository.NewFollowRepository(db)
	following := cache.NewFollowingCache(rdb, time.Minute)
	tokens := token.NewManager("test-secret", time.Hour, "social-api-test")

	scheduler := service.NewSwitchingScheduler(
		monitor,
		service.NewQueueScheduler(queue),
		service.NewImmediateScheduler(postRepo, userRepo),
	)
	h := handler.New(handler.Deps{
		Users:     service.NewUserService(userRepo, tokens),
		Profiles:  service.NewProfileService(profileRepo),
		Posts:     service.NewPostService(postRepo, reactionRepo, commentaryRepo, followRepo, following, scheduler),
		Reactions: service.NewReactionService(reactionRepo, postRepo),
		Comments:  service.NewCommentService(commentaryRepo, postRepo),
		Relations: service.NewRelationshipService(followRepo, profileRepo, following),
		Broker:    monitor,
		DB:        sqlDB,
	})

	return &testServer{
		router:  NewRouter(cfg, h, tokens),
		db:      db,
		mr:      mr,
		queue:   queue,
		monitor: monitor,
		tokens:  tokens,
		users:   userRepo,
		posts:   postRepo,
	}
}

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// login 直接写用户并签发令牌
func (s *testServer) login(t *testing.T, email string) (*model.User, string) {
	t.Helper()
	u := &model.User{ID: uuid.New().String(), Email: email, Password: "x"}
	require.NoError(t, s.users.Create(context.Background(), u))
	tok, err := s.tokens.Issue(u.ID, false)
	require.NoError(t, err)
	return u, tok
}

func (s *testServer) seedPost(t *testing.T, owner *model.User, title string, at time.Time) *model.Post {
	t.Helper()
	p := &model.Post{ID: uuid.New().String(), OwnerID: owner.ID, Title: title, Content: "c", CreatedAt: at}
	require.NoError(t, s.posts.Create(context.Background(), p))
	return p
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/posts/list/", "/posts/my-posts/", "/profiles/list/", "/users/me/"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := s.do(t, http.MethodGet, "/posts/list/", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RegisterAndToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/users/register/", "", gin.H{"email": "Alice@Example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/users/register/", "", gin.H{"email": "alice@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/users/register/", "", gin.H{"email": "bob@example.com", "password": "123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	// service 层校验与绑定层文案一致
	assert.Equal(t, "ensure this field has at least 5 characters", decode(t, w, nil).Errors["password"])

	w = s.do(t, http.MethodPost, "/users/token/", "", gin.H{"email": "alice@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/users/token/", "", gin.H{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok struct {
		Token string `json:"token"`
	}
	decode(t, w, &tok)
	require.NotEmpty(t, tok.Token)

	w = s.do(t, http.MethodGet, "/users/me/", tok.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me model.User
	decode(t, w, &me)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestRouter_CreatePost_BrokerDown(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.login(t, "a@example.com")

	w := s.do(t, http.MethodPost, "/posts/create/", tok, gin.H{"title": "hello", "content": "world"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, w.Header().Get(handler.ScheduledJobHeader))

	var p model.Post
	decode(t, w, &p)
	assert.Equal(t, "hello", p.Title)

	n, err := s.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRouter_CreatePost_BrokerUp(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.login(t, "a@example.com")
	require.True(t, s.monitor.Probe(context.Background()))

	at := time.Now().Add(time.Hour).UTC()
	w := s.do(t, http.MethodPost, "/posts/create/", tok, gin.H{"title": "later", "content": "c", "created_time": at})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(handler.ScheduledJobHeader))
	assert.Zero(t, w.Body.Len())

	n, err := s.queue.Len(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var count int64
	require.NoError(t, s.db.Model(&model.Post{}).Count(&count).Error)
	assert.Zero(t, count, "queued post must not exist yet")
}

func TestRouter_CreatePost_BrokerLostAfterProbe(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.login(t, "a@example.com")
	require.True(t, s.monitor.Probe(context.Background()))
	s.mr.Close()

	w := s.do(t, http.MethodPost, "/posts/create/", tok, gin.H{"title": "fallback", "content": "c"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.False(t, s.monitor.Healthy())
}

func TestRouter_CreatePost_Validation(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.login(t, "a@example.com")

	long := make([]byte, model.PostTitleMaxLen+1)
	for i := range long {
		long[i] = 'x'
	}
	w := s.do(t, http.MethodPost, "/posts/create/", tok, gin.H{"title": string(long), "content": "c"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ensure this field has no more than 63 characters", decode(t, w, nil).Errors["title"])

	w = s.do(t, http.MethodPost, "/posts/create/", tok, gin.H{"title": "t"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "this field is required", decode(t, w, nil).Errors["content"])
}

func TestRouter_ListPosts_Filters(t *testing.T) {
	s := newTestServer(t)
	u, tok := s.login(t, "a@example.com")
	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	s.seedPost(t, u, "Go tips", day)
	s.seedPost(t, u, "Rust notes", day.AddDate(0, 0, 1))

	var list []service.PostSummary
	w := s.do(t, http.MethodGet, "/posts/list/?title=go", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Go tips", list[0].Title)

	w = s.do(t, http.MethodGet, "/posts/list/?created_time=2024-03-11", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Rust notes", list[0].Title)

	// title 优先，日期不校验
	w = s.do(t, http.MethodGet, "/posts/list/?title=rust&created_time=garbage", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list, 1)

	w = s.do(t, http.MethodGet, "/posts/list/?created_time=garbage", tok, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w, nil).Errors, "created_time")
}

func TestRouter_Reactions(t *testing.T) {
	s := newTestServer(t)
	u, tok := s.login(t, "a@example.com")
	p := s.seedPost(t, u, "post", time.Now().UTC())
	base := "/posts/list/" + p.ID

	w := s.do(t, http.MethodPost, base+"/like/", tok, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, handler.PostListPath, w.Header().Get("Location"))

	w = s.do(t, http.MethodPost, base+"/dislike/", tok, nil)
	require.Equal(t, http.StatusFound, w.Code)

	var detail service.PostDetail
	w = s.do(t, http.MethodGet, base+"/", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &detail)
	assert.Empty(t, detail.Likes)
	assert.Equal(t, []string{u.ID}, detail.Dislikes)
	assert.EqualValues(t, 0, detail.LikesCount)
	assert.EqualValues(t, 1, detail.DislikesCount)

	w = s.do(t, http.MethodPost, base+"/unreact/", tok, nil)
	require.Equal(t, http.StatusFound, w.Code)
	w = s.do(t, http.MethodPost, base+"/unreact/", tok, nil)
	require.Equal(t, http.StatusFound, w.Code)

	w = s.do(t, http.MethodGet, base+"/", tok, nil)
	decode(t, w, &detail)
	assert.Empty(t, detail.Dislikes)

	w = s.do(t, http.MethodPost, "/posts/list/missing/like/", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodPost, "/posts/list/missing/unreact/", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Comments(t *testing.T) {
	s := newTestServer(t)
	u, tok := s.login(t, "a@example.com")
	p := s.seedPost(t, u, "post", time.Now().UTC())

	w := s.do(t, http.MethodPost, "/posts/list/"+p.ID+"/add-comment/", tok, gin.H{"content": "first"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/posts/list/missing/add-comment/", tok, gin.H{"content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var detail service.PostDetail
	w = s.do(t, http.MethodGet, "/posts/list/"+p.ID+"/", tok, nil)
	decode(t, w, &detail)
	require.Len(t, detail.Commentaries, 1)
	assert.Equal(t, "first", detail.Commentaries[0].Content)
	assert.EqualValues(t, 1, detail.Comments)
}

func TestRouter_FollowAndFollowingPosts(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.login(t, "reader@example.com")
	author, authorTok := s.login(t, "author@example.com")

	w := s.do(t, http.MethodPost, "/profiles/create/", authorTok, gin.H{"username": "author"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var prof model.Profile
	decode(t, w, &prof)

	older := s.seedPost(t, author, "older", time.Now().Add(-time.Hour).UTC())
	newer := s.seedPost(t, author, "newer", time.Now().UTC())

	var list []service.PostSummary
	w = s.do(t, http.MethodGet, "/posts/following/", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Empty(t, list)

	w = s.do(t, http.MethodGet, "/profiles/list/"+prof.ID+"/follow/", tok, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, handler.ProfileListPath, w.Header().Get("Location"))

	w = s.do(t, http.MethodGet, "/posts/following/", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	// 不能关注自己
	w = s.do(t, http.MethodGet, "/profiles/list/"+prof.ID+"/follow/", authorTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/profiles/list/"+prof.ID+"/unfollow/", tok, nil)
	require.Equal(t, http.StatusFound, w.Code)
	w = s.do(t, http.MethodGet, "/posts/following/", tok, nil)
	decode(t, w, &list)
	assert.Empty(t, list)

	w = s.do(t, http.MethodGet, "/profiles/list/missing/follow/", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_MyPosts(t *testing.T) {
	s := newTestServer(t)
	me, tok := s.login(t, "me@example.com")
	other, _ := s.login(t, "other@example.com")
	mine := s.seedPost(t, me, "mine", time.Now().UTC())
	s.seedPost(t, other, "theirs", time.Now().UTC())

	var list []service.PostSummary
	w := s.do(t, http.MethodGet, "/posts/my-posts/", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]string
	decode(t, w, &status)
	assert.Equal(t, "up", status["database"])
	assert.Equal(t, "down", status["broker"])

	require.True(t, s.monitor.Probe(context.Background()))
	w = s.do(t, http.MethodGet, "/health", "", nil)
	decode(t, w, &status)
	assert.Equal(t, "up", status["broker"])
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestRouter_EveryRouteIsDocumented(t *testing.T) {
	s := newTestServer(t)

	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	for _, r := range s.router.Routes() {
		if strings.HasPrefix(r.Path, "/swagger/") {
			continue
		}
		path := strings.ReplaceAll(r.Path, ":id", "{id}")
		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "undocumented route %s %s", r.Method, r.Path) {
			continue
		}
		assert.NotEmpty(t, ops, path)
	}
}
