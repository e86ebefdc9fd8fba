package api

import (
	"reflect"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/social-api/config"
	_ "github.com/d60-Lab/social-api/docs"
	"github.com/d60-Lab/social-api/internal/api/handler"
	"github.com/d60-Lab/social-api/internal/api/middleware"
	"github.com/d60-Lab/social-api/pkg/token"
)

func init() {
	// 绑定错误里使用 json 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	}
}

// NewRouter 组装中间件与路由
func NewRouter(cfg *config.Config, h *handler.Handler, tokens *token.Manager) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(middleware.Sentry())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst).Middleware())

	r.GET("/health", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	users := r.Group("/users")
	{
		users.POST("/register/", h.Register)
		users.POST("/token/", h.Token)
	}

	auth := r.Group("/", middleware.Auth(tokens))
	{
		auth.GET("/users/me/", h.Me)

		posts := auth.Group("/posts")
		posts.POST("/create/", h.CreatePost)
		posts.GET("/list/", h.ListPosts)
		posts.GET("/list/:id/", h.GetPost)
		posts.GET("/list/:id/like/", h.LikePost)
		posts.POST("/list/:id/like/", h.LikePost)
		posts.GET("/list/:id/dislike/", h.DislikePost)
		posts.POST("/list/:id/dislike/", h.DislikePost)
		posts.POST("/list/:id/unreact/", h.UnreactPost)
		posts.DELETE("/list/:id/unreact/", h.UnreactPost)
		posts.POST("/list/:id/add-comment/", h.AddComment)
		posts.GET("/my-posts/", h.MyPosts)
		posts.GET("/following/", h.FollowingPosts)

		auth.GET("/comments/list/", h.ListComments)

		profiles := auth.Group("/profiles")
		profiles.POST("/create/", h.CreateProfile)
		profiles.GET("/list/", h.ListProfiles)
		profiles.GET("/list/:id/", h.GetProfile)
		profiles.GET("/list/:id/follow/", h.Follow)
		profiles.GET("/list/:id/unfollow/", h.Unfollow)
		profiles.GET("/list/:id/followers/", h.ListFollowers)
		profiles.GET("/list/:id/following/", h.ListFollowing)
		profiles.GET("/me/", h.MyProfile)
		profiles.PATCH("/me/update/", h.UpdateMyProfile)
	}

	return r
}
