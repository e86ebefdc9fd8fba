package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/social-api/internal/api/middleware"
	"github.com/d60-Lab/social-api/internal/service"
	"github.com/d60-Lab/social-api/pkg/response"
)

// BrokerHealth broker 健康标志（只读）
type BrokerHealth interface {
	Healthy() bool
	LastError() string
}

// Pinger 数据库探活，*sql.DB 满足
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps 处理器依赖
type Deps struct {
	Users     service.UserService
	Profiles  service.ProfileService
	Posts     service.PostService
	Reactions service.ReactionService
	Comments  service.CommentService
	Relations service.RelationshipService
	Broker    BrokerHealth
	DB        Pinger
}

// Handler 聚合全部 HTTP 处理器
type Handler struct {
	userService     service.UserService
	profileService  service.ProfileService
	postService     service.PostService
	reactionService service.ReactionService
	commentService  service.CommentService
	relService      service.RelationshipService
	broker          BrokerHealth
	db              Pinger
}

func New(d Deps) *Handler {
	return &Handler{
		userService:     d.Users,
		profileService:  d.Profiles,
		postService:     d.Posts,
		reactionService: d.Reactions,
		commentService:  d.Comments,
		relService:      d.Relations,
		broker:          d.Broker,
		db:              d.DB,
	}
}

// fail 把 service 层错误映射成统一响应
func fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(c, verr.Fields)
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrProfileExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrFollowSelf):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// bindFailed 请求体绑定失败：校验错误给字段详情（与 service 层同一套文案），其它给原始信息
func bindFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.BadRequest(c, err.Error())
		return
	}
	response.ValidationFailed(c, service.NewValidationError(verrs).Fields)
}

func currentUser(c *gin.Context) string { return middleware.UserID(c) }
