package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-api/internal/service"
	"github.com/d60-Lab/social-api/pkg/response"
)

// ScheduledJobHeader 排队路径下返回的任务 ID
const ScheduledJobHeader = "X-Scheduled-Job"

// postAction 帖子相关操作
type postAction int

const (
	actionListPosts postAction = iota + 1
	actionRetrievePost
	actionCreatePost
	actionMyPosts
	actionFollowingPosts
)

func (a postAction) String() string {
	switch a {
	case actionListPosts:
		return "list"
	case actionRetrievePost:
		return "retrieve"
	case actionCreatePost:
		return "create"
	case actionMyPosts:
		return "my-posts"
	case actionFollowingPosts:
		return "following-posts"
	}
	return fmt.Sprintf("postAction(%d)", int(a))
}

type createPostRequest struct {
	Title       string     `json:"title" binding:"required,max=63"`
	Content     string     `json:"content" binding:"required"`
	CreatedTime *time.Time `json:"created_time"`
}

// postSchema 每种操作的请求体和响应形态
type postSchema struct {
	request func() interface{}
	render  func(c *gin.Context, result interface{})
}

var postSchemas = map[postAction]postSchema{
	actionListPosts:      {render: renderOK},
	actionRetrievePost:   {render: renderOK},
	actionMyPosts:        {render: renderOK},
	actionFollowingPosts: {render: renderOK},
	actionCreatePost: {
		request: func() interface{} { return &createPostRequest{} },
		render:  renderScheduled,
	},
}

func renderOK(c *gin.Context, result interface{}) { response.Success(c, result) }

// renderScheduled 同步创建 201，排队 202 无响应体
func renderScheduled(c *gin.Context, result interface{}) {
	res := result.(*service.ScheduleResult)
	if res.Queued() {
		c.Header(ScheduledJobHeader, res.Job.ID)
		c.Status(http.StatusAccepted)
		c.Writer.WriteHeaderNow()
		return
	}
	response.Created(c, res.Post)
}

func (h *Handler) dispatchPost(c *gin.Context, action postAction) {
	schema, ok := postSchemas[action]
	if !ok {
		response.InternalError(c, fmt.Errorf("no schema for post action %s", action))
		return
	}
	var body interface{}
	if schema.request != nil {
		body = schema.request()
		if err := c.ShouldBindJSON(body); err != nil {
			bindFailed(c, err)
			return
		}
	}
	result, err := h.runPost(c, action, body)
	if err != nil {
		fail(c, err)
		return
	}
	schema.render(c, result)
}

func (h *Handler) runPost(c *gin.Context, action postAction, body interface{}) (interface{}, error) {
	ctx := c.Request.Context()
	switch action {
	case actionListPosts:
		return h.postService.List(ctx, service.ListPostsQuery{
			Title:       c.Query("title"),
			CreatedTime: c.Query("created_time"),
		})
	case actionRetrievePost:
		return h.postService.Get(ctx, c.Param("id"))
	case actionMyPosts:
		return h.postService.MyPosts(ctx, currentUser(c))
	case actionFollowingPosts:
		return h.postService.FollowingPosts(ctx, currentUser(c))
	case actionCreatePost:
		req := body.(*createPostRequest)
		return h.postService.Create(ctx, service.CreatePostInput{
			Title:       req.Title,
			Content:     req.Content,
			OwnerID:     currentUser(c),
			CreatedTime: req.CreatedTime,
		})
	}
	return nil, fmt.Errorf("unhandled post action %s", action)
}

// CreatePost 发帖（可指定发布时间）
// @Summary 发帖；broker 可用时延迟创建返回 202，否则立即创建返回 201
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "帖子内容"
// @Success 201 {object} response.Response{data=model.Post}
// @Success 202 "已排队，响应头 X-Scheduled-Job 为任务 ID"
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /posts/create/ [post]
func (h *Handler) CreatePost(c *gin.Context) { h.dispatchPost(c, actionCreatePost) }

// ListPosts 帖子列表
// @Summary 帖子列表（title 优先于 created_time）
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param title query string false "标题包含（不区分大小写）"
// @Param created_time query string false "创建日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=[]service.PostSummary}
// @Failure 400 {object} response.Response
// @Router /posts/list/ [get]
func (h *Handler) ListPosts(c *gin.Context) { h.dispatchPost(c, actionListPosts) }

// GetPost 帖子详情
// @Summary 帖子详情（含评论与赞/踩用户）
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=service.PostDetail}
// @Failure 404 {object} response.Response
// @Router /posts/list/{id}/ [get]
func (h *Handler) GetPost(c *gin.Context) { h.dispatchPost(c, actionRetrievePost) }

// MyPosts 我的帖子
// @Summary 当前用户的帖子
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.PostSummary}
// @Router /posts/my-posts/ [get]
func (h *Handler) MyPosts(c *gin.Context) { h.dispatchPost(c, actionMyPosts) }

// FollowingPosts 关注的人的帖子
// @Summary 关注的人的帖子（按时间倒序）
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.PostSummary}
// @Router /posts/following/ [get]
func (h *Handler) FollowingPosts(c *gin.Context) { h.dispatchPost(c, actionFollowingPosts) }
