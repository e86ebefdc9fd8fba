package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-api/pkg/response"
)

type addCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// AddComment 评论
// @Summary 给帖子添加评论
// @Tags 评论
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param request body addCommentRequest true "评论内容"
// @Success 200 {object} response.Response{data=model.Commentary}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /posts/list/{id}/add-comment/ [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	comment, err := h.commentService.Add(c.Request.Context(), currentUser(c), c.Param("id"), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, comment)
}

// ListComments 全部评论
// @Summary 评论列表（按时间升序）
// @Tags 评论
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.Commentary}
// @Router /comments/list/ [get]
func (h *Handler) ListComments(c *gin.Context) {
	list, err := h.commentService.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}
