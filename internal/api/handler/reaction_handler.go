package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-api/internal/model"
)

// PostListPath 反应操作完成后重定向的位置
const PostListPath = "/posts/list/"

func (h *Handler) react(c *gin.Context, kind model.ReactionKind) {
	if _, err := h.reactionService.React(c.Request.Context(), currentUser(c), c.Param("id"), kind); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, PostListPath)
}

// LikePost 点赞
// @Summary 点赞（已点踩则切换为赞）
// @Tags 反应
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 302 "重定向到帖子列表"
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /posts/list/{id}/like/ [post]
func (h *Handler) LikePost(c *gin.Context) { h.react(c, model.ReactionLike) }

// DislikePost 点踩
// @Summary 点踩（已点赞则切换为踩）
// @Tags 反应
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 302 "重定向到帖子列表"
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /posts/list/{id}/dislike/ [post]
func (h *Handler) DislikePost(c *gin.Context) { h.react(c, model.ReactionDislike) }

// UnreactPost 取消赞/踩
// @Summary 取消赞或踩，没有则什么都不做
// @Tags 反应
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 302 "重定向到帖子列表"
// @Failure 404 {object} response.Response
// @Router /posts/list/{id}/unreact/ [post]
func (h *Handler) UnreactPost(c *gin.Context) {
	if err := h.reactionService.Unreact(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, PostListPath)
}
