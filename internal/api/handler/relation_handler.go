package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-api/pkg/response"
)

// ProfileListPath 关注/取关后重定向的位置
const ProfileListPath = "/profiles/list/"

// Follow 关注
// @Summary 关注某个资料对应的用户
// @Tags 关系链
// @Security BearerAuth
// @Param id path string true "资料ID"
// @Success 302 "重定向到资料列表"
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profiles/list/{id}/follow/ [get]
func (h *Handler) Follow(c *gin.Context) {
	if err := h.relService.Follow(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, ProfileListPath)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Security BearerAuth
// @Param id path string true "资料ID"
// @Success 302 "重定向到资料列表"
// @Failure 404 {object} response.Response
// @Router /profiles/list/{id}/unfollow/ [get]
func (h *Handler) Unfollow(c *gin.Context) {
	if err := h.relService.Unfollow(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, ProfileListPath)
}

// ListFollowing 查询某资料关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Security BearerAuth
// @Param id path string true "资料ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /profiles/list/{id}/following/ [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowing(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFollowers 查询某资料的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Security BearerAuth
// @Param id path string true "资料ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /profiles/list/{id}/followers/ [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowers(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
