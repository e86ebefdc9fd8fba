package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-api/internal/repository"
	"github.com/d60-Lab/social-api/internal/service"
	"github.com/d60-Lab/social-api/pkg/response"
)

// CreateProfile 创建资料
// @Summary 为当前用户创建资料
// @Tags 资料
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ProfileInput true "资料"
// @Success 201 {object} response.Response{data=model.Profile}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /profiles/create/ [post]
func (h *Handler) CreateProfile(c *gin.Context) {
	var req service.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	p, err := h.profileService.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, p)
}

// ListProfiles 资料列表
// @Summary 资料列表（username 优先于 location）
// @Tags 资料
// @Produce json
// @Security BearerAuth
// @Param username query string false "用户名包含"
// @Param location query string false "地区包含"
// @Success 200 {object} response.Response{data=[]model.Profile}
// @Router /profiles/list/ [get]
func (h *Handler) ListProfiles(c *gin.Context) {
	list, err := h.profileService.List(c.Request.Context(), repository.ProfileFilter{
		Username: c.Query("username"),
		Location: c.Query("location"),
	})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}

// GetProfile 资料详情
// @Summary 资料详情
// @Tags 资料
// @Produce json
// @Security BearerAuth
// @Param id path string true "资料ID"
// @Success 200 {object} response.Response{data=model.Profile}
// @Failure 404 {object} response.Response
// @Router /profiles/list/{id}/ [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.profileService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// MyProfile 我的资料
// @Summary 当前用户的资料
// @Tags 资料
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.Profile}
// @Failure 404 {object} response.Response
// @Router /profiles/me/ [get]
func (h *Handler) MyProfile(c *gin.Context) {
	p, err := h.profileService.Mine(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// UpdateMyProfile 部分更新我的资料
// @Summary 部分更新当前用户的资料
// @Tags 资料
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ProfilePatch true "要修改的字段"
// @Success 200 {object} response.Response{data=model.Profile}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profiles/me/update/ [patch]
func (h *Handler) UpdateMyProfile(c *gin.Context) {
	var req service.ProfilePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	p, err := h.profileService.UpdateMine(c.Request.Context(), currentUser(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}
