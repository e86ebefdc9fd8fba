package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-api/internal/service"
	"github.com/d60-Lab/social-api/pkg/response"
)

type tokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册
// @Summary 注册新用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "邮箱和密码"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users/register/ [post]
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	u, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, u)
}

// Token 登录取令牌
// @Summary 用邮箱密码换取 JWT
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body tokenRequest true "邮箱和密码"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 401 {object} response.Response
// @Router /users/token/ [post]
func (h *Handler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	tok, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"token": tok})
}

// Me 当前用户
// @Summary 当前用户信息
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.User}
// @Failure 401 {object} response.Response
// @Router /users/me/ [get]
func (h *Handler) Me(c *gin.Context) {
	u, err := h.userService.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, u)
}
