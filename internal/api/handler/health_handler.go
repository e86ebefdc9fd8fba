package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-api/pkg/response"
)

// Health 健康检查。broker 不可用只影响发帖路径，不算不健康
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "up", "broker": "down"}
	code := http.StatusOK
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			status["database"] = "down"
			code = http.StatusServiceUnavailable
		}
	}
	if h.broker != nil && h.broker.Healthy() {
		status["broker"] = "up"
	} else if h.broker != nil {
		status["broker_error"] = h.broker.LastError()
	}

	if code != http.StatusOK {
		c.JSON(code, response.Response{Code: response.CodeInternal, Message: "unhealthy", Data: status})
		return
	}
	response.Success(c, status)
}
