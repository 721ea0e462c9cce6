package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/internal/api/middleware"
	"github.com/mirabelleagency/ChattersDashboard/internal/service"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应，调用方应直接 return。
func MustGetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(int64)
	if !ok || id == 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// GetActor 构造当前请求的操作者，用于审计写入。
// 未认证路径返回 nil
func GetActor(c *gin.Context) *service.Actor {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		return nil
	}
	id, ok := v.(int64)
	if !ok {
		return nil
	}
	return &service.Actor{
		UserID:    id,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// ParseIDParam 解析路径参数中的整型主键，失败时写入 400 响应
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, 10001, "ID 参数不合法")
		return 0, false
	}
	return id, true
}
