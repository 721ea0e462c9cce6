package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/pkg/jwt"
	"github.com/mirabelleagency/ChattersDashboard/pkg/redis"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// 认证上下文键与 Cookie 名
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRoles  = "roles"

	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	CSRFCookie    = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

// JWTAuth JWT 认证中间件
// 先取 Authorization: Bearer <token>，没有再回退 access_token Cookie；
// Cookie 路径上的写请求必须带与 csrf_token Cookie 一致的 X-CSRF-Token 头
func JWTAuth(jwtMgr *jwt.Manager, cache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := extractToken(c)
		if token == "" {
			response.Unauthorized(c, 10002, "缺少认证凭据")
			c.Abort()
			return
		}

		if cache != nil {
			if blacklisted, err := cache.IsBlacklisted(c.Request.Context(), token); err == nil && blacklisted {
				response.Unauthorized(c, 10002, "Token 已失效")
				c.Abort()
				return
			}
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}
		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if fromCookie && mutating(c.Request.Method) {
			csrfCookie, _ := c.Cookie(CSRFCookie)
			if csrfCookie == "" || c.GetHeader(CSRFHeader) != csrfCookie {
				response.Forbidden(c, 10003, "CSRF 校验失败")
				c.Abort()
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRoles, claims.Roles)

		c.Next()
	}
}

func extractToken(c *gin.Context) (token string, fromCookie bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1], false
		}
		return "", false
	}
	cookie, err := c.Cookie(AccessCookie)
	if err != nil {
		return "", false
	}
	return cookie, true
}

func mutating(method string) bool {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return false
	}
	return true
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一，admin 始终放行
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(CtxRoles)
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		roles, _ := value.([]string)
		for _, role := range roles {
			if role == "admin" {
				c.Next()
				return
			}
			for _, allowed := range allowedRoles {
				if role == allowed {
					c.Next()
					return
				}
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
