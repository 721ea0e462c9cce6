package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/config"
	"github.com/mirabelleagency/ChattersDashboard/internal/api/middleware"
	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/service"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cfg     *config.Config
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cfg: cfg}
}

// Login 登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, pair, err := h.authSvc.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	response.OK(c, resp)
}

// Refresh 刷新令牌（轮换）
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(middleware.RefreshCookie)
	if refreshToken == "" {
		response.Unauthorized(c, 10002, "缺少刷新令牌")
		return
	}

	pair, err := h.authSvc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	response.OK(c, gin.H{
		"access_token": pair.AccessToken,
		"token_type":   "bearer",
		"expires_in":   int64(time.Until(pair.AccessExpiresAt).Seconds()),
	})
}

// Logout 登出：访问令牌进黑名单，刷新令牌吊销，Cookie 清空
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	accessToken, _ := c.Cookie(middleware.AccessCookie)
	refreshToken, _ := c.Cookie(middleware.RefreshCookie)
	_ = h.authSvc.Logout(c.Request.Context(), accessToken, refreshToken)

	h.clearAuthCookies(c)
	response.OK(c, gin.H{"message": "已退出登录"})
}

// Me 当前登录用户信息
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}
	response.OK(c, user)
}

// ChangePassword 修改自己的密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "密码已更新"})
}

// SeedAdmin 创建初始管理员，仅空库时生效，幂等
// POST /api/v1/auth/seed-admin
func (h *AuthHandler) SeedAdmin(c *gin.Context) {
	var req dto.SeedAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.authSvc.SeedAdmin(c.Request.Context(), req.Email, req.Password); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"message": "初始管理员就绪"})
}

// ────────────────────── Cookie ──────────────────────

func (h *AuthHandler) setAuthCookies(c *gin.Context, pair *service.TokenPair) {
	secure := h.cfg.Auth.Cookie.Secure
	domain := h.cfg.Auth.Cookie.Domain
	accessMaxAge := int(time.Until(pair.AccessExpiresAt).Seconds())
	refreshMaxAge := int(time.Until(pair.RefreshExpiresAt).Seconds())

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, pair.AccessToken, accessMaxAge, "/", domain, secure, true)
	c.SetCookie(middleware.RefreshCookie, pair.RefreshToken, refreshMaxAge, "/api/v1/auth", domain, secure, true)
	// CSRF Cookie 需要被前端 JS 读取后放进请求头，不能 httpOnly
	c.SetCookie(middleware.CSRFCookie, pair.CSRFToken, refreshMaxAge, "/", domain, secure, false)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	secure := h.cfg.Auth.Cookie.Secure
	domain := h.cfg.Auth.Cookie.Domain
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, "", -1, "/", domain, secure, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/api/v1/auth", domain, secure, true)
	c.SetCookie(middleware.CSRFCookie, "", -1, "/", domain, secure, false)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 10002, err.Error())
	case errors.Is(err, service.ErrUserDisabled):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, service.ErrRefreshTokenInvalid):
		response.Unauthorized(c, 10002, err.Error())
	case errors.Is(err, service.ErrOldPasswordWrong):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 10004, err.Error())
	default:
		response.InternalError(c)
	}
}
