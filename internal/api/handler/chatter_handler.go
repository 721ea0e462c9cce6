package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/service"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// ChatterHandler 主播与团队模块 HTTP 处理器
type ChatterHandler struct {
	chatterSvc service.ChatterService
}

// NewChatterHandler 创建 ChatterHandler
func NewChatterHandler(chatterSvc service.ChatterService) *ChatterHandler {
	return &ChatterHandler{chatterSvc: chatterSvc}
}

// ListChatters 主播列表
// GET /api/v1/chatters
func (h *ChatterHandler) ListChatters(c *gin.Context) {
	var query dto.ListChattersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	chatters, err := h.chatterSvc.List(c.Request.Context(), &query)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": chatters})
}

// GetChatter 主播详情
// GET /api/v1/chatters/:id
func (h *ChatterHandler) GetChatter(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	chatter, err := h.chatterSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleChatterError(c, err)
		return
	}
	response.OK(c, chatter)
}

// CreateChatter 创建主播
// POST /api/v1/chatters
func (h *ChatterHandler) CreateChatter(c *gin.Context) {
	var req dto.CreateChatterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	chatter, err := h.chatterSvc.Create(c.Request.Context(), &req, GetActor(c))
	if err != nil {
		h.handleChatterError(c, err)
		return
	}
	response.Created(c, chatter)
}

// UpdateChatter 更新主播
// PUT /api/v1/chatters/:id
func (h *ChatterHandler) UpdateChatter(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateChatterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	chatter, err := h.chatterSvc.Update(c.Request.Context(), id, &req, GetActor(c))
	if err != nil {
		h.handleChatterError(c, err)
		return
	}
	response.OK(c, chatter)
}

// DeleteChatter 删除主播（默认软删除，?hard=true 物理删除）
// DELETE /api/v1/chatters/:id
func (h *ChatterHandler) DeleteChatter(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	hard := c.Query("hard") == "true"
	if err := h.chatterSvc.Delete(c.Request.Context(), id, hard, GetActor(c)); err != nil {
		h.handleChatterError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "主播已删除"})
}

// ListTeams 团队列表
// GET /api/v1/teams
func (h *ChatterHandler) ListTeams(c *gin.Context) {
	teams, err := h.chatterSvc.ListTeams(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": teams})
}

func (h *ChatterHandler) handleChatterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChatterNotFound), errors.Is(err, service.ErrTeamNotFound):
		response.NotFound(c, 10004, err.Error())
	case errors.Is(err, service.ErrChatterNameExists):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}
