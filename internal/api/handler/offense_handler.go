package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/service"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// OffenseHandler 违规记录模块 HTTP 处理器
type OffenseHandler struct {
	offenseSvc service.OffenseService
}

// NewOffenseHandler 创建 OffenseHandler
func NewOffenseHandler(offenseSvc service.OffenseService) *OffenseHandler {
	return &OffenseHandler{offenseSvc: offenseSvc}
}

// ListOffenses 违规记录列表
// GET /api/v1/offenses
func (h *OffenseHandler) ListOffenses(c *gin.Context) {
	var query dto.ListOffensesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	offenses, err := h.offenseSvc.List(c.Request.Context(), &query)
	if err != nil {
		h.handleOffenseError(c, err)
		return
	}
	response.OK(c, gin.H{"list": offenses})
}

// GetOffense 违规记录详情
// GET /api/v1/offenses/:id
func (h *OffenseHandler) GetOffense(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	offense, err := h.offenseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleOffenseError(c, err)
		return
	}
	response.OK(c, offense)
}

// CreateOffense 创建违规记录
// POST /api/v1/offenses
func (h *OffenseHandler) CreateOffense(c *gin.Context) {
	var req dto.CreateOffenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	offense, err := h.offenseSvc.Create(c.Request.Context(), &req, GetActor(c))
	if err != nil {
		h.handleOffenseError(c, err)
		return
	}
	response.Created(c, offense)
}

// UpdateOffense 更新违规记录
// PUT /api/v1/offenses/:id
func (h *OffenseHandler) UpdateOffense(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOffenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	offense, err := h.offenseSvc.Update(c.Request.Context(), id, &req, GetActor(c))
	if err != nil {
		h.handleOffenseError(c, err)
		return
	}
	response.OK(c, offense)
}

// DeleteOffense 删除违规记录
// DELETE /api/v1/offenses/:id
func (h *OffenseHandler) DeleteOffense(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.offenseSvc.Delete(c.Request.Context(), id, GetActor(c)); err != nil {
		h.handleOffenseError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "违规记录已删除"})
}

func (h *OffenseHandler) handleOffenseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOffenseNotFound), errors.Is(err, service.ErrChatterNotFound):
		response.NotFound(c, 10004, err.Error())
	case isDateError(err):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}
