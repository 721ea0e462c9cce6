package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/service"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// DashboardHandler 看板模块 HTTP 处理器
type DashboardHandler struct {
	dashSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashSvc: dashSvc}
}

// GetSnapshot 看板快照
// GET /api/v1/dashboard
func (h *DashboardHandler) GetSnapshot(c *gin.Context) {
	var query dto.DashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	snapshot, err := h.dashSvc.Snapshot(c.Request.Context(), &query)
	if err != nil {
		h.handleDashboardError(c, err)
		return
	}
	response.OK(c, snapshot)
}

// ExportSnapshot 导出看板快照为 xlsx
// GET /api/v1/dashboard/export
func (h *DashboardHandler) ExportSnapshot(c *gin.Context) {
	var query dto.DashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	data, filename, err := h.dashSvc.ExportSnapshot(c.Request.Context(), &query)
	if err != nil {
		h.handleDashboardError(c, err)
		return
	}

	response.Attachment(c, filename, data)
}

// ListMetrics 覆盖行列表
// GET /api/v1/dashboard/metrics
func (h *DashboardHandler) ListMetrics(c *gin.Context) {
	metrics, err := h.dashSvc.ListMetrics(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": metrics})
}

// CreateMetric 创建覆盖行
// POST /api/v1/dashboard/metrics
func (h *DashboardHandler) CreateMetric(c *gin.Context) {
	var req dto.UpsertDashboardMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	metric, err := h.dashSvc.CreateMetric(c.Request.Context(), &req, GetActor(c))
	if err != nil {
		h.handleDashboardError(c, err)
		return
	}
	response.Created(c, metric)
}

// UpdateMetric 更新覆盖行
// PUT /api/v1/dashboard/metrics/:id
func (h *DashboardHandler) UpdateMetric(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpsertDashboardMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	metric, err := h.dashSvc.UpdateMetric(c.Request.Context(), id, &req, GetActor(c))
	if err != nil {
		h.handleDashboardError(c, err)
		return
	}
	response.OK(c, metric)
}

// DeleteMetric 删除覆盖行
// DELETE /api/v1/dashboard/metrics/:id
func (h *DashboardHandler) DeleteMetric(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.dashSvc.DeleteMetric(c.Request.Context(), id, GetActor(c)); err != nil {
		h.handleDashboardError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "覆盖行已删除"})
}

// GetThresholds 看板阈值
// GET /api/v1/dashboard/thresholds
func (h *DashboardHandler) GetThresholds(c *gin.Context) {
	thresholds, err := h.dashSvc.GetThresholds(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, thresholds)
}

// UpdateThresholds 更新看板阈值
// PUT /api/v1/dashboard/thresholds
func (h *DashboardHandler) UpdateThresholds(c *gin.Context) {
	var req dto.UpdateThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	thresholds, err := h.dashSvc.UpdateThresholds(c.Request.Context(), &req, GetActor(c))
	if err != nil {
		h.handleDashboardError(c, err)
		return
	}
	response.OK(c, thresholds)
}

func (h *DashboardHandler) handleDashboardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDashboardMetricNotFound):
		response.NotFound(c, 10004, err.Error())
	case errors.Is(err, service.ErrBadThresholds), isDateError(err):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}
