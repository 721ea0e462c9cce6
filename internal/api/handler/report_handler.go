package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/service"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// RunReport 即席运行报表
// POST /api/v1/reports/run
func (h *ReportHandler) RunReport(c *gin.Context) {
	var req dto.RunReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reportSvc.Run(c.Request.Context(), &req.Config)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, result)
}

// SaveReport 保存报表配置
// POST /api/v1/reports/saved
func (h *ReportHandler) SaveReport(c *gin.Context) {
	var req dto.SaveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	report, err := h.reportSvc.Save(c.Request.Context(), &req, GetActor(c))
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.Created(c, report)
}

// ListSavedReports 可见报表列表（公开 + 本人）
// GET /api/v1/reports/saved
func (h *ReportHandler) ListSavedReports(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	reports, err := h.reportSvc.ListSaved(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": reports})
}

// RunSavedReport 运行已保存报表
// POST /api/v1/reports/saved/:id/run
func (h *ReportHandler) RunSavedReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.reportSvc.RunSaved(c.Request.Context(), id, userID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteSavedReport 删除本人保存的报表
// DELETE /api/v1/reports/saved/:id
func (h *ReportHandler) DeleteSavedReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.reportSvc.DeleteSaved(c.Request.Context(), id, userID, GetActor(c)); err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "报表已删除"})
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, 10004, err.Error())
	case errors.Is(err, service.ErrReportForbidden):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, service.ErrBadReportConfig),
		errors.Is(err, service.ErrBadDatePreset),
		errors.Is(err, service.ErrBadReportGroupBy),
		isDateError(err):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}
