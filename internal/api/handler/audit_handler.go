package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/service"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// AuditHandler 审计日志 HTTP 处理器（仅 admin）
type AuditHandler struct {
	auditSvc service.AuditService
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListAuditLogs 审计日志分页查询
// GET /api/v1/admin/audit-logs
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var query dto.ListAuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entries, total, err := h.auditSvc.List(c.Request.Context(), &query)
	if err != nil {
		response.InternalError(c)
		return
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	response.OKPage(c, entries, total, page, size)
}
