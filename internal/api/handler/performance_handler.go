package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/service"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// PerformanceHandler 业绩模块 HTTP 处理器
type PerformanceHandler struct {
	perfSvc service.PerformanceService
}

// NewPerformanceHandler 创建 PerformanceHandler
func NewPerformanceHandler(perfSvc service.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{perfSvc: perfSvc}
}

// ListPerformance 业绩列表
// GET /api/v1/performance
func (h *PerformanceHandler) ListPerformance(c *gin.Context) {
	var query dto.ListPerformanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	perfs, err := h.perfSvc.List(c.Request.Context(), &query)
	if err != nil {
		h.handlePerfError(c, err)
		return
	}
	response.OK(c, gin.H{"list": perfs})
}

// UpsertPerformance 手工录入/修正业绩
// POST /api/v1/performance
func (h *PerformanceHandler) UpsertPerformance(c *gin.Context) {
	var req dto.UpsertPerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	perf, outcome, err := h.perfSvc.Upsert(c.Request.Context(), &req, GetActor(c))
	if err != nil {
		h.handlePerfError(c, err)
		return
	}
	if outcome == service.OutcomeCreated {
		response.Created(c, gin.H{"outcome": outcome, "record": perf})
		return
	}
	response.OK(c, gin.H{"outcome": outcome, "record": perf})
}

// DeletePerformance 删除业绩记录
// DELETE /api/v1/performance/:id
func (h *PerformanceHandler) DeletePerformance(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.perfSvc.Delete(c.Request.Context(), id, GetActor(c)); err != nil {
		h.handlePerfError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "业绩记录已删除"})
}

// GetKPIs 区间 KPI 汇总
// GET /api/v1/performance/kpis
func (h *PerformanceHandler) GetKPIs(c *gin.Context) {
	var query dto.ListPerformanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	summary, err := h.perfSvc.KPIs(c.Request.Context(), &query)
	if err != nil {
		h.handlePerfError(c, err)
		return
	}
	response.OK(c, summary)
}

// GetRankings 即席排名
// GET /api/v1/performance/rankings
func (h *PerformanceHandler) GetRankings(c *gin.Context) {
	var query dto.RankingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entries, err := h.perfSvc.Rankings(c.Request.Context(), &query)
	if err != nil {
		h.handlePerfError(c, err)
		return
	}
	response.OK(c, gin.H{"metric": query.Metric, "list": entries})
}

// RebuildRankings 重建某日排名快照
// POST /api/v1/performance/rankings/rebuild
func (h *PerformanceHandler) RebuildRankings(c *gin.Context) {
	var req dto.RebuildRankingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rows, err := h.perfSvc.RebuildDaily(c.Request.Context(), &req, GetActor(c))
	if err != nil {
		h.handlePerfError(c, err)
		return
	}
	response.OK(c, gin.H{"date": req.Date, "metric": req.Metric, "rows": len(rows)})
}

func (h *PerformanceHandler) handlePerfError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPerformanceNotFound), errors.Is(err, service.ErrChatterNotFound):
		response.NotFound(c, 10004, err.Error())
	case errors.Is(err, service.ErrUnknownMetric),
		errors.Is(err, service.ErrBadARTFormat),
		isDateError(err):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}
