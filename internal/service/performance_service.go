package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/metrics"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 业绩模块业务错误 ──

var (
	ErrPerformanceNotFound = errors.New("业绩记录不存在")
	ErrUnknownMetric       = errors.New("不支持的排名指标")
	ErrBadARTFormat        = errors.New("ART 格式不正确，应为 \"2m 30s\" 或 \"45s\"")
)

// UpsertOutcome 一次 upsert 的结果标签
type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "created"
	OutcomeUpdated UpsertOutcome = "updated"
	OutcomeSkipped UpsertOutcome = "skipped"
)

// 排名指标：求和类按区间累加，均值类按区间内非空值取平均
var (
	sumMetrics = map[string]bool{
		"sales_amount":    true,
		"sold_count":      true,
		"retention_count": true,
		"unlock_count":    true,
	}
	avgMetrics = map[string]bool{
		"sph":             true,
		"golden_ratio":    true,
		"conversion_rate": true,
	}
)

// PerformanceService 每日业绩业务接口
type PerformanceService interface {
	// Upsert 按 (chatter_id, shift_date) 写入或修正业绩，
	// 非 nil 字段覆盖旧值，派生指标随之重算，返回结果标签
	Upsert(ctx context.Context, req *dto.UpsertPerformanceRequest, actor *Actor) (*model.PerformanceDaily, UpsertOutcome, error)
	List(ctx context.Context, query *dto.ListPerformanceQuery) ([]model.PerformanceDaily, error)
	Delete(ctx context.Context, id int64, actor *Actor) error
	KPIs(ctx context.Context, query *dto.ListPerformanceQuery) (*dto.KPISummary, error)
	Rankings(ctx context.Context, query *dto.RankingsQuery) ([]dto.RankingEntry, error)
	// RebuildDaily 重建某日某指标的排名快照
	RebuildDaily(ctx context.Context, req *dto.RebuildRankingsRequest, actor *Actor) ([]model.RankingDaily, error)
}

type performanceService struct {
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

// NewPerformanceService 创建 PerformanceService 实例
func NewPerformanceService(repo *repository.Repository, audit AuditService, logger *zap.Logger) PerformanceService {
	return &performanceService{repo: repo, audit: audit, logger: logger}
}

// ────────────────────── Upsert ──────────────────────

func (s *performanceService) Upsert(ctx context.Context, req *dto.UpsertPerformanceRequest, actor *Actor) (*model.PerformanceDaily, UpsertOutcome, error) {
	chatter, err := s.repo.Chatter.GetByID(ctx, req.ChatterID)
	if err != nil {
		return nil, OutcomeSkipped, err
	}
	if chatter == nil {
		return nil, OutcomeSkipped, ErrChatterNotFound
	}
	date, err := dto.ParseDate(req.ShiftDate)
	if err != nil {
		return nil, OutcomeSkipped, err
	}

	var artSeconds *model.Seconds
	if req.ART != nil && *req.ART != "" {
		d := metrics.ParseARTInterval(*req.ART)
		if d == nil {
			return nil, OutcomeSkipped, ErrBadARTFormat
		}
		sec := model.Seconds(*d)
		artSeconds = &sec
	}

	perf, err := s.repo.Performance.GetByChatterDate(ctx, req.ChatterID, date)
	if err != nil {
		return nil, OutcomeSkipped, err
	}

	outcome := OutcomeUpdated
	if perf == nil {
		outcome = OutcomeCreated
		perf = &model.PerformanceDaily{ChatterID: req.ChatterID, TeamID: chatter.TeamID, ShiftDate: date}
	}
	perf.DeletedAt = nil

	overwriteFloat(&perf.SalesAmount, req.SalesAmount)
	overwriteInt(&perf.SoldCount, req.SoldCount)
	overwriteInt(&perf.RetentionCount, req.RetentionCount)
	overwriteInt(&perf.UnlockCount, req.UnlockCount)
	overwriteFloat(&perf.TotalSales, req.TotalSales)
	overwriteFloat(&perf.SPH, req.SPH)
	overwriteFloat(&perf.GoldenRatio, req.GoldenRatio)
	overwriteFloat(&perf.HingeTopUp, req.HingeTopUp)
	overwriteFloat(&perf.TricksTSF, req.TricksTSF)
	if artSeconds != nil {
		perf.ARTSeconds = artSeconds
	}
	s.recompute(ctx, perf)

	if outcome == OutcomeCreated {
		err = s.repo.Performance.Create(ctx, perf)
	} else {
		err = s.repo.Performance.Update(ctx, perf)
	}
	if err != nil {
		s.logger.Error("写入业绩失败", zap.Error(err))
		return nil, OutcomeSkipped, err
	}
	s.recordAudit(ctx, actor, "performance.upsert", perf.ID, nil, perf)
	return perf, outcome, nil
}

// recompute 重算派生指标；SPH 仅在未显式给出时由班次工时推算
func (s *performanceService) recompute(ctx context.Context, perf *model.PerformanceDaily) {
	perf.ConversionRate = metrics.ComputeConversionRate(perf.SoldCount, perf.RetentionCount, perf.UnlockCount)
	perf.UnlockRatio = metrics.ComputeUnlockRatio(perf.UnlockCount, perf.SoldCount)
	if perf.SPH == nil && perf.TotalSales != nil {
		shift, err := s.repo.Shift.GetByChatterDate(ctx, perf.ChatterID, perf.ShiftDate)
		if err == nil && shift != nil {
			perf.SPH = metrics.ComputeSPH(perf.TotalSales, shift.ActualHours)
		}
	}
}

// ────────────────────── List / Delete ──────────────────────

func (s *performanceService) List(ctx context.Context, query *dto.ListPerformanceQuery) ([]model.PerformanceDaily, error) {
	filter, err := s.toFilter(query)
	if err != nil {
		return nil, err
	}
	return s.repo.Performance.List(ctx, filter)
}

func (s *performanceService) Delete(ctx context.Context, id int64, actor *Actor) error {
	perf, err := s.repo.Performance.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if perf == nil || perf.DeletedAt != nil {
		return ErrPerformanceNotFound
	}
	if err := s.repo.Performance.Delete(ctx, id); err != nil {
		s.logger.Error("删除业绩失败", zap.Error(err))
		return err
	}
	s.recordAudit(ctx, actor, "performance.delete", id, perf, nil)
	return nil
}

// ────────────────────── KPIs ──────────────────────

func (s *performanceService) KPIs(ctx context.Context, query *dto.ListPerformanceQuery) (*dto.KPISummary, error) {
	perfs, err := s.List(ctx, query)
	if err != nil {
		return nil, err
	}

	summary := &dto.KPISummary{RecordCount: len(perfs)}
	chatters := map[int64]bool{}
	var sphSum, grSum, convSum, urSum float64
	var sphN, grN, convN, urN int
	for i := range perfs {
		p := &perfs[i]
		chatters[p.ChatterID] = true
		if p.SalesAmount != nil {
			summary.TotalSales += *p.SalesAmount
		} else if p.TotalSales != nil {
			summary.TotalSales += *p.TotalSales
		}
		if p.SoldCount != nil {
			summary.TotalSold += *p.SoldCount
		}
		if p.RetentionCount != nil {
			summary.TotalRetention += *p.RetentionCount
		}
		if p.UnlockCount != nil {
			summary.TotalUnlock += *p.UnlockCount
		}
		accumulate(p.SPH, &sphSum, &sphN)
		accumulate(p.GoldenRatio, &grSum, &grN)
		accumulate(p.ConversionRate, &convSum, &convN)
		accumulate(p.UnlockRatio, &urSum, &urN)
	}
	summary.ActiveChatters = len(chatters)
	summary.AvgSPH = average(sphSum, sphN)
	summary.AvgGoldenRatio = average(grSum, grN)
	summary.AvgConversion = average(convSum, convN)
	summary.AvgUnlockRatio = average(urSum, urN)
	return summary, nil
}

// ────────────────────── Rankings ──────────────────────

func (s *performanceService) Rankings(ctx context.Context, query *dto.RankingsQuery) ([]dto.RankingEntry, error) {
	if !sumMetrics[query.Metric] && !avgMetrics[query.Metric] {
		return nil, ErrUnknownMetric
	}
	listQuery := &dto.ListPerformanceQuery{StartDate: query.StartDate, EndDate: query.EndDate}
	perfs, err := s.List(ctx, listQuery)
	if err != nil {
		return nil, err
	}

	entries := rankPerformances(perfs, query.Metric)
	if query.Limit > 0 && len(entries) > query.Limit {
		entries = entries[:query.Limit]
	}
	return entries, nil
}

func (s *performanceService) RebuildDaily(ctx context.Context, req *dto.RebuildRankingsRequest, actor *Actor) ([]model.RankingDaily, error) {
	if !sumMetrics[req.Metric] && !avgMetrics[req.Metric] {
		return nil, ErrUnknownMetric
	}
	date, err := dto.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	perfs, err := s.repo.Performance.List(ctx, repository.PerformanceFilter{StartDate: &date, EndDate: &date})
	if err != nil {
		return nil, err
	}
	entries := rankPerformances(perfs, req.Metric)

	rows := make([]model.RankingDaily, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, model.RankingDaily{
			ShiftDate:   date,
			Metric:      req.Metric,
			ChatterID:   e.ChatterID,
			Rank:        e.Rank,
			MetricValue: e.Value,
		})
	}
	if err := s.repo.Ranking.ReplaceForDateMetric(ctx, date, req.Metric, rows); err != nil {
		s.logger.Error("重建排名快照失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "rankings.rebuild", 0, nil, map[string]interface{}{
		"date": req.Date, "metric": req.Metric, "rows": len(rows),
	})
	return rows, nil
}

// rankPerformances 按指标聚合每个主播并生成名次，值并列时按主播名稳定排序
func rankPerformances(perfs []model.PerformanceDaily, metric string) []dto.RankingEntry {
	type agg struct {
		entry dto.RankingEntry
		sum   float64
		n     int
	}
	byID := map[int64]*agg{}
	order := []int64{}
	for i := range perfs {
		p := &perfs[i]
		value := metricValue(p, metric)
		if value == nil {
			continue
		}
		a, ok := byID[p.ChatterID]
		if !ok {
			a = &agg{entry: dto.RankingEntry{ChatterID: p.ChatterID, Metric: metric}}
			if p.Chatter != nil {
				a.entry.ChatterName = p.Chatter.Name
				if p.Chatter.Team != nil {
					a.entry.TeamName = p.Chatter.Team.Name
				}
			}
			byID[p.ChatterID] = a
			order = append(order, p.ChatterID)
		}
		a.sum += *value
		a.n++
	}

	entries := make([]dto.RankingEntry, 0, len(order))
	for _, id := range order {
		a := byID[id]
		if avgMetrics[metric] {
			a.entry.Value = a.sum / float64(a.n)
		} else {
			a.entry.Value = a.sum
		}
		entries = append(entries, a.entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].ChatterName < entries[j].ChatterName
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func metricValue(p *model.PerformanceDaily, metric string) *float64 {
	switch metric {
	case "sales_amount":
		if p.SalesAmount != nil {
			return p.SalesAmount
		}
		return p.TotalSales
	case "sold_count":
		return intToFloat(p.SoldCount)
	case "retention_count":
		return intToFloat(p.RetentionCount)
	case "unlock_count":
		return intToFloat(p.UnlockCount)
	case "sph":
		return p.SPH
	case "golden_ratio":
		return p.GoldenRatio
	case "conversion_rate":
		return p.ConversionRate
	}
	return nil
}

// ────────────────────── helpers ──────────────────────

func (s *performanceService) toFilter(query *dto.ListPerformanceQuery) (repository.PerformanceFilter, error) {
	filter := repository.PerformanceFilter{ChatterID: query.ChatterID, TeamID: query.TeamID}
	var err error
	if filter.StartDate, err = dto.ParseDatePtr(query.StartDate); err != nil {
		return filter, err
	}
	if filter.EndDate, err = dto.ParseDatePtr(query.EndDate); err != nil {
		return filter, err
	}
	return filter, nil
}

func (s *performanceService) recordAudit(ctx context.Context, actor *Actor, action string, targetID int64, before, after interface{}) {
	entry := AuditEntry{Action: action, Entity: "performance", Before: before, After: after}
	if targetID != 0 {
		entry.EntityID = entityID(targetID)
	}
	if actor != nil {
		uid := actor.UserID
		entry.UserID = &uid
		entry.IP = actor.IP
		entry.UserAgent = actor.UserAgent
	}
	s.audit.Record(ctx, entry)
}

func overwriteFloat(dst **float64, src *float64) {
	if src != nil {
		*dst = src
	}
}

func overwriteInt(dst **int, src *int) {
	if src != nil {
		*dst = src
	}
}

func accumulate(v *float64, sum *float64, n *int) {
	if v != nil {
		*sum += *v
		*n++
	}
}

func average(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
