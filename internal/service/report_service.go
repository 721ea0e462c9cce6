package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 报表模块业务错误 ──

var (
	ErrReportNotFound   = errors.New("报表不存在")
	ErrReportForbidden  = errors.New("无权访问该报表")
	ErrBadReportConfig  = errors.New("报表配置不合法")
	ErrBadDatePreset    = errors.New("不支持的日期预设")
	ErrBadReportGroupBy = errors.New("不支持的分组方式，应为 chatter / team / date")
)

// 报表可选指标，与排名指标共用口径
var reportMetrics = map[string]bool{
	"sales_amount":    true,
	"sold_count":      true,
	"retention_count": true,
	"unlock_count":    true,
	"total_sales":     true,
	"sph":             true,
	"golden_ratio":    true,
	"conversion_rate": true,
	"unlock_ratio":    true,
}

// ReportService 报表业务接口
type ReportService interface {
	Run(ctx context.Context, cfg *dto.ReportConfig) (*dto.ReportResult, error)
	Save(ctx context.Context, req *dto.SaveReportRequest, actor *Actor) (*model.SavedReport, error)
	ListSaved(ctx context.Context, userID int64) ([]model.SavedReport, error)
	// RunSaved 运行已保存的报表，仅公开报表或本人报表可运行
	RunSaved(ctx context.Context, id, userID int64) (*dto.ReportResult, error)
	DeleteSaved(ctx context.Context, id, userID int64, actor *Actor) error
}

type reportService struct {
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, audit AuditService, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, audit: audit, logger: logger}
}

// ────────────────────── Run ──────────────────────

func (s *reportService) Run(ctx context.Context, cfg *dto.ReportConfig) (*dto.ReportResult, error) {
	start, end, err := resolveDateRange(cfg, time.Now())
	if err != nil {
		return nil, err
	}
	groupBy := cfg.GroupBy
	if groupBy == "" {
		groupBy = "chatter"
	}
	if groupBy != "chatter" && groupBy != "team" && groupBy != "date" {
		return nil, ErrBadReportGroupBy
	}
	metricNames := cfg.Metrics
	if len(metricNames) == 0 {
		metricNames = []string{"total_sales", "sph"}
	}
	for _, m := range metricNames {
		if !reportMetrics[m] {
			return nil, fmt.Errorf("%w: %s", ErrBadReportConfig, m)
		}
	}

	perfs, err := s.repo.Performance.List(ctx, repository.PerformanceFilter{StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, err
	}
	perfs = filterPerformances(perfs, cfg)

	rows := groupPerformances(perfs, groupBy, metricNames)
	return &dto.ReportResult{
		StartDate: start.Format(dto.DateLayout),
		EndDate:   end.Format(dto.DateLayout),
		GroupBy:   groupBy,
		Rows:      rows,
	}, nil
}

// resolveDateRange 日期预设优先于显式起止日期
func resolveDateRange(cfg *dto.ReportConfig, now time.Time) (time.Time, time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch cfg.DatePreset {
	case "":
	case "today":
		return today, today, nil
	case "last7":
		return today.AddDate(0, 0, -6), today, nil
	case "last30":
		return today.AddDate(0, 0, -29), today, nil
	case "this_month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first, today, nil
	case "last_month":
		firstThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		firstLast := firstThis.AddDate(0, -1, 0)
		return firstLast, firstThis.AddDate(0, 0, -1), nil
	default:
		return time.Time{}, time.Time{}, ErrBadDatePreset
	}

	if cfg.StartDate == "" || cfg.EndDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 缺少起止日期", ErrBadReportConfig)
	}
	start, err := dto.ParseDate(cfg.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := dto.ParseDate(cfg.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 结束日期早于开始日期", ErrBadReportConfig)
	}
	return start, end, nil
}

func filterPerformances(perfs []model.PerformanceDaily, cfg *dto.ReportConfig) []model.PerformanceDaily {
	if len(cfg.ChatterIDs) == 0 && len(cfg.TeamIDs) == 0 {
		return perfs
	}
	chatterSet := map[int64]bool{}
	for _, id := range cfg.ChatterIDs {
		chatterSet[id] = true
	}
	teamSet := map[int64]bool{}
	for _, id := range cfg.TeamIDs {
		teamSet[id] = true
	}

	out := perfs[:0]
	for i := range perfs {
		p := perfs[i]
		if len(chatterSet) > 0 && !chatterSet[p.ChatterID] {
			continue
		}
		if len(teamSet) > 0 {
			if p.TeamID == nil || !teamSet[*p.TeamID] {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// groupPerformances 聚合报表行：求和类指标累加，占比/均值类取非空均值
func groupPerformances(perfs []model.PerformanceDaily, groupBy string, metricNames []string) []dto.ReportRow {
	type agg struct {
		name string
		sums map[string]float64
		ns   map[string]int
	}
	groups := map[string]*agg{}
	order := []string{}

	for i := range perfs {
		p := &perfs[i]
		key, name := groupKey(p, groupBy)
		g, ok := groups[key]
		if !ok {
			g = &agg{name: name, sums: map[string]float64{}, ns: map[string]int{}}
			groups[key] = g
			order = append(order, key)
		}
		for _, m := range metricNames {
			if v := metricValue(p, m); v != nil {
				g.sums[m] += *v
				g.ns[m]++
			} else if m == "total_sales" && p.TotalSales != nil {
				g.sums[m] += *p.TotalSales
				g.ns[m]++
			} else if m == "unlock_ratio" && p.UnlockRatio != nil {
				g.sums[m] += *p.UnlockRatio
				g.ns[m]++
			}
		}
	}

	rows := make([]dto.ReportRow, 0, len(order))
	for _, key := range order {
		g := groups[key]
		values := map[string]float64{}
		for _, m := range metricNames {
			if g.ns[m] == 0 {
				continue
			}
			if avgMetrics[m] || m == "unlock_ratio" {
				values[m] = g.sums[m] / float64(g.ns[m])
			} else {
				values[m] = g.sums[m]
			}
		}
		rows = append(rows, dto.ReportRow{GroupKey: key, GroupName: g.name, Values: values})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].GroupKey < rows[j].GroupKey })
	return rows
}

func groupKey(p *model.PerformanceDaily, groupBy string) (key, name string) {
	switch groupBy {
	case "team":
		if p.Chatter != nil && p.Chatter.Team != nil {
			return fmt.Sprintf("team:%d", p.Chatter.Team.ID), p.Chatter.Team.Name
		}
		if p.TeamID != nil {
			return fmt.Sprintf("team:%d", *p.TeamID), ""
		}
		return "team:none", "未分组"
	case "date":
		d := p.ShiftDate.Format(dto.DateLayout)
		return d, d
	default:
		name := ""
		if p.Chatter != nil {
			name = p.Chatter.Name
		}
		return fmt.Sprintf("chatter:%d", p.ChatterID), name
	}
}

// ────────────────────── Saved ──────────────────────

func (s *reportService) Save(ctx context.Context, req *dto.SaveReportRequest, actor *Actor) (*model.SavedReport, error) {
	// 保存前先校验配置可运行
	if _, _, err := resolveDateRange(&req.Config, time.Now()); err != nil {
		return nil, err
	}
	configMap := toJSONMap(req.Config)
	if configMap == nil {
		return nil, ErrBadReportConfig
	}

	report := &model.SavedReport{
		Name:       req.Name,
		ConfigJSON: configMap,
		IsPublic:   req.IsPublic,
	}
	if req.Description != "" {
		report.Description = &req.Description
	}
	if actor != nil {
		uid := actor.UserID
		report.OwnerUserID = &uid
	}
	if err := s.repo.Report.Create(ctx, report); err != nil {
		s.logger.Error("保存报表失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "report.save", report.ID, nil, report)
	return report, nil
}

func (s *reportService) ListSaved(ctx context.Context, userID int64) ([]model.SavedReport, error) {
	return s.repo.Report.ListVisible(ctx, userID)
}

func (s *reportService) RunSaved(ctx context.Context, id, userID int64) (*dto.ReportResult, error) {
	report, err := s.getVisible(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(report.ConfigJSON)
	if err != nil {
		return nil, ErrBadReportConfig
	}
	var cfg dto.ReportConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, ErrBadReportConfig
	}
	return s.Run(ctx, &cfg)
}

func (s *reportService) DeleteSaved(ctx context.Context, id, userID int64, actor *Actor) error {
	report, err := s.repo.Report.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if report == nil {
		return ErrReportNotFound
	}
	if report.OwnerUserID == nil || *report.OwnerUserID != userID {
		return ErrReportForbidden
	}
	if err := s.repo.Report.Delete(ctx, id); err != nil {
		s.logger.Error("删除报表失败", zap.Error(err))
		return err
	}
	s.recordAudit(ctx, actor, "report.delete", id, report, nil)
	return nil
}

func (s *reportService) getVisible(ctx context.Context, id, userID int64) (*model.SavedReport, error) {
	report, err := s.repo.Report.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	if !report.IsPublic && (report.OwnerUserID == nil || *report.OwnerUserID != userID) {
		return nil, ErrReportForbidden
	}
	return report, nil
}

func (s *reportService) recordAudit(ctx context.Context, actor *Actor, action string, targetID int64, before, after interface{}) {
	entry := AuditEntry{Action: action, Entity: "report", EntityID: entityID(targetID), Before: before, After: after}
	if actor != nil {
		uid := actor.UserID
		entry.UserID = &uid
		entry.IP = actor.IP
		entry.UserAgent = actor.UserAgent
	}
	s.audit.Record(ctx, entry)
}
