package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/metrics"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 看板模块业务错误 ──

var (
	ErrDashboardMetricNotFound = errors.New("看板覆盖行不存在")
	ErrBadThresholds           = errors.New("阈值不合法：review_max 必须小于 excellent_min")
)

// DashboardService 看板业务接口
type DashboardService interface {
	// Snapshot 构建看板快照：先按业绩/班次聚合，再合并覆盖行
	Snapshot(ctx context.Context, query *dto.DashboardQuery) (*dto.DashboardSnapshot, error)
	ExportSnapshot(ctx context.Context, query *dto.DashboardQuery) ([]byte, string, error)

	ListMetrics(ctx context.Context) ([]model.DashboardMetric, error)
	CreateMetric(ctx context.Context, req *dto.UpsertDashboardMetricRequest, actor *Actor) (*model.DashboardMetric, error)
	UpdateMetric(ctx context.Context, id int64, req *dto.UpsertDashboardMetricRequest, actor *Actor) (*model.DashboardMetric, error)
	DeleteMetric(ctx context.Context, id int64, actor *Actor) error

	GetThresholds(ctx context.Context) (*dto.ThresholdsResponse, error)
	UpdateThresholds(ctx context.Context, req *dto.UpdateThresholdsRequest, actor *Actor) (*dto.ThresholdsResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, audit AuditService, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, audit: audit, logger: logger}
}

// ────────────────────── Snapshot ──────────────────────

// chatterAgg 单个主播在区间内的聚合中间态
type chatterAgg struct {
	name       string
	teamName   string
	totalSales float64
	hours      float64
	minDate    *time.Time
	maxDate    *time.Time
	sphSum     float64
	sphN       int
	grSum      float64
	grN        int
	urSum      float64
	urN        int
	artSum     float64
	artN       int
	lastShift  string
	lastDate   time.Time
}

func (s *dashboardService) Snapshot(ctx context.Context, query *dto.DashboardQuery) (*dto.DashboardSnapshot, error) {
	start, err := dto.ParseDatePtr(query.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := dto.ParseDatePtr(query.EndDate)
	if err != nil {
		return nil, err
	}

	rows, err := s.buildComputedRows(ctx, start, end, query.TeamID)
	if err != nil {
		return nil, err
	}

	overrides, err := s.repo.Dashboard.ListOverlapping(ctx, start, end)
	if err != nil {
		return nil, err
	}
	rows = mergeOverrides(rows, overrides)

	thresholds, err := s.GetThresholds(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.DashboardSnapshot{Rows: rows, Thresholds: *thresholds}, nil
}

// buildComputedRows 聚合业绩与班次，产出按销售额降序排名的基础行
func (s *dashboardService) buildComputedRows(ctx context.Context, start, end *time.Time, teamID *int64) ([]dto.DashboardRow, error) {
	perfs, err := s.repo.Performance.List(ctx, repository.PerformanceFilter{
		StartDate: start, EndDate: end, TeamID: teamID,
	})
	if err != nil {
		return nil, err
	}
	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilter{StartDate: start, EndDate: end})
	if err != nil {
		return nil, err
	}

	// 班次工时按 (chatter_id, 日期) 汇总，与业绩行同键关联
	hoursByKey := map[string]float64{}
	shiftDayByChatter := map[int64]struct {
		label string
		date  time.Time
	}{}
	for i := range shifts {
		sh := &shifts[i]
		if sh.ActualHours != nil {
			key := fmt.Sprintf("%d|%s", sh.ChatterID, sh.ShiftDate.Format(dto.DateLayout))
			hoursByKey[key] += *sh.ActualHours
		}
		if sh.ShiftDay != nil && *sh.ShiftDay != "" {
			prev, ok := shiftDayByChatter[sh.ChatterID]
			if !ok || sh.ShiftDate.After(prev.date) {
				shiftDayByChatter[sh.ChatterID] = struct {
					label string
					date  time.Time
				}{*sh.ShiftDay, sh.ShiftDate}
			}
		}
	}

	aggByID := map[int64]*chatterAgg{}
	order := []int64{}
	for i := range perfs {
		p := &perfs[i]
		a, ok := aggByID[p.ChatterID]
		if !ok {
			a = &chatterAgg{}
			if p.Chatter != nil {
				a.name = p.Chatter.Name
				if p.Chatter.Team != nil {
					a.teamName = p.Chatter.Team.Name
				}
			}
			aggByID[p.ChatterID] = a
			order = append(order, p.ChatterID)
		}
		if p.TotalSales != nil {
			a.totalSales += *p.TotalSales
		} else if p.SalesAmount != nil {
			a.totalSales += *p.SalesAmount
		}
		key := fmt.Sprintf("%d|%s", p.ChatterID, p.ShiftDate.Format(dto.DateLayout))
		a.hours += hoursByKey[key]
		d := p.ShiftDate
		if a.minDate == nil || d.Before(*a.minDate) {
			dd := d
			a.minDate = &dd
		}
		if a.maxDate == nil || d.After(*a.maxDate) {
			dd := d
			a.maxDate = &dd
		}
		accumulate(p.SPH, &a.sphSum, &a.sphN)
		accumulate(p.GoldenRatio, &a.grSum, &a.grN)
		accumulate(p.UnlockRatio, &a.urSum, &a.urN)
		if p.ARTSeconds != nil {
			a.artSum += time.Duration(*p.ARTSeconds).Seconds()
			a.artN++
		}
		if sd, ok := shiftDayByChatter[p.ChatterID]; ok {
			a.lastShift = sd.label
		}
	}

	rows := make([]dto.DashboardRow, 0, len(order))
	for _, id := range order {
		a := aggByID[id]
		row := dto.DashboardRow{
			ChatterName: a.name,
			TeamName:    a.teamName,
			TotalSales:  round2(a.totalSales),
			WorkedHours: round2(a.hours),
			StartDate:   dto.FormatDatePtr(a.minDate),
			EndDate:     dto.FormatDatePtr(a.maxDate),
			SPH:         average(a.sphSum, a.sphN),
			GR:          displayRatio(average(a.grSum, a.grN)),
			UR:          displayRatio(average(a.urSum, a.urN)),
			Shift:       a.lastShift,
		}
		if row.Shift == "" {
			row.Shift = a.teamName
		}
		// 工时缺失但有平均 SPH 时反推工时
		if row.WorkedHours == 0 && row.SPH != nil && *row.SPH > 0 {
			row.WorkedHours = round2(row.TotalSales / *row.SPH)
		}
		if a.artN > 0 {
			avgART := time.Duration(a.artSum/float64(a.artN)) * time.Second
			row.ART = metrics.FormatInterval(avgART)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalSales > rows[j].TotalSales })
	for i := range rows {
		rows[i].Ranking = i + 1
	}
	return rows, nil
}

// mergeOverrides 把覆盖行合并进计算行：
// 同名覆盖行按 updated_at 最新者生效，整行替换展示字段（名次与班别除外，
// 二者仅在覆盖行给出时替换）；无对应计算行的覆盖行追加为独立行；
// 每轮合并后按名次重排，缺名次的行按新顺序补位
func mergeOverrides(rows []dto.DashboardRow, overrides []model.DashboardMetric) []dto.DashboardRow {
	matched := map[int64]bool{}
	computedNames := map[string]bool{}
	for i := range rows {
		computedNames[normalizeName(rows[i].ChatterName)] = true
	}
	for i := range rows {
		for j := range overrides {
			ov := &overrides[j]
			if normalizeName(ov.ChatterName) != normalizeName(rows[i].ChatterName) {
				continue
			}
			if matched[ov.ID] {
				continue
			}
			applyOverride(&rows[i], ov)
			matched[ov.ID] = true
			break
		}
	}

	resortByRank(rows)

	for j := range overrides {
		ov := &overrides[j]
		// 同名旧覆盖行已被更新的那条取代，不再追加
		if matched[ov.ID] || computedNames[normalizeName(ov.ChatterName)] {
			continue
		}
		rows = append(rows, overrideOnlyRow(ov))
		computedNames[normalizeName(ov.ChatterName)] = true
	}
	resortByRank(rows)

	return rows
}

// applyOverride 覆盖行整行替换展示字段，空字段落为零值；
// 名次与班别仅在覆盖行给出时替换，日期区间保留计算值
func applyOverride(row *dto.DashboardRow, ov *model.DashboardMetric) {
	row.Overridden = true
	id := ov.ID
	row.OverrideID = &id
	row.TotalSales = derefOrZero(ov.TotalSales)
	row.WorkedHours = derefOrZero(ov.WorkedHours)
	sph := derefOrZero(ov.SPH)
	row.SPH = &sph
	gr := derefOrZero(ov.GR)
	row.GR = &gr
	ur := derefOrZero(ov.UR)
	row.UR = &ur
	row.ART = ""
	if ov.ART != nil {
		row.ART = *ov.ART
	}
	if ov.Ranking != nil {
		row.Ranking = *ov.Ranking
	}
	if ov.Shift != nil {
		row.Shift = *ov.Shift
	}
}

func overrideOnlyRow(ov *model.DashboardMetric) dto.DashboardRow {
	row := dto.DashboardRow{ChatterName: ov.ChatterName}
	applyOverride(&row, ov)
	// 纯手工行没有计算日期区间，用覆盖行自己的区间
	row.StartDate = dto.FormatDatePtr(ov.StartDate)
	row.EndDate = dto.FormatDatePtr(ov.EndDate)
	return row
}

// resortByRank 按当前名次升序排（缺名次垫后，同名次按销售额降序），
// 仅给缺名次的行按新顺序补位，已有名次保持不动
func resortByRank(rows []dto.DashboardRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := sortRank(&rows[i]), sortRank(&rows[j])
		if ri != rj {
			return ri < rj
		}
		return rows[i].TotalSales > rows[j].TotalSales
	})
	for i := range rows {
		if rows[i].Ranking == 0 {
			rows[i].Ranking = i + 1
		}
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortRank(r *dto.DashboardRow) float64 {
	if r.Ranking > 0 {
		return float64(r.Ranking)
	}
	return math.Inf(1)
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// displayRatio 占比展示口径：落在 [0,1] 的值视为小数占比，放大为百分数
func displayRatio(v *float64) *float64 {
	if v == nil {
		return nil
	}
	val := *v
	if val >= 0 && val <= 1 {
		val = round2(val * 100)
	} else {
		val = round2(val)
	}
	return &val
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ────────────────────── Export ──────────────────────

var exportHeaders = []string{"Chatter", "Team", "Total Sales", "Worked Hrs", "Start Date", "End Date", "SPH", "ART", "GR", "UR", "Ranking", "Shift"}

func (s *dashboardService) ExportSnapshot(ctx context.Context, query *dto.DashboardQuery) ([]byte, string, error) {
	snapshot, err := s.Snapshot(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Dashboard"
	f.SetSheetName("Sheet1", sheet)
	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	for i, row := range snapshot.Rows {
		values := []interface{}{
			row.ChatterName, row.TeamName, row.TotalSales, row.WorkedHours,
			row.StartDate, row.EndDate, floatOrBlank(row.SPH), row.ART,
			floatOrBlank(row.GR), floatOrBlank(row.UR), row.Ranking, row.Shift,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error("导出看板失败", zap.Error(err))
		return nil, "", err
	}
	filename := fmt.Sprintf("dashboard_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func floatOrBlank(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

// ────────────────────── Metric CRUD ──────────────────────

func (s *dashboardService) ListMetrics(ctx context.Context) ([]model.DashboardMetric, error) {
	return s.repo.Dashboard.ListMetrics(ctx)
}

func (s *dashboardService) CreateMetric(ctx context.Context, req *dto.UpsertDashboardMetricRequest, actor *Actor) (*model.DashboardMetric, error) {
	metric := &model.DashboardMetric{}
	if err := fillMetric(metric, req); err != nil {
		return nil, err
	}
	if err := s.repo.Dashboard.CreateMetric(ctx, metric); err != nil {
		s.logger.Error("创建看板覆盖行失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "dashboard_metric.create", metric.ID, nil, metric)
	return metric, nil
}

func (s *dashboardService) UpdateMetric(ctx context.Context, id int64, req *dto.UpsertDashboardMetricRequest, actor *Actor) (*model.DashboardMetric, error) {
	metric, err := s.repo.Dashboard.GetMetric(ctx, id)
	if err != nil {
		return nil, err
	}
	if metric == nil {
		return nil, ErrDashboardMetricNotFound
	}
	before := *metric
	if err := fillMetric(metric, req); err != nil {
		return nil, err
	}
	if err := s.repo.Dashboard.UpdateMetric(ctx, metric); err != nil {
		s.logger.Error("更新看板覆盖行失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "dashboard_metric.update", id, &before, metric)
	return metric, nil
}

func (s *dashboardService) DeleteMetric(ctx context.Context, id int64, actor *Actor) error {
	metric, err := s.repo.Dashboard.GetMetric(ctx, id)
	if err != nil {
		return err
	}
	if metric == nil {
		return ErrDashboardMetricNotFound
	}
	if err := s.repo.Dashboard.DeleteMetric(ctx, id); err != nil {
		s.logger.Error("删除看板覆盖行失败", zap.Error(err))
		return err
	}
	s.recordAudit(ctx, actor, "dashboard_metric.delete", id, metric, nil)
	return nil
}

func fillMetric(metric *model.DashboardMetric, req *dto.UpsertDashboardMetricRequest) error {
	metric.ChatterName = strings.TrimSpace(req.ChatterName)
	metric.TotalSales = req.TotalSales
	metric.WorkedHours = req.WorkedHours
	metric.SPH = req.SPH
	metric.GR = req.GR
	metric.UR = req.UR
	metric.Ranking = req.Ranking
	metric.ART = req.ART
	metric.Shift = req.Shift
	var err error
	if req.StartDate != nil {
		if metric.StartDate, err = dto.ParseDatePtr(*req.StartDate); err != nil {
			return err
		}
	}
	if req.EndDate != nil {
		if metric.EndDate, err = dto.ParseDatePtr(*req.EndDate); err != nil {
			return err
		}
	}
	return nil
}

// ────────────────────── Thresholds ──────────────────────

func (s *dashboardService) GetThresholds(ctx context.Context) (*dto.ThresholdsResponse, error) {
	t, err := s.repo.Dashboard.GetThresholds(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ThresholdsResponse{ExcellentMin: t.ExcellentMin, ReviewMax: t.ReviewMax}, nil
}

func (s *dashboardService) UpdateThresholds(ctx context.Context, req *dto.UpdateThresholdsRequest, actor *Actor) (*dto.ThresholdsResponse, error) {
	if req.ReviewMax >= req.ExcellentMin {
		return nil, ErrBadThresholds
	}
	t, err := s.repo.Dashboard.GetThresholds(ctx)
	if err != nil {
		return nil, err
	}
	before := *t
	t.ExcellentMin = req.ExcellentMin
	t.ReviewMax = req.ReviewMax
	if err := s.repo.Dashboard.SaveThresholds(ctx, t); err != nil {
		s.logger.Error("保存看板阈值失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "dashboard_thresholds.update", t.ID, before, t)
	return &dto.ThresholdsResponse{ExcellentMin: t.ExcellentMin, ReviewMax: t.ReviewMax}, nil
}

func (s *dashboardService) recordAudit(ctx context.Context, actor *Actor, action string, targetID int64, before, after interface{}) {
	entry := AuditEntry{Action: action, Entity: "dashboard", EntityID: entityID(targetID), Before: before, After: after}
	if actor != nil {
		uid := actor.UserID
		entry.UserID = &uid
		entry.IP = actor.IP
		entry.UserAgent = actor.UserAgent
	}
	s.audit.Record(ctx, entry)
}
