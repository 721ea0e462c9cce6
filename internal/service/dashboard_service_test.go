package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 测试辅助 ──

func setupTestDashboardService() (DashboardService, *repository.Repository) {
	repo := newMockRepository()
	logger := zap.NewNop()
	svc := NewDashboardService(repo, NewAuditService(repo, logger), logger)
	return svc, repo
}

// seedPerf 直接向 mock 仓储塞入带关联的业绩行
func seedPerf(t *testing.T, repo *repository.Repository, chatter *model.Chatter, day string, perf model.PerformanceDaily) {
	t.Helper()
	perf.ChatterID = chatter.ID
	perf.Chatter = chatter
	perf.ShiftDate = date(t, day)
	if err := repo.Performance.Create(context.Background(), &perf); err != nil {
		t.Fatalf("预置业绩行失败: %v", err)
	}
}

func seedChatter(t *testing.T, repo *repository.Repository, name string, team *model.Team) *model.Chatter {
	t.Helper()
	c := &model.Chatter{Name: name, IsActive: true}
	if team != nil {
		c.TeamID = &team.ID
		c.Team = team
	}
	if err := repo.Chatter.Create(context.Background(), c); err != nil {
		t.Fatalf("预置主播失败: %v", err)
	}
	return c
}

func snapshotRows(t *testing.T, svc DashboardService) []dto.DashboardRow {
	t.Helper()
	snap, err := svc.Snapshot(context.Background(), &dto.DashboardQuery{})
	if err != nil {
		t.Fatalf("Snapshot 应成功: %v", err)
	}
	return snap.Rows
}

// ── Snapshot 聚合 ──

func TestDashboardService_Snapshot_RanksBySales(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	b := seedChatter(t, repo, "Bob", nil)
	c := seedChatter(t, repo, "Carol", nil)
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{TotalSales: fp(200)})
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})
	seedPerf(t, repo, c, "2025-01-15", model.PerformanceDaily{TotalSales: fp(100)})

	rows := snapshotRows(t, svc)
	if len(rows) != 3 {
		t.Fatalf("期望 3 行，实际=%d", len(rows))
	}
	wantOrder := []string{"Alice", "Bob", "Carol"}
	for i, want := range wantOrder {
		if rows[i].ChatterName != want {
			t.Errorf("第 %d 名期望 %s，实际=%s", i+1, want, rows[i].ChatterName)
		}
		if rows[i].Ranking != i+1 {
			t.Errorf("%s 期望名次=%d，实际=%d", want, i+1, rows[i].Ranking)
		}
	}
}

func TestDashboardService_Snapshot_DefaultThresholds(t *testing.T) {
	svc, _ := setupTestDashboardService()

	snap, err := svc.Snapshot(context.Background(), &dto.DashboardQuery{})
	if err != nil {
		t.Fatalf("Snapshot 应成功: %v", err)
	}
	if snap.Thresholds.ExcellentMin != 100 || snap.Thresholds.ReviewMax != 40 {
		t.Errorf("期望默认阈值 100/40，实际=%v/%v", snap.Thresholds.ExcellentMin, snap.Thresholds.ReviewMax)
	}
}

func TestDashboardService_Snapshot_SalesFallbackAndDates(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	// total_sales 缺失时回退 sales_amount
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(150)})
	seedPerf(t, repo, a, "2025-01-17", model.PerformanceDaily{TotalSales: fp(250)})

	rows := snapshotRows(t, svc)
	if len(rows) != 1 {
		t.Fatalf("期望 1 行，实际=%d", len(rows))
	}
	if rows[0].TotalSales != 400 {
		t.Errorf("期望销售额=400，实际=%v", rows[0].TotalSales)
	}
	if rows[0].StartDate != "2025-01-15" || rows[0].EndDate != "2025-01-17" {
		t.Errorf("期望区间 2025-01-15..2025-01-17，实际=%s..%s", rows[0].StartDate, rows[0].EndDate)
	}
}

func TestDashboardService_Snapshot_JoinsShiftHours(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})
	shift := &model.Shift{ChatterID: a.ID, ShiftDate: date(t, "2025-01-15"), ActualHours: fp(7.5), ShiftDay: sp("Night")}
	if err := repo.Shift.Create(context.Background(), shift); err != nil {
		t.Fatalf("预置班次失败: %v", err)
	}

	rows := snapshotRows(t, svc)
	if rows[0].WorkedHours != 7.5 {
		t.Errorf("期望工时=7.5，实际=%v", rows[0].WorkedHours)
	}
	if rows[0].Shift != "Night" {
		t.Errorf("期望班次标签=Night，实际=%q", rows[0].Shift)
	}
}

func TestDashboardService_Snapshot_BackDerivesHours(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	// 无班次工时，但有 SPH：工时 = 销售额 / SPH
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300), SPH: fp(30)})

	rows := snapshotRows(t, svc)
	if rows[0].WorkedHours != 10 {
		t.Errorf("期望反推工时=10，实际=%v", rows[0].WorkedHours)
	}
}

func TestDashboardService_Snapshot_RatioDisplayAndART(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	art := model.Seconds(3*time.Minute + 40*time.Second)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{
		TotalSales:  fp(300),
		GoldenRatio: fp(0.8),
		UnlockRatio: fp(0.25),
		ARTSeconds:  &art,
	})

	rows := snapshotRows(t, svc)
	if rows[0].GR == nil || *rows[0].GR != 80 {
		t.Errorf("[0,1] 内的占比应放大为百分数，期望 GR=80，实际=%v", rows[0].GR)
	}
	if rows[0].UR == nil || *rows[0].UR != 25 {
		t.Errorf("期望 UR=25，实际=%v", rows[0].UR)
	}
	if rows[0].ART != "3m 40s" {
		t.Errorf("期望 ART=3m 40s，实际=%q", rows[0].ART)
	}
}

func TestDashboardService_Snapshot_ShiftFallsBackToTeam(t *testing.T) {
	svc, repo := setupTestDashboardService()

	team := &model.Team{Name: "Alpha"}
	if err := repo.Team.Create(context.Background(), team); err != nil {
		t.Fatalf("预置团队失败: %v", err)
	}
	a := seedChatter(t, repo, "Alice", team)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})

	rows := snapshotRows(t, svc)
	if rows[0].Shift != "Alpha" {
		t.Errorf("无班次标签时应回退团队名，实际=%q", rows[0].Shift)
	}
	if rows[0].TeamName != "Alpha" {
		t.Errorf("期望团队名=Alpha，实际=%q", rows[0].TeamName)
	}
}

// ── 覆盖行合并 ──

func TestDashboardService_Snapshot_OverrideReplacesFields(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})

	ov := &model.DashboardMetric{ChatterName: " alice ", TotalSales: fp(999), StartDate: nil}
	if err := repo.Dashboard.CreateMetric(context.Background(), ov); err != nil {
		t.Fatalf("预置覆盖行失败: %v", err)
	}

	rows := snapshotRows(t, svc)
	if len(rows) != 1 {
		t.Fatalf("覆盖行应合并进计算行而不是另起一行，实际行数=%d", len(rows))
	}
	if !rows[0].Overridden {
		t.Error("合并后应标记 overridden")
	}
	if rows[0].OverrideID == nil || *rows[0].OverrideID != ov.ID {
		t.Errorf("应携带覆盖行 ID，实际=%v", rows[0].OverrideID)
	}
	if rows[0].TotalSales != 999 {
		t.Errorf("覆盖值应替换计算值，期望 999，实际=%v", rows[0].TotalSales)
	}
	// 计算出的日期区间保留，不被覆盖行的区间替换
	if rows[0].StartDate != "2025-01-15" {
		t.Errorf("合并不应改动计算日期区间，实际=%s", rows[0].StartDate)
	}
}

func TestDashboardService_Snapshot_OverrideZeroesOmittedFields(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	art := model.Seconds(2 * time.Minute)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{
		TotalSales:  fp(300),
		SPH:         fp(30),
		GoldenRatio: fp(0.8),
		ARTSeconds:  &art,
	})

	// 覆盖行只填班别：整行替换，未填的展示字段落为零值
	ov := &model.DashboardMetric{ChatterName: "Alice", Shift: sp("Night")}
	if err := repo.Dashboard.CreateMetric(context.Background(), ov); err != nil {
		t.Fatalf("预置覆盖行失败: %v", err)
	}

	rows := snapshotRows(t, svc)
	if len(rows) != 1 {
		t.Fatalf("期望 1 行，实际=%d", len(rows))
	}
	if !rows[0].Overridden {
		t.Error("合并后应标记 overridden")
	}
	if rows[0].Shift != "Night" {
		t.Errorf("期望班别=Night，实际=%q", rows[0].Shift)
	}
	if rows[0].TotalSales != 0 || rows[0].WorkedHours != 0 {
		t.Errorf("覆盖行未填的销售额/工时应落为 0，实际=%v/%v", rows[0].TotalSales, rows[0].WorkedHours)
	}
	if rows[0].SPH == nil || *rows[0].SPH != 0 {
		t.Errorf("覆盖行未填的 SPH 应落为 0，实际=%v", rows[0].SPH)
	}
	if rows[0].GR == nil || *rows[0].GR != 0 {
		t.Errorf("覆盖行未填的 GR 应落为 0，实际=%v", rows[0].GR)
	}
	if rows[0].ART != "" {
		t.Errorf("覆盖行未填的 ART 应清空，实际=%q", rows[0].ART)
	}
}

func TestDashboardService_Snapshot_OverrideRatioNotRescaled(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})

	// 覆盖行的占比按原样展示，不做小数到百分数的换算
	ov := &model.DashboardMetric{ChatterName: "Alice", GR: fp(0.5), UR: fp(0.25)}
	if err := repo.Dashboard.CreateMetric(context.Background(), ov); err != nil {
		t.Fatalf("预置覆盖行失败: %v", err)
	}

	rows := snapshotRows(t, svc)
	if rows[0].GR == nil || *rows[0].GR != 0.5 {
		t.Errorf("期望 GR=0.5，实际=%v", rows[0].GR)
	}
	if rows[0].UR == nil || *rows[0].UR != 0.25 {
		t.Errorf("期望 UR=0.25，实际=%v", rows[0].UR)
	}
}

func TestDashboardService_Snapshot_ExplicitRankResorts(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	b := seedChatter(t, repo, "Bob", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{TotalSales: fp(100)})

	// 给销售额更低的 Bob 指定第 1 名并改写销售额
	ov := &model.DashboardMetric{ChatterName: "Bob", Ranking: ip(1), TotalSales: fp(400)}
	if err := repo.Dashboard.CreateMetric(context.Background(), ov); err != nil {
		t.Fatalf("预置覆盖行失败: %v", err)
	}

	rows := snapshotRows(t, svc)
	// Alice 的计算名次 1 与 Bob 的指定名次 1 并列，按销售额降序 Bob 在前；
	// 已有名次的行不重新编号，并列名次照实展示
	if rows[0].ChatterName != "Bob" || rows[0].Ranking != 1 {
		t.Errorf("期望 Bob 第 1 在前，实际=%s 第 %d", rows[0].ChatterName, rows[0].Ranking)
	}
	if rows[1].ChatterName != "Alice" || rows[1].Ranking != 1 {
		t.Errorf("Alice 的计算名次应保留为 1，实际=%s 第 %d", rows[1].ChatterName, rows[1].Ranking)
	}
}

func TestDashboardService_Snapshot_SalesOverrideKeepsComputedRank(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	b := seedChatter(t, repo, "Bob", nil)
	c := seedChatter(t, repo, "Carol", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{TotalSales: fp(200)})
	seedPerf(t, repo, c, "2025-01-15", model.PerformanceDaily{TotalSales: fp(100)})

	// 只改 Carol 的销售额、不给名次：计算名次 3 保留，行序不变
	ov := &model.DashboardMetric{ChatterName: "Carol", TotalSales: fp(500)}
	if err := repo.Dashboard.CreateMetric(context.Background(), ov); err != nil {
		t.Fatalf("预置覆盖行失败: %v", err)
	}

	rows := snapshotRows(t, svc)
	wantOrder := []string{"Alice", "Bob", "Carol"}
	for i, want := range wantOrder {
		if rows[i].ChatterName != want {
			t.Errorf("第 %d 行期望 %s，实际=%s", i+1, want, rows[i].ChatterName)
		}
	}
	if rows[2].Ranking != 3 {
		t.Errorf("Carol 的计算名次应保留为 3，实际=%d", rows[2].Ranking)
	}
	if rows[2].TotalSales != 500 {
		t.Errorf("期望 Carol 销售额=500，实际=%v", rows[2].TotalSales)
	}
}

func TestDashboardService_Snapshot_OverrideOnlyRowAppended(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})

	start := date(t, "2025-01-01")
	end := date(t, "2025-01-31")
	ov := &model.DashboardMetric{ChatterName: "Ghost", TotalSales: fp(50), StartDate: &start, EndDate: &end}
	if err := repo.Dashboard.CreateMetric(context.Background(), ov); err != nil {
		t.Fatalf("预置覆盖行失败: %v", err)
	}

	rows := snapshotRows(t, svc)
	if len(rows) != 2 {
		t.Fatalf("无计算行对应的覆盖行应追加，期望 2 行，实际=%d", len(rows))
	}
	var ghost *dto.DashboardRow
	for i := range rows {
		if rows[i].ChatterName == "Ghost" {
			ghost = &rows[i]
		}
	}
	if ghost == nil {
		t.Fatal("应存在 Ghost 行")
	}
	if !ghost.Overridden {
		t.Error("追加行应标记 overridden")
	}
	// 纯手工行用覆盖行自己的日期区间
	if ghost.StartDate != "2025-01-01" || ghost.EndDate != "2025-01-31" {
		t.Errorf("期望区间 2025-01-01..2025-01-31，实际=%s..%s", ghost.StartDate, ghost.EndDate)
	}
	if ghost.Ranking != 2 {
		t.Errorf("无显式名次的追加行应垫后，期望第 2，实际=%d", ghost.Ranking)
	}
}

func TestDashboardService_Snapshot_LatestOverrideWins(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})

	old := &model.DashboardMetric{ChatterName: "Alice", TotalSales: fp(111), UpdatedAt: time.Now().Add(-time.Hour)}
	fresh := &model.DashboardMetric{ChatterName: "Alice", TotalSales: fp(222), UpdatedAt: time.Now()}
	for _, ov := range []*model.DashboardMetric{old, fresh} {
		if err := repo.Dashboard.CreateMetric(context.Background(), ov); err != nil {
			t.Fatalf("预置覆盖行失败: %v", err)
		}
	}

	rows := snapshotRows(t, svc)
	if len(rows) != 1 {
		t.Fatalf("旧的同名覆盖行不应追加成新行，实际行数=%d", len(rows))
	}
	if rows[0].TotalSales != 222 {
		t.Errorf("updated_at 最新的覆盖行应生效，期望 222，实际=%v", rows[0].TotalSales)
	}
}

// ── 覆盖行 CRUD 与阈值 ──

func TestDashboardService_UpdateMetric_NotFound(t *testing.T) {
	svc, _ := setupTestDashboardService()

	_, err := svc.UpdateMetric(context.Background(), 42, &dto.UpsertDashboardMetricRequest{ChatterName: "x"}, nil)
	if !errors.Is(err, ErrDashboardMetricNotFound) {
		t.Errorf("期望 ErrDashboardMetricNotFound，实际: %v", err)
	}
}

func TestDashboardService_CreateMetric_BadDate(t *testing.T) {
	svc, _ := setupTestDashboardService()

	_, err := svc.CreateMetric(context.Background(), &dto.UpsertDashboardMetricRequest{
		ChatterName: "Alice",
		StartDate:   sp("15/01/2025"),
	}, nil)
	if !errors.Is(err, dto.ErrBadDate) {
		t.Errorf("期望日期格式错误，实际: %v", err)
	}
}

func TestDashboardService_UpdateThresholds(t *testing.T) {
	svc, _ := setupTestDashboardService()

	_, err := svc.UpdateThresholds(context.Background(), &dto.UpdateThresholdsRequest{ExcellentMin: 50, ReviewMax: 60}, nil)
	if !errors.Is(err, ErrBadThresholds) {
		t.Fatalf("review_max >= excellent_min 应被拒绝，实际: %v", err)
	}

	resp, err := svc.UpdateThresholds(context.Background(), &dto.UpdateThresholdsRequest{ExcellentMin: 200, ReviewMax: 80}, nil)
	if err != nil {
		t.Fatalf("更新阈值应成功: %v", err)
	}
	if resp.ExcellentMin != 200 || resp.ReviewMax != 80 {
		t.Errorf("期望阈值 200/80，实际=%v/%v", resp.ExcellentMin, resp.ReviewMax)
	}

	got, err := svc.GetThresholds(context.Background())
	if err != nil {
		t.Fatalf("读取阈值应成功: %v", err)
	}
	if got.ExcellentMin != 200 || got.ReviewMax != 80 {
		t.Errorf("阈值应持久化，实际=%v/%v", got.ExcellentMin, got.ReviewMax)
	}
}

func TestDashboardService_ExportSnapshot(t *testing.T) {
	svc, repo := setupTestDashboardService()

	a := seedChatter(t, repo, "Alice", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(300)})

	data, filename, err := svc.ExportSnapshot(context.Background(), &dto.DashboardQuery{})
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if len(data) == 0 {
		t.Error("导出内容不应为空")
	}
	if !strings.HasPrefix(filename, "dashboard_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应形如 dashboard_*.xlsx，实际=%q", filename)
	}
}
