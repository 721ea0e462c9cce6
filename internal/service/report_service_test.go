package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 测试辅助 ──

func setupTestReportService() (ReportService, *repository.Repository) {
	repo := newMockRepository()
	logger := zap.NewNop()
	svc := NewReportService(repo, NewAuditService(repo, logger), logger)
	return svc, repo
}

// ── 日期预设 ──

func TestResolveDateRange_Presets(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
	today := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		preset    string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"today", today, today},
		{"last7", today.AddDate(0, 0, -6), today},
		{"last30", today.AddDate(0, 0, -29), today},
		{"this_month", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), today},
		{"last_month", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		start, end, err := resolveDateRange(&dto.ReportConfig{DatePreset: c.preset}, now)
		if err != nil {
			t.Errorf("%s: 应成功，实际: %v", c.preset, err)
			continue
		}
		if !start.Equal(c.wantStart) || !end.Equal(c.wantEnd) {
			t.Errorf("%s: 期望 %s..%s，实际 %s..%s", c.preset,
				c.wantStart.Format("2006-01-02"), c.wantEnd.Format("2006-01-02"),
				start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
	}
}

func TestResolveDateRange_PresetOverridesExplicitDates(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	cfg := &dto.ReportConfig{DatePreset: "today", StartDate: "2020-01-01", EndDate: "2020-12-31"}

	start, end, err := resolveDateRange(cfg, now)
	if err != nil {
		t.Fatalf("应成功: %v", err)
	}
	if !start.Equal(now) || !end.Equal(now) {
		t.Errorf("预设应覆盖显式日期，实际 %s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
}

func TestResolveDateRange_Invalid(t *testing.T) {
	now := time.Now()

	if _, _, err := resolveDateRange(&dto.ReportConfig{DatePreset: "fortnight"}, now); !errors.Is(err, ErrBadDatePreset) {
		t.Errorf("期望 ErrBadDatePreset，实际: %v", err)
	}
	if _, _, err := resolveDateRange(&dto.ReportConfig{StartDate: "2025-01-01"}, now); !errors.Is(err, ErrBadReportConfig) {
		t.Errorf("缺少结束日期应报配置错误，实际: %v", err)
	}
	if _, _, err := resolveDateRange(&dto.ReportConfig{StartDate: "2025-02-01", EndDate: "2025-01-01"}, now); !errors.Is(err, ErrBadReportConfig) {
		t.Errorf("起止倒置应报配置错误，实际: %v", err)
	}
}

// ── Run ──

func TestReportService_Run_GroupByChatter(t *testing.T) {
	svc, repo := setupTestReportService()
	a := seedChatter(t, repo, "Alice", nil)
	b := seedChatter(t, repo, "Bob", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(100), SPH: fp(20)})
	seedPerf(t, repo, a, "2025-01-16", model.PerformanceDaily{TotalSales: fp(200), SPH: fp(40)})
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{TotalSales: fp(50)})

	result, err := svc.Run(context.Background(), &dto.ReportConfig{
		StartDate: "2025-01-01",
		EndDate:   "2025-01-31",
		Metrics:   []string{"total_sales", "sph"},
	})
	if err != nil {
		t.Fatalf("Run 应成功: %v", err)
	}
	if result.GroupBy != "chatter" {
		t.Errorf("未指定分组时应默认按 chatter，实际=%s", result.GroupBy)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("期望 2 行，实际=%d", len(result.Rows))
	}

	byName := map[string]dto.ReportRow{}
	for _, r := range result.Rows {
		byName[r.GroupName] = r
	}
	if byName["Alice"].Values["total_sales"] != 300 {
		t.Errorf("Alice 期望总销售=300，实际=%v", byName["Alice"].Values["total_sales"])
	}
	if byName["Alice"].Values["sph"] != 30 {
		t.Errorf("Alice 期望平均 SPH=30，实际=%v", byName["Alice"].Values["sph"])
	}
	if _, ok := byName["Bob"].Values["sph"]; ok {
		t.Error("Bob 无 SPH 数据，结果中不应出现该键")
	}
}

func TestReportService_Run_GroupByDate(t *testing.T) {
	svc, repo := setupTestReportService()
	a := seedChatter(t, repo, "Alice", nil)
	b := seedChatter(t, repo, "Bob", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(100)})
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{TotalSales: fp(200)})
	seedPerf(t, repo, a, "2025-01-16", model.PerformanceDaily{TotalSales: fp(50)})

	result, err := svc.Run(context.Background(), &dto.ReportConfig{
		StartDate: "2025-01-01",
		EndDate:   "2025-01-31",
		GroupBy:   "date",
		Metrics:   []string{"total_sales"},
	})
	if err != nil {
		t.Fatalf("Run 应成功: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("期望 2 行，实际=%d", len(result.Rows))
	}
	// 行按分组键升序
	if result.Rows[0].GroupKey != "2025-01-15" || result.Rows[0].Values["total_sales"] != 300 {
		t.Errorf("期望 2025-01-15 合计 300，实际=%+v", result.Rows[0])
	}
	if result.Rows[1].GroupKey != "2025-01-16" || result.Rows[1].Values["total_sales"] != 50 {
		t.Errorf("期望 2025-01-16 合计 50，实际=%+v", result.Rows[1])
	}
}

func TestReportService_Run_FiltersByChatter(t *testing.T) {
	svc, repo := setupTestReportService()
	a := seedChatter(t, repo, "Alice", nil)
	b := seedChatter(t, repo, "Bob", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(100)})
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{TotalSales: fp(200)})

	result, err := svc.Run(context.Background(), &dto.ReportConfig{
		StartDate:  "2025-01-01",
		EndDate:    "2025-01-31",
		ChatterIDs: []int64{a.ID},
		Metrics:    []string{"total_sales"},
	})
	if err != nil {
		t.Fatalf("Run 应成功: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0].GroupName != "Alice" {
		t.Errorf("期望只剩 Alice 一行，实际=%+v", result.Rows)
	}
}

func TestReportService_Run_RejectsBadInput(t *testing.T) {
	svc, _ := setupTestReportService()

	_, err := svc.Run(context.Background(), &dto.ReportConfig{DatePreset: "today", GroupBy: "quarter"})
	if !errors.Is(err, ErrBadReportGroupBy) {
		t.Errorf("期望 ErrBadReportGroupBy，实际: %v", err)
	}
	_, err = svc.Run(context.Background(), &dto.ReportConfig{DatePreset: "today", Metrics: []string{"vibes"}})
	if !errors.Is(err, ErrBadReportConfig) {
		t.Errorf("期望 ErrBadReportConfig，实际: %v", err)
	}
}

// ── 保存与可见性 ──

func TestReportService_SaveAndRunSaved(t *testing.T) {
	svc, repo := setupTestReportService()
	a := seedChatter(t, repo, "Alice", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{TotalSales: fp(100)})

	owner := &Actor{UserID: 7}
	saved, err := svc.Save(context.Background(), &dto.SaveReportRequest{
		Name: "一月销售",
		Config: dto.ReportConfig{
			StartDate: "2025-01-01",
			EndDate:   "2025-01-31",
			Metrics:   []string{"total_sales"},
		},
	}, owner)
	if err != nil {
		t.Fatalf("保存应成功: %v", err)
	}

	result, err := svc.RunSaved(context.Background(), saved.ID, 7)
	if err != nil {
		t.Fatalf("运行已保存报表应成功: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0].Values["total_sales"] != 100 {
		t.Errorf("期望 Alice 100，实际=%+v", result.Rows)
	}
}

func TestReportService_Save_RejectsBadConfig(t *testing.T) {
	svc, _ := setupTestReportService()

	_, err := svc.Save(context.Background(), &dto.SaveReportRequest{
		Name:   "坏配置",
		Config: dto.ReportConfig{DatePreset: "fortnight"},
	}, nil)
	if !errors.Is(err, ErrBadDatePreset) {
		t.Errorf("保存前应校验配置，实际: %v", err)
	}
}

func TestReportService_Visibility(t *testing.T) {
	svc, _ := setupTestReportService()

	owner := &Actor{UserID: 7}
	private, err := svc.Save(context.Background(), &dto.SaveReportRequest{
		Name:   "私有报表",
		Config: dto.ReportConfig{DatePreset: "today"},
	}, owner)
	if err != nil {
		t.Fatalf("保存应成功: %v", err)
	}

	if _, err := svc.RunSaved(context.Background(), private.ID, 8); !errors.Is(err, ErrReportForbidden) {
		t.Errorf("他人运行私有报表应被拒，实际: %v", err)
	}
	if err := svc.DeleteSaved(context.Background(), private.ID, 8, nil); !errors.Is(err, ErrReportForbidden) {
		t.Errorf("他人删除报表应被拒，实际: %v", err)
	}
	if err := svc.DeleteSaved(context.Background(), private.ID, 7, owner); err != nil {
		t.Fatalf("本人删除应成功: %v", err)
	}
	if _, err := svc.RunSaved(context.Background(), private.ID, 7); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("删除后应报不存在，实际: %v", err)
	}
}

func TestReportService_ListSaved_PublicVisible(t *testing.T) {
	svc, _ := setupTestReportService()

	owner := &Actor{UserID: 7}
	if _, err := svc.Save(context.Background(), &dto.SaveReportRequest{
		Name: "公开报表", IsPublic: true,
		Config: dto.ReportConfig{DatePreset: "today"},
	}, owner); err != nil {
		t.Fatalf("保存应成功: %v", err)
	}
	if _, err := svc.Save(context.Background(), &dto.SaveReportRequest{
		Name:   "私有报表",
		Config: dto.ReportConfig{DatePreset: "today"},
	}, owner); err != nil {
		t.Fatalf("保存应成功: %v", err)
	}

	visible, err := svc.ListSaved(context.Background(), 8)
	if err != nil {
		t.Fatalf("列表应成功: %v", err)
	}
	if len(visible) != 1 || visible[0].Name != "公开报表" {
		t.Errorf("他人只应看到公开报表，实际=%+v", visible)
	}
}
