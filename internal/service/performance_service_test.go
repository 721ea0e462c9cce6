package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 测试辅助 ──

func setupTestPerformanceService() (PerformanceService, *repository.Repository) {
	repo := newMockRepository()
	logger := zap.NewNop()
	svc := NewPerformanceService(repo, NewAuditService(repo, logger), logger)
	return svc, repo
}

// ── Upsert ──

func TestPerformanceService_Upsert_CreateThenUpdate(t *testing.T) {
	svc, repo := setupTestPerformanceService()
	chatter := seedChatter(t, repo, "Alice", nil)

	perf, outcome, err := svc.Upsert(context.Background(), &dto.UpsertPerformanceRequest{
		ChatterID:   chatter.ID,
		ShiftDate:   "2025-01-15",
		SalesAmount: fp(1200),
		SoldCount:   ip(10),
	}, nil)
	if err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("期望 created，实际=%s", outcome)
	}
	if perf.SalesAmount == nil || *perf.SalesAmount != 1200 {
		t.Errorf("期望 sales_amount=1200，实际=%v", perf.SalesAmount)
	}

	// 非 nil 字段覆盖旧值，不是只补空
	perf, outcome, err = svc.Upsert(context.Background(), &dto.UpsertPerformanceRequest{
		ChatterID:   chatter.ID,
		ShiftDate:   "2025-01-15",
		SalesAmount: fp(1500),
	}, nil)
	if err != nil {
		t.Fatalf("二次 Upsert 应成功: %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Errorf("期望 updated，实际=%s", outcome)
	}
	if *perf.SalesAmount != 1500 {
		t.Errorf("期望覆盖为 1500，实际=%v", *perf.SalesAmount)
	}
	if perf.SoldCount == nil || *perf.SoldCount != 10 {
		t.Errorf("未提交的字段应保留，期望 sold=10，实际=%v", perf.SoldCount)
	}
}

func TestPerformanceService_Upsert_RecomputesDerived(t *testing.T) {
	svc, repo := setupTestPerformanceService()
	chatter := seedChatter(t, repo, "Alice", nil)

	perf, _, err := svc.Upsert(context.Background(), &dto.UpsertPerformanceRequest{
		ChatterID:      chatter.ID,
		ShiftDate:      "2025-01-15",
		SoldCount:      ip(10),
		RetentionCount: ip(5),
		UnlockCount:    ip(5),
	}, nil)
	if err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	if perf.ConversionRate == nil || *perf.ConversionRate != 0.5 {
		t.Errorf("期望转化率=0.5，实际=%v", perf.ConversionRate)
	}
	if perf.UnlockRatio == nil || *perf.UnlockRatio != 0.5 {
		t.Errorf("期望解锁率=0.5，实际=%v", perf.UnlockRatio)
	}
}

func TestPerformanceService_Upsert_SPHFromShiftHours(t *testing.T) {
	svc, repo := setupTestPerformanceService()
	chatter := seedChatter(t, repo, "Alice", nil)
	shift := &model.Shift{ChatterID: chatter.ID, ShiftDate: date(t, "2025-01-15"), ActualHours: fp(8)}
	if err := repo.Shift.Create(context.Background(), shift); err != nil {
		t.Fatalf("预置班次失败: %v", err)
	}

	perf, _, err := svc.Upsert(context.Background(), &dto.UpsertPerformanceRequest{
		ChatterID:  chatter.ID,
		ShiftDate:  "2025-01-15",
		TotalSales: fp(240),
	}, nil)
	if err != nil {
		t.Fatalf("Upsert 应成功: %v", err)
	}
	if perf.SPH == nil || *perf.SPH != 30 {
		t.Errorf("SPH 缺省时应由班次工时推算，期望 30，实际=%v", perf.SPH)
	}
}

func TestPerformanceService_Upsert_BadART(t *testing.T) {
	svc, repo := setupTestPerformanceService()
	chatter := seedChatter(t, repo, "Alice", nil)

	_, _, err := svc.Upsert(context.Background(), &dto.UpsertPerformanceRequest{
		ChatterID: chatter.ID,
		ShiftDate: "2025-01-15",
		ART:       sp("three minutes"),
	}, nil)
	if !errors.Is(err, ErrBadARTFormat) {
		t.Errorf("期望 ErrBadARTFormat，实际: %v", err)
	}
}

func TestPerformanceService_Upsert_UnknownChatter(t *testing.T) {
	svc, _ := setupTestPerformanceService()

	_, _, err := svc.Upsert(context.Background(), &dto.UpsertPerformanceRequest{
		ChatterID: 42,
		ShiftDate: "2025-01-15",
	}, nil)
	if !errors.Is(err, ErrChatterNotFound) {
		t.Errorf("期望 ErrChatterNotFound，实际: %v", err)
	}
}

// ── KPIs ──

func TestPerformanceService_KPIs(t *testing.T) {
	svc, repo := setupTestPerformanceService()
	a := seedChatter(t, repo, "Alice", nil)
	b := seedChatter(t, repo, "Bob", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(100), SoldCount: ip(4), SPH: fp(20)})
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(300), SoldCount: ip(6), SPH: fp(40)})

	summary, err := svc.KPIs(context.Background(), &dto.ListPerformanceQuery{})
	if err != nil {
		t.Fatalf("KPIs 应成功: %v", err)
	}
	if summary.TotalSales != 400 {
		t.Errorf("期望总销售=400，实际=%v", summary.TotalSales)
	}
	if summary.TotalSold != 10 {
		t.Errorf("期望总售出=10，实际=%d", summary.TotalSold)
	}
	if summary.AvgSPH == nil || *summary.AvgSPH != 30 {
		t.Errorf("期望平均 SPH=30，实际=%v", summary.AvgSPH)
	}
	if summary.ActiveChatters != 2 || summary.RecordCount != 2 {
		t.Errorf("期望 2 人 2 条，实际=%d 人 %d 条", summary.ActiveChatters, summary.RecordCount)
	}
}

// ── Rankings ──

func TestPerformanceService_Rankings_SumMetric(t *testing.T) {
	svc, repo := setupTestPerformanceService()
	a := seedChatter(t, repo, "Alice", nil)
	b := seedChatter(t, repo, "Bob", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(100)})
	seedPerf(t, repo, a, "2025-01-16", model.PerformanceDaily{SalesAmount: fp(150)})
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(200)})

	entries, err := svc.Rankings(context.Background(), &dto.RankingsQuery{Metric: "sales_amount"})
	if err != nil {
		t.Fatalf("Rankings 应成功: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("期望 2 条，实际=%d", len(entries))
	}
	if entries[0].ChatterName != "Alice" || entries[0].Value != 250 || entries[0].Rank != 1 {
		t.Errorf("期望 Alice 以 250 排第 1，实际=%+v", entries[0])
	}
	if entries[1].ChatterName != "Bob" || entries[1].Value != 200 || entries[1].Rank != 2 {
		t.Errorf("期望 Bob 以 200 排第 2，实际=%+v", entries[1])
	}
}

func TestPerformanceService_Rankings_TieBrokenByName(t *testing.T) {
	svc, repo := setupTestPerformanceService()
	b := seedChatter(t, repo, "Bob", nil)
	a := seedChatter(t, repo, "Alice", nil)
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(100)})
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(100)})

	entries, err := svc.Rankings(context.Background(), &dto.RankingsQuery{Metric: "sales_amount"})
	if err != nil {
		t.Fatalf("Rankings 应成功: %v", err)
	}
	if entries[0].ChatterName != "Alice" {
		t.Errorf("并列时按名字升序，期望 Alice 在前，实际=%s", entries[0].ChatterName)
	}
}

func TestPerformanceService_Rankings_UnknownMetric(t *testing.T) {
	svc, _ := setupTestPerformanceService()

	_, err := svc.Rankings(context.Background(), &dto.RankingsQuery{Metric: "vibes"})
	if !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("期望 ErrUnknownMetric，实际: %v", err)
	}
}

func TestPerformanceService_RebuildDaily(t *testing.T) {
	svc, repo := setupTestPerformanceService()
	a := seedChatter(t, repo, "Alice", nil)
	b := seedChatter(t, repo, "Bob", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(300)})
	seedPerf(t, repo, b, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(100)})

	rows, err := svc.RebuildDaily(context.Background(), &dto.RebuildRankingsRequest{Date: "2025-01-15", Metric: "sales_amount"}, nil)
	if err != nil {
		t.Fatalf("RebuildDaily 应成功: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望 2 条快照，实际=%d", len(rows))
	}

	stored, err := repo.Ranking.List(context.Background(), date(t, "2025-01-15"), "sales_amount")
	if err != nil {
		t.Fatalf("读取快照应成功: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("快照应落库，实际=%d", len(stored))
	}

	// 重建覆盖旧快照而不是追加
	if _, err := svc.RebuildDaily(context.Background(), &dto.RebuildRankingsRequest{Date: "2025-01-15", Metric: "sales_amount"}, nil); err != nil {
		t.Fatalf("再次重建应成功: %v", err)
	}
	stored, _ = repo.Ranking.List(context.Background(), date(t, "2025-01-15"), "sales_amount")
	if len(stored) != 2 {
		t.Errorf("重建不应累积旧行，实际=%d", len(stored))
	}
}

// ── Delete ──

func TestPerformanceService_Delete(t *testing.T) {
	svc, repo := setupTestPerformanceService()
	a := seedChatter(t, repo, "Alice", nil)
	seedPerf(t, repo, a, "2025-01-15", model.PerformanceDaily{SalesAmount: fp(100)})

	perf, _ := repo.Performance.GetByChatterDate(context.Background(), a.ID, date(t, "2025-01-15"))
	if err := svc.Delete(context.Background(), perf.ID, nil); err != nil {
		t.Fatalf("删除应成功: %v", err)
	}
	if err := svc.Delete(context.Background(), perf.ID, nil); !errors.Is(err, ErrPerformanceNotFound) {
		t.Errorf("重复删除应报不存在，实际: %v", err)
	}
}
