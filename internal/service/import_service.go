package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/config"
	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/metrics"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 导入模块业务错误 ──

var (
	ErrUnsupportedFileType = errors.New("不支持的文件类型，仅接受 .xlsx / .xls / .csv")
	ErrMissingColumns      = errors.New("表头缺少必需列")
	ErrSheetNotFound       = errors.New("工作簿中找不到可识别的工作表（Import 或 Sheet3）")
	ErrEmptyFile           = errors.New("文件为空")
)

// 两种可识别的表头布局
var (
	simplifiedColumns = []string{"Chatter", "Total Sales", "Start Date", "End Date", "Worked Hrs", "SPH", "ART", "GR", "UR", "Shift"}
	legacyColumns     = []string{"Team Name", "Chatter name", "Shift Hours (Scheduled)", "Shift Hours (Actual)", "Date", "Day", "Sales", "Sold", "Retention", "Unlock", "Total", "SPH", "ART", "Golden ratio", "Hinge top up", "Tricks TSF", "Remarks/ Note"}
)

const (
	sheetSimplified = "Import"
	sheetLegacy     = "Sheet3"
)

// ImportService 批量导入业务接口
type ImportService interface {
	// ImportFile 解析上传文件并在单个事务内完成全部 upsert：
	// 要么整个文件生效，要么完全不可见
	ImportFile(ctx context.Context, filename string, r io.Reader, actor *Actor) (*dto.ImportResult, error)
}

type importService struct {
	cfg    *config.Config
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(cfg *config.Config, repo *repository.Repository, audit AuditService, logger *zap.Logger) ImportService {
	return &importService{cfg: cfg, repo: repo, audit: audit, logger: logger}
}

// importTable 从任一来源读出的中间表：表头 + 数据行
type importTable struct {
	sheet      string
	simplified bool
	colIndex   map[string]int
	rows       [][]string
	// 数据首行在原文件中的行号，用于诊断定位
	firstRowNum int
}

// ────────────────────── 入口 ──────────────────────

func (s *importService) ImportFile(ctx context.Context, filename string, r io.Reader, actor *Actor) (*dto.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	table, err := s.parseFile(filename, data)
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResult{SkippedSamples: []dto.SkippedRow{}}
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if table.simplified {
			return s.processSimplified(ctx, txRepo, table, result)
		}
		return s.processLegacy(ctx, txRepo, table, result)
	})
	if err != nil {
		s.logger.Error("导入失败，事务已回滚", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	s.logger.Info("导入完成",
		zap.String("filename", filename),
		zap.Int("performance_records", result.PerformanceRecords),
		zap.Int("performance_updates", result.PerformanceUpdates),
		zap.Int("rows_skipped", result.RowsSkipped))
	entry := AuditEntry{Action: "import.file", Entity: "import", EntityID: filename, After: result}
	if actor != nil {
		uid := actor.UserID
		entry.UserID = &uid
		entry.IP = actor.IP
		entry.UserAgent = actor.UserAgent
	}
	s.audit.Record(ctx, entry)
	return result, nil
}

// ────────────────────── 文件解析与布局识别 ──────────────────────

func (s *importService) parseFile(filename string, data []byte) (*importTable, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return s.parseXLSX(data)
	case ".xls":
		return s.parseXLS(data)
	case ".csv":
		return s.parseCSV(data)
	default:
		return nil, ErrUnsupportedFileType
	}
}

func (s *importService) parseXLSX(data []byte) (*importTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("无法解析 Excel 文件: %w", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheetSimplified); idx >= 0 {
		rows, err := f.GetRows(sheetSimplified)
		if err != nil {
			return nil, err
		}
		// Import 工作表只认简化版布局，否则落到 Sheet3
		if table, err := buildTable(sheetSimplified, rows); err == nil && table.simplified {
			return table, nil
		}
	}
	idx, _ := f.GetSheetIndex(sheetLegacy)
	if idx < 0 {
		return nil, ErrSheetNotFound
	}
	rows, err := f.GetRows(sheetLegacy)
	if err != nil {
		return nil, err
	}
	table, err := buildTable(sheetLegacy, rows)
	if err != nil {
		return nil, err
	}
	if table.simplified {
		return nil, fmt.Errorf("%w: Sheet3 应使用旧版十七列布局", ErrMissingColumns)
	}
	return table, nil
}

func (s *importService) parseXLS(data []byte) (*importTable, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("无法解析 XLS 文件: %w", err)
	}

	if rows, ok := xlsSheetRows(wb, sheetSimplified); ok {
		// Import 工作表只认简化版布局，否则落到 Sheet3
		if table, err := buildTable(sheetSimplified, rows); err == nil && table.simplified {
			return table, nil
		}
	}
	rows, ok := xlsSheetRows(wb, sheetLegacy)
	if !ok {
		return nil, ErrSheetNotFound
	}
	table, err := buildTable(sheetLegacy, rows)
	if err != nil {
		return nil, err
	}
	if table.simplified {
		return nil, fmt.Errorf("%w: Sheet3 应使用旧版十七列布局", ErrMissingColumns)
	}
	return table, nil
}

func xlsSheetRows(wb *xls.WorkBook, name string) ([][]string, bool) {
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil || sheet.Name != name {
			continue
		}
		rows := make([][]string, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol()+1)
			for c := 0; c <= row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		return rows, true
	}
	return nil, false
}

func (s *importService) parseCSV(data []byte) (*importTable, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("无法解析 CSV 文件: %w", err)
	}
	return buildTable("", rows)
}

// buildTable 用首个非空行做表头识别布局：
// 先按简化版匹配，否则要求满足旧版全部列，缺列即硬失败并点名缺失列
func buildTable(sheet string, rows [][]string) (*importTable, error) {
	headerIdx := -1
	for i, row := range rows {
		if !rowBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}

	header := rows[headerIdx]
	index := map[string]int{}
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if key != "" {
			if _, ok := index[key]; !ok {
				index[key] = i
			}
		}
	}

	table := &importTable{
		sheet:       sheet,
		colIndex:    index,
		rows:        rows[headerIdx+1:],
		firstRowNum: headerIdx + 2,
	}
	if missingColumns(index, simplifiedColumns) == nil {
		table.simplified = true
		return table, nil
	}
	if missing := missingColumns(index, legacyColumns); missing != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return table, nil
}

func missingColumns(index map[string]int, required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := index[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (t *importTable) cell(row []string, column string) string {
	idx, ok := t.colIndex[strings.ToLower(column)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ────────────────────── 旧版布局 ──────────────────────

func (s *importService) processLegacy(ctx context.Context, txRepo *repository.Repository, table *importTable, result *dto.ImportResult) error {
	for i, row := range table.rows {
		rowNum := table.firstRowNum + i
		name := table.cell(row, "Chatter name")
		dateRaw := table.cell(row, "Date")
		// 主播名或日期为空的行无副作用地跳过，不计数
		if name == "" || dateRaw == "" {
			continue
		}
		date, ok := parseLegacyDate(dateRaw)
		if !ok {
			continue
		}

		var teamID *int64
		if teamName := table.cell(row, "Team Name"); teamName != "" {
			team, created, err := txRepo.Team.EnsureByName(ctx, teamName)
			if err != nil {
				return err
			}
			if created {
				result.TeamsCreated++
			}
			teamID = &team.ID
		}
		chatter, err := s.ensureChatter(ctx, txRepo, name, teamID, result)
		if err != nil {
			return err
		}

		unlockRatio, unlockCount := interpretUnlock(table.cell(row, "Unlock"))
		fields := performanceFields{
			TeamID:         teamID,
			SalesAmount:    parseFloatPtr(table.cell(row, "Sales")),
			SoldCount:      parseIntPtr(table.cell(row, "Sold")),
			RetentionCount: parseIntPtr(table.cell(row, "Retention")),
			UnlockCount:    unlockCount,
			UnlockRatio:    unlockRatio,
			TotalSales:     parseFloatPtr(table.cell(row, "Total")),
			SPH:            parseFloatPtr(table.cell(row, "SPH")),
			ARTSeconds:     parseARTSeconds(table.cell(row, "ART")),
			GoldenRatio:    parseFloatPtr(table.cell(row, "Golden ratio")),
			HingeTopUp:     parseFloatPtr(table.cell(row, "Hinge top up")),
			TricksTSF:      parseFloatPtr(table.cell(row, "Tricks TSF")),
		}
		perfOutcome, err := upsertPerformance(ctx, txRepo, chatter.ID, date, fields)
		if err != nil {
			return err
		}

		shiftOutcome := UpsertOutcome("")
		scheduled := parseFloatPtr(table.cell(row, "Shift Hours (Scheduled)"))
		actual := parseFloatPtr(table.cell(row, "Shift Hours (Actual)"))
		if scheduled != nil || actual != nil {
			sf := shiftFields{
				TeamID:         teamID,
				ScheduledHours: scheduled,
				ActualHours:    actual,
				ShiftDay:       strPtrOrNil(table.cell(row, "Day")),
				Remarks:        strPtrOrNil(table.cell(row, "Remarks/ Note")),
			}
			if shiftOutcome, err = upsertShift(ctx, txRepo, chatter.ID, date, sf); err != nil {
				return err
			}
		}
		s.tally(result, perfOutcome, shiftOutcome, rowNum, table.sheet, name, date)
	}
	return nil
}

// ────────────────────── 简化版布局 ──────────────────────

func (s *importService) processSimplified(ctx context.Context, txRepo *repository.Repository, table *importTable, result *dto.ImportResult) error {
	for i, row := range table.rows {
		rowNum := table.firstRowNum + i
		name := table.cell(row, "Chatter")
		dateRaw := table.cell(row, "Start Date")
		if name == "" || dateRaw == "" {
			continue
		}
		// 简化版只接受 MM/DD/YYYY，不回退 ISO
		date, ok := parseSimplifiedDate(dateRaw)
		if !ok {
			continue
		}

		// 简化版永不携带团队信息
		chatter, err := s.ensureChatter(ctx, txRepo, name, nil, result)
		if err != nil {
			return err
		}

		worked := parseFloatPtr(table.cell(row, "Worked Hrs"))
		sph := parseFloatPtr(table.cell(row, "SPH"))
		totalSales := parseFloatPtr(table.cell(row, "Total Sales"))
		salesAmount := totalSales
		if salesAmount == nil && worked != nil && sph != nil {
			v := *worked * *sph
			salesAmount = &v
		}
		unlockRatio, unlockCount := interpretUnlock(table.cell(row, "UR"))

		fields := performanceFields{
			SalesAmount: salesAmount,
			TotalSales:  totalSales,
			SPH:         sph,
			ARTSeconds:  parseARTSeconds(table.cell(row, "ART")),
			GoldenRatio: parseFloatPtr(table.cell(row, "GR")),
			UnlockRatio: unlockRatio,
			UnlockCount: unlockCount,
		}
		perfOutcome, err := upsertPerformance(ctx, txRepo, chatter.ID, date, fields)
		if err != nil {
			return err
		}

		shiftOutcome := UpsertOutcome("")
		label := table.cell(row, "Shift")
		if worked != nil || label != "" {
			sf := shiftFields{ActualHours: worked, ShiftDay: strPtrOrNil(label)}
			if shiftOutcome, err = upsertShift(ctx, txRepo, chatter.ID, date, sf); err != nil {
				return err
			}
		}
		s.tally(result, perfOutcome, shiftOutcome, rowNum, table.sheet, name, date)
	}
	return nil
}

// ────────────────────── 公共 upsert ──────────────────────

func (s *importService) ensureChatter(ctx context.Context, txRepo *repository.Repository, name string, teamID *int64, result *dto.ImportResult) (*model.Chatter, error) {
	chatter, created, err := txRepo.Chatter.EnsureByName(ctx, name, teamID)
	if err != nil {
		return nil, err
	}
	if created {
		result.ChattersCreated++
	}
	return chatter, nil
}

// performanceFields 导入行解析出的业绩字段
type performanceFields struct {
	TeamID         *int64
	SalesAmount    *float64
	SoldCount      *int
	RetentionCount *int
	UnlockCount    *int
	UnlockRatio    *float64
	TotalSales     *float64
	SPH            *float64
	ARTSeconds     *model.Seconds
	GoldenRatio    *float64
	HingeTopUp     *float64
	TricksTSF      *float64
}

// upsertPerformance 对 (chatter, date) 做只补空不覆盖的合并：
// 不存在则创建；存在则仅填充为空的字段；一个字段都没补上记 skipped。
// 创建撞唯一键视为并发丢失竞态，读回已有行再走合并
func upsertPerformance(ctx context.Context, txRepo *repository.Repository, chatterID int64, date time.Time, fields performanceFields) (UpsertOutcome, error) {
	existing, err := txRepo.Performance.GetByChatterDate(ctx, chatterID, date)
	if err != nil {
		return OutcomeSkipped, err
	}
	if existing == nil {
		perf := &model.PerformanceDaily{ChatterID: chatterID, TeamID: fields.TeamID, ShiftDate: date}
		mergePerformance(perf, fields)
		perf.ConversionRate = metrics.ComputeConversionRate(perf.SoldCount, perf.RetentionCount, perf.UnlockCount)
		if err := txRepo.Performance.Create(ctx, perf); err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return OutcomeSkipped, err
			}
			if existing, err = txRepo.Performance.GetByChatterDate(ctx, chatterID, date); err != nil {
				return OutcomeSkipped, err
			}
			if existing == nil {
				return OutcomeSkipped, gorm.ErrDuplicatedKey
			}
		} else {
			return OutcomeCreated, nil
		}
	}

	changed := mergePerformance(existing, fields)
	// 软删除行被再次导入时复活
	if existing.DeletedAt != nil {
		existing.DeletedAt = nil
		changed = true
	}
	if !changed {
		return OutcomeSkipped, nil
	}
	if existing.ConversionRate == nil {
		existing.ConversionRate = metrics.ComputeConversionRate(existing.SoldCount, existing.RetentionCount, existing.UnlockCount)
	}
	if err := txRepo.Performance.Update(ctx, existing); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}

// mergePerformance 逐字段只补空合并，返回是否有字段被填充
func mergePerformance(perf *model.PerformanceDaily, fields performanceFields) bool {
	changed := false
	changed = fillFloat(&perf.SalesAmount, fields.SalesAmount) || changed
	changed = fillInt(&perf.SoldCount, fields.SoldCount) || changed
	changed = fillInt(&perf.RetentionCount, fields.RetentionCount) || changed
	changed = fillInt(&perf.UnlockCount, fields.UnlockCount) || changed
	changed = fillFloat(&perf.UnlockRatio, fields.UnlockRatio) || changed
	changed = fillFloat(&perf.TotalSales, fields.TotalSales) || changed
	changed = fillFloat(&perf.SPH, fields.SPH) || changed
	changed = fillFloat(&perf.GoldenRatio, fields.GoldenRatio) || changed
	changed = fillFloat(&perf.HingeTopUp, fields.HingeTopUp) || changed
	changed = fillFloat(&perf.TricksTSF, fields.TricksTSF) || changed
	if perf.ARTSeconds == nil && fields.ARTSeconds != nil {
		perf.ARTSeconds = fields.ARTSeconds
		changed = true
	}
	if perf.TeamID == nil && fields.TeamID != nil {
		perf.TeamID = fields.TeamID
		changed = true
	}
	return changed
}

// shiftFields 导入行解析出的班次字段
type shiftFields struct {
	TeamID         *int64
	ScheduledHours *float64
	ActualHours    *float64
	ShiftDay       *string
	Remarks        *string
}

// upsertShift 与业绩同样的只补空合并策略
func upsertShift(ctx context.Context, txRepo *repository.Repository, chatterID int64, date time.Time, fields shiftFields) (UpsertOutcome, error) {
	existing, err := txRepo.Shift.GetByChatterDate(ctx, chatterID, date)
	if err != nil {
		return OutcomeSkipped, err
	}
	if existing == nil {
		shift := &model.Shift{ChatterID: chatterID, TeamID: fields.TeamID, ShiftDate: date}
		mergeShift(shift, fields)
		if err := txRepo.Shift.Create(ctx, shift); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeCreated, nil
	}

	if !mergeShift(existing, fields) {
		return OutcomeSkipped, nil
	}
	if err := txRepo.Shift.Update(ctx, existing); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}

func mergeShift(shift *model.Shift, fields shiftFields) bool {
	changed := false
	changed = fillFloat(&shift.ScheduledHours, fields.ScheduledHours) || changed
	changed = fillFloat(&shift.ActualHours, fields.ActualHours) || changed
	if shift.ShiftDay == nil && fields.ShiftDay != nil {
		shift.ShiftDay = fields.ShiftDay
		changed = true
	}
	if shift.Remarks == nil && fields.Remarks != nil {
		shift.Remarks = fields.Remarks
		changed = true
	}
	if shift.TeamID == nil && fields.TeamID != nil {
		shift.TeamID = fields.TeamID
		changed = true
	}
	return changed
}

// tally 汇总一行的结果计数与诊断样例
func (s *importService) tally(result *dto.ImportResult, perfOutcome, shiftOutcome UpsertOutcome, rowNum int, sheet, name string, date time.Time) {
	switch perfOutcome {
	case OutcomeCreated:
		result.PerformanceRecords++
	case OutcomeUpdated:
		result.PerformanceUpdates++
	}
	switch shiftOutcome {
	case OutcomeCreated:
		result.ShiftRecords++
	case OutcomeUpdated:
		result.ShiftUpdates++
	}

	perfSkipped := perfOutcome == OutcomeSkipped
	shiftSkipped := shiftOutcome == OutcomeSkipped
	if !perfSkipped && !shiftSkipped {
		return
	}
	result.RowsSkipped++
	if len(result.SkippedSamples) >= s.cfg.Import.SkipSampleSize {
		return
	}
	reason := "业绩记录已存在且无可补字段"
	if !perfSkipped {
		reason = "班次记录已存在且无可补字段"
	}
	result.SkippedSamples = append(result.SkippedSamples, dto.SkippedRow{
		Row:    rowNum,
		Sheet:  sheet,
		Reason: fmt.Sprintf("%s: %s @ %s", reason, name, date.Format(dto.DateLayout)),
	})
}

// ────────────────────── 字段解析 ──────────────────────

// parseLegacyDate 旧版布局接受严格 YYYY-MM-DD 或严格 MM/DD/YYYY，
// 刻意不接受 DD/MM/YYYY，避免月日静默错位
func parseLegacyDate(raw string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return parseSimplifiedDate(raw)
}

// parseSimplifiedDate 只接受严格 MM/DD/YYYY
func parseSimplifiedDate(raw string) (time.Time, bool) {
	t, err := time.Parse("01/02/2006", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseFloatPtr 宽松数值解析：空串或解析失败返回 nil
func parseFloatPtr(raw string) *float64 {
	cleaned := cleanNumber(raw)
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseIntPtr 整数解析，小数截断取整
func parseIntPtr(raw string) *int {
	f := parseFloatPtr(raw)
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

func cleanNumber(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	return strings.TrimSpace(s)
}

// interpretUnlock 解析 Unlock 原始值：
// 落在 [0,1] 视为占比；(1,100] 视为百分数折算；其余丢弃占比，
// 原始值另按整数截断存为 unlock_count
func interpretUnlock(raw string) (*float64, *int) {
	count := parseIntPtr(raw)
	v := parseFloatPtr(raw)
	if v == nil {
		return nil, count
	}
	switch {
	case *v >= 0 && *v <= 1:
		return v, count
	case *v > 1 && *v <= 100:
		ratio := *v / 100
		return &ratio, count
	default:
		return nil, count
	}
}

func parseARTSeconds(raw string) *model.Seconds {
	d := metrics.ParseARTInterval(raw)
	if d == nil {
		return nil
	}
	sec := model.Seconds(*d)
	return &sec
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fillFloat(dst **float64, src *float64) bool {
	if *dst == nil && src != nil {
		*dst = src
		return true
	}
	return false
}

func fillInt(dst **int, src *int) bool {
	if *dst == nil && src != nil {
		*dst = src
		return true
	}
	return false
}
