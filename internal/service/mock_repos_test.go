package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── Mock TeamRepository ──

type mockTeamRepo struct {
	teams  map[int64]*model.Team
	nextID int64
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{teams: make(map[int64]*model.Team), nextID: 1}
}

func (m *mockTeamRepo) Create(_ context.Context, team *model.Team) error {
	team.ID = m.nextID
	m.nextID++
	m.teams[team.ID] = team
	return nil
}

func (m *mockTeamRepo) GetByID(_ context.Context, id int64) (*model.Team, error) {
	return m.teams[id], nil
}

func (m *mockTeamRepo) GetByName(_ context.Context, name string) (*model.Team, error) {
	for _, t := range m.teams {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTeamRepo) EnsureByName(ctx context.Context, name string) (*model.Team, bool, error) {
	if t, _ := m.GetByName(ctx, name); t != nil {
		return t, false, nil
	}
	t := &model.Team{Name: name}
	if err := m.Create(ctx, t); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (m *mockTeamRepo) List(_ context.Context) ([]model.Team, error) {
	var result []model.Team
	for _, t := range m.teams {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTeamRepo) Delete(_ context.Context, id int64) error {
	delete(m.teams, id)
	return nil
}

// ── Mock ChatterRepository ──

type mockChatterRepo struct {
	chatters map[int64]*model.Chatter
	nextID   int64
}

func newMockChatterRepo() *mockChatterRepo {
	return &mockChatterRepo{chatters: make(map[int64]*model.Chatter), nextID: 1}
}

func (m *mockChatterRepo) Create(_ context.Context, chatter *model.Chatter) error {
	chatter.ID = m.nextID
	m.nextID++
	m.chatters[chatter.ID] = chatter
	return nil
}

func (m *mockChatterRepo) GetByID(_ context.Context, id int64) (*model.Chatter, error) {
	c, ok := m.chatters[id]
	if !ok || c.DeletedAt != nil {
		return nil, nil
	}
	return c, nil
}

func (m *mockChatterRepo) GetByName(_ context.Context, name string) (*model.Chatter, error) {
	for _, c := range m.chatters {
		if c.DeletedAt == nil && c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockChatterRepo) EnsureByName(ctx context.Context, name string, teamID *int64) (*model.Chatter, bool, error) {
	if c, _ := m.GetByName(ctx, name); c != nil {
		if teamID != nil && (c.TeamID == nil || *c.TeamID != *teamID) {
			c.TeamID = teamID
		}
		return c, false, nil
	}
	c := &model.Chatter{Name: name, TeamID: teamID, IsActive: true}
	if err := m.Create(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (m *mockChatterRepo) List(_ context.Context, filter repository.ChatterFilter) ([]model.Chatter, error) {
	var result []model.Chatter
	for _, c := range m.chatters {
		if c.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.TeamID != nil && (c.TeamID == nil || *c.TeamID != *filter.TeamID) {
			continue
		}
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Keyword)) {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockChatterRepo) Update(_ context.Context, chatter *model.Chatter) error {
	m.chatters[chatter.ID] = chatter
	return nil
}

func (m *mockChatterRepo) SoftDelete(_ context.Context, id int64) error {
	if c, ok := m.chatters[id]; ok {
		now := time.Now()
		c.DeletedAt = &now
		c.IsActive = false
	}
	return nil
}

func (m *mockChatterRepo) HardDelete(_ context.Context, id int64) error {
	delete(m.chatters, id)
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[int64]*model.Shift
	nextID int64
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[int64]*model.Shift), nextID: 1}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	shift.ID = m.nextID
	m.nextID++
	m.shifts[shift.ID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id int64) (*model.Shift, error) {
	s, ok := m.shifts[id]
	if !ok || s.DeletedAt != nil {
		return nil, nil
	}
	return s, nil
}

func (m *mockShiftRepo) GetByChatterDate(_ context.Context, chatterID int64, date time.Time) (*model.Shift, error) {
	for _, s := range m.shifts {
		if s.DeletedAt == nil && s.ChatterID == chatterID && s.ShiftDate.Equal(date) {
			return s, nil
		}
	}
	return nil, nil
}

func (m *mockShiftRepo) List(_ context.Context, filter repository.ShiftFilter) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.DeletedAt != nil {
			continue
		}
		if filter.ChatterID != nil && s.ChatterID != *filter.ChatterID {
			continue
		}
		if filter.StartDate != nil && s.ShiftDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && s.ShiftDate.After(*filter.EndDate) {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	m.shifts[shift.ID] = shift
	return nil
}

func (m *mockShiftRepo) SoftDelete(_ context.Context, id int64) error {
	if s, ok := m.shifts[id]; ok {
		now := time.Now()
		s.DeletedAt = &now
	}
	return nil
}

func (m *mockShiftRepo) HardDelete(_ context.Context, id int64) error {
	delete(m.shifts, id)
	return nil
}

// ── Mock PerformanceRepository ──

type mockPerformanceRepo struct {
	perfs  map[int64]*model.PerformanceDaily
	nextID int64
}

func newMockPerformanceRepo() *mockPerformanceRepo {
	return &mockPerformanceRepo{perfs: make(map[int64]*model.PerformanceDaily), nextID: 1}
}

func (m *mockPerformanceRepo) Create(_ context.Context, perf *model.PerformanceDaily) error {
	for _, p := range m.perfs {
		if p.ChatterID == perf.ChatterID && p.ShiftDate.Equal(perf.ShiftDate) {
			return fmt.Errorf("唯一键冲突: chatter=%d date=%s", perf.ChatterID, perf.ShiftDate.Format("2006-01-02"))
		}
	}
	perf.ID = m.nextID
	m.nextID++
	m.perfs[perf.ID] = perf
	return nil
}

func (m *mockPerformanceRepo) GetByID(_ context.Context, id int64) (*model.PerformanceDaily, error) {
	p, ok := m.perfs[id]
	if !ok || p.DeletedAt != nil {
		return nil, nil
	}
	return p, nil
}

func (m *mockPerformanceRepo) GetByChatterDate(_ context.Context, chatterID int64, date time.Time) (*model.PerformanceDaily, error) {
	for _, p := range m.perfs {
		if p.ChatterID == chatterID && p.ShiftDate.Equal(date) {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPerformanceRepo) List(_ context.Context, filter repository.PerformanceFilter) ([]model.PerformanceDaily, error) {
	var result []model.PerformanceDaily
	for _, p := range m.perfs {
		if p.DeletedAt != nil {
			continue
		}
		if filter.ChatterID != nil && p.ChatterID != *filter.ChatterID {
			continue
		}
		if filter.TeamID != nil && (p.TeamID == nil || *p.TeamID != *filter.TeamID) {
			continue
		}
		if filter.StartDate != nil && p.ShiftDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && p.ShiftDate.After(*filter.EndDate) {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockPerformanceRepo) Update(_ context.Context, perf *model.PerformanceDaily) error {
	m.perfs[perf.ID] = perf
	return nil
}

func (m *mockPerformanceRepo) Delete(_ context.Context, id int64) error {
	if p, ok := m.perfs[id]; ok {
		now := time.Now()
		p.DeletedAt = &now
	}
	return nil
}

// ── Mock OffenseRepository ──

type mockOffenseRepo struct {
	offenses map[int64]*model.Offense
	nextID   int64
}

func newMockOffenseRepo() *mockOffenseRepo {
	return &mockOffenseRepo{offenses: make(map[int64]*model.Offense), nextID: 1}
}

func (m *mockOffenseRepo) Create(_ context.Context, offense *model.Offense) error {
	offense.ID = m.nextID
	m.nextID++
	m.offenses[offense.ID] = offense
	return nil
}

func (m *mockOffenseRepo) GetByID(_ context.Context, id int64) (*model.Offense, error) {
	o, ok := m.offenses[id]
	if !ok || o.DeletedAt != nil {
		return nil, nil
	}
	return o, nil
}

func (m *mockOffenseRepo) List(_ context.Context, filter repository.OffenseFilter) ([]model.Offense, error) {
	var result []model.Offense
	for _, o := range m.offenses {
		if o.DeletedAt != nil {
			continue
		}
		if filter.ChatterID != nil && o.ChatterID != *filter.ChatterID {
			continue
		}
		if filter.StartDate != nil && (o.OffenseDate == nil || o.OffenseDate.Before(*filter.StartDate)) {
			continue
		}
		if filter.EndDate != nil && (o.OffenseDate == nil || o.OffenseDate.After(*filter.EndDate)) {
			continue
		}
		result = append(result, *o)
	}
	return result, nil
}

func (m *mockOffenseRepo) Update(_ context.Context, offense *model.Offense) error {
	m.offenses[offense.ID] = offense
	return nil
}

func (m *mockOffenseRepo) Delete(_ context.Context, id int64) error {
	if o, ok := m.offenses[id]; ok {
		now := time.Now()
		o.DeletedAt = &now
	}
	return nil
}

// ── Mock RankingRepository ──

type mockRankingRepo struct {
	rows []model.RankingDaily
}

func newMockRankingRepo() *mockRankingRepo {
	return &mockRankingRepo{}
}

func (m *mockRankingRepo) ReplaceForDateMetric(_ context.Context, date time.Time, metric string, rows []model.RankingDaily) error {
	var kept []model.RankingDaily
	for _, r := range m.rows {
		if r.ShiftDate.Equal(date) && r.Metric == metric {
			continue
		}
		kept = append(kept, r)
	}
	m.rows = append(kept, rows...)
	return nil
}

func (m *mockRankingRepo) List(_ context.Context, date time.Time, metric string) ([]model.RankingDaily, error) {
	var result []model.RankingDaily
	for _, r := range m.rows {
		if r.ShiftDate.Equal(date) && r.Metric == metric {
			result = append(result, r)
		}
	}
	return result, nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users      map[int64]*model.User
	roles      map[string]*model.Role
	nextID     int64
	nextRoleID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:      make(map[int64]*model.User),
		roles:      make(map[string]*model.Role),
		nextID:     1,
		nextRoleID: 1,
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("邮箱已存在: %s", user.Email)
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) EnsureRole(_ context.Context, name string) (*model.Role, error) {
	if r, ok := m.roles[name]; ok {
		return r, nil
	}
	r := &model.Role{ID: m.nextRoleID, Name: name}
	m.nextRoleID++
	m.roles[name] = r
	return r, nil
}

func (m *mockUserRepo) SetRoles(_ context.Context, user *model.User, roles []model.Role) error {
	user.Roles = roles
	if u, ok := m.users[user.ID]; ok {
		u.Roles = roles
	}
	return nil
}

func (m *mockUserRepo) CountActiveWithRole(_ context.Context, roleName string, excludeID int64) (int64, error) {
	var count int64
	for _, u := range m.users {
		if u.ID == excludeID || !u.IsActive {
			continue
		}
		if u.HasRole(roleName) {
			count++
		}
	}
	return count, nil
}

// ── Mock RefreshTokenRepository ──

type mockRefreshTokenRepo struct {
	tokens map[string]*model.RefreshToken
	nextID int64
}

func newMockRefreshTokenRepo() *mockRefreshTokenRepo {
	return &mockRefreshTokenRepo{tokens: make(map[string]*model.RefreshToken), nextID: 1}
}

func (m *mockRefreshTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	token.ID = m.nextID
	m.nextID++
	m.tokens[token.JTI] = token
	return nil
}

func (m *mockRefreshTokenRepo) GetByJTI(_ context.Context, jti string) (*model.RefreshToken, error) {
	return m.tokens[jti], nil
}

func (m *mockRefreshTokenRepo) Revoke(_ context.Context, jti string) error {
	if t, ok := m.tokens[jti]; ok {
		t.Revoked = true
	}
	return nil
}

func (m *mockRefreshTokenRepo) RevokeAllForUser(_ context.Context, userID int64) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

// ── Mock AuditRepository ──

type mockAuditRepo struct {
	entries []model.AuditLog
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{}
}

func (m *mockAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) List(_ context.Context, filter repository.AuditFilter) ([]model.AuditLog, int64, error) {
	var matched []model.AuditLog
	for _, e := range m.entries {
		if filter.UserID != nil && (e.UserID == nil || *e.UserID != *filter.UserID) {
			continue
		}
		if filter.Entity != "" && e.Entity != filter.Entity {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		matched = append(matched, e)
	}
	total := int64(len(matched))
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

// ── Mock ReportRepository ──

type mockReportRepo struct {
	reports map[int64]*model.SavedReport
	nextID  int64
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[int64]*model.SavedReport), nextID: 1}
}

func (m *mockReportRepo) Create(_ context.Context, report *model.SavedReport) error {
	report.ID = m.nextID
	m.nextID++
	m.reports[report.ID] = report
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id int64) (*model.SavedReport, error) {
	return m.reports[id], nil
}

func (m *mockReportRepo) ListVisible(_ context.Context, userID int64) ([]model.SavedReport, error) {
	var result []model.SavedReport
	for _, r := range m.reports {
		if r.IsPublic || (r.OwnerUserID != nil && *r.OwnerUserID == userID) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReportRepo) Delete(_ context.Context, id int64) error {
	delete(m.reports, id)
	return nil
}

// ── Mock DashboardRepository ──

type mockDashboardRepo struct {
	metrics    map[int64]*model.DashboardMetric
	thresholds *model.DashboardThresholds
	nextID     int64
}

func newMockDashboardRepo() *mockDashboardRepo {
	return &mockDashboardRepo{metrics: make(map[int64]*model.DashboardMetric), nextID: 1}
}

func (m *mockDashboardRepo) CreateMetric(_ context.Context, metric *model.DashboardMetric) error {
	metric.ID = m.nextID
	m.nextID++
	if metric.UpdatedAt.IsZero() {
		metric.UpdatedAt = time.Now()
	}
	m.metrics[metric.ID] = metric
	return nil
}

func (m *mockDashboardRepo) GetMetric(_ context.Context, id int64) (*model.DashboardMetric, error) {
	return m.metrics[id], nil
}

func (m *mockDashboardRepo) ListMetrics(_ context.Context) ([]model.DashboardMetric, error) {
	var result []model.DashboardMetric
	for _, metric := range m.metrics {
		result = append(result, *metric)
	}
	return result, nil
}

func (m *mockDashboardRepo) ListOverlapping(_ context.Context, start, end *time.Time) ([]model.DashboardMetric, error) {
	var result []model.DashboardMetric
	for _, metric := range m.metrics {
		if start != nil && metric.EndDate != nil && metric.EndDate.Before(*start) {
			continue
		}
		if end != nil && metric.StartDate != nil && metric.StartDate.After(*end) {
			continue
		}
		result = append(result, *metric)
	}
	// 按 updated_at 降序，与真实实现一致
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].UpdatedAt.After(result[i].UpdatedAt) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (m *mockDashboardRepo) UpdateMetric(_ context.Context, metric *model.DashboardMetric) error {
	metric.UpdatedAt = time.Now()
	m.metrics[metric.ID] = metric
	return nil
}

func (m *mockDashboardRepo) DeleteMetric(_ context.Context, id int64) error {
	delete(m.metrics, id)
	return nil
}

func (m *mockDashboardRepo) GetThresholds(_ context.Context) (*model.DashboardThresholds, error) {
	if m.thresholds == nil {
		m.thresholds = &model.DashboardThresholds{ID: 1, ExcellentMin: 100, ReviewMax: 40}
	}
	return m.thresholds, nil
}

func (m *mockDashboardRepo) SaveThresholds(_ context.Context, t *model.DashboardThresholds) error {
	t.ID = 1
	m.thresholds = t
	return nil
}

// ── 指针辅助 ──

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func sp(v string) *string   { return &v }
func i64p(v int64) *int64   { return &v }

// ── 聚合构造 ──

// newMockRepository 组装全 mock 的 Repository 聚合，db 为 nil 时
// Transaction 直接在当前聚合上执行
func newMockRepository() *repository.Repository {
	return &repository.Repository{
		Team:         newMockTeamRepo(),
		Chatter:      newMockChatterRepo(),
		Shift:        newMockShiftRepo(),
		Performance:  newMockPerformanceRepo(),
		Offense:      newMockOffenseRepo(),
		Ranking:      newMockRankingRepo(),
		User:         newMockUserRepo(),
		RefreshToken: newMockRefreshTokenRepo(),
		Audit:        newMockAuditRepo(),
		Report:       newMockReportRepo(),
		Dashboard:    newMockDashboardRepo(),
	}
}
