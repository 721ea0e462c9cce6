package service

import (
	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/config"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
	"github.com/mirabelleagency/ChattersDashboard/pkg/jwt"
	"github.com/mirabelleagency/ChattersDashboard/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	User        UserService
	Chatter     ChatterService
	Shift       ShiftService
	Performance PerformanceService
	Offense     OffenseService
	Dashboard   DashboardService
	Report      ReportService
	Import      ImportService
	Audit       AuditService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	cache *redis.Client,
	logger *zap.Logger,
) *Service {
	audit := NewAuditService(repo, logger)
	return &Service{
		Auth:        NewAuthService(cfg, repo, jwtMgr, cache, logger),
		User:        NewUserService(repo, audit, logger),
		Chatter:     NewChatterService(repo, audit, logger),
		Shift:       NewShiftService(repo, audit, logger),
		Performance: NewPerformanceService(repo, audit, logger),
		Offense:     NewOffenseService(repo, audit, logger),
		Dashboard:   NewDashboardService(repo, audit, logger),
		Report:      NewReportService(repo, audit, logger),
		Import:      NewImportService(cfg, repo, audit, logger),
		Audit:       audit,
	}
}
