package handler

import (
	"github.com/mirabelleagency/ChattersDashboard/config"
	"github.com/mirabelleagency/ChattersDashboard/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Chatter     *ChatterHandler
	Shift       *ShiftHandler
	Performance *PerformanceHandler
	Offense     *OffenseHandler
	Dashboard   *DashboardHandler
	Report      *ReportHandler
	Import      *ImportHandler
	Audit       *AuditHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth, cfg),
		User:        NewUserHandler(svc.User),
		Chatter:     NewChatterHandler(svc.Chatter),
		Shift:       NewShiftHandler(svc.Shift),
		Performance: NewPerformanceHandler(svc.Performance),
		Offense:     NewOffenseHandler(svc.Offense),
		Dashboard:   NewDashboardHandler(svc.Dashboard),
		Report:      NewReportHandler(svc.Report),
		Import:      NewImportHandler(svc.Import),
		Audit:       NewAuditHandler(svc.Audit),
	}
}
