package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/config"
	"github.com/mirabelleagency/ChattersDashboard/internal/api/handler"
	"github.com/mirabelleagency/ChattersDashboard/internal/api/middleware"
	"github.com/mirabelleagency/ChattersDashboard/pkg/jwt"
	"github.com/mirabelleagency/ChattersDashboard/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/seed-admin", h.Auth.SeedAdmin)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// Chatter 与团队模块
			chatters := authorized.Group("/chatters")
			{
				chatters.GET("", h.Chatter.ListChatters)
				chatters.GET("/:id", h.Chatter.GetChatter)
				chatters.POST("", middleware.RoleAuth("admin", "manager"), h.Chatter.CreateChatter)
				chatters.PUT("/:id", middleware.RoleAuth("admin", "manager"), h.Chatter.UpdateChatter)
				chatters.DELETE("/:id", middleware.RoleAuth("admin"), h.Chatter.DeleteChatter)
			}
			authorized.GET("/teams", h.Chatter.ListTeams)

			// 班次模块
			shifts := authorized.Group("/shifts")
			{
				shifts.GET("", h.Shift.ListShifts)
				shifts.GET("/:id", h.Shift.GetShift)
				shifts.POST("", middleware.RoleAuth("admin", "manager"), h.Shift.CreateShift)
				shifts.PUT("/:id", middleware.RoleAuth("admin", "manager"), h.Shift.UpdateShift)
				shifts.DELETE("/:id", middleware.RoleAuth("admin", "manager"), h.Shift.DeleteShift)
			}

			// 业绩模块
			performance := authorized.Group("/performance")
			{
				performance.GET("", h.Performance.ListPerformance)
				performance.POST("", middleware.RoleAuth("admin", "manager"), h.Performance.UpsertPerformance)
				performance.DELETE("/:id", middleware.RoleAuth("admin", "manager"), h.Performance.DeletePerformance)
				performance.GET("/kpis", h.Performance.GetKPIs)
				performance.GET("/rankings", h.Performance.GetRankings)
				performance.POST("/rankings/rebuild", middleware.RoleAuth("admin", "manager"), h.Performance.RebuildRankings)
			}

			// 违规记录模块
			offenses := authorized.Group("/offenses")
			{
				offenses.GET("", h.Offense.ListOffenses)
				offenses.GET("/:id", h.Offense.GetOffense)
				offenses.POST("", middleware.RoleAuth("admin", "manager"), h.Offense.CreateOffense)
				offenses.PUT("/:id", middleware.RoleAuth("admin", "manager"), h.Offense.UpdateOffense)
				offenses.DELETE("/:id", middleware.RoleAuth("admin"), h.Offense.DeleteOffense)
			}

			// 仪表盘模块
			dashboard := authorized.Group("/dashboard")
			{
				dashboard.GET("", h.Dashboard.GetSnapshot)
				dashboard.GET("/export", h.Dashboard.ExportSnapshot)
				dashboard.GET("/metrics", h.Dashboard.ListMetrics)
				dashboard.POST("/metrics", middleware.RoleAuth("admin", "manager"), h.Dashboard.CreateMetric)
				dashboard.PUT("/metrics/:id", middleware.RoleAuth("admin", "manager"), h.Dashboard.UpdateMetric)
				dashboard.DELETE("/metrics/:id", middleware.RoleAuth("admin", "manager"), h.Dashboard.DeleteMetric)
				dashboard.GET("/thresholds", h.Dashboard.GetThresholds)
				dashboard.PUT("/thresholds", middleware.RoleAuth("admin"), h.Dashboard.UpdateThresholds)
			}

			// 报表模块
			reports := authorized.Group("/reports")
			{
				reports.POST("/run", h.Report.RunReport)
				reports.GET("/saved", h.Report.ListSavedReports)
				reports.POST("/saved", h.Report.SaveReport)
				reports.POST("/saved/:id/run", h.Report.RunSavedReport)
				reports.DELETE("/saved/:id", h.Report.DeleteSavedReport)
			}

			// 导入模块
			importGroup := authorized.Group("/import")
			importGroup.Use(middleware.BodyLimit(int64(cfg.Import.MaxUploadMB) << 20))
			{
				importGroup.POST("", middleware.RoleAuth("admin", "manager"), h.Import.Upload)
			}

			// 管理模块（仅 admin）
			admin := authorized.Group("/admin")
			admin.Use(middleware.RoleAuth("admin"))
			{
				admin.GET("/users", h.User.ListUsers)
				admin.GET("/users/:id", h.User.GetUser)
				admin.POST("/users", h.User.CreateUser)
				admin.PUT("/users/:id", h.User.UpdateUser)
				admin.PUT("/users/:id/password", h.User.ResetUserPassword)
				admin.DELETE("/users/:id", h.User.DeleteUser)
				admin.GET("/audit-logs", h.Audit.ListAuditLogs)
			}
		}
	}

	return r
}
