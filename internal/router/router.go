// Package router wires the HTTP surface: middleware chain, public auth
// routes, and the protected /api/v1 groups.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/allocation"
	"homebudget/internal/chat"
	"homebudget/internal/config"
	"homebudget/internal/handler"
	"homebudget/internal/importer"
	"homebudget/internal/middleware"
	"homebudget/internal/reconcile"
)

// New builds the gin engine with every route registered.
func New(db *gorm.DB, cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Trace())
	r.Use(middleware.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := handler.NewAuthHandler(db)
	profile := handler.NewProfileHandler(db)
	accounts := handler.NewAccountHandler(db)
	categories := handler.NewCategoryHandler(db)
	transactions := handler.NewTransactionHandler(db)
	recurring := handler.NewRecurringHandler(db)
	budgets := handler.NewBudgetHandler(db)
	alloc := handler.NewAllocationHandler(db, allocation.NewCalculator(cfg.App.DefaultCurrency))
	imports := handler.NewImportHandler(db, importer.NewService(db))
	recon := handler.NewReconciliationHandler(db, reconcile.NewMatcher(db, reconcile.FromAppConfig(cfg.Reconcile)))
	assistant := handler.NewChatHandler(chat.NewService(db, chat.NewOllamaProvider(cfg.AI)))
	reports := handler.NewReportHandler(db)
	exports := handler.NewExportHandler(db)
	audit := handler.NewAuditHandler(db)

	v1 := r.Group("/api/v1")

	public := v1.Group("/auth")
	{
		public.POST("/register", auth.Register)
		public.POST("/login", auth.Login)
	}

	protected := v1.Group("")
	protected.Use(middleware.Auth(db), middleware.Scope(), middleware.Audit(db))
	{
		protected.GET("/me", profile.Me)
		protected.PUT("/me", profile.Update)
		protected.PUT("/me/password", profile.ChangePassword)

		protected.GET("/accounts", accounts.List)
		protected.POST("/accounts", accounts.Create)
		protected.GET("/accounts/:id", accounts.Get)
		protected.PUT("/accounts/:id", accounts.Update)
		protected.DELETE("/accounts/:id", accounts.Delete)

		protected.GET("/categories", categories.List)
		protected.POST("/categories", categories.Create)
		protected.PUT("/categories/:id", categories.Update)
		protected.DELETE("/categories/:id", categories.Delete)

		protected.GET("/transactions", transactions.List)
		protected.POST("/transactions", transactions.Create)
		protected.GET("/transactions/summary", transactions.Summary)
		protected.GET("/transactions/:id", transactions.Get)
		protected.PUT("/transactions/:id", transactions.Update)
		protected.DELETE("/transactions/:id", transactions.Delete)

		protected.GET("/recurring", recurring.List)
		protected.POST("/recurring", recurring.Create)
		protected.GET("/recurring/:id", recurring.Get)
		protected.PUT("/recurring/:id", recurring.Update)
		protected.DELETE("/recurring/:id", recurring.Delete)
		protected.POST("/recurring/:id/materialize", recurring.Materialize)

		protected.GET("/budgets", budgets.List)
		protected.POST("/budgets", budgets.Create)
		protected.PUT("/budgets/:id", budgets.Update)
		protected.DELETE("/budgets/:id", budgets.Delete)
		protected.GET("/budgets/progress", budgets.Progress)

		protected.GET("/allocation/paycheck", alloc.Paycheck)

		protected.POST("/import/preview", imports.Preview)
		protected.POST("/import", imports.Import)
		protected.POST("/import/commit", imports.Commit)

		protected.POST("/reconciliation/run", recon.Run)
		protected.GET("/reconciliation/matches", recon.List)
		protected.POST("/reconciliation/matches/:id/accept", recon.Accept)
		protected.POST("/reconciliation/matches/:id/reject", recon.Reject)

		protected.POST("/chat", assistant.Post)

		protected.GET("/reports/monthly", reports.Monthly)
		protected.GET("/export/csv", exports.CSV)
		protected.GET("/export/xlsx", exports.XLSX)

		protected.GET("/audit", audit.List)
	}

	return r
}
