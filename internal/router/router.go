package router

import (
	"time"

	"chicpos/internal/clock"
	"chicpos/internal/config"
	"chicpos/internal/handler"
	"chicpos/internal/metrics"
	"chicpos/internal/middleware"
	"chicpos/internal/model"
	"chicpos/internal/repository"
	"chicpos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deps are the process-level collaborators built in main. Redis, Publisher
// and Receipts are optional.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher service.EventPublisher
	Receipts  service.ReceiptQueue
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Clock     clock.Clock
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Clock == nil {
		d.Clock = clock.System()
	}
	loc := cfg.Location()

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Metrics))
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	ledgerRepo := repository.NewLedgerRepository(d.DB)
	productRepo := repository.NewProductRepository(d.DB)
	userRepo := repository.NewUserRepository(d.DB)
	auditRepo := repository.NewAuditRepository(d.DB)
	closureRepo := repository.NewClosureRepository(d.DB)
	settingsRepo := repository.NewSettingsRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	tax, pix, card, cash := cfg.DefaultRates()
	defaults := service.Defaults{TaxRate: tax, MdrPix: pix, MdrCard: card, MdrCash: cash}

	auditSvc := service.NewAuditService(auditRepo, d.Clock)
	authSvc := service.NewAuthService(userRepo, auditSvc, cfg)
	catalogSvc := service.NewCatalogService(productRepo, d.Redis)
	settingsSvc := service.NewSettingsService(settingsRepo, auditSvc, d.Redis, cfg.SettingsCacheTTL, defaults, d.Clock)
	ledgerSvc := service.NewLedgerService(ledgerRepo, productRepo, userRepo, d.Publisher, d.Metrics, d.Clock)
	closureSvc := service.NewClosureService(ledgerRepo, closureRepo, auditSvc, d.Receipts, d.Metrics, d.Clock, loc)
	dreSvc := service.NewDREService(ledgerSvc, settingsSvc, loc)
	productivitySvc := service.NewProductivityService(ledgerRepo, userRepo)
	trailSvc := service.NewTrailService(ledgerSvc)
	exportSvc := service.NewExportService(ledgerRepo, productRepo, userRepo, settingsSvc,
		decimal.NewFromFloat(cfg.CommissionRate), loc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(catalogSvc)
	ledgerH := handler.NewLedgerHandler(ledgerSvc)
	closuresH := handler.NewClosuresHandler(closureSvc)
	accountingH := handler.NewAccountingHandler(dreSvc, settingsSvc, exportSvc)
	reportsH := handler.NewReportsHandler(productivitySvc, trailSvc)
	auditH := handler.NewAuditHandler(auditSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis))
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	const (
		owner   = model.RoleOwner
		admin   = model.RoleAdmin
		auditor = model.RoleAuditor
		seller  = model.RoleSeller
	)
	floor := middleware.RequireRole(seller, admin, owner)
	managers := middleware.RequireRole(admin, owner)
	readers := middleware.RequireRole(admin, owner, auditor)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		// Shop floor
		v1.POST("/sales", floor, ledgerH.RecordSale)
		v1.POST("/attendances", floor, ledgerH.RecordAttendance)
		v1.POST("/adjustments", floor, ledgerH.RecordAdjustment)

		// Back office
		v1.POST("/gifts", managers, ledgerH.RecordGift)
		v1.POST("/expenses", managers, ledgerH.RecordExpense)
		v1.GET("/expenses", managers, ledgerH.ListExpenses)
		v1.POST("/purchases", managers, ledgerH.RecordPurchase)
		v1.POST("/purchases/import", managers, ledgerH.ImportPurchase)

		v1.GET("/ledger", readers, ledgerH.Query)
		v1.GET("/ledger/:kind/:id", readers, ledgerH.Get)

		closures := v1.Group("/closures")
		{
			closures.POST("", floor, closuresH.Close)
			closures.GET("", middleware.RequireRole(seller, admin, owner, auditor), closuresH.History)
			closures.GET("/:id", middleware.RequireRole(seller, admin, owner, auditor), closuresH.Get)
		}

		acc := v1.Group("/accounting")
		{
			acc.GET("/dre", middleware.RequireRole(owner, auditor), accountingH.DRE)
			acc.GET("/settings", middleware.RequireRole(owner, auditor), accountingH.GetSettings)
			acc.GET("/settings/history", middleware.RequireRole(owner, auditor), accountingH.SettingsHistory)
			acc.PUT("/settings", middleware.RequireRole(owner), accountingH.UpdateSettings)
			acc.GET("/export", middleware.RequireRole(owner), accountingH.Export)
		}

		v1.GET("/productivity", managers, reportsH.Productivity)

		audit := v1.Group("/audit")
		{
			audit.GET("/trail", middleware.RequireRole(auditor), reportsH.Trail)
			audit.GET("/logs", middleware.RequireRole(auditor), auditH.List)
			audit.POST("/logs", managers, auditH.Record)
		}

		// Catalog: every role reads, managers write
		v1.GET("/products", middleware.RequireRole(seller, admin, owner, auditor), productsH.List)
		v1.POST("/products", managers, productsH.Create)

		users := v1.Group("/users", middleware.RequireRole(owner))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.DELETE("/:id", usersH.Delete)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
