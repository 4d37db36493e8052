package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zentria/afe-api/internal/api/handler"
	"github.com/zentria/afe-api/internal/api/middleware"
	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/service"
	mongodb "github.com/zentria/afe-api/internal/infrastructure/db/mongo"
	redisdb "github.com/zentria/afe-api/internal/infrastructure/db/redis"
	"github.com/zentria/afe-api/internal/infrastructure/extractor"
	"github.com/zentria/afe-api/internal/infrastructure/oauth"
	"github.com/zentria/afe-api/internal/infrastructure/queue"
	"github.com/zentria/afe-api/internal/pkg/config"
)

// NewRouter builds the Echo instance with all routes registered and returns
// it together with the extraction dispatcher, which the caller starts with
// its own lifecycle context.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, *queue.Dispatcher) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("afe"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	invoiceRepo := mongodb.NewInvoiceRepository(db)
	mailRepo := mongodb.NewMailAccountRepository(db)

	sessions := redisdb.NewSessionStore(rdb, 24*time.Hour)
	latch := redisdb.NewOAuthLatch(rdb)
	oauthClient := oauth.NewClient(oauth.Config{
		TokenURL:     cfg.OAuth.TokenURL,
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURI:  cfg.OAuth.RedirectURI,
	})

	authService := service.NewAuthService(userRepo, sessions, oauthClient, latch, cfg.JWTSecret, 24*time.Hour, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, log)

	fetcher := extractor.NewClient(extractor.Config{BaseURL: cfg.Extractor.URL, Timeout: cfg.Extractor.Timeout})
	extractionService := service.NewExtractionService(mailRepo, invoiceRepo, fetcher, log)
	dispatcher := queue.NewDispatcher(cfg.Extractor.Workers, extractionService, log)

	authHandler := handler.NewAuthHandler(authService, sessions)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	adminHandler := handler.NewAdminHandler(userRepo, authService)
	mailHandler := handler.NewMailAccountHandler(mailRepo, dispatcher)

	e.Use(middleware.Auth(cfg.JWTSecret, sessions))

	allRoles := domain.KnownRoles()

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/callback", authHandler.OAuthCallback)
	e.POST("/auth/logout", authHandler.Logout, middleware.Guard(allRoles...))
	e.GET("/auth/me", authHandler.Me, middleware.Guard(allRoles...))
	e.PUT("/auth/me", authHandler.UpdateMe, middleware.Guard(allRoles...))
	e.POST("/auth/me/refresh", authHandler.RefreshMe, middleware.Guard(allRoles...))

	// --- Landing views ---
	// /login is rendered by the dashboard SPA; the API only anchors the
	// guard's redirect target.
	e.GET("/login", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"view": "login"})
	})
	e.GET("/dashboard", authHandler.Dashboard, middleware.Guard(allRoles...))
	e.GET("/admin", authHandler.Dashboard, middleware.Guard(domain.RoleSuperadmin))

	// --- Invoice approval flow ---
	invoices := e.Group("/v1/invoices")
	invoices.GET("", invoiceHandler.List, middleware.Guard(allRoles...))
	invoices.GET("/:id", invoiceHandler.Get, middleware.Guard(allRoles...))
	invoices.POST("", invoiceHandler.Register,
		middleware.Guard(domain.RoleSuperadmin, domain.RoleAdmin))
	invoices.POST("/:id/review", invoiceHandler.Review,
		middleware.Guard(domain.RoleSuperadmin, domain.RoleAdmin, domain.RoleResponsable, domain.RoleContador))
	invoices.POST("/:id/approve", invoiceHandler.Approve,
		middleware.Guard(domain.RoleSuperadmin, domain.RoleAdmin, domain.RoleResponsable))
	invoices.POST("/:id/reject", invoiceHandler.Reject,
		middleware.Guard(domain.RoleSuperadmin, domain.RoleAdmin, domain.RoleResponsable))

	// --- Administration ---
	admin := e.Group("/v1/admin", middleware.Guard(domain.RoleSuperadmin, domain.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:id", adminHandler.UpdateUser)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/mail-accounts", mailHandler.List)
	admin.POST("/mail-accounts", mailHandler.Create)
	admin.PUT("/mail-accounts/:id", mailHandler.Update)
	admin.DELETE("/mail-accounts/:id", mailHandler.Delete)
	admin.POST("/mail-accounts/:id/poll", mailHandler.Poll)

	// Group management is a superadmin surface.
	e.GET("/v1/admin/groups", adminHandler.ListGroups, middleware.Guard(domain.RoleSuperadmin))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, dispatcher
}
