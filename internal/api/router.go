package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oncoscan/oncoscan-api/internal/api/handler"
	"github.com/oncoscan/oncoscan-api/internal/api/middleware"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

// Dependencies carries everything the router needs. All services are
// explicitly constructed in main and injected here; no package globals.
type Dependencies struct {
	Auth        ports.AuthService
	Admin       ports.AdminService
	Predictions ports.PredictionService
	Model       ports.ModelService
	Audit       ports.AuditLog

	MongoDB *mongo.Database
	Redis   *redis.Client // nil when the result cache is disabled
	Logger  zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("oncoscan"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	modelHandler := handler.NewModelHandler(deps.Model)
	predictHandler := handler.NewPredictHandler(deps.Predictions)
	adminHandler := handler.NewAdminHandler(deps.Admin, deps.Audit)

	authRequired := middleware.Auth(deps.Auth)
	adminOnly := middleware.RequireAdmin()

	// --- Public routes ---
	e.POST("/token", authHandler.Token)
	e.GET("/status", modelHandler.Status)
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Authenticated routes ---
	e.GET("/users/me", authHandler.Me, authRequired)
	e.POST("/predict", predictHandler.Predict, authRequired)
	e.POST("/models/reload", modelHandler.Reload, authRequired, adminOnly)

	// --- Admin routes ---
	admin := e.Group("/admin", authRequired, adminOnly)
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.POST("/users/:username/role", adminHandler.SetRole)
	admin.GET("/company", adminHandler.GetCompany)
	admin.POST("/company", adminHandler.UpsertCompany)
	admin.GET("/audits", adminHandler.ListAudits)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness) // liveness  – is the process alive?
	if deps.MongoDB != nil {
		readiness := handler.NewReadinessHandler(deps.MongoDB, deps.Redis)
		e.GET("/health/ready", readiness.Readiness) // readiness – are dependencies up?
	}

	return e
}
