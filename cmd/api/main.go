package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oncoscan/oncoscan-api/internal/api"
	"github.com/oncoscan/oncoscan-api/internal/audit"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
	"github.com/oncoscan/oncoscan-api/internal/core/service"
	"github.com/oncoscan/oncoscan-api/internal/imaging"
	"github.com/oncoscan/oncoscan-api/internal/infrastructure/config"
	mongodb "github.com/oncoscan/oncoscan-api/internal/infrastructure/db/mongo"
	redisdb "github.com/oncoscan/oncoscan-api/internal/infrastructure/db/redis"
	"github.com/oncoscan/oncoscan-api/internal/model"
	"github.com/oncoscan/oncoscan-api/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx := context.Background()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	// Schema/index failures are logged, not fatal to process start.
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Error().Err(err).Msg("index creation failed")
	}

	var (
		rdb   *redis.Client
		cache ports.ResultCache
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, result cache disabled")
			rdb = nil
		} else {
			defer rdb.Close()
			cache = redisdb.NewResultCache(rdb)
		}
	}

	userRepo := mongodb.NewUserRepository(db)
	companyRepo := mongodb.NewCompanyRepository(db)

	authService := service.NewAuthService(userRepo, cfg.SecretKey, cfg.TokenTTL(), log)
	authService.EnsureSeedUser(ctx)
	adminService := service.NewAdminService(userRepo, companyRepo, log)

	modelService := model.New(model.Config{
		Backend:       cfg.Model.Backend,
		Path:          cfg.Model.Path,
		Device:        cfg.Model.Device,
		SimulateDelay: cfg.Model.SimulateDelay,
	}, log)
	if err := modelService.Load(); err != nil {
		// Service stays up; /status reports the failure and /predict
		// returns 503 until a successful reload.
		log.Error().Err(err).Msg("model load failed at startup")
	}

	auditLog := audit.NewLog(cfg.AuditFile)
	predictions := service.NewPredictionService(
		modelService,
		imaging.NewDecoder(),
		auditLog,
		cache,
		cfg.UploadDir,
		log,
	)

	deps := api.Dependencies{
		Auth:        authService,
		Admin:       adminService,
		Predictions: predictions,
		Model:       modelService,
		Audit:       auditLog,
		MongoDB:     db,
		Redis:       rdb,
		Logger:      log,
	}
	e := api.NewRouter(deps)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}
