package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dav-92/catfoodbot/config"
	alertRepository "github.com/dav-92/catfoodbot/internal/alert/repository"
	alertUseCase "github.com/dav-92/catfoodbot/internal/alert/usecase"
	"github.com/dav-92/catfoodbot/internal/notifier"
	preferencesHandler "github.com/dav-92/catfoodbot/internal/preferences/handler"
	preferencesRepository "github.com/dav-92/catfoodbot/internal/preferences/repository"
	preferencesUseCase "github.com/dav-92/catfoodbot/internal/preferences/usecase"
	productHandler "github.com/dav-92/catfoodbot/internal/product/handler"
	productRepository "github.com/dav-92/catfoodbot/internal/product/repository"
	productUseCase "github.com/dav-92/catfoodbot/internal/product/usecase"
	"github.com/dav-92/catfoodbot/internal/scheduler"
	"github.com/dav-92/catfoodbot/internal/scraper"
	"github.com/dav-92/catfoodbot/internal/scraper/sites"
	"github.com/dav-92/catfoodbot/internal/tracker"
	trackerHandler "github.com/dav-92/catfoodbot/internal/tracker/handler"
	"github.com/dav-92/catfoodbot/internal/tracker/listener"
	"github.com/dav-92/catfoodbot/pkg/broker"
	"github.com/dav-92/catfoodbot/pkg/cache"
	"github.com/dav-92/catfoodbot/pkg/logger"
	"github.com/dav-92/catfoodbot/pkg/postgres"
	"github.com/dav-92/catfoodbot/pkg/search"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()
	appLogger.Info("starting catfoodbot", zap.String("env", cfg.Server.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("postgres init failed", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("elasticsearch unavailable, search disabled", zap.Error(err))
		esClient = nil
	}

	alertsProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.AlertsTopic,
	})
	defer alertsProducer.Close()

	triggerConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.TriggerTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer triggerConsumer.Close()

	productRepo := productRepository.NewPGRepository(db)
	preferencesRepo := preferencesRepository.NewPGRepository(db)
	alertRepo := alertRepository.NewPGRepository(db)

	productUC := productUseCase.NewProductUseCase(productRepo, redisClient, esClient, appLogger)
	preferencesUC := preferencesUseCase.NewPreferencesUseCase(preferencesRepo, redisClient, appLogger)
	alertUC := alertUseCase.NewAlertUseCase(alertRepo, appLogger)

	siteOpts := sites.Options{
		UserAgent:      cfg.Scraper.UserAgent,
		RequestDelay:   cfg.Scraper.RequestDelay,
		RequestTimeout: cfg.Scraper.PerSiteTimeout,
	}
	orchestrator := scraper.NewOrchestrator(
		[]scraper.Adapter{
			sites.NewZooplus(siteOpts),
			sites.NewBitiba(siteOpts),
			sites.NewZooroyal(siteOpts),
		},
		cfg.Scraper.PerSiteTimeout,
		appLogger,
	)

	dealNotifier := notifier.NewKafkaNotifier(alertsProducer, appLogger)
	trk := tracker.New(orchestrator, productUC, preferencesUC, alertUC, dealNotifier, appLogger)

	sched := scheduler.New(trk, productUC, scheduler.Config{
		CheckInterval:   cfg.Scheduler.CheckInterval,
		CleanupInterval: cfg.Scheduler.CleanupInterval,
		CleanupDelay:    cfg.Scheduler.CleanupDelay,
		Retention:       time.Duration(cfg.Scheduler.RetentionDays) * 24 * time.Hour,
	}, appLogger)
	go sched.Run(ctx)

	triggerListener := listener.NewTriggerListener(triggerConsumer, sched, appLogger)
	go triggerListener.Start(ctx)

	if cfg.Server.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	productH := productHandler.NewProductHandler(productUC, appLogger)
	preferencesH := preferencesHandler.NewPreferencesHandler(preferencesUC, alertUC, appLogger)
	trackerH := trackerHandler.NewTrackerHandler(trk, sched, productUC, preferencesUC, appLogger)

	api := router.Group("/api")
	{
		api.GET("/products", productH.ListProducts)
		api.GET("/products/:id", productH.GetProduct)
		api.GET("/products/:id/history", productH.GetPriceHistory)

		api.GET("/users/:userID/preferences", preferencesH.GetPreferences)
		api.PUT("/users/:userID/preferences", preferencesH.UpdatePreferences)
		api.POST("/users/:userID/preferences/brands", preferencesH.AddBrand)
		api.DELETE("/users/:userID/preferences/brands/:brand", preferencesH.RemoveBrand)
		api.POST("/users/:userID/alerts/reset", preferencesH.ResetAlerts)

		api.GET("/deals/:userID", trackerH.GetDeals)
		api.GET("/status", trackerH.GetStatus)
		api.POST("/run", trackerH.TriggerRun)
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: router,
	}
	go func() {
		appLogger.Info("http server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown failed", zap.Error(err))
	}
	appLogger.Info("stopped")
}
