package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"propertytools_backend/internals/configs"
	database "propertytools_backend/internals/databases"
	notifRoute "propertytools_backend/internals/features/properties/notifications/route"
	notifSvc "propertytools_backend/internals/features/properties/notifications/service"
	helper "propertytools_backend/internals/helpers"
	"propertytools_backend/internals/metrics"
	middlewares "propertytools_backend/internals/middlewares"
	routes "propertytools_backend/internals/route"
)

func main() {
	configs.LoadEnv()
	log := configs.Logger
	defer func() { _ = log.Sync() }()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		ErrorHandler:            helper.ErrorHandler,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          configs.SplitCSV(configs.GetEnv("TRUSTED_PROXIES", "127.0.0.1")),
		BodyLimit:               1 << 20,
	})

	middlewares.SetupMiddlewares(app)
	metrics.Init()

	// DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()

	conf := configs.LoadTools()
	notify := notifRoute.NewService(database.DB, conf)

	// scheduler after DB is ready
	sched, err := notifSvc.StartScheduler(notify)
	if err != nil {
		log.Fatal("[SCHEDULER] start failed", zap.Error(err))
	}

	routes.SetupRoutes(app, database.DB, conf, notify)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 2 * time.Minute
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")
	go func() {
		log.Info("Listening", zap.String("port", port))
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown: stop cron, drain HTTP, close the pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cronCtx := sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		log.Warn("[SCHEDULER] jobs still running at shutdown")
	}
	database.Close()
}
