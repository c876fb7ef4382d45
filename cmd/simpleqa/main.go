package main

import (
	"context"
	"log"

	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/handler"
	"github.com/haatos/simple-qa/internal/security"
	"github.com/haatos/simple-qa/internal/service"
	"github.com/haatos/simple-qa/internal/settings"
	"github.com/haatos/simple-qa/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	settings.ReadDotenv(internal.DotEnvPath)
	settings.Settings = settings.NewSettings()
	internal.InitializeConfiguration(internal.ConfigPath)
	config := internal.CurrentConfiguration()

	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb, settings.Settings.DatabaseDriver)

	aesEncrypter := security.NewAESEncrypter(security.LoadSecretKey(internal.DotEnvPath))

	runStore := store.NewTestRunSQLStore(rdb, rwdb)
	webhookStore := store.NewWebhookSQLStore(rdb, rwdb)
	notificationStore := store.NewNotificationSQLStore(rdb, rwdb)
	userStore := store.NewUserSQLStore(rdb, rwdb)

	broadcaster := service.NewBroadcaster()
	mailer := service.NewMailer(settings.Settings.SMTP)
	workspace := service.NewWorkspace(settings.Settings.WorkspaceRoot)

	webhookSvc := service.NewWebhookService(webhookStore, aesEncrypter, settings.Settings.WebhookSource)
	notificationSvc := service.NewNotificationService(notificationStore, userStore, broadcaster, mailer)
	dispatcher := service.NewDispatcher(webhookSvc, notificationSvc, mailer, userStore)
	strategies := service.NewStrategyRegistry(func() float64 {
		return internal.CurrentConfiguration().DemoPassProbability
	})
	runner := service.NewPipelineRunner(runStore, workspace, service.NewGitCloner(), strategies, dispatcher)

	runQueue := service.NewRunQueue(runner, config.QueueSize, config.Workers)
	testRunSvc := service.NewTestRunService(runStore, userStore, runQueue)
	if n, err := testRunSvc.FailInterruptedTestRuns(context.Background()); err != nil {
		log.Fatal(err)
	} else if n > 0 {
		log.Printf("failed %d test runs interrupted by a restart\n", n)
	}
	go runQueue.Run()

	scheduler := service.NewScheduler()
	if err := service.ScheduleRetention(
		scheduler,
		service.NewRetentionService(webhookSvc, workspace),
	); err != nil {
		log.Fatal(err)
	}
	scheduler.Start()

	e := setupEcho()
	g := e.Group("/api")
	handler.SetupTestRunRoutes(g, handler.NewTestRunHandler(testRunSvc))
	handler.SetupWebhookRoutes(g, handler.NewWebhookHandler(webhookSvc))
	handler.SetupNotificationRoutes(g, handler.NewNotificationHandler(notificationSvc, broadcaster))
	handler.SetupConfigRoutes(g, handler.NewConfigHandler(internal.ConfigPath))

	internal.GracefulShutdown(
		e, settings.Settings.Port,
		runQueue.Shutdown,
		func() {
			if err := scheduler.Shutdown(); err != nil {
				log.Println("err shutting down scheduler:", err)
			}
		},
		func() {
			if err := broadcaster.Close(); err != nil {
				log.Println("err closing broadcaster:", err)
			}
		},
	)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.Recover(),
		middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogStatus:  true,
			LogURI:     true,
			LogMethod:  true,
			LogLatency: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				log.Printf("%s %s %d %s\n", v.Method, v.URI, v.Status, v.Latency)
				return nil
			},
		}),
		middleware.CORSWithConfig(internal.GetCORSConfig()),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	return e
}
