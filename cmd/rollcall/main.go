package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mkale-dev/rollcall/internal/api"
	"github.com/mkale-dev/rollcall/internal/config"
	"github.com/mkale-dev/rollcall/internal/db"
	"github.com/mkale-dev/rollcall/internal/notify"
	"github.com/mkale-dev/rollcall/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	time.Local = cfg.Location

	appLogger := log.New(os.Stdout, "", log.LstdFlags)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	repositories := db.NewRepositories(database)

	clock := services.SystemClock{Location: cfg.Location}
	settingsService, err := services.NewSettingsService(repositories.Settings)
	if err != nil {
		log.Fatalf("settings init failed: %v", err)
	}

	slackClient := notify.NewSlackClient(cfg.SlackBotToken, cfg.BaseURL)
	var emailGateway notify.Gateway
	if cfg.EmailConfigured() {
		emailGateway = notify.NewEmailSender(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
			cfg.SMTPFrom, cfg.BaseURL,
		)
	} else {
		appLogger.Printf("email transport not configured, escalation goes chat-only")
	}
	gateway := notify.NewRouter(slackClient, emailGateway)

	tokenService := services.NewTokenService(repositories.Tokens, clock)
	engine := services.NewEscalationEngine(
		repositories.Audits, repositories.Users, tokenService,
		gateway, settingsService, clock, appLogger,
		emailGateway != nil,
	)
	attendanceService := services.NewAttendanceService(repositories.Users, repositories.Audits, clock)
	userService := services.NewUserService(repositories.Users)
	healthService := services.NewHealthService(repositories.Users, repositories.Audits, cfg.DBPath)
	integrityAuditor := services.NewIntegrityAuditor(repositories.Integrity, settingsService, clock, appLogger)
	scheduler := services.NewScheduler(repositories.Users, engine, settingsService, clock, cfg.Location, appLogger)

	if err := integrityAuditor.CheckAtStartup(); err != nil {
		appLogger.Printf("integrity check failed: %v", err)
	}

	handler := api.NewHandler(api.HandlerDeps{
		SecretKey:          cfg.SecretKey,
		AdminUsername:      cfg.AdminUsername,
		AdminPasswordHash:  cfg.AdminPasswordHash,
		SlackSigningSecret: cfg.SlackSigningSecret,
		Location:           cfg.Location,
		Logger:             appLogger,
		Attendance:         attendanceService,
		Engine:             engine,
		Users:              userService,
		Settings:           settingsService,
		Integrity:          integrityAuditor,
		Health:             healthService,
		Scheduler:          scheduler,
		Chat:               slackClient,
		Audits:             repositories.Audits,
	})

	app := fiber.New(fiber.Config{
		AppName:               "Rollcall",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	api.RegisterRoutes(app, handler)

	scheduler.Start()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		scheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Printf("server shutdown failed: %v", err)
		}
	}()

	appLogger.Printf("Rollcall listening on http://0.0.0.0:%s (db: %s, tz: %s)", cfg.Port, cfg.DBPath, cfg.Location.String())
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
