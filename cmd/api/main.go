// Package main is the entry point for the gatherly API server.
//
// @title Gatherly API
// @version 1.0
// @description Join-request, location unlock, and notification queue API for capacity-constrained events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"gatherly/config"
	"gatherly/db"
	"gatherly/internal/adapters/auth"
	"gatherly/internal/adapters/email"
	"gatherly/internal/adapters/textgen"
	httpdelivery "gatherly/internal/delivery/http"
	"gatherly/internal/delivery/http/controllers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
	"gatherly/internal/repository/postgres"
	"gatherly/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger()

	database, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer database.Close()
	if err := database.PingContext(ctx); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}
	if err := db.Migrate(database); err != nil {
		logger.Error("migrate database", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(database)
	userRepo := postgres.NewUserRepository(database)
	requestRepo := postgres.NewJoinRequestRepository(database)
	attendeeRepo := postgres.NewAttendeeRepository(database)
	queueRepo := postgres.NewNotificationQueueRepository(database)
	logRepo := postgres.NewNotificationLogRepository(database)

	var generator domain.TextGenerator
	if cfg.TextGen.APIKey != "" {
		generator = textgen.NewHTTPGenerator(cfg.TextGen.APIKey, cfg.TextGen.BaseURL, cfg.TextGen.Model, nil)
	}
	notices := services.NewNoticeService(generator)
	mailer := email.NewMailer(email.Config{
		Provider:        cfg.Mail.Provider,
		FromAddress:     cfg.Mail.FromAddress,
		FromName:        cfg.Mail.FromName,
		Region:          cfg.Mail.SES.Region,
		AccessKeyID:     cfg.Mail.SES.AccessKeyID,
		SecretAccessKey: cfg.Mail.SES.SecretAccessKey,
	}, logger)

	enqueuer := services.NewEnqueueService(queueRepo)
	joins := services.NewJoinRequestService(eventRepo, requestRepo, attendeeRepo, enqueuer, logger)
	locations := services.NewLocationService(eventRepo, attendeeRepo, enqueuer, logger)
	admin := services.NewQueueAdminService(queueRepo)
	worker := services.NewWorkerService(queueRepo, logRepo, eventRepo, userRepo, notices, mailer, logger, cfg.WorkerBatchSize)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	joinController := controllers.NewJoinController(logger, joins, locations)
	queueController := controllers.NewQueueController(logger, enqueuer, admin, worker)

	mux := httpdelivery.NewRouter(
		joinController,
		queueController,
		middleware.RequireAuth(verifier, logger),
		middleware.RequireAdminSecret(cfg.AdminSecret),
	)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("server stopped")
}
