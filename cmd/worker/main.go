// Package main runs one notification queue batch and exits. Intended to be
// invoked by a scheduler (cron, systemd timer) rather than kept resident.
package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/lib/pq"

	"gatherly/config"
	"gatherly/db"
	"gatherly/internal/adapters/email"
	"gatherly/internal/adapters/textgen"
	"gatherly/internal/domain"
	"gatherly/internal/repository/postgres"
	"gatherly/internal/services"
)

const batchTimeout = 2 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

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

	var generator domain.TextGenerator
	if cfg.TextGen.APIKey != "" {
		generator = textgen.NewHTTPGenerator(cfg.TextGen.APIKey, cfg.TextGen.BaseURL, cfg.TextGen.Model, nil)
	}
	mailer := email.NewMailer(email.Config{
		Provider:        cfg.Mail.Provider,
		FromAddress:     cfg.Mail.FromAddress,
		FromName:        cfg.Mail.FromName,
		Region:          cfg.Mail.SES.Region,
		AccessKeyID:     cfg.Mail.SES.AccessKeyID,
		SecretAccessKey: cfg.Mail.SES.SecretAccessKey,
	}, logger)

	worker := services.NewWorkerService(
		postgres.NewNotificationQueueRepository(database),
		postgres.NewNotificationLogRepository(database),
		postgres.NewEventRepository(database),
		postgres.NewUserRepository(database),
		services.NewNoticeService(generator),
		mailer,
		logger,
		cfg.WorkerBatchSize,
	)

	report, err := worker.ProcessBatch(ctx)
	if err != nil {
		logger.Error("worker batch failed", "err", err)
		os.Exit(1)
	}
	logger.Info("worker batch complete",
		"claimed", report.Claimed, "sent", report.Sent, "failed", report.Failed)
}
