package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/audit"
	"ledgerbook/internal/cli"
	applog "ledgerbook/internal/log"
	"ledgerbook/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting ledgerbook-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	trail := audit.NewTrail(cfg.AuditTrailPath)
	auditWorker := worker.NewAuditWorker(trail)
	logger.Info("Audit trail ready", "path", cfg.AuditTrailPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = amqpClient.ConsumeTransactionEvents(ctx, func(ev *amqp.TransactionEvent) error {
		return auditWorker.HandleEvent(ctx, ev)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
