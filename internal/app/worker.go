package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-payroll/internal/config"
	"go-payroll/internal/directory"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/messaging/kafka/producer"
	"go-payroll/internal/payroll"
	"go-payroll/internal/scheduler"
	"go-payroll/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker hosts the outbox relay and the payroll automation cron in one
// process. Both are side-effect loops with no HTTP surface.
func RunWorker(cfg config.Config) error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return err
	}

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	payrollRepo := payroll.NewRepository(gormDB, sqlDB)

	directoryClient := directory.NewHTTPClient(directory.ClientConfig{
		BaseURL:   cfg.DirectoryBaseURL,
		Timeout:   cfg.DirectoryTimeout,
		CacheTTL:  cfg.DirectoryCacheTTL,
		JWTSecret: cfg.JWTSecret,
		Username:  cfg.InterServiceUser,
		Role:      cfg.InterServiceRole,
		TokenTTL:  cfg.InterServiceTokenTTL,
	}, rdb)

	payrollService := payroll.NewService(sqlDB, payrollRepo, directoryClient, outboxRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.RunOutboxRelay(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)

	bulkMode := payroll.BulkModeBestEffort
	if cfg.BulkTransactional {
		bulkMode = payroll.BulkModeAllOrNothing
	}

	sched := scheduler.New(scheduler.Config{
		Enabled:  cfg.AutomationEnabled,
		Schedule: cfg.AutomationSpec,
		Mode:     bulkMode,
	}, payrollService)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}
