package app

import (
	"database/sql"
	"net/http"

	"go-payroll/internal/config"
	"go-payroll/internal/directory"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/payroll"
	"go-payroll/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	outboxRepo := kafka.NewOutboxRepository(db)
	payrollRepo := payroll.NewRepository(gormDB, db)

	// --- Collaborators ---
	directoryClient := directory.NewHTTPClient(directory.ClientConfig{
		BaseURL:   cfg.DirectoryBaseURL,
		Timeout:   cfg.DirectoryTimeout,
		CacheTTL:  cfg.DirectoryCacheTTL,
		JWTSecret: cfg.JWTSecret,
		Username:  cfg.InterServiceUser,
		Role:      cfg.InterServiceRole,
		TokenTTL:  cfg.InterServiceTokenTTL,
	}, rdb)

	// --- Services ---
	payrollService := payroll.NewService(db, payrollRepo, directoryClient, outboxRepo)

	// --- Handlers ---
	defaultBulkMode := payroll.BulkModeBestEffort
	if cfg.BulkTransactional {
		defaultBulkMode = payroll.BulkModeAllOrNothing
	}
	payrollHandler := payroll.NewHandler(payrollService, rdb, defaultBulkMode)

	// --- Routes Registration ---
	router.GET("/healthz", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, nil)
	})

	api := router.Group("/api/v1")
	{
		payroll.RegisterRoutes(api, payrollHandler, rdb)
	}

	return nil
}
