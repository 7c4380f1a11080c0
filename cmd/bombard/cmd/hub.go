package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/api/handler"
	"github.com/forgewave/bombard/internal/audit"
	"github.com/forgewave/bombard/internal/auth"
	"github.com/forgewave/bombard/internal/config"
	"github.com/forgewave/bombard/internal/hub"
	"github.com/forgewave/bombard/internal/logger"
	"github.com/forgewave/bombard/internal/metrics"
	"github.com/forgewave/bombard/internal/middleware"
	"github.com/forgewave/bombard/internal/storage/postgres"
)

var hubReportDir string

var hubCmd = &cobra.Command{
	Use:   "hub",
	Short: "Run the admission API and node registry",
	Long: `Hub runs two listeners: a REST admission API that accepts a job and fans
it out to every registered node, and a websocket registry nodes dial into.
Both ports, the database DSN, and auth settings are read from the process
environment (see internal/config).`,
	RunE: runHub,
}

func init() {
	rootCmd.AddCommand(hubCmd)
	hubCmd.Flags().StringVar(&hubReportDir, "report-dir", ".", "directory for the hub's aggregate per-job CSV reports")
}

func runHub(_ *cobra.Command, _ []string) error {
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Log

	log.Info("starting bombard hub", zap.String("rest_port", cfg.RESTPort), zap.String("socket_port", cfg.SocketPort))

	collector := metrics.NewCollector()
	auditLog := audit.NewLogger(log, 10000)
	auditHandler := handler.NewAuditHandler(auditLog)

	var reports *postgres.RunReportRepository
	if cfg.DatabaseDSN != "" {
		resilientCfg := postgres.DefaultResilientConfig()
		resilientCfg.DBConfig = postgres.DBConfig{DSN: cfg.DatabaseDSN, MaxConns: cfg.DatabaseMaxConns}
		rdb, err := postgres.NewResilientDB(resilientCfg, log)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer rdb.Close()
		reports = postgres.NewRunReportRepository(rdb.DB())
		log.Info("run reports persisted to postgres")
	} else {
		log.Warn("DATABASE_DSN not configured, run reports are not persisted")
	}

	h := hub.New(hub.Config{
		Log:                 log,
		AuditLog:            auditLog,
		Collector:           collector,
		Reports:             reports,
		ReportDir:           hubReportDir,
		AllowPrivateTargets: cfg.AllowPrivateTargets,
	})

	jwtService := auth.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTDurationHours)*time.Hour)
	apiKeyService := auth.NewAPIKeyService()
	authHandler := handler.NewAuthHandler(jwtService, apiKeyService)

	restRouter := hub.NewRESTRouter(hub.RouterConfig{
		Hub:              h,
		Config:           cfg,
		Logger:           log,
		MetricsCollector: collector,
		AuditMiddleware:  middleware.AuditMiddleware(auditLog),
		AuditHandler:     auditHandler,
		AuthHandler:      authHandler,
		JWTService:       jwtService,
		APIKeyService:    apiKeyService,
	})
	socketRouter := hub.NewSocketRouter(h, log)

	restSrv := &http.Server{Addr: ":" + cfg.RESTPort, Handler: restRouter}
	socketSrv := &http.Server{Addr: ":" + cfg.SocketPort, Handler: socketRouter}

	go func() {
		if err := restSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("admission server failed", zap.Error(err))
		}
	}()
	go func() {
		if err := socketSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("socket server failed", zap.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	log.Info("hub shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	restSrv.Shutdown(shutdownCtx)
	socketSrv.Shutdown(shutdownCtx)

	return nil
}
