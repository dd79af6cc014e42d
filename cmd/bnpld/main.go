package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/async"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core"
	"github.com/joseph-ayodele/bnpl-tracker/internal/export"
	"github.com/joseph-ayodele/bnpl-tracker/internal/ingest"
	repo "github.com/joseph-ayodele/bnpl-tracker/internal/repository"
	"github.com/joseph-ayodele/bnpl-tracker/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(ctx, repo.ConfigFrom(cfg.Database), logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := repo.Migrate(ctx, db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	scheduleRepo := repo.NewScheduleRepository(db, logger)
	processor := core.NewProcessor(logger,
		core.WithWorkers(cfg.Extraction.Workers),
		core.WithPreviewLength(cfg.Extraction.PreviewLength),
		core.WithLocation(cfg.Location()),
	)
	queue := async.NewProcessorQueue(processor, scheduleRepo, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.Timeout),
	)

	mode, _ := constants.ParseMode(cfg.Extraction.DefaultMode)
	svc := server.NewExtractionService(processor, queue, scheduleRepo,
		export.NewService(scheduleRepo, logger),
		server.Limits{MaxInputBytes: cfg.Extraction.MaxInputBytes, DefaultMode: mode},
		logger,
	)

	// gRPC server
	var (
		grpcServer *grpc.Server
		httpServer *http.Server
	)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(server.RequestIDInterceptor))
		hs := server.NewGRPCServer(svc, logger).Register(grpcServer)
		defer hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

		go func() {
			logger.Info("gRPC serving", "addr", cfg.Server.GRPCAddr, "service", server.ServiceName)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("grpc serve failed", "error", err)
				stop()
			}
		}()
	}

	// HTTP server
	if cfg.Server.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		httpServer = &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           server.NewHTTPServer(svc, db, logger).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("HTTP serving", "addr", cfg.Server.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http serve failed", "error", err)
				stop()
			}
		}()
	}

	// Inbox directory
	if cfg.Ingest.WatchDir != "" {
		events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{cfg.Ingest.WatchDir},
			InitialScan: cfg.Ingest.InitialScan,
			Debounce:    cfg.Ingest.Debounce,
		}, logger)
		if err != nil {
			logger.Error("failed to watch inbox", "dir", cfg.Ingest.WatchDir, "error", err)
			os.Exit(1)
		}
		ingestor := ingest.NewFSIngestor(int64(cfg.Extraction.MaxInputBytes), logger)
		go ingest.NewInbox(ingestor, queue, mode, logger).Run(ctx, events)
		logger.Info("watching inbox", "dir", cfg.Ingest.WatchDir)
	}

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
