package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sonaguard/sonaguard/internal/analysis"
	"github.com/sonaguard/sonaguard/internal/cache"
	"github.com/sonaguard/sonaguard/internal/config"
	"github.com/sonaguard/sonaguard/internal/filestore"
	"github.com/sonaguard/sonaguard/internal/handler"
	"github.com/sonaguard/sonaguard/internal/job"
	"github.com/sonaguard/sonaguard/internal/ratelimit"
	"github.com/sonaguard/sonaguard/internal/schedule"
	"github.com/sonaguard/sonaguard/internal/service"
	"github.com/sonaguard/sonaguard/internal/store"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "sonaguard",
		Short: "sonaguard voice authenticity detection server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run sonaguard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The KV store is optional: without it the cache degrades to
	// always-compute and the rate limiter to always-allow.
	var kv store.KV
	if cfg.Redis.Addr != "" {
		var err error
		kv, err = store.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer kv.Close()
		if err := kv.Ping(ctx); err != nil {
			logutil.GetLogger(ctx).Warn("backing store unreachable at startup, continuing in fail-open mode", zap.Error(err))
		}
	} else {
		logutil.GetLogger(ctx).Warn("no redis configured, caching and rate limiting disabled")
	}

	modelStore, err := filestore.New(cfg.ModelStore)
	if err != nil {
		return fmt.Errorf("init model store: %w", err)
	}
	backend := analysis.NewBackend(modelStore, cfg.ModelStore, cfg.Audio)
	// A backend that cannot load is fatal: refuse traffic instead of
	// serving requests against a half-initialized pipeline.
	if err := backend.EnsureReady(ctx); err != nil {
		return fmt.Errorf("load analysis backend: %w", err)
	}

	resultCache := cache.New(kv, cfg.Cache)
	limiter := ratelimit.New(kv, cfg.RateLimit)
	detectService := service.NewDetectService(backend, resultCache, limiter, cfg.Audio, cfg.Pipeline)

	router := handler.NewRouter(handler.RouterDeps{
		Detect:        handler.NewDetectHandler(detectService),
		Health:        handler.NewHealthHandler(backend),
		APIKeys:       cfg.APIKeys,
		CORSAllowlist: cfg.CORSAllowlist,
	})

	scheduler := schedule.New()
	if kv != nil {
		if err := scheduler.AddJob(job.NewStoreHealthJob(kv), "* * * * *"); err != nil {
			return fmt.Errorf("schedule store health job: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// The envelope deadline must stay strictly below the transport
		// timeout so a Timeout response still has room to flush.
		WriteTimeout: time.Duration(cfg.Pipeline.DeadlineMS)*time.Millisecond + 5*time.Second,
	}

	logutil.GetLogger(ctx).Info("http server listening",
		zap.String("addr", addr),
		zap.String("model_version", backend.ModelVersion()),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
