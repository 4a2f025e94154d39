package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BPOrganizer.api/internal/config"
	"BPOrganizer.api/internal/controller"
	"BPOrganizer.api/internal/logger"
	"BPOrganizer.api/internal/middleware"
	"BPOrganizer.api/internal/repository"
	"BPOrganizer.api/internal/routes"
	"BPOrganizer.api/internal/service"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	serviceName  = "bp-organizer"
	snapshotTTL  = 24 * time.Hour
	startTimeout = 10 * time.Second
	stopTimeout  = 15 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	classifier := service.Classify
	if cfg.CrisisFirst {
		classifier = service.ClassifyCrisisFirst
	}
	opts := []service.Option{service.WithClassifier(classifier)}

	// Optional InfluxDB archive
	if cfg.ArchiveEnabled() {
		repo := repository.NewInfluxDBRepository(cfg.InfluxDBURL, cfg.InfluxDBToken, cfg.InfluxDBOrg, zlog)
		defer repo.Close()
		if err := repo.Ping(startCtx); err != nil {
			return err
		}
		zlog.Info("InfluxDB archive enabled", zap.String("url", cfg.InfluxDBURL), zap.String("bucket", cfg.InfluxDBBucket))
		opts = append(opts, service.WithArchive(service.NewArchiveService(repo, cfg.InfluxDBBucket, zlog)))
	}

	// Optional Redis snapshot cache
	var cache *repository.RedisSnapshotCache
	if cfg.CacheEnabled() {
		kv, err := repository.NewRedisKV(startCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer kv.Close()
		zlog.Info("Redis snapshot cache enabled", zap.String("addr", cfg.RedisAddr))
		cache = repository.NewRedisSnapshotCache(kv, snapshotTTL)
		opts = append(opts, service.WithSnapshotCache(cache))
	}

	svc := service.NewUploadService(
		service.SimulatedTransport{Delay: cfg.UploadDelay},
		service.SimulatedExtractor{Delay: cfg.ProcessingDelay},
		zlog,
		opts...,
	)
	if cache != nil {
		if err := svc.Restore(startCtx); err != nil {
			zlog.Warn("failed to restore snapshot", zap.Error(err))
		}
	}

	var guard func(http.Handler) http.Handler
	if cfg.AuthEnabled() {
		var err error
		guard, err = middleware.NewJWTGuard(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, zlog)
		if err != nil {
			return err
		}
		zlog.Info("upload authentication enabled", zap.String("issuer", cfg.JWTIssuer))
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, controller.NewUploadController(svc, cfg.MaxUploadBytes, zlog), guard, zlog)

	// CORS setup
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("error starting server: %w", err)
	case sig := <-stop:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()
	if err := server.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	svc.Wait()
	return nil
}
