package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkendall/tandem/internal/backup"
	"github.com/mkendall/tandem/internal/database"
	"github.com/mkendall/tandem/internal/logging"
	"github.com/mkendall/tandem/internal/remote"
	"github.com/mkendall/tandem/internal/server"
)

func main() {
	// Missing .env is fine; the environment may be set by the supervisor.
	godotenv.Load()

	logger := logging.Setup(os.Getenv("TANDEM_LOG_LEVEL"), os.Getenv("TANDEM_LOG_FORMAT"))

	port := envOr("TANDEM_PORT", "8080")
	dbPath := envOr("TANDEM_DB_PATH", "tandem.db")

	tokenSecret := os.Getenv("TANDEM_TOKEN_SECRET")
	if tokenSecret == "" {
		logger.Error("TANDEM_TOKEN_SECRET is required")
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		Remote: remote.Config{
			BaseURL:   os.Getenv("TANDEM_REMOTE_URL"),
			AuthToken: os.Getenv("TANDEM_REMOTE_TOKEN"),
		},
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("TANDEM_S3_ENDPOINT"),
				Bucket:    os.Getenv("TANDEM_S3_BUCKET"),
				Region:    envOr("TANDEM_S3_REGION", "auto"),
				AccessKey: os.Getenv("TANDEM_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("TANDEM_S3_SECRET_KEY"),
			},
			DBPath:     dbPath,
			Passphrase: os.Getenv("TANDEM_SNAPSHOT_PASSPHRASE"),
		},
		Push: server.PushConfig{
			VAPIDPublicKey:  os.Getenv("TANDEM_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("TANDEM_VAPID_PRIVATE_KEY"),
		},
		TokenSecret: tokenSecret,
		DevMode:     os.Getenv("TANDEM_DEV_MODE") == "true",
	}
	if cfg.Remote.BaseURL == "" {
		logger.Error("TANDEM_REMOTE_URL is required")
		os.Exit(1)
	}

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Watcher().Start(ctx)
	srv.BackupManager().Start(ctx)

	// Expired rate-limit buckets pile up without an occasional sweep
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("tandem listening", "port", port, "dev_mode", cfg.DevMode)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	srv.Watcher().Stop()
	srv.BackupManager().Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
