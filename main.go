package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/shelf/backend/auth"
	"github.com/kevinaaaquil/shelf/backend/config"
	"github.com/kevinaaaquil/shelf/backend/handlers"
	"github.com/kevinaaaquil/shelf/backend/logger"
	"github.com/kevinaaaquil/shelf/backend/ratelimit"
	"github.com/kevinaaaquil/shelf/backend/service"
	"github.com/kevinaaaquil/shelf/backend/service/companion"
	"github.com/kevinaaaquil/shelf/backend/store"
	"github.com/kevinaaaquil/shelf/backend/store/sqlite"
	"github.com/kevinaaaquil/shelf/backend/validation"
)

const limiterIdle = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{
		Environment: cfg.Environment,
		Level:       logger.ParseLevel(cfg.LogLevel),
		AddSource:   !cfg.IsProduction(),
	})
	slog.SetDefault(log)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}
	cfg.LogSummary(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.StoreDriver == config.DriverSQLite {
		return sqlite.Open(cfg.SQLitePath, log)
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName, log)
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()
	db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			log.Warn("store close", "error", err)
		}
	}()

	var blobs service.BlobStore
	if cfg.S3Bucket != "" {
		s3Store, err := service.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			return err
		}
		blobs = s3Store
	} else {
		log.Warn("AWS_S3_BUCKET not set; file uploads are disabled")
	}

	var notifier service.Notifier = service.NopNotifier{}
	if cfg.SMTP.Host != "" {
		notifier = service.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	}

	var gen companion.Generator
	if cfg.AI.APIKey != "" {
		gen = companion.NewOpenAIGenerator(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, log)
	} else {
		log.Warn("AI_API_KEY not set; the reading companion will only return fallback replies")
	}

	v := validation.New()
	accounts := service.NewAccounts(db, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), v, cfg.AdminSecret, log)
	loginLimiter := ratelimit.PerMinute(cfg.LoginRatePerMin)
	aiLimiter := ratelimit.PerMinute(cfg.AI.RatePerMinute)

	rt := &handlers.Router{
		Auth: &handlers.AuthHandler{Accounts: accounts, Logger: log},
		Users: &handlers.UsersHandler{
			Accounts:  accounts,
			Favorites: service.NewFavoritesRegistry(db),
			Progress:  service.NewProgressTracker(db, v, log),
			Logger:    log,
		},
		Books: &handlers.BooksHandler{
			Catalog:  service.NewCatalog(db, blobs, service.NewGoogleBooks(cfg.MetadataBaseURL), v, log),
			Reviews:  service.NewReviewAggregator(db, v, log),
			MaxBytes: cfg.MaxUploadBytes(),
			Logger:   log,
		},
		Admin: &handlers.AdminHandler{Admin: service.NewAdmin(db, notifier, log), Logger: log},
		AI: &handlers.AIHandler{
			Companion: companion.New(gen, companion.Assembler{
				MaxPageChars: cfg.AI.MaxPageChars,
				MaxHistory:   cfg.AI.MaxHistory,
			}, cfg.AI.Timeout, log),
			Logger: log,
		},
		Health:        db,
		Authenticator: auth.NewValidator(cfg.JWTSecret, db),
		LoginLimiter:  loginLimiter,
		AILimiter:     aiLimiter,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        log,
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           rt.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan struct{})
	go sweepLimiters(stop, log, loginLimiter, aiLimiter)

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		close(stop)
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}
	close(stop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepLimiters drops idle rate-limit buckets so the maps stay bounded.
func sweepLimiters(stop <-chan struct{}, log *slog.Logger, limiters ...*ratelimit.KeyedLimiter) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			for _, l := range limiters {
				if n := l.Sweep(limiterIdle); n > 0 {
					log.Debug("rate limiter swept", "removed", n)
				}
			}
		}
	}
}
