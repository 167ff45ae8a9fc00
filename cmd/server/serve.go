package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/content_auth/internal/audit"
	"github.com/Skotchmaster/content_auth/internal/config"
	"github.com/Skotchmaster/content_auth/internal/db"
	"github.com/Skotchmaster/content_auth/internal/es"
	"github.com/Skotchmaster/content_auth/internal/handlers"
	"github.com/Skotchmaster/content_auth/internal/logging"
	"github.com/Skotchmaster/content_auth/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/content_auth/internal/middleware/logging"
	"github.com/Skotchmaster/content_auth/internal/mykafka"
	"github.com/Skotchmaster/content_auth/internal/notify"
	"github.com/Skotchmaster/content_auth/internal/otp"
	"github.com/Skotchmaster/content_auth/internal/refresh"
	"github.com/Skotchmaster/content_auth/internal/repo"
	"github.com/Skotchmaster/content_auth/internal/service"
	"github.com/Skotchmaster/content_auth/internal/tokens"
	httpserver "github.com/Skotchmaster/content_auth/internal/transport/http"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		l := logging.New(cfg.LogLevel)
		slog.SetDefault(l)
		return serve(logging.IntoContext(cmd.Context(), l), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", true, "run migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func otpRepository(ctx context.Context, cfg *config.Config, gormRepo *repo.GormRepo) (otp.Repository, io.Closer, error) {
	if cfg.OTPStore != config.OTPStoreRedis {
		return gormRepo, nil, nil
	}
	client, err := repo.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return repo.NewRedisOTPRepo(client, ""), client, nil
}

func otpSink(cfg *config.Config) (notify.Sink, io.Closer) {
	if cfg.NotifySink != config.SinkKafka {
		return notify.LogSink{}, nil
	}
	prod := mykafka.NewProducer(cfg.KafkaBrokers)
	return notify.NewKafkaSink(prod, cfg.KafkaTopic), prod
}

func auditRecorder(ctx context.Context, cfg *config.Config) (audit.Recorder, error) {
	if !cfg.AuditEnabled() {
		return audit.Nop{}, nil
	}
	client, err := es.NewClient(ctx, es.Config{URL: cfg.AuditESURL, User: cfg.AuditESUser, Password: cfg.AuditESPassword})
	if err != nil {
		return nil, err
	}
	return audit.NewElasticRecorder(client, cfg.AuditIndex), nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	l := logging.FromContext(ctx)

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeDB(l, gdb)

	if migrateOnStart {
		if err := db.Migrate(ctx, gdb); err != nil {
			return err
		}
	}

	gormRepo := repo.New(gdb)
	otpRepo, otpCloser, err := otpRepository(ctx, cfg, gormRepo)
	if err != nil {
		return err
	}
	sink, sinkCloser := otpSink(cfg)
	recorder, err := auditRecorder(ctx, cfg)
	if err != nil {
		return err
	}

	svc := &service.AuthService{
		Users:         gormRepo,
		OTP:           otp.New(otpRepo, cfg.OTPValidity(), cfg.OTPMaxAttempts),
		Tokens:        tokens.NewIssuer([]byte(cfg.AccessSecret), []byte(cfg.RefreshSecret), cfg.AccessTokenTTL(), cfg.RefreshTokenTTL()),
		Refresh:       refresh.NewStore(gormRepo),
		Notifier:      sink,
		Audit:         recorder,
		RotateRefresh: cfg.RotateRefreshTokens,
		RequireActive: cfg.LoginRequiresActive,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), loggingmw.RequestLogger(l))

	deps := &httpserver.Deps{
		AuthHandler:   &handlers.AuthHTTP{Svc: svc},
		Authenticator: svc,
		Ready:         func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	}
	if cfg.CSRFProtect {
		c := csrf.DefaultConfig()
		deps.CSRF = &c
	}
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("http_listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			l.Error("http_server_error", "error", err)
			return err
		}
	case <-sigCtx.Done():
	}

	l.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server_shutdown_error", "error", err)
	}

	for name, c := range map[string]io.Closer{"redis": otpCloser, "kafka": sinkCloser} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			l.Error("close_error", "component", name, "error", err)
		}
	}

	l.Info("shutdown_complete")
	return nil
}

func closeDB(l *slog.Logger, gdb *gorm.DB) {
	if err := db.Close(gdb); err != nil {
		l.Error("db_close_error", "error", err)
	}
}
