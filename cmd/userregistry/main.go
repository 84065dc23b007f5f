package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-registry/internal/config"
	"user-registry/internal/logging"
	"user-registry/internal/notify"
	"user-registry/internal/repository"
	"user-registry/internal/service"
	"user-registry/internal/validation"
	"user-registry/internal/web"
)

func main() {
	rollback := flag.Bool("rollback", false, "roll back the latest migration and exit")
	auditOnce := flag.Bool("audit", false, "run the user audit once and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger, *rollback, *auditOnce); err != nil {
		logger.Fatal("user registry stopped with error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, rollback, auditOnce bool) error {
	db, err := repository.NewDB(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	migrateCtx := ctx
	if cfg.Database.MigrateTimeout > 0 {
		var cancel context.CancelFunc
		migrateCtx, cancel = context.WithTimeout(ctx, cfg.Database.MigrateTimeout)
		defer cancel()
	}
	if rollback {
		return repository.Rollback(migrateCtx, db, cfg.Database.Driver, logger.Named("migrate"))
	}
	if err := repository.Migrate(migrateCtx, db, cfg.Database.Driver, logger.Named("migrate")); err != nil {
		return err
	}

	rules, err := validation.NewRuleset(cfg.Validation.Revision)
	if err != nil {
		return err
	}
	logger.Info("validation rules loaded", zap.String("revision", string(rules.Revision())), zap.Bool("content_filter", rules.Filtering()))

	userRepo := repository.NewUserRepository(db, rules)
	userSvc := service.NewUserService(userRepo)

	var notifier service.Notifier
	if cfg.Audit.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.Audit.TelegramToken, cfg.Audit.TelegramChatID, logger.Named("telegram"))
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		notifier = tg
	}
	auditSvc := service.NewAuditService(userRepo, notifier, logger.Named("audit"))

	if auditOnce {
		_, err := auditSvc.Run(ctx, time.Now())
		return err
	}

	scheduler := service.NewSchedulerService(time.Local, logger)
	if cfg.Audit.Interval > 0 {
		if _, err := scheduler.ScheduleInterval("user-audit", cfg.Audit.Interval, 5*time.Minute, func(jobCtx context.Context) error {
			_, err := auditSvc.Run(jobCtx, time.Now())
			return err
		}); err != nil {
			return fmt.Errorf("schedule audit: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	handler, err := web.NewHandler(web.Options{
		HTTP:  cfg.HTTP,
		Users: userSvc,
		Ping:  pinger(db),
		Log:   logger.Named("http"),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("user registry listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func pinger(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
