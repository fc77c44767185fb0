// cmd/server/main.go
package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"grant-intake/internal/api"
	"grant-intake/internal/audit"
	"grant-intake/internal/captcha"
	awsclient "grant-intake/internal/common/aws"
	"grant-intake/internal/common/config"
	"grant-intake/internal/common/database"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/common/observability"
	"grant-intake/internal/followup"
	"grant-intake/internal/forms"
	"grant-intake/internal/notify"
	"grant-intake/internal/salesforce"
	"grant-intake/internal/submission"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service":     cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	if err := forms.VerifyRegistry(); err != nil {
		zapLog.Fatal("form field registry is inconsistent", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(observability.Config{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		zapLog.Fatal("failed to initialise observability", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			zapLog.Warn("observability shutdown failed", zap.Error(err))
		}
	}()

	// --- Salesforce ---
	sf, err := salesforce.NewClient(salesforce.ConfigFromApp(cfg.Salesforce), log, obs)
	if err != nil {
		zapLog.Fatal("invalid salesforce configuration", zap.Error(err))
	}
	checks := map[string]api.ReadinessCheck{"salesforce": sf.TestConnection}

	// --- Captcha ---
	verifier, err := captcha.NewService(captcha.ConfigFromApp(cfg.Captcha), log)
	if err != nil {
		zapLog.Fatal("invalid captcha configuration", zap.Error(err))
	}
	if !cfg.Captcha.Enabled {
		zapLog.Warn("captcha verification is disabled")
	}

	// --- Redis (follow-up token replay guard) ---
	var replayStore redis.Cmdable
	if cfg.Database.Redis.Address != "" {
		rdb := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(ctx, func() error {
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		replayStore = rdb.Client
		checks["redis"] = rdb.Ping
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Warn("redis not configured, follow-up tokens are not single use")
	}

	tokens, err := followup.NewService(followup.ConfigFromApp(cfg.Followup), replayStore, log)
	if err != nil {
		zapLog.Fatal("invalid follow-up token configuration", zap.Error(err))
	}

	// --- PostgreSQL (audit ledger) ---
	var auditRecorder submission.AuditRecorder
	if cfg.Database.Postgres.Enabled() {
		var pg *database.PostgresClient
		err = retryWithBackoff(ctx, func() error {
			var err error
			pg, err = database.ConnectPostgres(ctx, cfg.Database.Postgres)
			return err
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		store := audit.NewStore(pg.DB, log)
		if err := store.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("failed to prepare audit schema", zap.Error(err))
		}
		auditRecorder = store
		checks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Notifications ---
	notifier := buildNotifier(ctx, cfg, log, zapLog)

	// --- Services ---
	submitter, err := submission.NewService(submission.ServiceDependencies{
		Logger:        log,
		CRM:           sf,
		Captcha:       verifier,
		Tokens:        tokens,
		Audit:         auditRecorder,
		Notifier:      notifier,
		Observability: obs,
	}, submission.ConfigFromApp(cfg))
	if err != nil {
		zapLog.Fatal("failed to build submission service", zap.Error(err))
	}

	feedback, err := submission.NewFeedbackService(submission.ConfigFromApp(cfg), sf, tokens, auditRecorder, log, obs)
	if err != nil {
		zapLog.Fatal("failed to build feedback service", zap.Error(err))
	}

	handlers, err := api.NewHandlers(api.ConfigFromApp(cfg.Server), submitter, feedback, checks, log)
	if err != nil {
		zapLog.Fatal("failed to build handlers", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handlers, log),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("grant intake listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, draining requests...")
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during HTTP shutdown", zap.Error(err))
	}

	zapLog.Info("grant intake stopped")
}

// buildNotifier returns nil when neither channel is enabled.
func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) notify.Notifier {
	var notifiers notify.Multi
	region := cfg.Notifications.AWS.Region

	if cfg.Notifications.Email.Enabled {
		ses, err := awsclient.NewSESClient(ctx, region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		notifiers = append(notifiers, notify.NewEmailNotifier(ses, cfg.Notifications.Email.FromEmail, log))
	}

	if cfg.Notifications.Events.Enabled {
		sns, err := awsclient.NewSNSClient(ctx, region)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}
		notifiers = append(notifiers, notify.NewEventNotifier(sns, cfg.Notifications.Events.TopicARN, log))
	}

	if len(notifiers) == 0 {
		return nil
	}
	return notifiers
}
