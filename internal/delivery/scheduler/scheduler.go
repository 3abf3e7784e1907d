// Package scheduler runs periodic maintenance jobs in the API process.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery"
	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/lifecycle"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

const purgeTimeout = time.Minute

type scheduler struct {
	cfg    *config.SchedulerConfig
	logger *slog.Logger
	authUC usecase.AuthUsecase
	cron   *cron.Cron
}

// Params holds dependencies for the scheduler, injected by Fx.
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *slog.Logger
	AuthUC usecase.AuthUsecase
}

// New creates the scheduler delivery. Jobs are registered on Serve so a bad
// cron expression surfaces as a start failure.
func New(params Params) (delivery.Delivery, error) {
	cfg := params.Cfg.Scheduler
	if cfg == nil {
		cfg = &config.SchedulerConfig{}
	}

	cronLogger := &slogCronLogger{logger: params.Logger}
	s := &scheduler{
		cfg:    cfg,
		logger: params.Logger,
		authUC: params.AuthUC,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}

	params.Lc.Append(fx.Hook{
		OnStop: s.stop,
	})

	return s, nil
}

func (s *scheduler) Serve(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("Scheduler disabled")

		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.PurgeSpec, func() { s.purgeSessions(ctx) }); err != nil {
		return errors.Wrapf(err, "invalid purge schedule %q", s.cfg.PurgeSpec)
	}

	s.logger.Info("Starting scheduler", slog.String("purge_spec", s.cfg.PurgeSpec))
	s.cron.Start()

	return nil
}

// purgeSessions drops expired refresh tokens and revocation entries.
func (s *scheduler) purgeSessions(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, purgeTimeout)
	defer cancel()

	jobID := uuid.New().String()
	ctx, logger := deliverycontext.Scope(ctx, s.logger.With(slog.String("job", "purge_sessions")), jobID)

	removed, err := s.authUC.PurgeExpiredSessions(ctx)
	if err != nil {
		logger.Error("Failed to purge expired sessions", slog.Any("error", err))

		return
	}

	logger.Info("Purged expired sessions", slog.Int64("removed", removed))
}

func (s *scheduler) stop(ctx context.Context) error {
	s.logger.Info("Shutting down scheduler")

	waitCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-waitCtx.Done():
		return errors.Wrap(waitCtx.Err(), "scheduler jobs still running")
	}
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l *slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("[Cron] "+msg, keysAndValues...)
}

func (l *slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("[Cron] "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
