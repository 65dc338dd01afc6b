package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/du-phan/resilio/internal/xslog"
	"github.com/robfig/cron"
)

// Scheduler rolls every athlete's series forward on a cron schedule so rest
// days are recorded even when nothing is ingested.
type Scheduler struct {
	svc    *Service
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler registers the roll-forward job. spec uses the six-field cron
// syntax with seconds, e.g. "0 5 0 * * *" for five past midnight UTC.
func NewScheduler(svc *Service, spec string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		svc:    svc,
		cron:   cron.NewWithLocation(time.UTC),
		logger: logger,
	}
	if err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid roll-forward schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("roll-forward scheduler started")
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("roll-forward scheduler stopped")
}

func (s *Scheduler) run() {
	ctx := xslog.WithLogger(context.Background(), s.logger)
	start := time.Now()
	changes, err := s.svc.RollForwardAll(ctx, s.svc.today())
	if err != nil {
		s.logger.Error("scheduled roll forward failed", xslog.Error(err))
		return
	}
	s.logger.Info("scheduled roll forward",
		xslog.Count(len(changes)),
		xslog.Duration(time.Since(start)),
	)
}
