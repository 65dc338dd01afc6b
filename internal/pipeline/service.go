// Package pipeline hosts the training-load core: it persists ingested
// activities, keeps each athlete's daily series current, and serves reports,
// risk assessments and guardrail checks from it.
//
// Every write to an athlete's series happens under that athlete's lock and
// recomputes strictly in date order.
package pipeline

import (
	"context"
	"time"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/effort"
	"github.com/du-phan/resilio/internal/guardrail"
	"github.com/du-phan/resilio/internal/load"
	"github.com/du-phan/resilio/internal/metrics"
	"github.com/du-phan/resilio/internal/readiness"
	"github.com/du-phan/resilio/internal/risk"
	"github.com/du-phan/resilio/internal/storage"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/validator"
	"github.com/google/uuid"
)

const defaultParallelism = 4

type Service struct {
	params calibration.Params

	store    *storage.Store
	locker   storage.Locker
	notifier storage.Notifier

	resolver  *effort.Resolver
	loads     *load.Calculator
	series    *metrics.Aggregator
	readiness *readiness.Scorer
	guardrail *guardrail.Validator
	risk      *risk.Aggregator

	now         func() time.Time
	newID       func() string
	parallelism int
}

type Option func(*Service)

// WithLocker replaces the default in-process locker, e.g. with a Redis lease
// when several processes write the same store.
func WithLocker(l storage.Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithNotifier(n storage.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock fixes "today" for roll-forward and reports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDFunc(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithParallelism bounds how many athletes RollForwardAll advances at once.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func NewService(params calibration.Params, store *storage.Store, opts ...Option) *Service {
	s := &Service{
		params:      params,
		store:       store,
		locker:      storage.NewMemoryLocker(),
		notifier:    storage.NewMemoryNotifier(),
		now:         time.Now,
		newID:       uuid.NewString,
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}

	p := &s.params
	s.resolver = effort.NewResolver(&p.Effort)
	s.loads = load.NewCalculator(&p.Load)
	s.series = metrics.NewAggregator(&p.Metrics)
	s.readiness = readiness.NewScorer(&p.Readiness)
	s.guardrail = guardrail.NewValidator(&p.Guardrail)
	s.risk = risk.NewAggregator(&p.Risk)
	return s
}

func (s *Service) Params() calibration.Params { return s.params }

func (s *Service) today() time.Time { return training.Day(s.now()) }

func (s *Service) UpsertAthlete(ctx context.Context, a *training.AthleteContext) error {
	if err := validator.Validate(a); err != nil {
		return err
	}
	if a.Goal == "" {
		a.Goal = training.GoalGeneral
	}
	return s.store.Athletes.Upsert(ctx, a)
}

func (s *Service) Athlete(ctx context.Context, athleteID string) (*training.AthleteContext, error) {
	return s.store.Athletes.Get(ctx, athleteID)
}

// withLock runs fn while holding athleteID's lock.
func (s *Service) withLock(ctx context.Context, athleteID string, fn func(ctx context.Context) error) error {
	unlock, err := s.locker.Lock(ctx, athleteID)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx)
}
