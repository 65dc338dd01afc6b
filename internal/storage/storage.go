// Package storage persists athletes, ingested activities, the derived daily
// series and subjective check-ins, and coordinates writers across processes.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/du-phan/resilio/internal/effort"
	"github.com/du-phan/resilio/internal/load"
	"github.com/du-phan/resilio/internal/metrics"
	"github.com/du-phan/resilio/internal/readiness"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
)

// ActivityRecord is an ingested activity with the effort and load derived
// from it at ingestion time.
type ActivityRecord struct {
	Activity training.Activity `json:"activity"`
	Effort   effort.Resolved   `json:"effort"`
	Load     load.ActivityLoad `json:"load"`
}

// DayRecord is one persisted day of an athlete's series.
type DayRecord struct {
	Metrics            metrics.DailyMetrics `json:"metrics"`
	Readiness          readiness.Result     `json:"readiness"`
	CalibrationVersion string               `json:"calibration_version"`
}

type AthleteRepository interface {
	Upsert(ctx context.Context, athlete *training.AthleteContext) error
	// Get returns a not_found error when the athlete is unknown.
	Get(ctx context.Context, athleteID string) (*training.AthleteContext, error)
	List(ctx context.Context) ([]training.AthleteContext, error)
}

type ActivityRepository interface {
	// Upsert reports whether the activity was new. Re-ingesting an existing ID
	// replaces the stored record.
	Upsert(ctx context.Context, rec *ActivityRecord) (bool, error)
	Get(ctx context.Context, id string) (*ActivityRecord, error)
	// Range returns activities dated within [from, through], oldest first.
	Range(ctx context.Context, athleteID string, from, through time.Time) ([]ActivityRecord, error)
	List(ctx context.Context, athleteID string) ([]ActivityRecord, error)
}

type MetricsRepository interface {
	// ReplaceFrom deletes every day on or after from and writes days in its place.
	ReplaceFrom(ctx context.Context, athleteID string, from time.Time, days []DayRecord) error
	Range(ctx context.Context, athleteID string, from, through time.Time) ([]DayRecord, error)
	List(ctx context.Context, athleteID string) ([]DayRecord, error)
	// Latest returns a not_found error when the athlete has no series yet.
	Latest(ctx context.Context, athleteID string) (*DayRecord, error)
}

type CheckInRepository interface {
	Upsert(ctx context.Context, c *training.CheckIn) error
	Range(ctx context.Context, athleteID string, from, through time.Time) ([]training.CheckIn, error)
}

type Store struct {
	Athletes   AthleteRepository
	Activities ActivityRepository
	Metrics    MetricsRepository
	CheckIns   CheckInRepository

	closer func() error
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// ErrLockHeld is returned when another writer holds an athlete's lease.
var ErrLockHeld = errors.New("athlete lock held by another writer")

// Locker serializes writers of one athlete's series.
type Locker interface {
	// Lock blocks until the athlete's lease is acquired or ctx ends. The
	// returned func releases it.
	Lock(ctx context.Context, athleteID string) (func(), error)
}

// Change announces that an athlete's series was rewritten over [From, Through].
type Change struct {
	AthleteID string    `json:"athlete_id"`
	From      time.Time `json:"from"`
	Through   time.Time `json:"through"`
}

type Notifier interface {
	Publish(ctx context.Context, c Change) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

func notFound(what, id string) error {
	return xerrors.NotFound(xerrors.WithMessage(what + " " + id + " not found"))
}

func inRange(day, from, through time.Time) bool {
	return !day.Before(training.Day(from)) && !day.After(training.Day(through))
}

// fillDerived restores the effort and load fields that are not stored in
// their own columns because they repeat the activity.
func fillDerived(rec *ActivityRecord, source, confidence, class string) {
	a := &rec.Activity
	rec.Effort.ActivityID = a.ID
	rec.Effort.Source = effort.Source(source)
	rec.Effort.Confidence = training.Confidence(confidence)

	rec.Load.ActivityID = a.ID
	rec.Load.AthleteID = a.AthleteID
	rec.Load.Date = training.Day(a.Date)
	rec.Load.Sport = a.Sport
	rec.Load.Effort = rec.Effort.Value
	rec.Load.Class = training.SessionClass(class)
}
