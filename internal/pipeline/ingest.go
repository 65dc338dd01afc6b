package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/du-phan/resilio/internal/observability"
	"github.com/du-phan/resilio/internal/storage"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/validator"
	"github.com/du-phan/resilio/internal/xerrors"
	"github.com/du-phan/resilio/internal/xslog"
	"go.uber.org/multierr"
)

type IngestResult struct {
	Accepted []storage.ActivityRecord `json:"accepted"`
	Changes  []storage.Change         `json:"changes"`
	Rejected int                      `json:"rejected"`
}

// Ingest resolves, loads and persists activities, then recomputes each
// affected athlete's series from the earliest changed day. Invalid activities
// are rejected individually; the returned error combines every failure while
// the result still lists what was accepted.
func (s *Service) Ingest(ctx context.Context, activities []training.Activity) (IngestResult, error) {
	var (
		result    IngestResult
		errs      error
		byAthlete = make(map[string][]training.Activity)
		order     []string
	)

	for i := range activities {
		a := activities[i]
		a.Normalize()
		if a.ID == "" {
			a.ID = s.newID()
		}
		if err := validator.Validate(&a); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("activity %d (%s): %w", i, a.ID, err))
			observability.RecordActivityRejected(string(xerrors.KindInvalidInput))
			result.Rejected++
			continue
		}
		if _, seen := byAthlete[a.AthleteID]; !seen {
			order = append(order, a.AthleteID)
		}
		byAthlete[a.AthleteID] = append(byAthlete[a.AthleteID], a)
	}

	for _, athleteID := range order {
		err := s.withLock(ctx, athleteID, func(ctx context.Context) error {
			accepted, change, err := s.ingestAthlete(xslog.WithAthlete(ctx, athleteID), athleteID, byAthlete[athleteID])
			result.Accepted = append(result.Accepted, accepted...)
			if change != nil {
				result.Changes = append(result.Changes, *change)
			}
			return err
		})
		errs = multierr.Append(errs, err)
	}

	return result, errs
}

func (s *Service) ingestAthlete(ctx context.Context, athleteID string, activities []training.Activity) ([]storage.ActivityRecord, *storage.Change, error) {
	logger := xslog.FromContext(ctx)

	athlete, err := s.athleteOrNil(ctx, athleteID)
	if err != nil {
		return nil, nil, err
	}

	var (
		accepted      []storage.ActivityRecord
		errs          error
		from, through time.Time
	)
	for i := range activities {
		a := &activities[i]
		rec, moved, err := s.ingestOne(ctx, athlete, a)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("activity %s: %w", a.ID, err))
			observability.RecordActivityRejected(string(kindOf(err)))
			continue
		}
		accepted = append(accepted, *rec)

		from = earliest(from, a.Date)
		if !moved.IsZero() {
			from = earliest(from, moved)
		}
		if a.Date.After(through) {
			through = a.Date
		}
	}

	if len(accepted) == 0 {
		return nil, nil, errs
	}

	change, err := s.recompute(ctx, athleteID, from, through)
	if err != nil {
		return accepted, nil, multierr.Append(errs, err)
	}
	logger.InfoContext(ctx, "activities ingested", xslog.Count(len(accepted)), xslog.From(from))
	return accepted, change, errs
}

// ingestOne persists one activity. moved is the previous date of a
// re-ingested activity whose date changed, which also needs recomputing.
func (s *Service) ingestOne(ctx context.Context, athlete *training.AthleteContext, a *training.Activity) (*storage.ActivityRecord, time.Time, error) {
	var moved time.Time
	prev, err := s.store.Activities.Get(ctx, a.ID)
	switch {
	case err == nil && prev.Activity.AthleteID != a.AthleteID:
		return nil, moved, xerrors.InvalidInput(xerrors.WithMessage(
			fmt.Sprintf("activity %s already belongs to another athlete", a.ID)))
	case err == nil && !prev.Activity.Date.Equal(a.Date):
		moved = prev.Activity.Date
	case err != nil && !xerrors.IsKind(err, xerrors.KindNotFound):
		return nil, moved, err
	}

	resolved, err := s.resolver.Resolve(a, athlete)
	if err != nil {
		return nil, moved, err
	}
	ld, err := s.loads.Calculate(a, resolved)
	if err != nil {
		return nil, moved, err
	}

	rec := &storage.ActivityRecord{Activity: *a, Effort: resolved, Load: ld}
	created, err := s.store.Activities.Upsert(ctx, rec)
	if err != nil {
		return nil, moved, err
	}

	observability.RecordActivityIngested(string(a.Sport), string(resolved.Source))
	xslog.FromContext(ctx).DebugContext(ctx, "activity loaded",
		xslog.ActivityID(a.ID),
		xslog.Sport(string(a.Sport)),
		xslog.Date(a.Date),
		xslog.Effort(resolved.Value, string(resolved.Source)),
		slog.Float64("systemic_load", ld.SystemicLoad),
		slog.Float64("lower_body_load", ld.LowerBodyLoad),
		slog.String("class", string(ld.Class)),
		slog.Bool("created", created),
	)
	return rec, moved, nil
}

// RecordCheckIn stores subjective inputs for a day and re-scores readiness
// from that day forward.
func (s *Service) RecordCheckIn(ctx context.Context, c *training.CheckIn) error {
	if err := validator.Validate(c); err != nil {
		return err
	}
	c.Date = training.Day(c.Date)

	return s.withLock(ctx, c.AthleteID, func(ctx context.Context) error {
		ctx = xslog.WithAthlete(ctx, c.AthleteID)
		if err := s.store.CheckIns.Upsert(ctx, c); err != nil {
			return err
		}
		_, err := s.rescore(ctx, c.AthleteID, c.Date)
		return err
	})
}

func (s *Service) athleteOrNil(ctx context.Context, athleteID string) (*training.AthleteContext, error) {
	athlete, err := s.store.Athletes.Get(ctx, athleteID)
	if xerrors.IsKind(err, xerrors.KindNotFound) {
		return nil, nil
	}
	return athlete, err
}

func kindOf(err error) xerrors.Kind {
	if e := xerrors.As(err); e != nil {
		return e.Kind
	}
	return xerrors.KindInternal
}

func earliest(cur, t time.Time) time.Time {
	if cur.IsZero() || t.Before(cur) {
		return t
	}
	return cur
}
