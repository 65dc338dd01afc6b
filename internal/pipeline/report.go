package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/du-phan/resilio/internal/guardrail"
	"github.com/du-phan/resilio/internal/metrics"
	"github.com/du-phan/resilio/internal/observability"
	"github.com/du-phan/resilio/internal/readiness"
	"github.com/du-phan/resilio/internal/risk"
	"github.com/du-phan/resilio/internal/storage"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
	"github.com/du-phan/resilio/internal/xslog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DayReport is one day of an athlete's series with its interpretation.
type DayReport struct {
	AthleteID string `json:"athlete_id"`
	metrics.DailyMetrics
	Zones              metrics.Zones     `json:"zones"`
	Readiness          readiness.Result  `json:"readiness"`
	Warnings           []metrics.Warning `json:"warnings,omitempty"`
	CalibrationVersion string            `json:"calibration_version"`
}

func (s *Service) dayReport(athleteID string, d storage.DayRecord) DayReport {
	return DayReport{
		AthleteID:          athleteID,
		DailyMetrics:       d.Metrics,
		Zones:              metrics.Classify(&s.params.Metrics, d.Metrics),
		Readiness:          d.Readiness,
		Warnings:           metrics.Sanity(&s.params.Metrics, d.Metrics),
		CalibrationVersion: d.CalibrationVersion,
	}
}

// Report returns the athlete's metrics for date. A date past the last stored
// day, but not past today, rolls the series forward first.
func (s *Service) Report(ctx context.Context, athleteID string, date time.Time) (*DayReport, error) {
	date = training.Day(date)
	if date.After(s.today()) {
		return nil, xerrors.InvalidInput(xerrors.WithMessage(
			fmt.Sprintf("date %s is in the future", training.FormatDay(date))))
	}

	latest, err := s.store.Metrics.Latest(ctx, athleteID)
	if xerrors.IsKind(err, xerrors.KindNotFound) {
		return nil, noHistory(athleteID)
	}
	if err != nil {
		return nil, err
	}
	if date.After(latest.Metrics.Date) {
		if _, err := s.RollForward(ctx, athleteID, date); err != nil {
			return nil, err
		}
	}

	days, err := s.store.Metrics.Range(ctx, athleteID, date, date)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, xerrors.InsufficientData(xerrors.WithMessage(
			fmt.Sprintf("no metrics for %s before %s", athleteID, training.FormatDay(date))))
	}
	r := s.dayReport(athleteID, days[0])
	return &r, nil
}

func (s *Service) History(ctx context.Context, athleteID string, from, through time.Time) ([]DayReport, error) {
	from, through = training.Day(from), training.Day(through)
	if through.Before(from) {
		return nil, xerrors.Validation(map[string]string{"to": "must not be before from"})
	}
	days, err := s.store.Metrics.Range(ctx, athleteID, from, through)
	if err != nil {
		return nil, err
	}
	out := make([]DayReport, len(days))
	for i, d := range days {
		out[i] = s.dayReport(athleteID, d)
	}
	return out, nil
}

// Assess evaluates injury risk on date from the stored series and the
// activities of the trailing windows. planned carries guardrail violations of
// the plan under consideration, if any.
func (s *Service) Assess(ctx context.Context, athleteID string, date time.Time, planned ...guardrail.Violation) (*risk.Assessment, error) {
	report, err := s.Report(ctx, athleteID, date)
	if err != nil {
		return nil, err
	}

	p := &s.params.Risk
	window := max(p.DensityWindowDays, p.LowerBodyWindowDays, 1)
	recs, err := s.store.Activities.Range(ctx, athleteID, training.AddDays(report.Date, -(window-1)), report.Date)
	if err != nil {
		return nil, err
	}

	a := s.risk.Assess(risk.Input{
		Date:       report.Date,
		Metrics:    report.DailyMetrics,
		Readiness:  report.Readiness.Score,
		Loads:      loadsOf(recs),
		Guardrails: planned,
	})
	observability.RecordRiskAssessment(string(a.Level), a.ForcedRest)
	if a.ForcedRest {
		xslog.FromContext(ctx).WarnContext(ctx, "forced rest",
			xslog.AthleteID(athleteID),
			xslog.Date(a.Date),
			xslog.MetricsGroup(report.CTL, report.ATL, report.TSB, report.ACWR),
		)
	}
	return &a, nil
}

// Guardrails checks a planned week against the athlete's profile. The
// current CTL comes from the stored series when there is one, and the
// previous week's volume from stored runs when the plan does not state it.
func (s *Service) Guardrails(ctx context.Context, athleteID string, week *guardrail.Week) ([]guardrail.Violation, error) {
	if err := requireWeek(week); err != nil {
		return nil, err
	}
	week.Start = training.Week(week.Start)

	athlete, err := s.athleteOrNil(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if athlete != nil {
		if latest, err := s.store.Metrics.Latest(ctx, athleteID); err == nil {
			snapshot := *athlete
			snapshot.CTL = latest.Metrics.CTL
			athlete = &snapshot
		} else if !xerrors.IsKind(err, xerrors.KindNotFound) {
			return nil, err
		}
	}

	if week.PreviousVolumeKm == nil {
		prev, err := s.store.Activities.Range(ctx, athleteID, training.AddDays(week.Start, -7), training.AddDays(week.Start, -1))
		if err != nil {
			return nil, err
		}
		if len(prev) > 0 {
			km := runningKm(prev)
			week.PreviousVolumeKm = &km
		}
	}
	return s.guardrail.ValidateWeek(week, athlete)
}

func requireWeek(w *guardrail.Week) error {
	if w == nil {
		return xerrors.InvalidInput(xerrors.WithMessage("week is required"))
	}
	return nil
}

func runningKm(recs []storage.ActivityRecord) float64 {
	var km float64
	for _, r := range recs {
		if r.Activity.Sport.IsRunning() && r.Activity.DistanceKm != nil {
			km += *r.Activity.DistanceKm
		}
	}
	return km
}

// RollForward extends the athlete's series with rest days through today so
// CTL and ATL keep decaying when nothing is logged.
func (s *Service) RollForward(ctx context.Context, athleteID string, today time.Time) (*storage.Change, error) {
	today = training.Day(today)
	var change *storage.Change
	err := s.withLock(ctx, athleteID, func(ctx context.Context) error {
		ctx = xslog.WithAthlete(ctx, athleteID)
		latest, err := s.store.Metrics.Latest(ctx, athleteID)
		if xerrors.IsKind(err, xerrors.KindNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !today.After(latest.Metrics.Date) {
			return nil
		}
		change, err = s.recompute(ctx, athleteID, training.AddDays(latest.Metrics.Date, 1), today)
		return err
	})
	return change, err
}

// RollForwardAll rolls every known athlete forward. Failures are collected
// rather than stopping the sweep.
func (s *Service) RollForwardAll(ctx context.Context, today time.Time) ([]storage.Change, error) {
	athletes, err := s.store.Athletes.List(ctx)
	if err != nil {
		return nil, err
	}

	changes := make([]*storage.Change, len(athletes))
	failures := make([]error, len(athletes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, a := range athletes {
		g.Go(func() error {
			change, err := s.RollForward(gctx, a.AthleteID, today)
			if err != nil {
				failures[i] = fmt.Errorf("athlete %s: %w", a.AthleteID, err)
				return nil
			}
			changes[i] = change
			return nil
		})
	}
	_ = g.Wait()

	var out []storage.Change
	for _, c := range changes {
		if c != nil {
			out = append(out, *c)
		}
	}
	errs := multierr.Combine(failures...)

	observability.RecordRollForward(s.now())
	logger := xslog.FromContext(ctx)
	if errs != nil {
		logger.ErrorContext(ctx, "roll forward incomplete", xslog.Date(today), xslog.Error(errs))
	}
	logger.InfoContext(ctx, "roll forward complete", xslog.Date(today), xslog.Count(len(out)))
	return out, errs
}

func noHistory(athleteID string) error {
	return xerrors.InsufficientData(xerrors.WithMessage(
		fmt.Sprintf("athlete %s has no activity history", athleteID)))
}
