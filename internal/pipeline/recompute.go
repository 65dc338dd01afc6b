package pipeline

import (
	"context"
	"time"

	"github.com/du-phan/resilio/internal/load"
	"github.com/du-phan/resilio/internal/metrics"
	"github.com/du-phan/resilio/internal/observability"
	"github.com/du-phan/resilio/internal/readiness"
	"github.com/du-phan/resilio/internal/storage"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xslog"
)

// recompute rewrites the athlete's series from from through through (or the
// last stored day, if later), re-scores readiness for every rewritten day and
// persists the suffix. The caller holds the athlete's lock.
func (s *Service) recompute(ctx context.Context, athleteID string, from, through time.Time) (*storage.Change, error) {
	start := time.Now()

	series, _, err := s.loadSeries(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.loadLedger(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	out, err := s.series.Recompute(series, ledger, from, through)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	inputs, err := s.dayInputs(ctx, athleteID, out[0].Date, out[len(out)-1].Date)
	if err != nil {
		return nil, err
	}

	days := make([]storage.DayRecord, 0, len(out))
	for _, m := range out {
		s.checkSanity(ctx, m)
		days = append(days, storage.DayRecord{
			Metrics:            m,
			Readiness:          s.scoreDay(series, m, inputs),
			CalibrationVersion: s.params.Version,
		})
	}

	change, err := s.persist(ctx, athleteID, days)
	if err != nil {
		return nil, err
	}
	observability.RecordRecompute(len(days), time.Since(start))
	return change, nil
}

// rescore re-scores readiness from from onward without touching the load
// metrics, after subjective inputs changed.
func (s *Service) rescore(ctx context.Context, athleteID string, from time.Time) (*storage.Change, error) {
	series, stored, err := s.loadSeries(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	var days []storage.DayRecord
	for _, d := range stored {
		if !d.Metrics.Date.Before(from) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, nil
	}

	inputs, err := s.dayInputs(ctx, athleteID, days[0].Metrics.Date, days[len(days)-1].Metrics.Date)
	if err != nil {
		return nil, err
	}
	for i := range days {
		days[i].Readiness = s.scoreDay(series, days[i].Metrics, inputs)
		days[i].CalibrationVersion = s.params.Version
	}
	return s.persist(ctx, athleteID, days)
}

func (s *Service) persist(ctx context.Context, athleteID string, days []storage.DayRecord) (*storage.Change, error) {
	change := storage.Change{
		AthleteID: athleteID,
		From:      days[0].Metrics.Date,
		Through:   days[len(days)-1].Metrics.Date,
	}
	if err := s.store.Metrics.ReplaceFrom(ctx, athleteID, change.From, days); err != nil {
		return nil, err
	}

	logger := xslog.FromContext(ctx)
	logger.InfoContext(ctx, "series updated",
		xslog.From(change.From),
		xslog.Through(change.Through),
		xslog.Count(len(days)),
		xslog.CalibrationVersion(s.params.Version),
	)

	// the series is already committed; a lost notification only delays
	// downstream refreshes
	if err := s.notifier.Publish(ctx, change); err != nil {
		logger.WarnContext(ctx, "failed to publish series change", xslog.Error(err))
	}
	return &change, nil
}

func (s *Service) loadSeries(ctx context.Context, athleteID string) (*metrics.Series, []storage.DayRecord, error) {
	stored, err := s.store.Metrics.List(ctx, athleteID)
	if err != nil {
		return nil, nil, err
	}
	records := make([]metrics.DailyMetrics, len(stored))
	for i, d := range stored {
		records[i] = d.Metrics
	}
	series, err := metrics.NewSeries(records)
	if err != nil {
		return nil, nil, err
	}
	return series, stored, nil
}

func (s *Service) loadLedger(ctx context.Context, athleteID string) (*metrics.Ledger, error) {
	recs, err := s.store.Activities.List(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	return metrics.NewLedger(loadsOf(recs)...), nil
}

// subjectiveInputs holds what readiness reads besides the load series:
// check-ins by day and free-text notes (check-in and activity) by day.
type subjectiveInputs struct {
	checkIns map[time.Time]training.CheckIn
	notes    map[time.Time][]string
}

// dayInputs loads the check-ins and activity notes that can affect readiness
// on [first, last], including the notes window before first.
func (s *Service) dayInputs(ctx context.Context, athleteID string, first, last time.Time) (subjectiveInputs, error) {
	from := training.AddDays(first, -(max(1, s.params.Readiness.NotesWindowDays) - 1))
	in := subjectiveInputs{
		checkIns: map[time.Time]training.CheckIn{},
		notes:    map[time.Time][]string{},
	}

	checkIns, err := s.store.CheckIns.Range(ctx, athleteID, from, last)
	if err != nil {
		return in, err
	}
	for _, c := range checkIns {
		day := training.Day(c.Date)
		in.checkIns[day] = c
		if c.Notes != "" {
			in.notes[day] = append(in.notes[day], c.Notes)
		}
	}

	activities, err := s.store.Activities.Range(ctx, athleteID, from, last)
	if err != nil {
		return in, err
	}
	for _, rec := range activities {
		day := training.Day(rec.Activity.Date)
		for _, text := range []string{rec.Activity.Name, rec.Activity.Notes} {
			if text != "" {
				in.notes[day] = append(in.notes[day], text)
			}
		}
	}
	return in, nil
}

// scoreDay scores readiness for m. series must hold every record through m.
// The load trend reads the days before m; m's own load already shows in TSB.
func (s *Service) scoreDay(series *metrics.Series, m metrics.DailyMetrics, inputs subjectiveInputs) readiness.Result {
	p := &s.params.Readiness

	recent := series.Range(training.AddDays(m.Date, -p.TrendLongDays), training.AddDays(m.Date, -1))
	loads := make([]float64, len(recent))
	for i, r := range recent {
		loads[i] = r.SystemicLoad
	}

	in := readiness.Input{
		Date:                m.Date,
		TSB:                 m.TSB,
		RecentLoads:         loads,
		BaselineEstablished: m.BaselineEstablished,
	}
	if c, ok := inputs.checkIns[m.Date]; ok {
		in.Sleep, in.Wellness = c.Sleep, c.Wellness
	}
	for i := max(1, p.NotesWindowDays) - 1; i >= 0; i-- {
		in.Notes = append(in.Notes, inputs.notes[training.AddDays(m.Date, -i)]...)
	}
	return s.readiness.Score(in)
}

func (s *Service) checkSanity(ctx context.Context, m metrics.DailyMetrics) {
	for _, w := range metrics.Sanity(&s.params.Metrics, m) {
		observability.RecordSanityWarning(w.Field)
		xslog.FromContext(ctx).WarnContext(ctx, "implausible daily metric",
			xslog.Date(m.Date),
			xslog.Field(w.Field),
			xslog.Value(w.Value),
		)
	}
}

func loadsOf(recs []storage.ActivityRecord) []load.ActivityLoad {
	out := make([]load.ActivityLoad, len(recs))
	for i, r := range recs {
		out[i] = r.Load
	}
	return out
}
