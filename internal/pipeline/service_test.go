package pipeline

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/guardrail"
	"github.com/du-phan/resilio/internal/storage"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	d, err := training.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	svc      *Service
	store    *storage.Store
	notifier *storage.MemoryNotifier
}

func newFixture(t *testing.T, today string) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	notifier := storage.NewMemoryNotifier()
	var n int
	svc := NewService(calibration.Default(), store,
		WithNotifier(notifier),
		WithClock(func() time.Time { return day(today).Add(9 * time.Hour) }),
		WithIDFunc(func() string { n++; return fmt.Sprintf("gen-%d", n) }),
	)
	return &fixture{svc: svc, store: store, notifier: notifier}
}

func run(id, athleteID, date string, minutes float64, effort int) training.Activity {
	return training.Activity{
		ID:              id,
		AthleteID:       athleteID,
		Sport:           training.SportRun,
		Date:            day(date),
		DurationMinutes: minutes,
		DistanceKm:      ptr(minutes / 5.5),
		ExplicitEffort:  ptr(effort),
		Name:            "morning run",
	}
}

func (f *fixture) mustIngest(t *testing.T, activities ...training.Activity) IngestResult {
	t.Helper()
	res, err := f.svc.Ingest(context.Background(), activities)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	return res
}

func (f *fixture) series(t *testing.T, athleteID string) []storage.DayRecord {
	t.Helper()
	days, err := f.store.Metrics.List(context.Background(), athleteID)
	if err != nil {
		t.Fatalf("Metrics.List() error = %v", err)
	}
	return days
}

func TestIngestBuildsSeries(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")
	ctx := context.Background()

	if err := f.svc.UpsertAthlete(ctx, &training.AthleteContext{AthleteID: "a1", CTL: 30, MaxHR: ptr(188)}); err != nil {
		t.Fatalf("UpsertAthlete() error = %v", err)
	}

	res := f.mustIngest(t,
		run("r1", "a1", "2026-03-01", 50, 4),
		run("r2", "a1", "2026-03-03", 40, 7),
		run("r3", "a1", "2026-03-05", 90, 5),
	)
	if len(res.Accepted) != 3 || res.Rejected != 0 {
		t.Fatalf("Ingest() accepted = %d rejected = %d, want 3 and 0", len(res.Accepted), res.Rejected)
	}

	want := []storage.Change{{AthleteID: "a1", From: day("2026-03-01"), Through: day("2026-03-05")}}
	if diff := cmp.Diff(want, res.Changes); diff != "" {
		t.Errorf("Ingest() changes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, f.notifier.Changes()); diff != "" {
		t.Errorf("published changes mismatch (-want +got):\n%s", diff)
	}

	days := f.series(t, "a1")
	if len(days) != 5 {
		t.Fatalf("series len = %d, want 5 contiguous days", len(days))
	}
	for i, d := range days {
		if want := training.AddDays(day("2026-03-01"), i); !d.Metrics.Date.Equal(want) {
			t.Errorf("day %d date = %s, want %s", i, training.FormatDay(d.Metrics.Date), training.FormatDay(want))
		}
		if d.CalibrationVersion != calibration.DefaultVersion {
			t.Errorf("day %d calibration version = %q, want %q", i, d.CalibrationVersion, calibration.DefaultVersion)
		}
		if d.Readiness.Level == "" {
			t.Errorf("day %d has no readiness level", i)
		}
	}
	if days[1].Metrics.SystemicLoad != 0 {
		t.Errorf("rest day systemic load = %v, want 0", days[1].Metrics.SystemicLoad)
	}
	if days[4].Metrics.CTL <= 0 {
		t.Errorf("CTL = %v, want positive", days[4].Metrics.CTL)
	}
}

func TestIngestRejectsInvalidActivities(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")

	bad := run("bad", "", "2026-03-02", 30, 5)
	res, err := f.svc.Ingest(context.Background(), []training.Activity{
		run("ok", "a1", "2026-03-02", 30, 5),
		bad,
	})
	if !xerrors.IsKind(err, xerrors.KindInvalidInput) {
		t.Fatalf("Ingest() error = %v, want invalid_input", err)
	}
	if len(res.Accepted) != 1 || res.Rejected != 1 {
		t.Errorf("Ingest() accepted = %d rejected = %d, want 1 and 1", len(res.Accepted), res.Rejected)
	}
	if len(f.series(t, "a1")) != 1 {
		t.Error("valid activity was not persisted alongside the rejected one")
	}
}

func TestIngestAssignsIDs(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")

	res := f.mustIngest(t, run("", "a1", "2026-03-02", 30, 5))
	if got := res.Accepted[0].Activity.ID; got != "gen-1" {
		t.Errorf("assigned ID = %q, want gen-1", got)
	}
}

func TestIngestRejectsForeignActivityID(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")

	f.mustIngest(t, run("shared", "a1", "2026-03-02", 30, 5))
	_, err := f.svc.Ingest(context.Background(), []training.Activity{run("shared", "a2", "2026-03-02", 30, 5)})
	if !xerrors.IsKind(err, xerrors.KindInvalidInput) {
		t.Fatalf("Ingest() error = %v, want invalid_input", err)
	}
}

// Ingesting out of order or re-dating an activity must give the same series
// as ingesting the final set in one batch.
func TestIngestOrderIndependence(t *testing.T) {
	t.Parallel()

	all := []training.Activity{
		run("r1", "a1", "2026-01-01", 45, 4),
		run("r2", "a1", "2026-01-05", 60, 6),
		run("r3", "a1", "2026-01-25", 30, 8),
		run("r4", "a1", "2026-02-10", 75, 5),
		run("r5", "a1", "2026-02-12", 40, 3),
	}

	batch := newFixture(t, "2026-03-01")
	batch.mustIngest(t, all...)

	piecewise := newFixture(t, "2026-03-01")
	moved := all[2]
	moved.Date = day("2026-02-11")
	piecewise.mustIngest(t, all[3], all[4])
	piecewise.mustIngest(t, all[0], moved)
	piecewise.mustIngest(t, all[1])
	piecewise.mustIngest(t, all[2])

	if diff := cmp.Diff(batch.series(t, "a1"), piecewise.series(t, "a1")); diff != "" {
		t.Errorf("series mismatch (-batch +piecewise):\n%s", diff)
	}

	acts, err := piecewise.store.Activities.List(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Activities.List() error = %v", err)
	}
	if len(acts) != len(all) {
		t.Errorf("stored activities = %d, want %d", len(acts), len(all))
	}
}

func TestRecordCheckInRescores(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")
	ctx := context.Background()

	f.mustIngest(t,
		run("r1", "a1", "2026-03-01", 50, 4),
		run("r2", "a1", "2026-03-04", 50, 4),
	)
	before := f.series(t, "a1")

	err := f.svc.RecordCheckIn(ctx, &training.CheckIn{
		AthleteID: "a1",
		Date:      day("2026-03-03"),
		Notes:     "sharp knee pain on the descent",
	})
	if err != nil {
		t.Fatalf("RecordCheckIn() error = %v", err)
	}

	after := f.series(t, "a1")
	for i := range after {
		if diff := cmp.Diff(before[i].Metrics, after[i].Metrics); diff != "" {
			t.Errorf("day %d metrics changed on check-in (-before +after):\n%s", i, diff)
		}
	}
	if after[1].Readiness.Overrides.Injury {
		t.Error("injury flagged before the note was written")
	}
	for _, i := range []int{2, 3} {
		if !after[i].Readiness.Overrides.Injury {
			t.Errorf("day %s: injury not flagged inside the notes window", training.FormatDay(after[i].Metrics.Date))
		}
		if after[i].Readiness.Score > 25 {
			t.Errorf("day %s: readiness = %d, want capped at 25", training.FormatDay(after[i].Metrics.Date), after[i].Readiness.Score)
		}
	}
}

func TestRecordCheckInValidates(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")

	err := f.svc.RecordCheckIn(context.Background(), &training.CheckIn{AthleteID: "a1", Date: day("2026-03-03"), Sleep: ptr(140.0)})
	if !xerrors.IsKind(err, xerrors.KindInvalidInput) {
		t.Errorf("RecordCheckIn() error = %v, want invalid_input", err)
	}
}

func TestActivityNotesCapReadiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		notes      string
		wantInjury bool
		wantSevere bool
		wantAtMost int
	}{
		{name: "injury note", notes: "knee pain, had to stop, injured", wantInjury: true, wantAtMost: 25},
		{name: "severe illness note", notes: "cut short, think I have the flu", wantSevere: true, wantAtMost: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, "2026-03-10")
			ctx := context.Background()

			hurt := run("r2", "a1", "2026-03-02", 30, 5)
			hurt.Notes = tt.notes
			f.mustIngest(t, run("r1", "a1", "2026-03-01", 50, 4))
			f.mustIngest(t, hurt)

			for _, date := range []string{"2026-03-02", "2026-03-04"} {
				got, err := f.svc.Report(ctx, "a1", day(date))
				if err != nil {
					t.Fatalf("Report(%s) error = %v", date, err)
				}
				o := got.Readiness.Overrides
				if o.Injury != tt.wantInjury || o.SevereIllness != tt.wantSevere {
					t.Errorf("Report(%s) overrides = %+v", date, o)
				}
				if got.Readiness.Score > tt.wantAtMost {
					t.Errorf("Report(%s) readiness = %d, want at most %d", date, got.Readiness.Score, tt.wantAtMost)
				}
			}

			got, err := f.svc.Report(ctx, "a1", day("2026-03-05"))
			if err != nil {
				t.Fatalf("Report() error = %v", err)
			}
			if got.Readiness.Overrides.Any() {
				t.Errorf("note still applied after the window: %+v", got.Readiness.Overrides)
			}
		})
	}
}

func TestReadinessTrendUsesPrecedingDays(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")

	var activities []training.Activity
	for i := range 7 {
		activities = append(activities, run(fmt.Sprintf("r%d", i), "a1", training.FormatDay(training.AddDays(day("2026-03-01"), i)), 45, 4))
	}
	activities = append(activities, run("big", "a1", "2026-03-08", 150, 8))
	f.mustIngest(t, activities...)

	got, err := f.svc.Report(context.Background(), "a1", day("2026-03-08"))
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	// seven identical days before the target give a flat trend
	if trend := got.Readiness.Components.Trend; math.Abs(trend-50) > 1e-9 {
		t.Errorf("trend = %v, want 50 from the steady preceding week", trend)
	}
}

func TestReport(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")
	ctx := context.Background()

	if _, err := f.svc.Report(ctx, "a1", day("2026-03-05")); !xerrors.IsKind(err, xerrors.KindInsufficientData) {
		t.Fatalf("Report() without history error = %v, want insufficient_data", err)
	}

	f.mustIngest(t, run("r1", "a1", "2026-03-02", 60, 6))

	if _, err := f.svc.Report(ctx, "a1", day("2026-03-11")); !xerrors.IsKind(err, xerrors.KindInvalidInput) {
		t.Errorf("Report() future date error = %v, want invalid_input", err)
	}
	if _, err := f.svc.Report(ctx, "a1", day("2026-03-01")); !xerrors.IsKind(err, xerrors.KindInsufficientData) {
		t.Errorf("Report() before history error = %v, want insufficient_data", err)
	}

	got, err := f.svc.Report(ctx, "a1", day("2026-03-10"))
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !got.Date.Equal(day("2026-03-10")) || got.SystemicLoad != 0 {
		t.Errorf("Report() = %s load %v, want a rolled-forward rest day", training.FormatDay(got.Date), got.SystemicLoad)
	}
	if got.Zones.CTL == "" || got.Zones.TSB == "" || got.Zones.ACWR == "" {
		t.Errorf("Report() zones = %+v, want every zone classified", got.Zones)
	}
	if len(f.series(t, "a1")) != 9 {
		t.Errorf("series len = %d, want 9 after roll forward", len(f.series(t, "a1")))
	}

	history, err := f.svc.History(ctx, "a1", day("2026-03-02"), day("2026-03-04"))
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Errorf("History() len = %d, want 3", len(history))
	}
	if _, err := f.svc.History(ctx, "a1", day("2026-03-04"), day("2026-03-02")); !xerrors.IsKind(err, xerrors.KindInvalidInput) {
		t.Errorf("History() reversed range error = %v, want invalid_input", err)
	}
}

func TestRollForwardDecays(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-20")
	ctx := context.Background()

	f.mustIngest(t, run("r1", "a1", "2026-03-01", 90, 7))
	last := f.series(t, "a1")[0].Metrics

	change, err := f.svc.RollForward(ctx, "a1", day("2026-03-20"))
	if err != nil {
		t.Fatalf("RollForward() error = %v", err)
	}
	if change == nil || !change.From.Equal(day("2026-03-02")) || !change.Through.Equal(day("2026-03-20")) {
		t.Fatalf("RollForward() change = %+v, want 2026-03-02..2026-03-20", change)
	}

	days := f.series(t, "a1")
	final := days[len(days)-1].Metrics
	if final.CTL >= last.CTL || final.ATL >= last.ATL {
		t.Errorf("CTL/ATL did not decay over rest days: %v/%v -> %v/%v", last.CTL, last.ATL, final.CTL, final.ATL)
	}

	again, err := f.svc.RollForward(ctx, "a1", day("2026-03-20"))
	if err != nil {
		t.Fatalf("second RollForward() error = %v", err)
	}
	if again != nil {
		t.Errorf("second RollForward() change = %+v, want nil", again)
	}
}

func TestRollForwardAll(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")
	ctx := context.Background()

	faker := gofakeit.New(11)
	for i := range 6 {
		id := fmt.Sprintf("athlete-%d", i)
		if err := f.svc.UpsertAthlete(ctx, &training.AthleteContext{AthleteID: id, CTL: faker.Float64Range(10, 60)}); err != nil {
			t.Fatalf("UpsertAthlete() error = %v", err)
		}
		if i == 5 {
			continue
		}
		f.mustIngest(t, run("", id, "2026-03-0"+fmt.Sprint(1+i), faker.Float64Range(20, 120), faker.IntRange(2, 9)))
	}

	changes, err := f.svc.RollForwardAll(ctx, day("2026-03-10"))
	if err != nil {
		t.Fatalf("RollForwardAll() error = %v", err)
	}
	if len(changes) != 5 {
		t.Errorf("RollForwardAll() changes = %d, want 5 (one athlete has no history)", len(changes))
	}
	for i := range 5 {
		days := f.series(t, fmt.Sprintf("athlete-%d", i))
		if last := days[len(days)-1].Metrics.Date; !last.Equal(day("2026-03-10")) {
			t.Errorf("athlete-%d last day = %s, want 2026-03-10", i, training.FormatDay(last))
		}
	}
}

func TestAssess(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-20")
	ctx := context.Background()

	var acts []training.Activity
	for i := range 18 {
		acts = append(acts, run("", "a1", training.FormatDay(training.AddDays(day("2026-03-01"), i)), 45, 4))
	}
	acts = append(acts, run("", "a1", "2026-03-19", 150, 9), run("", "a1", "2026-03-20", 140, 9))
	f.mustIngest(t, acts...)

	calm, err := f.svc.Assess(ctx, "a1", day("2026-03-10"))
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	spike, err := f.svc.Assess(ctx, "a1", day("2026-03-20"))
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if spike.RawScore <= calm.RawScore {
		t.Errorf("risk after a load spike = %v, want above steady state %v", spike.RawScore, calm.RawScore)
	}
	if !spike.Date.Equal(day("2026-03-20")) {
		t.Errorf("Assess() date = %s, want 2026-03-20", training.FormatDay(spike.Date))
	}
}

func TestGuardrailsUsesStoredHistory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-15")
	ctx := context.Background()

	if err := f.svc.UpsertAthlete(ctx, &training.AthleteContext{AthleteID: "a1", CTL: 35}); err != nil {
		t.Fatalf("UpsertAthlete() error = %v", err)
	}
	prev := run("p1", "a1", "2026-03-03", 60, 4)
	prev.DistanceKm = ptr(20.0)
	f.mustIngest(t, prev)

	week := &guardrail.Week{
		Start: day("2026-03-11"),
		Sessions: []guardrail.Session{
			{Sport: training.SportRun, Class: training.SessionEasy, Minutes: 60, DistanceKm: 12},
			{Sport: training.SportRun, Class: training.SessionEasy, Minutes: 60, DistanceKm: 12},
			{Sport: training.SportRun, Class: training.SessionEasy, Minutes: 50, DistanceKm: 10},
		},
	}
	got, err := f.svc.Guardrails(ctx, "a1", week)
	if err != nil {
		t.Fatalf("Guardrails() error = %v", err)
	}
	if !week.Start.Equal(day("2026-03-09")) {
		t.Errorf("week start = %s, want Monday 2026-03-09", training.FormatDay(week.Start))
	}
	if week.PreviousVolumeKm == nil || *week.PreviousVolumeKm != 20 {
		t.Fatalf("previous volume = %v, want 20 km from stored runs", week.PreviousVolumeKm)
	}

	var progression bool
	for _, v := range got {
		if v.Rule == guardrail.RuleWeeklyProgression {
			progression = true
		}
	}
	if !progression {
		t.Errorf("Guardrails() = %+v, want a progression violation for 20 -> 34 km", got)
	}

	if _, err := f.svc.Guardrails(ctx, "a1", nil); !xerrors.IsKind(err, xerrors.KindInvalidInput) {
		t.Errorf("Guardrails(nil) error = %v, want invalid_input", err)
	}
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "2026-03-10")

	if _, err := NewScheduler(f.svc, "not a schedule", nil); err == nil {
		t.Error("NewScheduler() error = nil, want parse failure")
	}
}
