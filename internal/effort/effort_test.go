package effort

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
)

func ptr[T any](v T) *T { return &v }

func newResolver() *Resolver {
	p := calibration.Default()
	return NewResolver(&p.Effort)
}

func activity(sport training.Sport, minutes float64, mutate ...func(*training.Activity)) *training.Activity {
	a := &training.Activity{
		ID:              "act-1",
		AthleteID:       "a1",
		Sport:           sport,
		Date:            time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		DurationMinutes: minutes,
	}
	for _, m := range mutate {
		m(a)
	}
	return a
}

func withHR(avg int) func(*training.Activity) {
	return func(a *training.Activity) { a.AvgHR = ptr(avg) }
}

func withDistance(km float64) func(*training.Activity) {
	return func(a *training.Activity) { a.DistanceKm = ptr(km) }
}

func TestResolve(t *testing.T) {
	t.Parallel()

	athlete := &training.AthleteContext{AthleteID: "a1", MaxHR: ptr(194), VDOT: ptr(50.0)}
	noVDOT := &training.AthleteContext{AthleteID: "a1", MaxHR: ptr(194)}

	tests := []struct {
		name     string
		activity *training.Activity
		athlete  *training.AthleteContext
		want     Resolved
	}{
		{
			name:     "explicit wins over heart rate",
			activity: activity(training.SportRun, 60, withHR(180), func(a *training.Activity) { a.ExplicitEffort = ptr(3) }),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 3, Source: SourceExplicit, Confidence: training.ConfidenceHigh},
		},
		{
			name:     "heart rate 158 of 194 over 43 minutes",
			activity: activity(training.SportRun, 43, withHR(158)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 5, Source: SourceHeartRate, Confidence: training.ConfidenceHigh},
		},
		{
			name:     "activity peak HR never replaces athlete max",
			activity: activity(training.SportRun, 43, withHR(158), func(a *training.Activity) { a.MaxHR = ptr(165) }),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 5, Source: SourceHeartRate, Confidence: training.ConfidenceHigh},
		},
		{
			name:     "heart rate plus 90 minute bonus",
			activity: activity(training.SportCycle, 100, withHR(158)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 6, Source: SourceHeartRate, Confidence: training.ConfidenceHigh},
		},
		{
			name:     "heart rate plus 150 minute bonus",
			activity: activity(training.SportCycle, 200, withHR(158)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 7, Source: SourceHeartRate, Confidence: training.ConfidenceHigh},
		},
		{
			name:     "heart rate plus 240 minute bonus",
			activity: activity(training.SportHike, 300, withHR(158)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 8, Source: SourceHeartRate, Confidence: training.ConfidenceHigh},
		},
		{
			name:     "no bonus below base 4",
			activity: activity(training.SportWalk, 300, withHR(120)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 3, Source: SourceHeartRate, Confidence: training.ConfidenceHigh},
		},
		{
			name:     "bonus capped at 10",
			activity: activity(training.SportRun, 250, withHR(190)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 10, Source: SourceHeartRate, Confidence: training.ConfidenceHigh},
		},
		{
			name:     "heart rate without athlete max falls through",
			activity: activity(training.SportSwim, 45, withHR(150)),
			athlete:  &training.AthleteContext{AthleteID: "a1"},
			want:     Resolved{ActivityID: "act-1", Value: 5, Source: SourceDuration, Confidence: training.ConfidenceLow},
		},
		{
			name:     "relative effort per minute",
			activity: activity(training.SportStrength, 50, func(a *training.Activity) { a.RelativeEffort = ptr(50.0) }),
			athlete:  nil,
			want:     Resolved{ActivityID: "act-1", Value: 5, Source: SourceRelativeEffort, Confidence: training.ConfidenceMedium},
		},
		{
			name:     "zero relative effort falls through",
			activity: activity(training.SportYoga, 60, func(a *training.Activity) { a.RelativeEffort = ptr(0.0) }),
			athlete:  nil,
			want:     Resolved{ActivityID: "act-1", Value: 2, Source: SourceDuration, Confidence: training.ConfidenceLow},
		},
		{
			name:     "pace at tempo",
			activity: activity(training.SportRun, 42.5, withDistance(10)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 7, Source: SourcePace, Confidence: training.ConfidenceMedium},
		},
		{
			name:     "trail pace at tempo gets surface bonus",
			activity: activity(training.SportTrailRun, 42.5, withDistance(10)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 8, Source: SourcePace, Confidence: training.ConfidenceMedium},
		},
		{
			name:     "pace slower than easy margin",
			activity: activity(training.SportRun, 65, withDistance(10)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 3, Source: SourcePace, Confidence: training.ConfidenceMedium},
		},
		{
			name:     "pace requires vdot",
			activity: activity(training.SportRun, 42.5, withDistance(10)),
			athlete:  noVDOT,
			want:     Resolved{ActivityID: "act-1", Value: 5, Source: SourceDuration, Confidence: training.ConfidenceLow},
		},
		{
			name:     "pace ignored for cycling",
			activity: activity(training.SportCycle, 60, withDistance(30)),
			athlete:  athlete,
			want:     Resolved{ActivityID: "act-1", Value: 4, Source: SourceDuration, Confidence: training.ConfidenceLow},
		},
		{
			name:     "long session heuristic bonus",
			activity: activity(training.SportClimb, 150),
			athlete:  nil,
			want:     Resolved{ActivityID: "act-1", Value: 7, Source: SourceDuration, Confidence: training.ConfidenceLow},
		},
	}

	r := newResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Resolve(tt.activity, tt.athlete)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		activity *training.Activity
		field    string
	}{
		{name: "zero duration", activity: activity(training.SportRun, 0), field: "duration_minutes"},
		{name: "unknown sport", activity: activity("parkour", 30), field: "sport"},
		{
			name:     "effort out of range",
			activity: activity(training.SportRun, 30, func(a *training.Activity) { a.ExplicitEffort = ptr(12) }),
			field:    "explicit_effort",
		},
	}

	r := newResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Resolve(tt.activity, nil)
			e := xerrors.As(err)
			if e == nil || e.Kind != xerrors.KindInvalidInput {
				t.Fatalf("Resolve() error = %v, want invalid input", err)
			}
			if _, ok := e.Validation.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %q", e.Validation.Fields, tt.field)
			}
		})
	}
}

func TestClassifyPace(t *testing.T) {
	t.Parallel()

	p := calibration.Default().Effort.Pace

	if got := TempoPace(50, p.TempoFraction); got < 255 || got > 255.4 {
		t.Fatalf("TempoPace(50) = %.2f s/km, want about 255.2", got)
	}

	tests := []struct {
		name    string
		paceSec float64
		want    string
		effort  int
	}{
		{name: "repetition", paceSec: 220, want: "repetition", effort: 9},
		{name: "faster than repetition", paceSec: 180, want: "repetition", effort: 9},
		{name: "interval", paceSec: 240, want: "interval", effort: 8},
		{name: "tempo", paceSec: 255, want: "tempo", effort: 7},
		{name: "marathon", paceSec: 270, want: "marathon", effort: 6},
		{name: "easy", paceSec: 318, want: "easy", effort: 4},
		{name: "easy edge of margin", paceSec: 360, want: "easy", effort: 4},
		{name: "slower", paceSec: 390, want: ZoneSlower, effort: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifyPace(&p, 50, tt.paceSec)
			if got.Name != tt.want || got.Effort != tt.effort {
				t.Errorf("ClassifyPace(%v) = %s/%d, want %s/%d", tt.paceSec, got.Name, got.Effort, tt.want, tt.effort)
			}
		})
	}
}
