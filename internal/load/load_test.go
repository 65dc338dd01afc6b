package load

import (
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/effort"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
)

func ptr[T any](v T) *T { return &v }

var day = time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)

func newCalculator() *Calculator {
	p := calibration.Default()
	return NewCalculator(&p.Load)
}

func resolved(v int) effort.Resolved {
	return effort.Resolved{ActivityID: "act-1", Value: v, Source: effort.SourceExplicit, Confidence: training.ConfidenceHigh}
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		activity training.Activity
		effort   int
		want     ActivityLoad
	}{
		{
			name:     "one hour climbing at effort 8",
			activity: training.Activity{Sport: training.SportClimb, DurationMinutes: 60, Name: "Bouldering"},
			effort:   8,
			want: ActivityLoad{
				Sport: training.SportClimb, Effort: 8, BaseEffort: 100, SystemicLoad: 60, LowerBodyLoad: 10,
				Class: training.SessionQuality,
			},
		},
		{
			name:     "easy run",
			activity: training.Activity{Sport: training.SportRun, DurationMinutes: 45},
			effort:   4,
			want: ActivityLoad{
				Sport: training.SportRun, Effort: 4, BaseEffort: 31.7, SystemicLoad: 31.7, LowerBodyLoad: 31.7,
				Class: training.SessionEasy,
			},
		},
		{
			name:     "interval notation discounts base",
			activity: training.Activity{Sport: training.SportTrackRun, DurationMinutes: 60, Notes: "6x800m @ 5k pace"},
			effort:   8,
			want: ActivityLoad{
				Sport: training.SportTrackRun, Effort: 8, BaseEffort: 85, SystemicLoad: 85, LowerBodyLoad: 85,
				Class: training.SessionQuality, IntervalAdjusted: true,
			},
		},
		{
			name:     "quality tag discounts base",
			activity: training.Activity{Sport: training.SportCycle, DurationMinutes: 60, Tag: ptr(training.SessionQuality)},
			effort:   7,
			want: ActivityLoad{
				Sport: training.SportCycle, Effort: 7, BaseEffort: 68.9, SystemicLoad: 58.6, LowerBodyLoad: 24.1,
				Class: training.SessionQuality, IntervalAdjusted: true,
			},
		},
		{
			name:     "leg day strength",
			activity: training.Activity{Sport: training.SportStrength, DurationMinutes: 60, Name: "Leg day", Notes: "back squats"},
			effort:   6,
			want: ActivityLoad{
				Sport: training.SportStrength, Effort: 6, BaseEffort: 67.2, SystemicLoad: 37, LowerBodyLoad: 43.7,
				Class: training.SessionModerate,
			},
		},
		{
			name:     "upper body strength floors lower body",
			activity: training.Activity{Sport: training.SportStrength, DurationMinutes: 60, Notes: "bench and pull-ups"},
			effort:   6,
			want: ActivityLoad{
				Sport: training.SportStrength, Effort: 6, BaseEffort: 67.2, SystemicLoad: 37, LowerBodyLoad: 16.8,
				Class: training.SessionModerate,
			},
		},
		{
			name: "hilly long trail race clamps systemic",
			activity: training.Activity{
				Sport: training.SportTrailRun, DurationMinutes: 180,
				DistanceKm: ptr(25.0), ElevationGainM: ptr(1500.0), Tag: ptr(training.SessionRace),
			},
			effort: 9,
			want: ActivityLoad{
				Sport: training.SportTrailRun, Effort: 9, BaseEffort: 281.2, SystemicLoad: 337.4, LowerBodyLoad: 337.4,
				Class: training.SessionRace, IntervalAdjusted: true,
			},
		},
		{
			name:     "race effort without tag",
			activity: training.Activity{Sport: training.SportSwim, DurationMinutes: 30},
			effort:   10,
			want: ActivityLoad{
				Sport: training.SportSwim, Effort: 10, BaseEffort: 60.5, SystemicLoad: 42.3, LowerBodyLoad: 6.1,
				Class: training.SessionRace,
			},
		},
	}

	c := newCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := tt.activity
			a.ID, a.AthleteID, a.Date = "act-1", "a1", day

			got, err := c.Calculate(&a, resolved(tt.effort))
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}

			want := tt.want
			want.ActivityID, want.AthleteID, want.Date = "act-1", "a1", day
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Calculate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalculateRejectsBadEffort(t *testing.T) {
	t.Parallel()

	a := training.Activity{ID: "x", AthleteID: "a1", Sport: training.SportRun, Date: day, DurationMinutes: 30}
	_, err := newCalculator().Calculate(&a, resolved(0))
	if !xerrors.IsKind(err, xerrors.KindInvalidInput) {
		t.Fatalf("Calculate() error = %v, want invalid input", err)
	}
}

func TestCoefficientsStayWithinCeiling(t *testing.T) {
	t.Parallel()

	faker := gofakeit.New(7)
	params := calibration.Default()
	c := NewCalculator(&params.Load)
	sports := training.Sports()
	phrases := []string{"", "leg day squats", "bench press", "6x400", "hill repeats", "recovery spin"}

	for i := 0; i < 500; i++ {
		a := training.Activity{
			ID:              faker.UUID(),
			AthleteID:       "a1",
			Sport:           sports[faker.IntRange(0, len(sports)-1)],
			Date:            day,
			DurationMinutes: faker.Float64Range(1, 400),
			Notes:           phrases[faker.IntRange(0, len(phrases)-1)],
		}
		if faker.Bool() {
			a.DistanceKm = ptr(faker.Float64Range(0.5, 60))
			a.ElevationGainM = ptr(faker.Float64Range(0, 3000))
		}
		if faker.Bool() {
			a.Tag = ptr(training.SessionRace)
		}

		got, err := c.Calculate(&a, resolved(faker.IntRange(1, 10)))
		if err != nil {
			t.Fatalf("Calculate(%+v) error = %v", a, err)
		}
		if got.SystemicLoad < 0 || got.LowerBodyLoad < 0 {
			t.Fatalf("negative load for %+v: %+v", a, got)
		}
		if got.LowerBodyLoad > got.BaseEffort*params.Load.CoefficientCeiling+0.05 {
			t.Fatalf("lower body %.1f exceeds base %.1f x ceiling", got.LowerBodyLoad, got.BaseEffort)
		}
		coeff := c.Coefficients(&a)
		if coeff.Systemic > params.Load.CoefficientCeiling || coeff.LowerBody > params.Load.CoefficientCeiling {
			t.Fatalf("coefficients %+v exceed ceiling", coeff)
		}
	}
}

func TestRound1(t *testing.T) {
	t.Parallel()

	for in, want := range map[float64]float64{31.6666: 31.7, 100: 100, 0.04: 0, 0.05: 0.1, 281.0625: 281.1} {
		if got := Round1(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("Round1(%v) = %v, want %v", in, got, want)
		}
	}
}
