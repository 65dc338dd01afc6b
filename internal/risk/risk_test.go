package risk

import (
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/load"
	"github.com/du-phan/resilio/internal/metrics"
	"github.com/du-phan/resilio/internal/training"
)

func ptr[T any](v T) *T { return &v }

var today = time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

func newAggregator() *Aggregator {
	p := calibration.Default()
	return NewAggregator(&p.Risk)
}

func session(daysAgo int, class training.SessionClass, lowerBody float64) load.ActivityLoad {
	return load.ActivityLoad{Date: training.AddDays(today, -daysAgo), Class: class, LowerBodyLoad: lowerBody}
}

func TestAssessForcedRest(t *testing.T) {
	t.Parallel()

	got := newAggregator().Assess(Input{
		Date:      today,
		Metrics:   metrics.DailyMetrics{Date: today, CTL: 50, TSB: -5, ACWR: ptr(1.6)},
		Readiness: 30,
	})

	if !got.ForcedRest {
		t.Error("ForcedRest = false, want true")
	}
	if got.Level != LevelDanger {
		t.Errorf("Level = %s, want danger", got.Level)
	}
	want := []Trigger{
		{Type: TriggerACWRHighRisk, Value: 1.6, Threshold: 1.5, Weight: 0.40},
		{Type: TriggerReadinessVeryLow, Value: 30, Threshold: 35, Weight: 0.25},
	}
	if diff := cmp.Diff(want, got.Factors); diff != "" {
		t.Errorf("Factors mismatch (-want +got):\n%s", diff)
	}
	if math.Abs(got.InjuryProbabilityPercent-65) > 1e-9 {
		t.Errorf("InjuryProbabilityPercent = %v, want 65", got.InjuryProbabilityPercent)
	}
}

func TestTriggers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input Input
		want  []Trigger
	}{
		{
			name:  "quiet day",
			input: Input{Metrics: metrics.DailyMetrics{CTL: 40, TSB: 5, ACWR: ptr(1.0)}, Readiness: 75},
		},
		{
			name:  "null ACWR skips ACWR triggers",
			input: Input{Metrics: metrics.DailyMetrics{CTL: 40, TSB: -30}, Readiness: 70},
			want:  []Trigger{{Type: TriggerTSBOverreached, Value: -30, Threshold: -25, Weight: 0.20}},
		},
		{
			name:  "elevated ACWR with good readiness",
			input: Input{Metrics: metrics.DailyMetrics{CTL: 40, ACWR: ptr(1.4)}, Readiness: 70},
			want:  []Trigger{{Type: TriggerACWRElevated, Value: 1.4, Threshold: 1.3, Weight: 0.20}},
		},
		{
			name:  "elevated ACWR with low readiness",
			input: Input{Metrics: metrics.DailyMetrics{CTL: 40, ACWR: ptr(1.5)}, Readiness: 35},
			want: []Trigger{
				{Type: TriggerACWRElevated, Value: 1.5, Threshold: 1.3, Weight: 0.30},
				{Type: TriggerReadinessLow, Value: 35, Threshold: 50, Weight: 0.20},
			},
		},
		{
			name:  "readiness low just under 50",
			input: Input{Metrics: metrics.DailyMetrics{CTL: 40}, Readiness: 49},
			want:  []Trigger{{Type: TriggerReadinessLow, Value: 49, Threshold: 50, Weight: 0.15 + 0.05/15}},
		},
		{
			name: "lower body load over twice the window",
			input: Input{
				Date:      today,
				Metrics:   metrics.DailyMetrics{CTL: 20},
				Readiness: 70,
				Loads:     []load.ActivityLoad{session(0, training.SessionEasy, 40), session(1, training.SessionEasy, 35), session(2, training.SessionEasy, 200)},
			},
			want: []Trigger{{Type: TriggerLowerBodyLoadHigh, Value: 75, Threshold: 50, Weight: 0.25}},
		},
		{
			name: "lower body partially over",
			input: Input{
				Date:      today,
				Metrics:   metrics.DailyMetrics{CTL: 20},
				Readiness: 70,
				Loads:     []load.ActivityLoad{session(0, training.SessionEasy, 60)},
			},
			want: []Trigger{{Type: TriggerLowerBodyLoadHigh, Value: 60, Threshold: 50, Weight: 0.19}},
		},
		{
			name: "lower body skipped without fitness",
			input: Input{
				Date:      today,
				Metrics:   metrics.DailyMetrics{CTL: 0},
				Readiness: 70,
				Loads:     []load.ActivityLoad{session(0, training.SessionEasy, 60)},
			},
		},
		{
			name: "two hard sessions in a week",
			input: Input{
				Date:      today,
				Metrics:   metrics.DailyMetrics{CTL: 60},
				Readiness: 70,
				Loads: []load.ActivityLoad{
					session(0, training.SessionQuality, 10),
					session(6, training.SessionRace, 10),
					session(7, training.SessionQuality, 10),
				},
			},
			want: []Trigger{{Type: TriggerSessionDensityHigh, Value: 2, Threshold: 2, Weight: 0.15}},
		},
	}

	a := newAggregator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := a.Triggers(tt.input)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("Triggers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLevels(t *testing.T) {
	t.Parallel()

	a := newAggregator()
	tests := map[float64]Level{0: LevelLow, 0.19: LevelLow, 0.2: LevelModerate, 0.4: LevelHigh, 0.59: LevelHigh, 0.6: LevelDanger, 1.4: LevelDanger}
	for score, want := range tests {
		if got := a.Level(score); got != want {
			t.Errorf("Level(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestAssessOrdersAndCaps(t *testing.T) {
	t.Parallel()

	got := newAggregator().Assess(Input{
		Date:      today,
		Metrics:   metrics.DailyMetrics{CTL: 20, TSB: -40, ACWR: ptr(2.0)},
		Readiness: 10,
		Loads: []load.ActivityLoad{
			session(0, training.SessionRace, 200),
			session(3, training.SessionQuality, 30),
		},
	})

	for i := 1; i < len(got.Factors); i++ {
		if got.Factors[i].Weight > got.Factors[i-1].Weight {
			t.Fatalf("factors not sorted by weight: %+v", got.Factors)
		}
	}
	if want := 0.40 + 0.25 + 0.20 + 0.25 + 0.15; math.Abs(got.RawScore-want) > 1e-9 {
		t.Errorf("RawScore = %v, want %v", got.RawScore, want)
	}
	if got.Score != 1 || got.InjuryProbabilityPercent != 100 {
		t.Errorf("Score/Probability = %v/%v, want capped at 1/100", got.Score, got.InjuryProbabilityPercent)
	}
	if !got.ForcedRest {
		t.Error("ForcedRest = false, want true")
	}
}

func TestForcedRestRequiresBoth(t *testing.T) {
	t.Parallel()

	faker := gofakeit.New(3)
	a := newAggregator()
	for i := 0; i < 500; i++ {
		readiness := faker.IntRange(0, 100)
		var acwr *float64
		if faker.Bool() {
			acwr = ptr(faker.Float64Range(0.2, 3))
		}
		want := acwr != nil && *acwr > 1.5 && readiness < 35
		if got := a.ForcedRest(acwr, readiness); got != want {
			t.Fatalf("ForcedRest(%v, %d) = %v, want %v", acwr, readiness, got, want)
		}
	}
}
