package readiness

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/training"
)

func ptr[T any](v T) *T { return &v }

func newScorer() *Scorer {
	p := calibration.Default()
	return NewScorer(&p.Readiness)
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        Input
		wantScore int
		wantLevel Level
		wantConf  training.Confidence
	}{
		{
			name:      "no subjective inputs, neutral trend",
			in:        Input{TSB: 0, RecentLoads: []float64{40, 40}},
			wantScore: 70,
			wantLevel: LevelReady,
			wantConf:  training.ConfidenceLow,
		},
		{
			name:      "all four components",
			in:        Input{TSB: 0, Sleep: ptr(80.0), Wellness: ptr(60.0), BaselineEstablished: true},
			wantScore: 69,
			wantLevel: LevelReady,
			wantConf:  training.ConfidenceHigh,
		},
		{
			name:      "sleep only renormalizes",
			in:        Input{TSB: 0, Sleep: ptr(80.0)},
			wantScore: 73,
			wantLevel: LevelReady,
			wantConf:  training.ConfidenceLow,
		},
		{
			name:      "deep fatigue and rising load",
			in:        Input{TSB: -35, RecentLoads: []float64{0, 0, 0, 0, 60, 60, 60}},
			wantScore: 0,
			wantLevel: LevelRestRecommended,
			wantConf:  training.ConfidenceLow,
		},
		{
			name:      "fresh after taper",
			in:        Input{TSB: 12, RecentLoads: []float64{50, 50, 50, 50, 0, 0, 0}, BaselineEstablished: true},
			wantScore: 100,
			wantLevel: LevelPrimed,
			wantConf:  training.ConfidenceHigh,
		},
		{
			name:      "injury caps at 25",
			in:        Input{TSB: 12, Notes: []string{"Knee pain on the descent"}},
			wantScore: 25,
			wantLevel: LevelRestRecommended,
			wantConf:  training.ConfidenceLow,
		},
		{
			name:      "illness caps at 35",
			in:        Input{TSB: 12, Notes: []string{"", "bit of a sore throat"}},
			wantScore: 35,
			wantLevel: LevelEasyOnly,
			wantConf:  training.ConfidenceLow,
		},
		{
			name:      "fever caps at 15",
			in:        Input{TSB: 12, Notes: []string{"Skipped, FEVER overnight"}},
			wantScore: 15,
			wantLevel: LevelRestRecommended,
			wantConf:  training.ConfidenceLow,
		},
		{
			name:      "override never raises a low score",
			in:        Input{TSB: -30, RecentLoads: []float64{0, 0, 0, 0, 90, 90, 90}, Notes: []string{"sick"}},
			wantScore: 0,
			wantLevel: LevelRestRecommended,
			wantConf:  training.ConfidenceLow,
		},
	}

	s := newScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := s.Score(tt.in)
			if got.Score != tt.wantScore || got.Level != tt.wantLevel || got.Confidence != tt.wantConf {
				t.Errorf("Score() = %d/%s/%s, want %d/%s/%s",
					got.Score, got.Level, got.Confidence, tt.wantScore, tt.wantLevel, tt.wantConf)
			}
		})
	}
}

func TestTrend(t *testing.T) {
	t.Parallel()

	s := newScorer()
	tests := []struct {
		name  string
		loads []float64
		want  float64
	}{
		{name: "no history", loads: nil, want: 65},
		{name: "two days", loads: []float64{30, 30}, want: 65},
		{name: "all rest", loads: []float64{0, 0, 0, 0, 0, 0, 0}, want: 65},
		{name: "flat", loads: []float64{40, 40, 40, 40, 40, 40, 40}, want: 50},
		{name: "only last seven count", loads: []float64{500, 40, 40, 40, 40, 40, 40, 40}, want: 50},
		{name: "recent rest", loads: []float64{50, 50, 50, 50, 0, 0, 0}, want: 100},
		{name: "three day window", loads: []float64{10, 20, 30}, want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.Trend(tt.loads); got != tt.want {
				t.Errorf("Trend(%v) = %v, want %v", tt.loads, got, tt.want)
			}
		})
	}
}

func TestOverridesCollectKeywords(t *testing.T) {
	t.Parallel()

	got := newScorer().Overrides([]string{"Calf strain", "flu symptoms"})
	want := Overrides{Injury: true, Illness: true, SevereIllness: true, Keywords: []string{"strain", "flu"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Overrides() mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreBoundsProperty(t *testing.T) {
	t.Parallel()

	faker := gofakeit.New(42)
	s := newScorer()
	notes := []string{"", "felt great", "hamstring strain", "sick since tuesday", "flu", "fever and cough"}

	for i := 0; i < 1000; i++ {
		in := Input{TSB: faker.Float64Range(-150, 150)}
		for range faker.IntRange(0, 10) {
			in.RecentLoads = append(in.RecentLoads, faker.Float64Range(0, 400))
		}
		if faker.Bool() {
			in.Sleep = ptr(faker.Float64Range(-20, 120))
		}
		if faker.Bool() {
			in.Wellness = ptr(faker.Float64Range(0, 100))
		}
		note := notes[faker.IntRange(0, len(notes)-1)]
		in.Notes = []string{note}

		got := s.Score(in)
		if got.Score < 0 || got.Score > 100 {
			t.Fatalf("Score(%+v) = %d, outside [0, 100]", in, got.Score)
		}
		if got.Overrides.Injury && got.Score > 25 {
			t.Fatalf("injury note %q scored %d", note, got.Score)
		}
		if got.Overrides.SevereIllness && got.Score > 15 {
			t.Fatalf("severe note %q scored %d", note, got.Score)
		}
	}
}
