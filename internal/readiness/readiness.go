// Package readiness scores how prepared an athlete is to train on a day.
package readiness

import (
	"math"
	"time"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/training"
)

type Level string

const (
	LevelRestRecommended Level = "rest_recommended"
	LevelEasyOnly        Level = "easy_only"
	LevelReduceIntensity Level = "reduce_intensity"
	LevelReady           Level = "ready"
	LevelPrimed          Level = "primed"
)

type Input struct {
	Date time.Time
	TSB  float64
	// RecentLoads are the daily systemic loads before Date, oldest first.
	RecentLoads         []float64
	Sleep               *float64
	Wellness            *float64
	Notes               []string
	BaselineEstablished bool
}

type Overrides struct {
	Injury        bool     `json:"injury"`
	Illness       bool     `json:"illness"`
	SevereIllness bool     `json:"severe_illness"`
	Keywords      []string `json:"keywords,omitempty"`
}

func (o Overrides) Any() bool { return o.Injury || o.Illness || o.SevereIllness }

type Components struct {
	TSB      float64  `json:"tsb"`
	Trend    float64  `json:"trend"`
	Sleep    *float64 `json:"sleep,omitempty"`
	Wellness *float64 `json:"wellness,omitempty"`
}

type Result struct {
	Score      int                 `json:"score"`
	Level      Level               `json:"level"`
	Confidence training.Confidence `json:"confidence"`
	Overrides  Overrides           `json:"overrides"`
	Components Components          `json:"components"`
}

type Scorer struct {
	params *calibration.ReadinessParams
}

func NewScorer(params *calibration.ReadinessParams) *Scorer {
	return &Scorer{params: params}
}

func (s *Scorer) Score(in Input) Result {
	comp := Components{
		TSB:      clamp((in.TSB + s.params.TSBOffset) * s.params.TSBScale),
		Trend:    s.Trend(in.RecentLoads),
		Sleep:    in.Sleep,
		Wellness: in.Wellness,
	}

	score := s.combine(comp)
	overrides := s.Overrides(in.Notes)
	if overrides.Injury {
		score = math.Min(score, s.params.InjuryCap)
	}
	if overrides.Illness {
		score = math.Min(score, s.params.IllnessCap)
	}
	if overrides.SevereIllness {
		score = math.Min(score, s.params.SevereIllnessCap)
	}

	final := int(math.Round(clamp(score)))
	confidence := training.ConfidenceLow
	if in.BaselineEstablished {
		confidence = training.ConfidenceHigh
	}

	return Result{
		Score:      final,
		Level:      s.Level(final),
		Confidence: confidence,
		Overrides:  overrides,
		Components: comp,
	}
}

// Trend compares the short and long trailing load means; rising recent load
// lowers the score. Too little history yields the neutral value.
func (s *Scorer) Trend(loads []float64) float64 {
	if len(loads) > s.params.TrendLongDays {
		loads = loads[len(loads)-s.params.TrendLongDays:]
	}
	if len(loads) < s.params.TrendMinDays {
		return s.params.TrendNeutral
	}
	long := mean(loads)
	if long == 0 {
		return s.params.TrendNeutral
	}
	short := mean(loads[max(0, len(loads)-s.params.TrendShortDays):])
	return clamp(50 + (1-short/long)*50)
}

// combine weights the components that are present and renormalizes so the
// weights in use always sum to one.
func (s *Scorer) combine(c Components) float64 {
	w := s.params.WithoutSubjective
	if c.Sleep != nil || c.Wellness != nil {
		w = s.params.WithSubjective
	}

	total := w.TSB*c.TSB + w.Trend*c.Trend
	weight := w.TSB + w.Trend
	if c.Sleep != nil {
		total += w.Sleep * clamp(*c.Sleep)
		weight += w.Sleep
	}
	if c.Wellness != nil {
		total += w.Wellness * clamp(*c.Wellness)
		weight += w.Wellness
	}
	if weight == 0 {
		return 0
	}
	return total / weight
}

func (s *Scorer) Overrides(notes []string) Overrides {
	var o Overrides
	for _, n := range notes {
		if kw := training.MatchKeywords(n, s.params.InjuryKeywords); len(kw) > 0 {
			o.Injury = true
			o.Keywords = append(o.Keywords, kw...)
		}
		if kw := training.MatchKeywords(n, s.params.IllnessKeywords); len(kw) > 0 {
			o.Illness = true
			o.Keywords = append(o.Keywords, kw...)
		}
		if kw := training.MatchKeywords(n, s.params.SevereKeywords); len(kw) > 0 {
			o.Illness = true
			o.SevereIllness = true
			o.Keywords = append(o.Keywords, kw...)
		}
	}
	return o
}

func (s *Scorer) Level(score int) Level {
	v := float64(score)
	switch {
	case v < s.params.RestBelow:
		return LevelRestRecommended
	case v < s.params.EasyBelow:
		return LevelEasyOnly
	case v < s.params.ReduceBelow:
		return LevelReduceIntensity
	case v < s.params.ReadyBelow:
		return LevelReady
	default:
		return LevelPrimed
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(100, x))
}
