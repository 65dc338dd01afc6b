// Package risk turns a day's metrics, readiness and recent sessions into named
// adaptation triggers and one additive risk score.
package risk

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/guardrail"
	"github.com/du-phan/resilio/internal/load"
	"github.com/du-phan/resilio/internal/metrics"
	"github.com/du-phan/resilio/internal/training"
)

type TriggerType string

const (
	TriggerACWRHighRisk       TriggerType = "ACWR_HIGH_RISK"
	TriggerACWRElevated       TriggerType = "ACWR_ELEVATED"
	TriggerReadinessVeryLow   TriggerType = "READINESS_VERY_LOW"
	TriggerReadinessLow       TriggerType = "READINESS_LOW"
	TriggerTSBOverreached     TriggerType = "TSB_OVERREACHED"
	TriggerLowerBodyLoadHigh  TriggerType = "LOWER_BODY_LOAD_HIGH"
	TriggerSessionDensityHigh TriggerType = "SESSION_DENSITY_HIGH"
)

type Trigger struct {
	Type      TriggerType `json:"type"`
	Value     float64     `json:"value"`
	Threshold float64     `json:"threshold"`
	Weight    float64     `json:"weight"`
}

type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelDanger   Level = "danger"
)

type Input struct {
	Date      time.Time
	Metrics   metrics.DailyMetrics
	Readiness int
	// Loads holds at least the activities of the density window ending on Date.
	Loads      []load.ActivityLoad
	Guardrails []guardrail.Violation
}

type Assessment struct {
	Date     time.Time `json:"date"`
	Factors  []Trigger `json:"factors"`
	RawScore float64   `json:"raw_score"`
	// Score is RawScore capped at 1.
	Score                    float64               `json:"score"`
	Level                    Level                 `json:"level"`
	InjuryProbabilityPercent float64               `json:"injury_probability_pct"`
	ForcedRest               bool                  `json:"forced_rest"`
	Guardrails               []guardrail.Violation `json:"guardrails,omitempty"`
}

type Aggregator struct {
	params *calibration.RiskParams
}

func NewAggregator(params *calibration.RiskParams) *Aggregator {
	return &Aggregator{params: params}
}

func (a *Aggregator) Assess(in Input) Assessment {
	day := training.Day(in.Date)
	factors := a.Triggers(in)
	slices.SortStableFunc(factors, func(x, y Trigger) int { return cmp.Compare(y.Weight, x.Weight) })

	var raw float64
	for _, f := range factors {
		raw += f.Weight
	}

	return Assessment{
		Date:                     day,
		Factors:                  factors,
		RawScore:                 raw,
		Score:                    math.Min(1, raw),
		Level:                    a.Level(raw),
		InjuryProbabilityPercent: math.Min(100, raw*100),
		ForcedRest:               a.ForcedRest(in.Metrics.ACWR, in.Readiness),
		Guardrails:               in.Guardrails,
	}
}

// Triggers evaluates every detector in a fixed order. A nil ACWR skips the
// ACWR detectors.
func (a *Aggregator) Triggers(in Input) []Trigger {
	p := a.params
	var out []Trigger
	readiness := float64(in.Readiness)

	if acwr := in.Metrics.ACWR; acwr != nil {
		switch {
		case *acwr > p.ACWRHigh:
			out = append(out, Trigger{TriggerACWRHighRisk, *acwr, p.ACWRHigh, p.ACWRHighWeight})
		case *acwr > p.ACWRElevated:
			w := p.ACWRElevatedWeight
			if readiness < p.ReadinessLow {
				w = p.ACWRElevatedLowReadyWt
			}
			out = append(out, Trigger{TriggerACWRElevated, *acwr, p.ACWRElevated, w})
		}
	}

	switch {
	case readiness < p.ReadinessVeryLow:
		out = append(out, Trigger{TriggerReadinessVeryLow, readiness, p.ReadinessVeryLow, p.ReadinessVeryLowWeight})
	case readiness < p.ReadinessLow:
		depth := (p.ReadinessLow - readiness) / (p.ReadinessLow - p.ReadinessVeryLow)
		out = append(out, Trigger{TriggerReadinessLow, readiness, p.ReadinessLow, lerp(p.ReadinessLowWeightMin, p.ReadinessLowWeightMax, depth)})
	}

	if tsb := in.Metrics.TSB; tsb < p.TSBOverreached {
		out = append(out, Trigger{TriggerTSBOverreached, tsb, p.TSBOverreached, p.TSBOverreachedWeight})
	}

	if t, ok := a.lowerBody(in); ok {
		out = append(out, t)
	}

	if n := a.hardSessions(in); n >= p.DensityMinSessions {
		out = append(out, Trigger{TriggerSessionDensityHigh, float64(n), float64(p.DensityMinSessions), p.DensityWeight})
	}
	return out
}

func (a *Aggregator) lowerBody(in Input) (Trigger, bool) {
	p := a.params
	ctl := in.Metrics.CTL
	if ctl <= 0 {
		return Trigger{}, false
	}
	threshold := ctl * p.LowerBodyCTLMultiple

	var sum float64
	for _, l := range window(in.Loads, in.Date, p.LowerBodyWindowDays) {
		sum += l.LowerBodyLoad
	}
	if sum <= threshold {
		return Trigger{}, false
	}
	excess := (sum/threshold - 1) / (p.LowerBodySaturation - 1)
	return Trigger{TriggerLowerBodyLoadHigh, sum, threshold, lerp(p.LowerBodyWeightMin, p.LowerBodyWeightMax, excess)}, true
}

func (a *Aggregator) hardSessions(in Input) int {
	var n int
	for _, l := range window(in.Loads, in.Date, a.params.DensityWindowDays) {
		if l.Class.IsHard() {
			n++
		}
	}
	return n
}

func (a *Aggregator) Level(score float64) Level {
	switch {
	case score >= a.params.DangerAt:
		return LevelDanger
	case score >= a.params.HighAt:
		return LevelHigh
	case score >= a.params.ModerateAt:
		return LevelModerate
	default:
		return LevelLow
	}
}

// ForcedRest is the one mandatory rule: overloaded and unready at once.
func (a *Aggregator) ForcedRest(acwr *float64, readiness int) bool {
	return acwr != nil && *acwr > a.params.ForcedRestACWR && float64(readiness) < a.params.ForcedRestReadiness
}

// window returns the loads dated within the days-long window ending on end.
func window(loads []load.ActivityLoad, end time.Time, days int) []load.ActivityLoad {
	end = training.Day(end)
	start := training.AddDays(end, -(days - 1))
	var out []load.ActivityLoad
	for _, l := range loads {
		d := training.Day(l.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// lerp interpolates from lo to hi, clamping t to [0, 1].
func lerp(lo, hi, t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	return lo + (hi-lo)*t
}
