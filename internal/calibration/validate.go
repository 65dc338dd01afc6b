package calibration

import (
	"fmt"

	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/validator"
)

var _ validator.Validator = (*Params)(nil)

func (p *Params) ValidationName() string { return "calibration" }

func (p *Params) Validate() map[string]string {
	f := validator.Fields{}

	f.Check(p.Version != "", "version", "must not be empty")
	checkBands(f, "effort.heart_rate", p.Effort.HeartRate)
	for i, b := range p.Effort.HRDurationBonus {
		field := fmt.Sprintf("effort.hr_duration_bonus[%d]", i)
		f.Check(b.OverMinutes > 0 && b.Bonus >= 0, field, "over_minutes must be positive and bonus not negative")
		if i > 0 {
			f.Check(b.OverMinutes < p.Effort.HRDurationBonus[i-1].OverMinutes, field, "thresholds must be listed longest first")
		}
	}
	checkBands(f, "effort.relative_effort", p.Effort.RelativeEffort)
	f.Check(p.Effort.Pace.TempoFraction > 0 && p.Effort.Pace.TempoFraction <= 1, "effort.pace.tempo_fraction", "must be in (0, 1]")
	f.Check(len(p.Effort.Pace.Zones) > 0, "effort.pace.zones", "must not be empty")
	for i, z := range p.Effort.Pace.Zones {
		f.Check(validEffort(z.Effort), fmt.Sprintf("effort.pace.zones[%d].effort", i), "must be between 1 and 10")
	}
	for _, s := range training.Sports() {
		v, ok := p.Effort.SportDefaults[string(s)]
		f.Check(!ok || validEffort(v), "effort.sport_defaults."+string(s), "must be between 1 and 10")
	}
	f.Check(validEffort(p.Effort.FallbackDefault), "effort.fallback_default", "must be between 1 and 10")

	f.Check(len(p.Load.IntensityFactors) == 10, "load.intensity_factors", "must have one entry per effort 1..10")
	f.Check(p.Load.IntervalFactor > 0 && p.Load.IntervalFactor <= 1, "load.interval_factor", "must be in (0, 1]")
	f.Check(p.Load.CoefficientCeiling > 0, "load.coefficient_ceiling", "must be positive")
	for name, c := range p.Load.Sports {
		f.Check(training.Sport(name).Valid(), "load.sports."+name, "unknown sport category")
		f.Check(c.Systemic >= 0 && c.Systemic <= p.Load.CoefficientCeiling, "load.sports."+name+".systemic", "must be within [0, coefficient_ceiling]")
		f.Check(c.LowerBody >= 0 && c.LowerBody <= p.Load.CoefficientCeiling, "load.sports."+name+".lower_body", "must be within [0, coefficient_ceiling]")
	}
	f.Check(p.Load.EasyMaxEffort < p.Load.ModerateMaxEffort && p.Load.ModerateMaxEffort < p.Load.QualityMaxEffort,
		"load.class_efforts", "easy < moderate < quality maximum efforts")

	m := p.Metrics
	f.Check(m.CTLAlpha > 0 && m.CTLAlpha < 1, "metrics.ctl_alpha", "must be in (0, 1)")
	f.Check(m.ATLAlpha > 0 && m.ATLAlpha < 1, "metrics.atl_alpha", "must be in (0, 1)")
	f.Check(m.ColdStartDays > 0, "metrics.cold_start_days", "must be positive")
	f.Check(m.AcuteDays > 0 && m.AcuteDays < m.ChronicDays, "metrics.acute_days", "must be positive and shorter than chronic_days")
	f.Check(m.BaselineMinDays > 0 && m.BaselineMinDays <= m.BaselineWindowDays, "metrics.baseline_min_days", "must fit inside baseline_window_days")
	f.Check(m.ACWRUndertrained < m.ACWRSafeMax && m.ACWRSafeMax < m.ACWRCautionMax, "metrics.acwr_zones", "must be ascending")
	checkZones(f, "metrics.ctl_zones", m.CTLZones)
	checkZones(f, "metrics.tsb_zones", m.TSBZones)

	r := p.Readiness
	f.Check(r.TrendShortDays > 0 && r.TrendShortDays < r.TrendLongDays, "readiness.trend_short_days", "must be shorter than trend_long_days")
	f.Check(r.TrendMinDays > 0 && r.TrendMinDays <= r.TrendLongDays, "readiness.trend_min_days", "must fit inside trend_long_days")
	checkWeights(f, "readiness.with_subjective", r.WithSubjective)
	checkWeights(f, "readiness.without_subjective", r.WithoutSubjective)
	f.Check(r.RestBelow < r.EasyBelow && r.EasyBelow < r.ReduceBelow && r.ReduceBelow < r.ReadyBelow, "readiness.levels", "must be ascending")
	f.Check(r.NotesWindowDays > 0, "readiness.notes_window_days", "must be positive")

	g := p.Guardrail
	f.Check(len(g.VolumeBands) > 0, "guardrail.volume_bands", "must not be empty")
	for i, b := range g.VolumeBands {
		f.Check(b.MinKm >= 0 && b.MinKm <= b.MaxKm, fmt.Sprintf("guardrail.volume_bands[%d]", i), "min_km must not exceed max_km")
	}
	f.Check(g.ProgressionMax >= 1, "guardrail.progression_max", "must be at least 1")
	for name := range g.GoalMultipliers {
		f.Check(training.GoalType(name).Valid(), "guardrail.goal_multipliers."+name, "unknown goal type")
	}

	k := p.Risk
	f.Check(k.ACWRElevated < k.ACWRHigh, "risk.acwr_elevated", "must be below acwr_high")
	f.Check(k.ReadinessVeryLow < k.ReadinessLow, "risk.readiness_very_low", "must be below readiness_low")
	f.Check(k.LowerBodySaturation > 1, "risk.lower_body_saturation", "must be greater than 1")
	f.Check(k.LowerBodyWindowDays > 0 && k.DensityWindowDays > 0, "risk.windows", "must be positive")
	f.Check(k.ModerateAt < k.HighAt && k.HighAt < k.DangerAt, "risk.levels", "must be ascending")

	return f.Result()
}

func validEffort(v int) bool { return v >= 1 && v <= 10 }

func checkBands(f validator.Fields, field string, b Bands) {
	f.Check(len(b.Steps) > 0, field, "must not be empty")
	f.Check(validEffort(b.Above), field+".above", "must be between 1 and 10")
	for i, s := range b.Steps {
		f.Check(validEffort(s.Value), fmt.Sprintf("%s.steps[%d]", field, i), "value must be between 1 and 10")
		if i > 0 {
			f.Check(s.Below > b.Steps[i-1].Below, fmt.Sprintf("%s.steps[%d]", field, i), "bounds must be ascending")
		}
	}
}

func checkZones(f validator.Fields, field string, zones []ZoneBound) {
	for i := 1; i < len(zones); i++ {
		f.Check(zones[i].Below > zones[i-1].Below, fmt.Sprintf("%s[%d]", field, i), "bounds must be ascending")
	}
}

func checkWeights(f validator.Fields, field string, w Weights) {
	f.Check(w.TSB >= 0 && w.Trend >= 0 && w.Sleep >= 0 && w.Wellness >= 0, field, "weights must not be negative")
	f.Check(w.TSB+w.Trend+w.Sleep+w.Wellness > 0, field, "weights must not all be zero")
}
