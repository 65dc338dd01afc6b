package guardrail

import (
	"math"

	"github.com/du-phan/resilio/internal/training"
)

const progressionEpsilon = 1e-9

// IntensityDistribution checks the 80/20 split of training minutes.
func (v *Validator) IntensityDistribution(sessions []Session) *Violation {
	var low, total float64
	for _, s := range sessions {
		total += s.Minutes
		if s.Class == training.SessionEasy {
			low += s.Minutes
		}
	}
	if total == 0 {
		return nil
	}
	share := low / total
	if share >= v.params.LowShareMin {
		return nil
	}
	return &Violation{
		Rule:     RuleIntensityDistribution,
		Severity: SeverityWarning,
		Values: map[string]float64{
			"low_share":     share,
			"minimum_share": v.params.LowShareMin,
			"target_share":  v.params.LowShareTarget,
			"low_minutes":   low,
			"total_minutes": total,
		},
		MessageKey: "guardrail.intensity_distribution.low_share",
	}
}

// QualityVolume caps distance at threshold, interval and repetition pace
// against the week's running distance.
func (v *Validator) QualityVolume(sessions []Session) []*Violation {
	var weekly float64
	byPace := map[Pace]float64{}
	for _, s := range sessions {
		if !s.Sport.IsRunning() {
			continue
		}
		weekly += s.DistanceKm
		byPace[s.Pace] += s.qualityKm()
	}
	if weekly == 0 {
		return nil
	}

	p := v.params
	caps := []struct {
		rule  RuleID
		pace  Pace
		limit float64
		key   string
	}{
		{RuleThresholdVolume, PaceThreshold, weekly * p.ThresholdShareMax, "guardrail.quality_volume.threshold"},
		{RuleIntervalVolume, PaceInterval, math.Min(p.IntervalKmMax, weekly*p.IntervalShareMax), "guardrail.quality_volume.interval"},
		{RuleRepetitionVolume, PaceRepetition, math.Min(p.RepetitionKmMax, weekly*p.RepetitionShareMax), "guardrail.quality_volume.repetition"},
	}

	var out []*Violation
	for _, c := range caps {
		km := byPace[c.pace]
		if km <= c.limit {
			continue
		}
		out = append(out, &Violation{
			Rule:       c.rule,
			Severity:   SeverityWarning,
			Values:     map[string]float64{"distance_km": km, "limit_km": c.limit, "weekly_km": weekly},
			MessageKey: c.key,
		})
	}
	return out
}

// LongRun checks the flagged long run, or the longest run when none is flagged.
func (v *Validator) LongRun(sessions []Session) []*Violation {
	var weekly float64
	var long *Session
	for i := range sessions {
		s := &sessions[i]
		if !s.Sport.IsRunning() {
			continue
		}
		weekly += s.DistanceKm
		switch {
		case long == nil:
			long = s
		case s.LongRun && !long.LongRun:
			long = s
		case s.LongRun == long.LongRun && s.DistanceKm > long.DistanceKm:
			long = s
		}
	}
	if long == nil {
		return nil
	}

	var out []*Violation
	if weekly > 0 {
		limit := weekly * v.params.LongRunShareMax
		if long.DistanceKm > limit {
			out = append(out, &Violation{
				Rule:     RuleLongRunDistance,
				Severity: SeverityWarning,
				Values: map[string]float64{
					"distance_km": long.DistanceKm,
					"limit_km":    limit,
					"weekly_km":   weekly,
					"share":       long.DistanceKm / weekly,
				},
				MessageKey: "guardrail.long_run.distance",
			})
		}
	}
	if long.Minutes > v.params.LongRunMinutesMax {
		out = append(out, &Violation{
			Rule:       RuleLongRunDuration,
			Severity:   SeverityWarning,
			Values:     map[string]float64{"minutes": long.Minutes, "limit_minutes": v.params.LongRunMinutesMax},
			MessageKey: "guardrail.long_run.duration",
		})
	}
	return out
}

// ProgressionOK applies the 10% rule. Coming back from zero and any decrease
// are always allowed.
func (v *Validator) ProgressionOK(previous, current float64) bool {
	if previous <= 0 || current <= previous {
		return true
	}
	return current <= previous*v.params.ProgressionMax+progressionEpsilon
}

func (v *Validator) Progression(previous, current float64) *Violation {
	if v.ProgressionOK(previous, current) {
		return nil
	}
	return &Violation{
		Rule:     RuleWeeklyProgression,
		Severity: SeverityWarning,
		Values: map[string]float64{
			"previous_km": previous,
			"current_km":  current,
			"limit_km":    previous * v.params.ProgressionMax,
			"increase":    current/previous - 1,
		},
		MessageKey: "guardrail.progression.too_fast",
	}
}

type VolumeRange struct {
	MinKm   float64 `json:"min_km"`
	MaxKm   float64 `json:"max_km"`
	StartKm float64 `json:"start_km"`
	// Capped reports that StartKm was limited by recent actual volume.
	Capped bool `json:"capped"`
}

func (v *Validator) SafeVolumeRange(athlete *training.AthleteContext) VolumeRange {
	band := v.params.VolumeBand(athlete.CTL)
	factor := v.params.GoalMultiplier(athlete.GoalOrDefault())
	if athlete.Age != nil && *athlete.Age >= v.params.MastersAge {
		factor *= v.params.MastersFactor
	}

	r := VolumeRange{
		MinKm: round1(band.MinKm * factor),
		MaxKm: round1(band.MaxKm * factor),
	}
	r.StartKm = r.MinKm
	if athlete.RecentWeeklyVolume != nil {
		limit := *athlete.RecentWeeklyVolume * v.params.RecentCapFactor
		if r.StartKm > limit {
			r.StartKm = round1(limit)
			r.Capped = true
		}
	}
	return r
}

func (v *Validator) WeeklyVolume(km float64, r VolumeRange) *Violation {
	values := map[string]float64{"weekly_km": km, "min_km": r.MinKm, "max_km": r.MaxKm}
	switch {
	case km > r.MaxKm:
		return &Violation{
			Rule:       RuleWeeklyVolumeHigh,
			Severity:   SeverityCritical,
			Values:     values,
			MessageKey: "guardrail.weekly_volume.above_range",
		}
	case km < r.MinKm:
		return &Violation{
			Rule:       RuleWeeklyVolumeLow,
			Severity:   SeverityInfo,
			Values:     values,
			MessageKey: "guardrail.weekly_volume.below_range",
		}
	default:
		return nil
	}
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
