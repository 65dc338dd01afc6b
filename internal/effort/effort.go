// Package effort resolves a single 1-10 perceived effort for an activity from
// the best signal it carries.
package effort

import (
	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/validator"
	"github.com/du-phan/resilio/internal/xerrors"
)

type Source string

const (
	SourceExplicit       Source = "explicit"
	SourceHeartRate      Source = "heart_rate"
	SourceRelativeEffort Source = "relative_effort"
	SourcePace           Source = "pace"
	SourceDuration       Source = "duration_heuristic"
)

const (
	minEffort = 1
	maxEffort = 10
)

type Resolved struct {
	ActivityID string              `json:"activity_id"`
	Value      int                 `json:"value"`
	Source     Source              `json:"source"`
	Confidence training.Confidence `json:"confidence"`
}

// strategy is one signal in the chain. available must be checked before compute.
type strategy struct {
	source     Source
	confidence training.Confidence
	available  func(a *training.Activity, athlete *training.AthleteContext) bool
	compute    func(a *training.Activity, athlete *training.AthleteContext) int
}

type Resolver struct {
	params *calibration.EffortParams
	chain  []strategy
}

func NewResolver(params *calibration.EffortParams) *Resolver {
	r := &Resolver{params: params}
	r.chain = []strategy{
		{SourceExplicit, training.ConfidenceHigh, hasExplicit, explicit},
		{SourceHeartRate, training.ConfidenceHigh, hasHeartRate, r.heartRate},
		{SourceRelativeEffort, training.ConfidenceMedium, hasRelativeEffort, r.relativeEffort},
		{SourcePace, training.ConfidenceMedium, hasPace, r.pace},
		{SourceDuration, training.ConfidenceLow, always, r.duration},
	}
	return r
}

// Resolve rejects invalid activities; once valid, the duration heuristic
// guarantees a result.
func (r *Resolver) Resolve(a *training.Activity, athlete *training.AthleteContext) (Resolved, error) {
	if err := validator.Validate(a); err != nil {
		return Resolved{}, err
	}
	for _, s := range r.chain {
		if !s.available(a, athlete) {
			continue
		}
		return Resolved{
			ActivityID: a.ID,
			Value:      clamp(s.compute(a, athlete)),
			Source:     s.source,
			Confidence: s.confidence,
		}, nil
	}
	return Resolved{}, xerrors.Internal(xerrors.WithMessage("no effort strategy available"))
}

func hasExplicit(a *training.Activity, _ *training.AthleteContext) bool {
	return a.ExplicitEffort != nil
}

func explicit(a *training.Activity, _ *training.AthleteContext) int {
	return *a.ExplicitEffort
}

// hasHeartRate uses the athlete's max HR only, never the activity's own peak.
func hasHeartRate(a *training.Activity, athlete *training.AthleteContext) bool {
	return a.AvgHR != nil && athlete != nil && athlete.MaxHR != nil && *athlete.MaxHR > 0
}

func (r *Resolver) heartRate(a *training.Activity, athlete *training.AthleteContext) int {
	pct := float64(*a.AvgHR) / float64(*athlete.MaxHR)
	base := r.params.HeartRate.Lookup(pct)
	if base < r.params.HRBonusMinBase {
		return base
	}
	for _, b := range r.params.HRDurationBonus {
		if a.DurationMinutes > b.OverMinutes {
			return base + b.Bonus
		}
	}
	return base
}

func hasRelativeEffort(a *training.Activity, _ *training.AthleteContext) bool {
	return a.RelativeEffort != nil && *a.RelativeEffort > 0
}

func (r *Resolver) relativeEffort(a *training.Activity, _ *training.AthleteContext) int {
	return r.params.RelativeEffort.Lookup(*a.RelativeEffort / a.DurationMinutes)
}

func hasPace(a *training.Activity, athlete *training.AthleteContext) bool {
	return a.Sport.IsRunning() &&
		a.DistanceKm != nil && *a.DistanceKm > 0 &&
		athlete != nil && athlete.VDOT != nil && *athlete.VDOT > 0
}

func (r *Resolver) pace(a *training.Activity, athlete *training.AthleteContext) int {
	paceSec := a.DurationMinutes * 60 / *a.DistanceKm
	v := ClassifyPace(&r.params.Pace, *athlete.VDOT, paceSec).Effort
	if a.Sport == training.SportTrailRun {
		v += r.params.Pace.TrailBonus
	}
	return v
}

func always(*training.Activity, *training.AthleteContext) bool { return true }

func (r *Resolver) duration(a *training.Activity, _ *training.AthleteContext) int {
	v := r.params.SportDefault(a.Sport)
	if a.DurationMinutes > r.params.LongSessionMinutes {
		v += r.params.LongSessionBonus
	}
	return v
}

func clamp(v int) int {
	return max(minEffort, min(maxEffort, v))
}
