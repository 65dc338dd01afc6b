// Package guardrail checks a week of planned or completed training against
// volume and intensity safety rules. Every check is stateless.
package guardrail

import (
	"fmt"
	"time"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/validator"
)

type RuleID string

const (
	RuleIntensityDistribution RuleID = "INTENSITY_DISTRIBUTION"
	RuleThresholdVolume       RuleID = "THRESHOLD_VOLUME"
	RuleIntervalVolume        RuleID = "INTERVAL_VOLUME"
	RuleRepetitionVolume      RuleID = "REPETITION_VOLUME"
	RuleLongRunDistance       RuleID = "LONG_RUN_DISTANCE"
	RuleLongRunDuration       RuleID = "LONG_RUN_DURATION"
	RuleWeeklyProgression     RuleID = "WEEKLY_PROGRESSION"
	RuleWeeklyVolumeHigh      RuleID = "WEEKLY_VOLUME_ABOVE_RANGE"
	RuleWeeklyVolumeLow       RuleID = "WEEKLY_VOLUME_BELOW_RANGE"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Violation struct {
	Rule       RuleID             `json:"rule"`
	Severity   Severity           `json:"severity"`
	Values     map[string]float64 `json:"values"`
	MessageKey string             `json:"message_key"`
}

// Pace labels the intended intensity of a running session.
type Pace string

const (
	PaceEasy       Pace = "easy"
	PaceMarathon   Pace = "marathon"
	PaceThreshold  Pace = "threshold"
	PaceInterval   Pace = "interval"
	PaceRepetition Pace = "repetition"
)

func (p Pace) Valid() bool {
	switch p {
	case "", PaceEasy, PaceMarathon, PaceThreshold, PaceInterval, PaceRepetition:
		return true
	default:
		return false
	}
}

type Session struct {
	Date       time.Time             `json:"date"`
	Sport      training.Sport        `json:"sport"`
	Class      training.SessionClass `json:"class"`
	Minutes    float64               `json:"minutes"`
	DistanceKm float64               `json:"distance_km,omitempty"`
	// QualityKm is the distance run at Pace; zero means the whole session.
	QualityKm float64 `json:"quality_km,omitempty"`
	Pace      Pace    `json:"pace,omitempty"`
	LongRun   bool    `json:"long_run,omitempty"`
}

func (s Session) qualityKm() float64 {
	if s.QualityKm > 0 {
		return s.QualityKm
	}
	return s.DistanceKm
}

type Week struct {
	Start            time.Time `json:"start"`
	Sessions         []Session `json:"sessions"`
	PreviousVolumeKm *float64  `json:"previous_volume_km,omitempty"`
}

var _ validator.Validator = (*Week)(nil)

func (w *Week) ValidationName() string { return "week" }

func (w *Week) Validate() map[string]string {
	f := validator.Fields{}
	f.Check(len(w.Sessions) > 0, "sessions", "must not be empty")
	for i, s := range w.Sessions {
		field := fmt.Sprintf("sessions[%d]", i)
		f.Check(s.Sport.Valid(), field+".sport", "unknown sport category")
		f.Check(s.Class.Valid(), field+".class", "unknown session class")
		f.Check(s.Minutes > 0, field+".minutes", "must be greater than zero")
		f.Check(s.DistanceKm >= 0, field+".distance_km", "must not be negative")
		f.Check(s.QualityKm >= 0 && s.QualityKm <= s.DistanceKm, field+".quality_km", "must be within the session distance")
		f.Check(s.Pace.Valid(), field+".pace", "unknown pace")
	}
	if w.PreviousVolumeKm != nil {
		f.Check(*w.PreviousVolumeKm >= 0, "previous_volume_km", "must not be negative")
	}
	return f.Result()
}

// RunningKm sums the distance of running sessions, the unit weekly volume is
// tracked in.
func (w *Week) RunningKm() float64 {
	var km float64
	for _, s := range w.Sessions {
		if s.Sport.IsRunning() {
			km += s.DistanceKm
		}
	}
	return km
}

type Validator struct {
	params *calibration.GuardrailParams
}

func NewValidator(params *calibration.GuardrailParams) *Validator {
	return &Validator{params: params}
}

// ValidateWeek runs every check. athlete may be nil, which skips the
// CTL-based volume range.
func (v *Validator) ValidateWeek(w *Week, athlete *training.AthleteContext) ([]Violation, error) {
	if err := validator.Validate(w); err != nil {
		return nil, err
	}

	var out []Violation
	add := func(vs ...*Violation) {
		for _, x := range vs {
			if x != nil {
				out = append(out, *x)
			}
		}
	}

	add(v.IntensityDistribution(w.Sessions))
	add(v.QualityVolume(w.Sessions)...)
	add(v.LongRun(w.Sessions)...)

	volume := w.RunningKm()
	if w.PreviousVolumeKm != nil {
		add(v.Progression(*w.PreviousVolumeKm, volume))
	}
	if athlete != nil {
		add(v.WeeklyVolume(volume, v.SafeVolumeRange(athlete)))
	}
	return out, nil
}
