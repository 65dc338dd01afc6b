// Package load converts an activity and its resolved effort into systemic and
// lower-body training load.
package load

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/effort"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/validator"
	"github.com/du-phan/resilio/internal/xerrors"
)

type ActivityLoad struct {
	ActivityID       string                `json:"activity_id"`
	AthleteID        string                `json:"athlete_id"`
	Date             time.Time             `json:"date"`
	Sport            training.Sport        `json:"sport"`
	Effort           int                   `json:"effort"`
	BaseEffort       float64               `json:"base_effort"`
	SystemicLoad     float64               `json:"systemic_load"`
	LowerBodyLoad    float64               `json:"lower_body_load"`
	Class            training.SessionClass `json:"class"`
	IntervalAdjusted bool                  `json:"interval_adjusted"`
}

// repeatPattern matches set notation such as "6x800m" or "10 x 400".
var repeatPattern = regexp.MustCompile(`\b\d+\s*[x×]\s*\d+`)

type Calculator struct {
	params *calibration.LoadParams
}

func NewCalculator(params *calibration.LoadParams) *Calculator {
	return &Calculator{params: params}
}

func (c *Calculator) Calculate(a *training.Activity, e effort.Resolved) (ActivityLoad, error) {
	if err := validator.Validate(a); err != nil {
		return ActivityLoad{}, err
	}
	if e.Value < 1 || e.Value > 10 {
		return ActivityLoad{}, xerrors.Validation(
			map[string]string{"effort": fmt.Sprintf("must be between 1 and 10, got %d", e.Value)},
			xerrors.WithMessage("invalid resolved effort"),
		)
	}

	text := a.Text()
	race := a.Tag != nil && *a.Tag == training.SessionRace

	base := BaseEffort(c.params, a.DurationMinutes, e.Value)
	interval := c.isInterval(a, text)
	if interval {
		base = Round1(base * c.params.IntervalFactor)
	}

	coeff := c.coefficients(a, text, race)

	return ActivityLoad{
		ActivityID:       a.ID,
		AthleteID:        a.AthleteID,
		Date:             training.Day(a.Date),
		Sport:            a.Sport,
		Effort:           e.Value,
		BaseEffort:       base,
		SystemicLoad:     Round1(base * coeff.Systemic),
		LowerBodyLoad:    Round1(base * coeff.LowerBody),
		Class:            c.Classify(e.Value, race),
		IntervalAdjusted: interval,
	}, nil
}

// BaseEffort is the TSS-equivalent hours x IF^2 x 100, rounded to one decimal.
func BaseEffort(p *calibration.LoadParams, minutes float64, effortValue int) float64 {
	f := p.IntensityFactor(effortValue)
	return Round1(minutes / 60 * f * f * 100)
}

func (c *Calculator) isInterval(a *training.Activity, text string) bool {
	if a.Tag != nil && a.Tag.IsHard() {
		return true
	}
	return repeatPattern.MatchString(text) || training.HasKeyword(text, c.params.IntervalKeywords)
}

// Coefficients returns the adjusted (systemic, lower-body) pair for a, each
// clamped to [0, CoefficientCeiling].
func (c *Calculator) Coefficients(a *training.Activity) calibration.Coefficients {
	return c.coefficients(a, a.Text(), a.Tag != nil && *a.Tag == training.SessionRace)
}

func (c *Calculator) coefficients(a *training.Activity, text string, race bool) calibration.Coefficients {
	p := c.params
	coeff := p.Coefficients(a.Sport)
	sys, lb := coeff.Systemic, coeff.LowerBody

	if a.Sport.IsResistance() {
		switch {
		case training.HasKeyword(text, p.LegKeywords):
			lb += p.LegBonus
		case training.HasKeyword(text, p.UpperBodyKeywords):
			lb = max(lb-p.UpperBodyPenalty, p.UpperBodyFloor)
		}
	}
	if a.DistanceKm != nil && *a.DistanceKm > 0 && a.ElevationGainM != nil &&
		*a.ElevationGainM / *a.DistanceKm > p.ElevationPerKm {
		sys += p.ElevationSystemic
		lb += p.ElevationLowerBody
	}
	if a.DurationMinutes > p.LongDurationMinutes {
		sys += p.LongDurationSystemic
	}
	if race {
		sys += p.RaceSystemic
	}

	return calibration.Coefficients{
		Systemic:  clamp(sys, 0, p.CoefficientCeiling),
		LowerBody: clamp(lb, 0, p.CoefficientCeiling),
	}
}

func (c *Calculator) Classify(effortValue int, race bool) training.SessionClass {
	switch {
	case race:
		return training.SessionRace
	case effortValue <= c.params.EasyMaxEffort:
		return training.SessionEasy
	case effortValue <= c.params.ModerateMaxEffort:
		return training.SessionModerate
	case effortValue <= c.params.QualityMaxEffort:
		return training.SessionQuality
	default:
		return training.SessionRace
	}
}

func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
