package training

import (
	"fmt"
	"strings"
	"time"

	"github.com/du-phan/resilio/internal/validator"
)

type Activity struct {
	ID              string        `json:"id"`
	AthleteID       string        `json:"athlete_id"`
	Sport           Sport         `json:"sport"`
	Date            time.Time     `json:"date"`
	DurationMinutes float64       `json:"duration_minutes"`
	DistanceKm      *float64      `json:"distance_km,omitempty"`
	AvgHR           *int          `json:"avg_hr,omitempty"`
	MaxHR           *int          `json:"max_hr,omitempty"`
	ExplicitEffort  *int          `json:"explicit_effort,omitempty"`
	RelativeEffort  *float64      `json:"relative_effort,omitempty"`
	ElevationGainM  *float64      `json:"elevation_gain_m,omitempty"`
	Name            string        `json:"name,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	Tag             *SessionClass `json:"tag,omitempty"`
}

var _ validator.Validator = (*Activity)(nil)

func (a *Activity) ValidationName() string { return "activity" }

func (a *Activity) Validate() map[string]string {
	f := validator.Fields{}
	f.Check(strings.TrimSpace(a.AthleteID) != "", "athlete_id", "must not be empty")
	f.Check(a.Sport.Valid(), "sport", fmt.Sprintf("unknown sport category %q", a.Sport))
	f.Check(!a.Date.IsZero(), "date", "must be set")
	f.Check(a.DurationMinutes > 0, "duration_minutes", "must be greater than zero")
	if a.DistanceKm != nil {
		f.Check(*a.DistanceKm >= 0, "distance_km", "must not be negative")
	}
	if a.AvgHR != nil {
		f.Check(*a.AvgHR > 0, "avg_hr", "must be greater than zero")
	}
	if a.MaxHR != nil {
		f.Check(*a.MaxHR > 0, "max_hr", "must be greater than zero")
	}
	if a.ExplicitEffort != nil {
		f.Check(*a.ExplicitEffort >= 1 && *a.ExplicitEffort <= 10, "explicit_effort", "must be between 1 and 10")
	}
	if a.RelativeEffort != nil {
		f.Check(*a.RelativeEffort >= 0, "relative_effort", "must not be negative")
	}
	if a.ElevationGainM != nil {
		f.Check(*a.ElevationGainM >= 0, "elevation_gain_m", "must not be negative")
	}
	if a.Tag != nil {
		f.Check(a.Tag.Valid(), "tag", fmt.Sprintf("unknown session class %q", *a.Tag))
	}
	return f.Result()
}

// Text is the lowercased name and notes used for keyword cues.
func (a *Activity) Text() string {
	return strings.ToLower(a.Name + " " + a.Notes)
}

// Normalize pins Date to its calendar day. Called once at ingestion.
func (a *Activity) Normalize() {
	a.Date = Day(a.Date)
	a.Sport = Sport(strings.ToLower(strings.TrimSpace(string(a.Sport))))
}
