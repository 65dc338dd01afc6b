package training

import (
	"strings"

	"github.com/du-phan/resilio/internal/validator"
)

// AthleteContext is a read-only profile snapshot supplied by the profile owner.
type AthleteContext struct {
	AthleteID          string   `json:"athlete_id"`
	CTL                float64  `json:"ctl"`
	MaxHR              *int     `json:"max_hr,omitempty"`
	VDOT               *float64 `json:"vdot,omitempty"`
	Age                *int     `json:"age,omitempty"`
	Goal               GoalType `json:"goal"`
	WeeklyTargetKm     *float64 `json:"weekly_target_km,omitempty"`
	RecentWeeklyVolume *float64 `json:"recent_weekly_km,omitempty"`
}

var _ validator.Validator = (*AthleteContext)(nil)

func (c *AthleteContext) ValidationName() string { return "athlete" }

func (c *AthleteContext) Validate() map[string]string {
	f := validator.Fields{}
	f.Check(strings.TrimSpace(c.AthleteID) != "", "athlete_id", "must not be empty")
	f.Check(c.CTL >= 0, "ctl", "must not be negative")
	if c.MaxHR != nil {
		f.Check(*c.MaxHR >= 100 && *c.MaxHR <= 250, "max_hr", "must be between 100 and 250")
	}
	if c.VDOT != nil {
		f.Check(*c.VDOT >= 20 && *c.VDOT <= 90, "vdot", "must be between 20 and 90")
	}
	if c.Age != nil {
		f.Check(*c.Age > 0 && *c.Age < 120, "age", "must be between 1 and 119")
	}
	f.Check(c.Goal == "" || c.Goal.Valid(), "goal", "unknown goal type")
	if c.WeeklyTargetKm != nil {
		f.Check(*c.WeeklyTargetKm >= 0, "weekly_target_km", "must not be negative")
	}
	if c.RecentWeeklyVolume != nil {
		f.Check(*c.RecentWeeklyVolume >= 0, "recent_weekly_km", "must not be negative")
	}
	return f.Result()
}

// GoalOrDefault treats an unset goal as general fitness.
func (c *AthleteContext) GoalOrDefault() GoalType {
	if c == nil || c.Goal == "" {
		return GoalGeneral
	}
	return c.Goal
}
