package training

import (
	"strings"
	"time"

	"github.com/du-phan/resilio/internal/validator"
)

// CheckIn holds an athlete's subjective morning inputs for one day.
type CheckIn struct {
	AthleteID string    `json:"athlete_id"`
	Date      time.Time `json:"date"`
	Sleep     *float64  `json:"sleep,omitempty"`
	Wellness  *float64  `json:"wellness,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

var _ validator.Validator = (*CheckIn)(nil)

func (c *CheckIn) ValidationName() string { return "check-in" }

func (c *CheckIn) Validate() map[string]string {
	f := validator.Fields{}
	f.Check(strings.TrimSpace(c.AthleteID) != "", "athlete_id", "must not be empty")
	f.Check(!c.Date.IsZero(), "date", "must be set")
	if c.Sleep != nil {
		f.Check(*c.Sleep >= 0 && *c.Sleep <= 100, "sleep", "must be between 0 and 100")
	}
	if c.Wellness != nil {
		f.Check(*c.Wellness >= 0 && *c.Wellness <= 100, "wellness", "must be between 0 and 100")
	}
	f.Check(c.Sleep != nil || c.Wellness != nil || c.Notes != "", "check-in", "must carry sleep, wellness or notes")
	return f.Result()
}
