package metrics

import (
	"fmt"

	"github.com/du-phan/resilio/internal/calibration"
)

// Warning flags an implausible value. Warnings never block a computation.
type Warning struct {
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

func Sanity(p *calibration.MetricsParams, m DailyMetrics) []Warning {
	var out []Warning
	check := func(field string, v float64, r calibration.Range) {
		if !r.Contains(v) {
			out = append(out, Warning{
				Field:   field,
				Value:   v,
				Message: fmt.Sprintf("%s %.2f outside [%g, %g]", field, v, r.Min, r.Max),
			})
		}
	}

	check("ctl", m.CTL, p.SanityCTL)
	check("atl", m.ATL, p.SanityATL)
	check("tsb", m.TSB, p.SanityTSB)
	if m.ACWR != nil {
		check("acwr", *m.ACWR, p.SanityACWR)
	}
	if m.SystemicLoad < 0 {
		out = append(out, Warning{Field: "systemic_load", Value: m.SystemicLoad, Message: "negative daily load"})
	}
	if m.LowerBodyLoad < 0 {
		out = append(out, Warning{Field: "lower_body_load", Value: m.LowerBodyLoad, Message: "negative daily load"})
	}
	return out
}
