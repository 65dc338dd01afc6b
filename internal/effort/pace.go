package effort

import (
	"math"

	"github.com/du-phan/resilio/internal/calibration"
)

// ZoneSlower names paces beyond the easy zone margin.
const ZoneSlower = "slower"

// Daniels & Gilbert oxygen cost of running, VO2 = c + b*v + a*v^2 with v in m/min.
const (
	oxygenCostA = 0.000104
	oxygenCostB = 0.182258
	oxygenCostC = -4.60
)

// TempoPace returns the tempo anchor in seconds per km: the velocity whose
// oxygen cost equals fraction of VDOT.
func TempoPace(vdot, fraction float64) float64 {
	target := vdot * fraction
	c := oxygenCostC - target
	v := (-oxygenCostB + math.Sqrt(oxygenCostB*oxygenCostB-4*oxygenCostA*c)) / (2 * oxygenCostA)
	return 60 * 1000 / v
}

type PaceZone struct {
	Name    string  `json:"name"`
	PaceSec float64 `json:"pace_sec_per_km"`
	Effort  int     `json:"effort"`
}

// Zones returns the athlete's zone paces, fastest first in table order.
func Zones(p *calibration.PaceParams, vdot float64) []PaceZone {
	tempo := TempoPace(vdot, p.TempoFraction)
	out := make([]PaceZone, len(p.Zones))
	for i, z := range p.Zones {
		out[i] = PaceZone{Name: z.Name, PaceSec: tempo + z.OffsetSec, Effort: z.Effort}
	}
	return out
}

// ClassifyPace maps a pace to the nearest zone; ties go to the faster zone.
func ClassifyPace(p *calibration.PaceParams, vdot, paceSec float64) PaceZone {
	zones := Zones(p, vdot)

	slowest := zones[0]
	for _, z := range zones[1:] {
		if z.PaceSec > slowest.PaceSec {
			slowest = z
		}
	}
	if paceSec > slowest.PaceSec+p.SlowerMarginSec {
		return PaceZone{Name: ZoneSlower, PaceSec: paceSec, Effort: p.SlowerEffort}
	}

	best := zones[0]
	for _, z := range zones[1:] {
		if math.Abs(paceSec-z.PaceSec) < math.Abs(paceSec-best.PaceSec) {
			best = z
		}
	}
	return best
}
