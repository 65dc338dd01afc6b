package calibration

import "github.com/du-phan/resilio/internal/training"

// Coefficients returns the sport's pair, falling back to the "other" entry.
func (p *LoadParams) Coefficients(s training.Sport) Coefficients {
	if c, ok := p.Sports[string(s)]; ok {
		return c
	}
	return p.Sports[string(training.SportOther)]
}

func (p *LoadParams) IntensityFactor(effort int) float64 {
	if effort < 1 || effort > len(p.IntensityFactors) {
		return p.DefaultIntensityFactor
	}
	return p.IntensityFactors[effort-1]
}

func (p *EffortParams) SportDefault(s training.Sport) int {
	if v, ok := p.SportDefaults[string(s)]; ok {
		return v
	}
	return p.FallbackDefault
}

// VolumeBand picks the first band whose CTL bound exceeds ctl; the last band
// has no upper bound.
func (p *GuardrailParams) VolumeBand(ctl float64) VolumeBand {
	for i, b := range p.VolumeBands {
		if i == len(p.VolumeBands)-1 || ctl < b.BelowCTL {
			return b
		}
	}
	return VolumeBand{}
}

func (p *GuardrailParams) GoalMultiplier(g training.GoalType) float64 {
	if m, ok := p.GoalMultipliers[string(g)]; ok {
		return m
	}
	return 1
}
