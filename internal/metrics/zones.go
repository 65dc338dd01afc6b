package metrics

import "github.com/du-phan/resilio/internal/calibration"

const ZoneUnavailable = "unavailable"

const (
	ACWRUndertrained = "undertrained"
	ACWRSafe         = "safe"
	ACWRCaution      = "caution"
	ACWRDanger       = "danger"
)

type Zones struct {
	CTL  string `json:"ctl"`
	TSB  string `json:"tsb"`
	ACWR string `json:"acwr"`
}

func Classify(p *calibration.MetricsParams, m DailyMetrics) Zones {
	return Zones{
		CTL:  CTLZone(p, m.CTL),
		TSB:  TSBZone(p, m.TSB),
		ACWR: ACWRZone(p, m.ACWR),
	}
}

func CTLZone(p *calibration.MetricsParams, ctl float64) string {
	return zone(p.CTLZones, p.CTLTopZone, ctl)
}

func TSBZone(p *calibration.MetricsParams, tsb float64) string {
	return zone(p.TSBZones, p.TSBTopZone, tsb)
}

func ACWRZone(p *calibration.MetricsParams, acwr *float64) string {
	switch {
	case acwr == nil:
		return ZoneUnavailable
	case *acwr < p.ACWRUndertrained:
		return ACWRUndertrained
	case *acwr <= p.ACWRSafeMax:
		return ACWRSafe
	case *acwr <= p.ACWRCautionMax:
		return ACWRCaution
	default:
		return ACWRDanger
	}
}

func zone(bounds []calibration.ZoneBound, top string, x float64) string {
	for _, b := range bounds {
		if x < b.Below {
			return b.Name
		}
	}
	return top
}
