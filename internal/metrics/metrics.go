// Package metrics maintains the per-athlete CTL/ATL/TSB/ACWR series.
//
// Every record is a pure function of its predecessor and that day's load, so
// the series is only ever extended or truncated and recomputed from a date
// forward, never edited in place.
package metrics

import (
	"time"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/training"
)

type DailyMetrics struct {
	Date                time.Time `json:"date"`
	SystemicLoad        float64   `json:"systemic_load"`
	LowerBodyLoad       float64   `json:"lower_body_load"`
	CTL                 float64   `json:"ctl"`
	ATL                 float64   `json:"atl"`
	TSB                 float64   `json:"tsb"`
	ACWR                *float64  `json:"acwr"`
	BaselineEstablished bool      `json:"baseline_established"`
}

type Aggregator struct {
	params *calibration.MetricsParams
}

func NewAggregator(params *calibration.MetricsParams) *Aggregator {
	return &Aggregator{params: params}
}

// Recompute brings s up to date for a load change on from and returns the
// rewritten suffix. Records on or after the effective start are discarded and
// rebuilt day by day through max(through, previous last day).
//
// The start moves earlier when from lies before the series origin, inside the
// cold-start seed window (the seed averages those days), or past a gap at the
// end of the series.
func (a *Aggregator) Recompute(s *Series, l *Ledger, from, through time.Time) ([]DailyMetrics, error) {
	from, through = training.Day(from), training.Day(through)

	origin, start := a.plan(s, l, from)
	if last, ok := s.Last(); ok && last.Date.After(through) {
		through = last.Date
	}
	if start.After(through) {
		return nil, nil
	}

	seed := a.Seed(l, origin, through)
	s.Truncate(start)

	out := make([]DailyMetrics, 0, training.DaysBetween(start, through)+1)
	for day := start; !day.After(through); day = training.AddDays(day, 1) {
		var prev *DailyMetrics
		if last, ok := s.Last(); ok {
			prev = &last
		}
		rec := a.Next(s, prev, seed, day, l.Load(day))
		if err := s.Append(rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *Aggregator) plan(s *Series, l *Ledger, from time.Time) (origin, start time.Time) {
	first, hasSeries := s.First()
	if !hasSeries {
		origin = from
		if ledgerFirst, ok := l.First(); ok && ledgerFirst.Before(origin) {
			origin = ledgerFirst
		}
		return origin, origin
	}

	origin = first.Date
	if from.Before(origin) {
		if ledgerFirst, ok := l.First(); ok && ledgerFirst.Before(from) {
			from = ledgerFirst
		}
		return from, from
	}
	if training.DaysBetween(origin, from) < a.params.ColdStartDays {
		return origin, origin
	}
	last, _ := s.Last()
	if next := training.AddDays(last.Date, 1); from.After(next) {
		return origin, next
	}
	return origin, from
}

// Seed is the cold-start prior for CTL and ATL: the mean systemic load over
// the first ColdStartDays known days from origin, days without activity
// counting as zero. A shorter known range averages what exists.
func (a *Aggregator) Seed(l *Ledger, origin, through time.Time) float64 {
	days := min(a.params.ColdStartDays, training.DaysBetween(origin, through)+1)
	if days <= 0 {
		return 0
	}
	var sum float64
	for i := range days {
		sum += l.Load(training.AddDays(origin, i)).Systemic
	}
	return sum / float64(days)
}

// Next computes day's record from prev. With no predecessor the seed stands
// in for both CTL and ATL. history must hold every record before day.
func (a *Aggregator) Next(history *Series, prev *DailyMetrics, seed float64, day time.Time, dl DayLoad) DailyMetrics {
	prevCTL, prevATL := seed, seed
	if prev != nil {
		prevCTL, prevATL = prev.CTL, prev.ATL
	}

	ctl := prevCTL*(1-a.params.CTLAlpha) + dl.Systemic*a.params.CTLAlpha
	atl := prevATL*(1-a.params.ATLAlpha) + dl.Systemic*a.params.ATLAlpha

	return DailyMetrics{
		Date:                day,
		SystemicLoad:        dl.Systemic,
		LowerBodyLoad:       dl.LowerBody,
		CTL:                 ctl,
		ATL:                 atl,
		TSB:                 ctl - atl,
		ACWR:                a.ACWR(history, day),
		BaselineEstablished: a.BaselineEstablished(history, day),
	}
}

// ACWR is nil unless all ChronicDays preceding day have records, or when the
// chronic mean is zero.
func (a *Aggregator) ACWR(history *Series, day time.Time) *float64 {
	chronic := history.Before(day, a.params.ChronicDays)
	if len(chronic) < a.params.ChronicDays {
		return nil
	}
	acute := chronic[len(chronic)-a.params.AcuteDays:]

	chronicMean := meanSystemic(chronic)
	if chronicMean == 0 {
		return nil
	}
	ratio := meanSystemic(acute) / chronicMean
	return &ratio
}

func (a *Aggregator) BaselineEstablished(history *Series, day time.Time) bool {
	return len(history.Before(day, a.params.BaselineWindowDays)) >= a.params.BaselineMinDays
}

func meanSystemic(records []DailyMetrics) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.SystemicLoad
	}
	return sum / float64(len(records))
}
