package metrics

import (
	"time"

	"github.com/du-phan/resilio/internal/load"
	"github.com/du-phan/resilio/internal/training"
)

type DayLoad struct {
	Systemic  float64 `json:"systemic"`
	LowerBody float64 `json:"lower_body"`
}

// Ledger sums activity loads per calendar day for one athlete.
type Ledger struct {
	days  map[time.Time]DayLoad
	first time.Time
	last  time.Time
}

func NewLedger(loads ...load.ActivityLoad) *Ledger {
	l := &Ledger{days: make(map[time.Time]DayLoad)}
	for _, ld := range loads {
		l.Add(ld)
	}
	return l
}

func (l *Ledger) Add(ld load.ActivityLoad) {
	day := training.Day(ld.Date)
	cur := l.days[day]
	cur.Systemic += ld.SystemicLoad
	cur.LowerBody += ld.LowerBodyLoad
	l.days[day] = cur

	if l.first.IsZero() || day.Before(l.first) {
		l.first = day
	}
	if day.After(l.last) {
		l.last = day
	}
}

// Load returns the day's totals; days without activity are zero.
func (l *Ledger) Load(day time.Time) DayLoad {
	return l.days[training.Day(day)]
}

// First returns the earliest day with any activity.
func (l *Ledger) First() (time.Time, bool) {
	return l.first, !l.first.IsZero()
}

func (l *Ledger) Last() (time.Time, bool) {
	return l.last, !l.last.IsZero()
}
