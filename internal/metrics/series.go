package metrics

import (
	"fmt"
	"time"

	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
)

// Series is one athlete's contiguous, strictly chronological metrics log.
// Records are only ever appended or truncated from a date forward.
type Series struct {
	records []DailyMetrics
}

// NewSeries adopts persisted records, rejecting gaps or disorder.
func NewSeries(records []DailyMetrics) (*Series, error) {
	s := &Series{records: make([]DailyMetrics, 0, len(records))}
	for _, r := range records {
		if err := s.Append(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Series) Append(r DailyMetrics) error {
	r.Date = training.Day(r.Date)
	if last, ok := s.Last(); ok {
		if want := training.AddDays(last.Date, 1); !r.Date.Equal(want) {
			return xerrors.ContractViolation(xerrors.WithMessage(fmt.Sprintf(
				"metrics for %s appended after %s, want %s",
				training.FormatDay(r.Date), training.FormatDay(last.Date), training.FormatDay(want),
			)))
		}
	}
	s.records = append(s.records, r)
	return nil
}

func (s *Series) Len() int { return len(s.records) }

func (s *Series) First() (DailyMetrics, bool) {
	if len(s.records) == 0 {
		return DailyMetrics{}, false
	}
	return s.records[0], true
}

func (s *Series) Last() (DailyMetrics, bool) {
	if len(s.records) == 0 {
		return DailyMetrics{}, false
	}
	return s.records[len(s.records)-1], true
}

func (s *Series) index(day time.Time) int {
	first, ok := s.First()
	if !ok {
		return -1
	}
	i := training.DaysBetween(first.Date, training.Day(day))
	if i < 0 || i >= len(s.records) {
		return -1
	}
	return i
}

func (s *Series) At(day time.Time) (DailyMetrics, bool) {
	i := s.index(day)
	if i < 0 {
		return DailyMetrics{}, false
	}
	return s.records[i], true
}

// Truncate drops every record on or after from.
func (s *Series) Truncate(from time.Time) {
	first, ok := s.First()
	if !ok {
		return
	}
	n := training.DaysBetween(first.Date, training.Day(from))
	switch {
	case n <= 0:
		s.records = s.records[:0]
	case n < len(s.records):
		s.records = s.records[:n]
	}
}

// Before returns up to n records immediately preceding day, oldest first.
// It returns fewer than n when the series starts later.
func (s *Series) Before(day time.Time, n int) []DailyMetrics {
	first, ok := s.First()
	if !ok {
		return nil
	}
	end := min(training.DaysBetween(first.Date, training.Day(day)), len(s.records))
	if end <= 0 {
		return nil
	}
	start := max(0, end-n)
	return s.records[start:end]
}

// Range returns the records in [from, through], oldest first.
func (s *Series) Range(from, through time.Time) []DailyMetrics {
	var out []DailyMetrics
	for _, r := range s.records {
		if r.Date.Before(training.Day(from)) || r.Date.After(training.Day(through)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *Series) Records() []DailyMetrics {
	out := make([]DailyMetrics, len(s.records))
	copy(out, s.records)
	return out
}
