package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/du-phan/resilio/internal/training"
)

// NewMemoryStore returns a Store that lives only as long as the process.
func NewMemoryStore() *Store {
	m := &memoryStore{
		athletes:   make(map[string]training.AthleteContext),
		activities: make(map[string]ActivityRecord),
		days:       make(map[string][]DayRecord),
		checkIns:   make(map[string]map[time.Time]training.CheckIn),
	}
	return &Store{
		Athletes:   (*memoryAthletes)(m),
		Activities: (*memoryActivities)(m),
		Metrics:    (*memoryMetrics)(m),
		CheckIns:   (*memoryCheckIns)(m),
	}
}

type memoryStore struct {
	mu         sync.RWMutex
	athletes   map[string]training.AthleteContext
	activities map[string]ActivityRecord
	days       map[string][]DayRecord
	checkIns   map[string]map[time.Time]training.CheckIn
}

type memoryAthletes memoryStore

func (m *memoryAthletes) Upsert(_ context.Context, athlete *training.AthleteContext) error {
	m.mu.Lock()
	m.athletes[athlete.AthleteID] = *athlete
	m.mu.Unlock()
	return nil
}

func (m *memoryAthletes) Get(_ context.Context, athleteID string) (*training.AthleteContext, error) {
	m.mu.RLock()
	a, ok := m.athletes[athleteID]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound("athlete", athleteID)
	}
	return &a, nil
}

func (m *memoryAthletes) List(_ context.Context) ([]training.AthleteContext, error) {
	m.mu.RLock()
	out := make([]training.AthleteContext, 0, len(m.athletes))
	for _, a := range m.athletes {
		out = append(out, a)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b training.AthleteContext) int { return cmp.Compare(a.AthleteID, b.AthleteID) })
	return out, nil
}

type memoryActivities memoryStore

func (m *memoryActivities) Upsert(_ context.Context, rec *ActivityRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.activities[rec.Activity.ID]
	m.activities[rec.Activity.ID] = *rec
	return !exists, nil
}

func (m *memoryActivities) Get(_ context.Context, id string) (*ActivityRecord, error) {
	m.mu.RLock()
	rec, ok := m.activities[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound("activity", id)
	}
	return &rec, nil
}

func (m *memoryActivities) Range(_ context.Context, athleteID string, from, through time.Time) ([]ActivityRecord, error) {
	return m.filter(athleteID, func(day time.Time) bool { return inRange(day, from, through) }), nil
}

func (m *memoryActivities) List(_ context.Context, athleteID string) ([]ActivityRecord, error) {
	return m.filter(athleteID, func(time.Time) bool { return true }), nil
}

func (m *memoryActivities) filter(athleteID string, keep func(day time.Time) bool) []ActivityRecord {
	m.mu.RLock()
	var out []ActivityRecord
	for _, rec := range m.activities {
		if rec.Activity.AthleteID == athleteID && keep(rec.Activity.Date) {
			out = append(out, rec)
		}
	}
	m.mu.RUnlock()
	slices.SortFunc(out, compareActivities)
	return out
}

func compareActivities(a, b ActivityRecord) int {
	if c := a.Activity.Date.Compare(b.Activity.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.Activity.ID, b.Activity.ID)
}

type memoryMetrics memoryStore

func (m *memoryMetrics) ReplaceFrom(_ context.Context, athleteID string, from time.Time, days []DayRecord) error {
	from = training.Day(from)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := slices.DeleteFunc(slices.Clone(m.days[athleteID]), func(d DayRecord) bool {
		return !d.Metrics.Date.Before(from)
	})
	m.days[athleteID] = append(kept, days...)
	return nil
}

func (m *memoryMetrics) Range(_ context.Context, athleteID string, from, through time.Time) ([]DayRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []DayRecord
	for _, d := range m.days[athleteID] {
		if inRange(d.Metrics.Date, from, through) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryMetrics) List(_ context.Context, athleteID string) ([]DayRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.days[athleteID]), nil
}

func (m *memoryMetrics) Latest(_ context.Context, athleteID string) (*DayRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	days := m.days[athleteID]
	if len(days) == 0 {
		return nil, notFound("metrics for athlete", athleteID)
	}
	last := days[len(days)-1]
	return &last, nil
}

type memoryCheckIns memoryStore

func (m *memoryCheckIns) Upsert(_ context.Context, c *training.CheckIn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byDay, ok := m.checkIns[c.AthleteID]
	if !ok {
		byDay = make(map[time.Time]training.CheckIn)
		m.checkIns[c.AthleteID] = byDay
	}
	stored := *c
	stored.Date = training.Day(c.Date)
	byDay[stored.Date] = stored
	return nil
}

func (m *memoryCheckIns) Range(_ context.Context, athleteID string, from, through time.Time) ([]training.CheckIn, error) {
	m.mu.RLock()
	var out []training.CheckIn
	for day, c := range m.checkIns[athleteID] {
		if inRange(day, from, through) {
			out = append(out, c)
		}
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b training.CheckIn) int { return a.Date.Compare(b.Date) })
	return out, nil
}
