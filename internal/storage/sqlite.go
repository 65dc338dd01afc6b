package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/du-phan/resilio/internal/migrations"
	"github.com/du-phan/resilio/internal/training"
	go_json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (creating if needed) the database file at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single connection keeps writes serialized within the process
	db.SetMaxOpenConns(1)

	if _, err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return NewSQLiteStore(db), nil
}

func NewSQLiteStore(db *sql.DB) *Store {
	return &Store{
		Athletes:   &sqliteAthletes{db: db},
		Activities: &sqliteActivities{db: db},
		Metrics:    &sqliteMetrics{db: db},
		CheckIns:   &sqliteCheckIns{db: db},
		closer:     db.Close,
	}
}

type sqliteAthletes struct {
	db *sql.DB
}

func (r *sqliteAthletes) Upsert(ctx context.Context, a *training.AthleteContext) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO athletes (athlete_id, ctl, max_hr, vdot, age, goal, weekly_target_km, recent_weekly_km, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (athlete_id) DO UPDATE SET
			ctl = excluded.ctl,
			max_hr = excluded.max_hr,
			vdot = excluded.vdot,
			age = excluded.age,
			goal = excluded.goal,
			weekly_target_km = excluded.weekly_target_km,
			recent_weekly_km = excluded.recent_weekly_km,
			updated_at = CURRENT_TIMESTAMP`,
		a.AthleteID, a.CTL, a.MaxHR, a.VDOT, a.Age, string(a.GoalOrDefault()), a.WeeklyTargetKm, a.RecentWeeklyVolume,
	)
	if err != nil {
		return fmt.Errorf("upsert athlete: %w", err)
	}
	return nil
}

const athleteColumns = `athlete_id, ctl, max_hr, vdot, age, goal, weekly_target_km, recent_weekly_km`

func (r *sqliteAthletes) Get(ctx context.Context, athleteID string) (*training.AthleteContext, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+athleteColumns+` FROM athletes WHERE athlete_id = ?`, athleteID)
	a, err := scanAthlete(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("athlete", athleteID)
	}
	if err != nil {
		return nil, fmt.Errorf("get athlete: %w", err)
	}
	return a, nil
}

func (r *sqliteAthletes) List(ctx context.Context) ([]training.AthleteContext, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+athleteColumns+` FROM athletes ORDER BY athlete_id`)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []training.AthleteContext
	for rows.Next() {
		a, err := scanAthlete(rows)
		if err != nil {
			return nil, fmt.Errorf("scan athlete: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAthlete(s scanner) (*training.AthleteContext, error) {
	var (
		a    training.AthleteContext
		goal string
	)
	if err := s.Scan(&a.AthleteID, &a.CTL, &a.MaxHR, &a.VDOT, &a.Age, &goal, &a.WeeklyTargetKm, &a.RecentWeeklyVolume); err != nil {
		return nil, err
	}
	a.Goal = training.GoalType(goal)
	return &a, nil
}

type sqliteActivities struct {
	db *sql.DB
}

func (r *sqliteActivities) Upsert(ctx context.Context, rec *ActivityRecord) (bool, error) {
	data, err := go_json.Marshal(rec.Activity)
	if err != nil {
		return false, fmt.Errorf("marshal activity: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities WHERE id = ?`, rec.Activity.ID).Scan(&count); err != nil {
		return false, fmt.Errorf("check activity: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities (id, athlete_id, date, sport, activity_json, effort, effort_source, effort_confidence,
			base_effort, systemic_load, lower_body_load, class, interval_adjusted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			date = excluded.date,
			sport = excluded.sport,
			activity_json = excluded.activity_json,
			effort = excluded.effort,
			effort_source = excluded.effort_source,
			effort_confidence = excluded.effort_confidence,
			base_effort = excluded.base_effort,
			systemic_load = excluded.systemic_load,
			lower_body_load = excluded.lower_body_load,
			class = excluded.class,
			interval_adjusted = excluded.interval_adjusted`,
		rec.Activity.ID, rec.Activity.AthleteID, training.FormatDay(rec.Activity.Date), string(rec.Activity.Sport), string(data),
		rec.Effort.Value, string(rec.Effort.Source), string(rec.Effort.Confidence),
		rec.Load.BaseEffort, rec.Load.SystemicLoad, rec.Load.LowerBodyLoad, string(rec.Load.Class), rec.Load.IntervalAdjusted,
	)
	if err != nil {
		return false, fmt.Errorf("upsert activity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return count == 0, nil
}

const activityColumns = `activity_json, effort, effort_source, effort_confidence, base_effort, systemic_load, lower_body_load, class, interval_adjusted`

func (r *sqliteActivities) Get(ctx context.Context, id string) (*ActivityRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	rec, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("activity", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return rec, nil
}

func (r *sqliteActivities) Range(ctx context.Context, athleteID string, from, through time.Time) ([]ActivityRecord, error) {
	return r.query(ctx, `SELECT `+activityColumns+` FROM activities
		WHERE athlete_id = ? AND date >= ? AND date <= ? ORDER BY date, id`,
		athleteID, training.FormatDay(from), training.FormatDay(through))
}

func (r *sqliteActivities) List(ctx context.Context, athleteID string) ([]ActivityRecord, error) {
	return r.query(ctx, `SELECT `+activityColumns+` FROM activities WHERE athlete_id = ? ORDER BY date, id`, athleteID)
}

func (r *sqliteActivities) query(ctx context.Context, query string, args ...any) ([]ActivityRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ActivityRecord
	for rows.Next() {
		rec, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanActivity(s scanner) (*ActivityRecord, error) {
	var (
		data                string
		source, conf, class string
		rec                 ActivityRecord
	)
	err := s.Scan(&data, &rec.Effort.Value, &source, &conf,
		&rec.Load.BaseEffort, &rec.Load.SystemicLoad, &rec.Load.LowerBodyLoad, &class, &rec.Load.IntervalAdjusted)
	if err != nil {
		return nil, err
	}
	if err := go_json.Unmarshal([]byte(data), &rec.Activity); err != nil {
		return nil, fmt.Errorf("unmarshal activity: %w", err)
	}
	fillDerived(&rec, source, conf, class)
	return &rec, nil
}

type sqliteMetrics struct {
	db *sql.DB
}

func (r *sqliteMetrics) ReplaceFrom(ctx context.Context, athleteID string, from time.Time, days []DayRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_metrics WHERE athlete_id = ? AND date >= ?`,
		athleteID, training.FormatDay(from)); err != nil {
		return fmt.Errorf("truncate metrics: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_metrics (athlete_id, date, systemic_load, lower_body_load, ctl, atl, tsb, acwr,
			baseline_established, readiness_score, readiness_level, readiness_json, calibration_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare metrics insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range days {
		readinessJSON, err := go_json.Marshal(d.Readiness)
		if err != nil {
			return fmt.Errorf("marshal readiness: %w", err)
		}
		m := d.Metrics
		_, err = stmt.ExecContext(ctx, athleteID, training.FormatDay(m.Date), m.SystemicLoad, m.LowerBodyLoad,
			m.CTL, m.ATL, m.TSB, m.ACWR, m.BaselineEstablished,
			d.Readiness.Score, string(d.Readiness.Level), string(readinessJSON), d.CalibrationVersion)
		if err != nil {
			return fmt.Errorf("insert metrics for %s: %w", training.FormatDay(m.Date), err)
		}
	}
	return tx.Commit()
}

const dayColumns = `date, systemic_load, lower_body_load, ctl, atl, tsb, acwr, baseline_established, readiness_json, calibration_version`

func (r *sqliteMetrics) Range(ctx context.Context, athleteID string, from, through time.Time) ([]DayRecord, error) {
	return r.query(ctx, `SELECT `+dayColumns+` FROM daily_metrics
		WHERE athlete_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		athleteID, training.FormatDay(from), training.FormatDay(through))
}

func (r *sqliteMetrics) List(ctx context.Context, athleteID string) ([]DayRecord, error) {
	return r.query(ctx, `SELECT `+dayColumns+` FROM daily_metrics WHERE athlete_id = ? ORDER BY date`, athleteID)
}

func (r *sqliteMetrics) Latest(ctx context.Context, athleteID string) (*DayRecord, error) {
	days, err := r.query(ctx, `SELECT `+dayColumns+` FROM daily_metrics WHERE athlete_id = ? ORDER BY date DESC LIMIT 1`, athleteID)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, notFound("metrics for athlete", athleteID)
	}
	return &days[0], nil
}

func (r *sqliteMetrics) query(ctx context.Context, query string, args ...any) ([]DayRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DayRecord
	for rows.Next() {
		var (
			d           DayRecord
			date, rjson string
		)
		m := &d.Metrics
		if err := rows.Scan(&date, &m.SystemicLoad, &m.LowerBodyLoad, &m.CTL, &m.ATL, &m.TSB, &m.ACWR,
			&m.BaselineEstablished, &rjson, &d.CalibrationVersion); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		if m.Date, err = training.ParseDay(date); err != nil {
			return nil, err
		}
		if err := go_json.Unmarshal([]byte(rjson), &d.Readiness); err != nil {
			return nil, fmt.Errorf("unmarshal readiness: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type sqliteCheckIns struct {
	db *sql.DB
}

func (r *sqliteCheckIns) Upsert(ctx context.Context, c *training.CheckIn) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO check_ins (athlete_id, date, sleep, wellness, notes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (athlete_id, date) DO UPDATE SET
			sleep = excluded.sleep,
			wellness = excluded.wellness,
			notes = excluded.notes`,
		c.AthleteID, training.FormatDay(c.Date), c.Sleep, c.Wellness, c.Notes,
	)
	if err != nil {
		return fmt.Errorf("upsert check-in: %w", err)
	}
	return nil
}

func (r *sqliteCheckIns) Range(ctx context.Context, athleteID string, from, through time.Time) ([]training.CheckIn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, sleep, wellness, notes FROM check_ins
		WHERE athlete_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		athleteID, training.FormatDay(from), training.FormatDay(through))
	if err != nil {
		return nil, fmt.Errorf("query check-ins: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []training.CheckIn
	for rows.Next() {
		c := training.CheckIn{AthleteID: athleteID}
		var date string
		if err := rows.Scan(&date, &c.Sleep, &c.Wellness, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		if c.Date, err = training.ParseDay(date); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
