package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/du-phan/resilio/internal/migrations/postgres"
	"github.com/du-phan/resilio/internal/training"
	go_json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenPostgres connects to url and applies pending migrations.
func OpenPostgres(ctx context.Context, url string) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	if _, err := postgres.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return NewPostgresStore(pool), pool, nil
}

func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Athletes:   &pgAthletes{pool: pool},
		Activities: &pgActivities{pool: pool},
		Metrics:    &pgMetrics{pool: pool},
		CheckIns:   &pgCheckIns{pool: pool},
		closer: func() error {
			pool.Close()
			return nil
		},
	}
}

type pgAthletes struct {
	pool *pgxpool.Pool
}

func (r *pgAthletes) Upsert(ctx context.Context, a *training.AthleteContext) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO athletes (athlete_id, ctl, max_hr, vdot, age, goal, weekly_target_km, recent_weekly_km, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (athlete_id) DO UPDATE SET
			ctl = EXCLUDED.ctl,
			max_hr = EXCLUDED.max_hr,
			vdot = EXCLUDED.vdot,
			age = EXCLUDED.age,
			goal = EXCLUDED.goal,
			weekly_target_km = EXCLUDED.weekly_target_km,
			recent_weekly_km = EXCLUDED.recent_weekly_km,
			updated_at = NOW()`,
		a.AthleteID, a.CTL, a.MaxHR, a.VDOT, a.Age, string(a.GoalOrDefault()), a.WeeklyTargetKm, a.RecentWeeklyVolume,
	)
	if err != nil {
		return fmt.Errorf("upsert athlete: %w", err)
	}
	return nil
}

func (r *pgAthletes) Get(ctx context.Context, athleteID string) (*training.AthleteContext, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+athleteColumns+` FROM athletes WHERE athlete_id = $1`, athleteID)
	a, err := scanAthlete(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("athlete", athleteID)
	}
	if err != nil {
		return nil, fmt.Errorf("get athlete: %w", err)
	}
	return a, nil
}

func (r *pgAthletes) List(ctx context.Context) ([]training.AthleteContext, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+athleteColumns+` FROM athletes ORDER BY athlete_id`)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	defer rows.Close()

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

type pgActivities struct {
	pool *pgxpool.Pool
}

func (r *pgActivities) Upsert(ctx context.Context, rec *ActivityRecord) (bool, error) {
	data, err := go_json.Marshal(rec.Activity)
	if err != nil {
		return false, fmt.Errorf("marshal activity: %w", err)
	}

	// xmax is zero only for a freshly inserted row
	var inserted bool
	err = r.pool.QueryRow(ctx, `
		INSERT INTO activities (id, athlete_id, date, sport, activity_json, effort, effort_source, effort_confidence,
			base_effort, systemic_load, lower_body_load, class, interval_adjusted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			athlete_id = EXCLUDED.athlete_id,
			date = EXCLUDED.date,
			sport = EXCLUDED.sport,
			activity_json = EXCLUDED.activity_json,
			effort = EXCLUDED.effort,
			effort_source = EXCLUDED.effort_source,
			effort_confidence = EXCLUDED.effort_confidence,
			base_effort = EXCLUDED.base_effort,
			systemic_load = EXCLUDED.systemic_load,
			lower_body_load = EXCLUDED.lower_body_load,
			class = EXCLUDED.class,
			interval_adjusted = EXCLUDED.interval_adjusted
		RETURNING (xmax = 0)`,
		rec.Activity.ID, rec.Activity.AthleteID, training.Day(rec.Activity.Date), string(rec.Activity.Sport), data,
		rec.Effort.Value, string(rec.Effort.Source), string(rec.Effort.Confidence),
		rec.Load.BaseEffort, rec.Load.SystemicLoad, rec.Load.LowerBodyLoad, string(rec.Load.Class), rec.Load.IntervalAdjusted,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert activity: %w", err)
	}
	return inserted, nil
}

func (r *pgActivities) Get(ctx context.Context, id string) (*ActivityRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id)
	rec, err := scanActivity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("activity", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return rec, nil
}

func (r *pgActivities) Range(ctx context.Context, athleteID string, from, through time.Time) ([]ActivityRecord, error) {
	return r.query(ctx, `SELECT `+activityColumns+` FROM activities
		WHERE athlete_id = $1 AND date >= $2 AND date <= $3 ORDER BY date, id`,
		athleteID, training.Day(from), training.Day(through))
}

func (r *pgActivities) List(ctx context.Context, athleteID string) ([]ActivityRecord, error) {
	return r.query(ctx, `SELECT `+activityColumns+` FROM activities WHERE athlete_id = $1 ORDER BY date, id`, athleteID)
}

func (r *pgActivities) query(ctx context.Context, query string, args ...any) ([]ActivityRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

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

type pgMetrics struct {
	pool *pgxpool.Pool
}

func (r *pgMetrics) ReplaceFrom(ctx context.Context, athleteID string, from time.Time, days []DayRecord) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM daily_metrics WHERE athlete_id = $1 AND date >= $2`,
			athleteID, training.Day(from)); err != nil {
			return fmt.Errorf("truncate metrics: %w", err)
		}

		batch := &pgx.Batch{}
		for _, d := range days {
			readinessJSON, err := go_json.Marshal(d.Readiness)
			if err != nil {
				return fmt.Errorf("marshal readiness: %w", err)
			}
			m := d.Metrics
			batch.Queue(`
				INSERT INTO daily_metrics (athlete_id, date, systemic_load, lower_body_load, ctl, atl, tsb, acwr,
					baseline_established, readiness_score, readiness_level, readiness_json, calibration_version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				athleteID, m.Date, m.SystemicLoad, m.LowerBodyLoad, m.CTL, m.ATL, m.TSB, m.ACWR,
				m.BaselineEstablished, d.Readiness.Score, string(d.Readiness.Level), readinessJSON, d.CalibrationVersion)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert metrics: %w", err)
		}
		return nil
	})
}

func (r *pgMetrics) Range(ctx context.Context, athleteID string, from, through time.Time) ([]DayRecord, error) {
	return r.query(ctx, `SELECT `+dayColumns+` FROM daily_metrics
		WHERE athlete_id = $1 AND date >= $2 AND date <= $3 ORDER BY date`,
		athleteID, training.Day(from), training.Day(through))
}

func (r *pgMetrics) List(ctx context.Context, athleteID string) ([]DayRecord, error) {
	return r.query(ctx, `SELECT `+dayColumns+` FROM daily_metrics WHERE athlete_id = $1 ORDER BY date`, athleteID)
}

func (r *pgMetrics) Latest(ctx context.Context, athleteID string) (*DayRecord, error) {
	days, err := r.query(ctx, `SELECT `+dayColumns+` FROM daily_metrics WHERE athlete_id = $1 ORDER BY date DESC LIMIT 1`, athleteID)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, notFound("metrics for athlete", athleteID)
	}
	return &days[0], nil
}

func (r *pgMetrics) query(ctx context.Context, query string, args ...any) ([]DayRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []DayRecord
	for rows.Next() {
		var (
			d     DayRecord
			rjson []byte
		)
		m := &d.Metrics
		if err := rows.Scan(&m.Date, &m.SystemicLoad, &m.LowerBodyLoad, &m.CTL, &m.ATL, &m.TSB, &m.ACWR,
			&m.BaselineEstablished, &rjson, &d.CalibrationVersion); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		m.Date = training.Day(m.Date)
		if err := go_json.Unmarshal(rjson, &d.Readiness); err != nil {
			return nil, fmt.Errorf("unmarshal readiness: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type pgCheckIns struct {
	pool *pgxpool.Pool
}

func (r *pgCheckIns) Upsert(ctx context.Context, c *training.CheckIn) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO check_ins (athlete_id, date, sleep, wellness, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (athlete_id, date) DO UPDATE SET
			sleep = EXCLUDED.sleep,
			wellness = EXCLUDED.wellness,
			notes = EXCLUDED.notes`,
		c.AthleteID, training.Day(c.Date), c.Sleep, c.Wellness, c.Notes,
	)
	if err != nil {
		return fmt.Errorf("upsert check-in: %w", err)
	}
	return nil
}

func (r *pgCheckIns) Range(ctx context.Context, athleteID string, from, through time.Time) ([]training.CheckIn, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, sleep, wellness, notes FROM check_ins
		WHERE athlete_id = $1 AND date >= $2 AND date <= $3 ORDER BY date`,
		athleteID, training.Day(from), training.Day(through))
	if err != nil {
		return nil, fmt.Errorf("query check-ins: %w", err)
	}
	defer rows.Close()

	var out []training.CheckIn
	for rows.Next() {
		c := training.CheckIn{AthleteID: athleteID}
		if err := rows.Scan(&c.Date, &c.Sleep, &c.Wellness, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		c.Date = training.Day(c.Date)
		out = append(out, c)
	}
	return out, rows.Err()
}
