package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/du-phan/resilio/internal/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var migrationsFS embed.FS

// Apply runs every pending migration and returns the names it applied.
func Apply(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	if err := createHistoryTable(ctx, pool); err != nil {
		return nil, err
	}

	files, err := Files()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, filename := range files {
		done, err := isMigrationApplied(ctx, pool, filename)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+filename)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			for _, stmt := range migrations.Statements(string(content)) {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute migration %s: %w", filename, err)
				}
			}
			_, err := tx.Exec(ctx, "INSERT INTO migrations_history (name) VALUES ($1)", filename)
			return err
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, filename)
	}

	return applied, nil
}

func Files() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

func createHistoryTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS migrations_history (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	return err
}

func isMigrationApplied(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM migrations_history WHERE name = $1", name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
