// Package migrations applies the embedded SQLite schema in filename order,
// recording each file in migrations_history.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var migrationsFS embed.FS

// Apply runs every pending migration and returns the names it applied.
// Each file runs in its own transaction together with its history row.
func Apply(ctx context.Context, db *sql.DB) ([]string, error) {
	if err := createHistoryTable(ctx, db); err != nil {
		return nil, err
	}

	files, err := Files()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, filename := range files {
		done, err := isMigrationApplied(ctx, db, filename)
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

		if err := applyOne(ctx, db, filename, string(content)); err != nil {
			return applied, err
		}
		applied = append(applied, filename)
	}

	return applied, nil
}

// Files lists the embedded migration names in apply order.
func Files() ([]string, error) {
	return list(migrationsFS, migrationsDir)
}

func list(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Statements splits a migration file on ";" and drops blank statements.
func Statements(content string) []string {
	var out []string
	for stmt := range strings.SplitSeq(content, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || isComment(stmt) {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func isComment(stmt string) bool {
	for line := range strings.SplitSeq(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}

func applyOne(ctx context.Context, db *sql.DB, filename, content string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration %s: %w", filename, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range Statements(content) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO migrations_history (name) VALUES (?)", filename); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %s: %w", filename, err)
	}
	return nil
}

func createHistoryTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating migrations history table: %w", err)
	}
	return nil
}

func isMigrationApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations_history WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking if migration applied: %w", err)
	}
	return count > 0, nil
}
