package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/du-phan/resilio/internal/migrations"
	"github.com/du-phan/resilio/internal/migrations/postgres"
	"github.com/du-phan/resilio/internal/paths"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: "Apply pending migrations to PostgreSQL when --database-url (or DATABASE_URL) is set, " +
			"otherwise to the local SQLite database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}

			var (
				applied []string
				err     error
			)
			if databaseURL != "" {
				applied, err = migratePostgres(cmd, databaseURL)
			} else {
				applied, err = migrateSQLite(cmd)
			}
			if err != nil {
				return err
			}

			if len(applied) == 0 {
				fmt.Println("Database is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Printf("Applied %s\n", name)
			}
			fmt.Println("Migrations applied successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL")
	return cmd
}

func migratePostgres(cmd *cobra.Command, url string) ([]string, error) {
	pool, err := pgxpool.New(cmd.Context(), url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()
	return postgres.Apply(cmd.Context(), pool)
}

func migrateSQLite(cmd *cobra.Command) ([]string, error) {
	if _, err := paths.EnsureDir(); err != nil {
		return nil, err
	}
	dbPath, err := paths.DB()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer func() {
		_ = db.Close()
	}()
	return migrations.Apply(cmd.Context(), db)
}
