package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/paths"
	"github.com/du-phan/resilio/internal/pipeline"
	"github.com/du-phan/resilio/internal/storage"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xslog"
)

type rootOptions struct {
	dbPath          string
	calibrationPath string
	athleteID       string
}

func (o *rootOptions) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.dbPath, "db", "", "SQLite database path (default ~/.config/resilio/resilio.db)")
	flags.StringVar(&o.calibrationPath, "calibration", os.Getenv("CALIBRATION_FILE"), "calibration TOML file (default ~/.config/resilio/calibration.toml)")
	flags.StringVarP(&o.athleteID, "athlete", "a", os.Getenv("RESILIO_ATHLETE"), "athlete ID")
}

func (o *rootOptions) requireAthlete() error {
	if o.athleteID == "" {
		return fmt.Errorf("--athlete is required (or set RESILIO_ATHLETE)")
	}
	return nil
}

func (o *rootOptions) params() (calibration.Params, error) {
	path := o.calibrationPath
	if path == "" {
		var err error
		if path, err = paths.CalibrationFile(); err != nil {
			return calibration.Params{}, err
		}
	}
	return calibration.LoadFile(path)
}

type app struct {
	svc   *pipeline.Service
	store *storage.Store
}

func (a *app) Close() error { return a.store.Close() }

// open loads the calibration and the local store. Logs go to stderr so
// stdout stays machine-readable.
func (o *rootOptions) open(cmd *cobra.Command) (*app, context.Context, error) {
	logger := xslog.NewLoggerFromEnv(os.Stderr)
	slog.SetDefault(logger)
	ctx := xslog.WithLogger(cmd.Context(), logger)

	params, err := o.params()
	if err != nil {
		return nil, nil, err
	}

	dbPath := o.dbPath
	if dbPath == "" {
		if _, err := paths.EnsureDir(); err != nil {
			return nil, nil, err
		}
		if dbPath, err = paths.DB(); err != nil {
			return nil, nil, err
		}
	}

	store, err := storage.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}
	return &app{svc: pipeline.NewService(params, store), store: store}, ctx, nil
}

func printJSON(w io.Writer, v any) error {
	out, err := go_json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// parseDay reads a YYYY-MM-DD flag value; empty means today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return training.Day(time.Now()), nil
	}
	return training.ParseDay(s)
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
