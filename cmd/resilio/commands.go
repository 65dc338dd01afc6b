package main

import (
	"fmt"
	"os"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/consumer"
	"github.com/du-phan/resilio/internal/guardrail"
	"github.com/du-phan/resilio/internal/training"
	"github.com/du-phan/resilio/internal/xerrors"
)

func athleteCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "athlete",
		Short: "Manage the athlete profile",
	}

	var (
		profile training.AthleteContext
		goal    string
		maxHR   int
		age     int
		vdot    float64
		target  float64
		recent  float64
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Create or update the athlete profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.requireAthlete(); err != nil {
				return err
			}
			a, ctx, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			existing, err := a.svc.Athlete(ctx, opts.athleteID)
			switch {
			case err == nil:
				profile = *existing
			case !xerrors.IsKind(err, xerrors.KindNotFound):
				return err
			}
			profile.AthleteID = opts.athleteID

			flags := cmd.Flags()
			if flags.Changed("ctl") {
				ctl, _ := flags.GetFloat64("ctl")
				profile.CTL = ctl
			}
			if flags.Changed("goal") {
				profile.Goal = training.GoalType(goal)
			}
			if flags.Changed("max-hr") {
				profile.MaxHR = &maxHR
			}
			if flags.Changed("age") {
				profile.Age = &age
			}
			if flags.Changed("vdot") {
				profile.VDOT = &vdot
			}
			if flags.Changed("weekly-target-km") {
				profile.WeeklyTargetKm = &target
			}
			if flags.Changed("recent-weekly-km") {
				profile.RecentWeeklyVolume = &recent
			}

			if err := a.svc.UpsertAthlete(ctx, &profile); err != nil {
				return err
			}
			return printJSON(os.Stdout, profile)
		},
	}
	set.Flags().Float64("ctl", 0, "current chronic training load")
	set.Flags().StringVar(&goal, "goal", "", "goal: general, 5k, 10k, half_marathon, marathon")
	set.Flags().IntVar(&maxHR, "max-hr", 0, "maximum heart rate")
	set.Flags().IntVar(&age, "age", 0, "age in years")
	set.Flags().Float64Var(&vdot, "vdot", 0, "VDOT running fitness")
	set.Flags().Float64Var(&target, "weekly-target-km", 0, "target weekly running volume")
	set.Flags().Float64Var(&recent, "recent-weekly-km", 0, "recent actual weekly running volume")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the athlete profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.requireAthlete(); err != nil {
				return err
			}
			a, ctx, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			profile, err := a.svc.Athlete(ctx, opts.athleteID)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, profile)
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}

func ingestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest activities from a JSON file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			activities, err := consumer.DecodeActivities(data)
			if err != nil {
				return err
			}
			if opts.athleteID != "" {
				for i := range activities {
					if activities[i].AthleteID == "" {
						activities[i].AthleteID = opts.athleteID
					}
				}
			}

			a, ctx, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, ingestErr := a.svc.Ingest(ctx, activities)
			if err := printJSON(os.Stdout, res); err != nil {
				return err
			}
			return ingestErr
		},
	}
}

func checkInCmd(opts *rootOptions) *cobra.Command {
	var (
		date     string
		sleep    float64
		wellness float64
		notes    string
	)
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Record sleep, wellness and notes for a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.requireAthlete(); err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			c := training.CheckIn{AthleteID: opts.athleteID, Date: day, Notes: notes}
			if cmd.Flags().Changed("sleep") {
				c.Sleep = &sleep
			}
			if cmd.Flags().Changed("wellness") {
				c.Wellness = &wellness
			}

			a, ctx, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.RecordCheckIn(ctx, &c); err != nil {
				return err
			}
			return printJSON(os.Stdout, c)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&sleep, "sleep", 0, "sleep quality 0-100")
	cmd.Flags().Float64Var(&wellness, "wellness", 0, "wellness 0-100")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes; injury and illness keywords cap readiness")
	return cmd
}

func reportCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show CTL, ATL, TSB, ACWR and readiness for a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.requireAthlete(); err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			a, ctx, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.svc.Report(ctx, opts.athleteID, day)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, report)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD, default today)")
	return cmd
}

func historyCmd(opts *rootOptions) *cobra.Command {
	var from, to string
	var days int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the daily series over a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.requireAthlete(); err != nil {
				return err
			}
			through, err := parseDay(to)
			if err != nil {
				return err
			}
			start := training.AddDays(through, -(days - 1))
			if from != "" {
				if start, err = training.ParseDay(from); err != nil {
					return err
				}
			}

			a, ctx, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			reports, err := a.svc.History(ctx, opts.athleteID, start, through)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, reports)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&days, "days", 28, "days to show when --from is not set")
	return cmd
}

func riskCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Assess injury risk for a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.requireAthlete(); err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			a, ctx, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			assessment, err := a.svc.Assess(ctx, opts.athleteID, day)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, assessment)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD, default today)")
	return cmd
}

func guardrailsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "guardrails <file>",
		Short: "Check a planned week (JSON, - for stdin) against training guardrails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireAthlete(); err != nil {
				return err
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			var week guardrail.Week
			if err := go_json.Unmarshal(data, &week); err != nil {
				return fmt.Errorf("decode week: %w", err)
			}

			a, ctx, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			violations, err := a.svc.Guardrails(ctx, opts.athleteID, &week)
			if err != nil {
				return err
			}
			if len(violations) == 0 {
				fmt.Println("No guardrail violations")
				return nil
			}
			return printJSON(os.Stdout, violations)
		},
	}
}

func rollForwardCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "rollforward",
		Short: "Extend series with rest days through a date (every athlete unless --athlete is set)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			if day.After(training.Day(time.Now())) {
				return fmt.Errorf("cannot roll forward into the future")
			}

			a, ctx, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if opts.athleteID != "" {
				change, err := a.svc.RollForward(ctx, opts.athleteID, day)
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, change)
			}
			changes, err := a.svc.RollForwardAll(ctx, day)
			if perr := printJSON(os.Stdout, changes); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "last day to fill (YYYY-MM-DD, default today)")
	return cmd
}

func calibrationCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "calibration",
		Short: "Print the effective calibration parameters as TOML",
		RunE: func(_ *cobra.Command, _ []string) error {
			params, err := opts.params()
			if err != nil {
				return err
			}
			return calibration.Encode(os.Stdout, params)
		},
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return readAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
