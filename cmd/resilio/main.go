package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/du-phan/resilio/internal/version"
)

func main() {
	_ = godotenv.Load()

	var opts rootOptions
	rootCmd := &cobra.Command{
		Use:           "resilio",
		Short:         "Training load, readiness and injury risk from your activity log",
		Version:       version.Get(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(rootCmd)

	rootCmd.AddCommand(
		athleteCmd(&opts),
		ingestCmd(&opts),
		checkInCmd(&opts),
		reportCmd(&opts),
		historyCmd(&opts),
		riskCmd(&opts),
		guardrailsCmd(&opts),
		rollForwardCmd(&opts),
		calibrationCmd(&opts),
	)

	if err := fang.Execute(context.Background(), rootCmd, fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM)); err != nil {
		os.Exit(1)
	}
}
