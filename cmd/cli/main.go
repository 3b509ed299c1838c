package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gopower",
		Short:         "Sample size planning for A/B experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a missing .env is fine; the environment is used as is
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(
		newPlanCmd(),
		newSweepCmd(),
		newPilotCmd(),
		newPlansCmd(),
	)
	return rootCmd
}
