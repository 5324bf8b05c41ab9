package main

import "github.com/spf13/cobra"

// createAutoextendCommand creates the autoextend subcommand.
func createAutoextendCommand(tmCommand *command, flags *AutoextendFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autoextend",
		Short: "Keep extending the current schedule into abutting free time",
		Long: `Detach a background loop that, every interval, extends the caller's
schedule into free time directly following its end and re-activates it.
The loop runs in the caller's process group and dies with it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Autoextend(*flags)
		},
	}

	cmd.Flags().Int64VarP(&flags.Interval, "interval", "i", 1, "seconds between reschedules")
	cmd.Flags().Int64VarP(&flags.Range, "range", "r", 3600, "seconds of free time to search")
	cmd.Flags().StringVar(&flags.MetricsListen, "metrics-listen", "", "address serving Prometheus metrics (optional)")
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "rotated log file for loop diagnostics (optional)")

	return cmd
}

// createAutoextendLoopCommand creates the hidden loop body spawned by
// autoextend.
func createAutoextendLoopCommand(tmCommand *command, flags *AutoextendFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "autoextend-loop",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.RunAutoextendLoop(*flags)
		},
	}

	cmd.Flags().Int64VarP(&flags.Interval, "interval", "i", 1, "seconds between reschedules")
	cmd.Flags().Int64VarP(&flags.Range, "range", "r", 3600, "seconds of free time to search")
	cmd.Flags().StringVar(&flags.MetricsListen, "metrics-listen", "", "address serving Prometheus metrics")
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "rotated log file for loop diagnostics")

	return cmd
}

// createTerminatorCommand creates the hidden end-of-window signaller
// spawned by activate.
func createTerminatorCommand(tmCommand *command, flags *TerminatorFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "terminator",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.RunTerminator(*flags)
		},
	}

	cmd.Flags().Int64Var(&flags.End, "end", 0, "window end, seconds since epoch")
	cmd.Flags().IntVar(&flags.Signo, "signo", 15, "signal number to deliver")

	return cmd
}
