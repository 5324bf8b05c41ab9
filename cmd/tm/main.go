package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// buildRoot wires every sub-command onto the root command.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	activateFlags := &ActivateFlags{}
	setFlags := &ActivateFlags{}
	scheduleFlags := &ScheduleFlags{}
	unoccupiedFlags := &UnoccupiedFlags{}
	crontabFlags := &CrontabFlags{}
	lockFlags := &LockFlags{}
	autoextendFlags := &AutoextendFlags{}
	loopFlags := &AutoextendFlags{}
	terminatorFlags := &TerminatorFlags{}
	historyFlags := &HistoryFlags{}

	tmCommand := &command{global: globalFlags}

	root := createRootCommand(globalFlags)

	root.AddCommand(
		createAddCommand(tmCommand),
		createActivateCommand(tmCommand, activateFlags),
		createSetCommand(tmCommand, setFlags),
		createScheduleCommand(tmCommand, scheduleFlags),
		createUnoccupiedCommand(tmCommand, unoccupiedFlags),
		createCrontabCommand(tmCommand, crontabFlags),
		createLockCommand(tmCommand, lockFlags),
		createUnlockCommand(tmCommand),
		createResetCommand(tmCommand),
		createTerminateCommand(tmCommand),
		createAutoextendCommand(tmCommand, autoextendFlags),
		createAutoextendLoopCommand(tmCommand, loopFlags),
		createTerminatorCommand(tmCommand, terminatorFlags),
		createHistoryCommand(tmCommand, historyFlags),
	)

	return root
}

// createRootCommand creates the root command with the persistent flags
// every sub-command shares.
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "tm",
		Short: "Manage start and end times of arbitrary programs",
		Long: `TimeManager coordinates wall-clock time windows between process
groups on one host. A pipeline claims a window, blocks until it opens,
streams stdin to stdout while it lasts, and its whole process group is
signalled when it closes. Schedules are shared through a registry in
named shared memory, so independent pipelines can discover each other's
commitments, refuse double bookings, and find free time.

Examples:
  # Run my program for 60sec at 00:00:00 on 2000/01/01.
  sh -c 'echo "946652400:60:This is my program" | tm set && myprogram'

  # Fill the next free hour instead of a fixed time.
  sh -c 'echo "0:0:cap" | tm unoccupied | tm set && myprogram'`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().IntVarP(&flags.Database, "database", "d", 0, "database number (1-5)")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose diagnostics to stderr")

	return root
}
