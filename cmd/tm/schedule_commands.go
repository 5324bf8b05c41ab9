package main

import "github.com/spf13/cobra"

// createAddCommand creates the add subcommand.
func createAddCommand(tmCommand *command) *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Read a schedule from stdin and upsert it into the registry",
		Long: `Read one schedule string from stdin and add it to the schedule
registry. The schedule string is start:duration:caption, where start is
seconds since the epoch, duration is seconds, and caption is a short
description. An existing schedule owned by the caller's process group
is overwritten.

Example:
  sh -c 'echo "1503180600:600:news" | tm add && tm activate && myprogram; tm terminate'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Add()
		},
	}
}

// createActivateCommand creates the activate subcommand.
func createActivateCommand(tmCommand *command, flags *ActivateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Block to window start, pass stdin through, signal the group at end",
		Long: `Activate the registry schedule owned by the caller's process group.

On success the command blocks until the window starts, then passes the
contents of stdin straight through to stdout and exits. At the window's
end the chosen signal (SIGTERM by default) is sent to the caller's
process group by a detached child. Activating again after the window
started reschedules the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Activate(*flags)
		},
	}

	cmd.Flags().IntVarP(&flags.Signo, "signo", "s", 0, "signal number sent at the window's end (default SIGTERM)")

	return cmd
}

// createSetCommand creates the set subcommand.
func createSetCommand(tmCommand *command, flags *ActivateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Add a schedule from stdin and activate it",
		Long: `Read one schedule string (start:duration:caption) from stdin, add it
to the registry and activate it. When either step fails, the caller's
process group is terminated before the failure is reported.

Example:
  sh -c 'echo "1503180600:600:News" | tm set && myprogram'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Set(*flags)
		},
	}

	cmd.Flags().IntVarP(&flags.Signo, "signo", "s", 0, "signal number sent at the window's end (default SIGTERM)")

	return cmd
}

// createScheduleCommand creates the schedule subcommand.
func createScheduleCommand(tmCommand *command, flags *ScheduleFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print registry schedules to stdout",
		Long: `Print the live schedules in the registry, ordered by start time.
The default view skips schedules that were never activated; -r and -a
print everything.

Examples:
  tm schedule
  01/29 10:14-11:14 (1h) caption

  tm schedule -r
  1517188474:3600:caption`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Schedule(*flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.All, "all", "a", false, "include unactivated schedules, printed as raw records")
	cmd.Flags().BoolVarP(&flags.Raw, "raw", "r", false, "print schedules in start:duration:caption form")

	return cmd
}

// createUnoccupiedCommand creates the unoccupied subcommand.
func createUnoccupiedCommand(tmCommand *command, flags *UnoccupiedFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unoccupied",
		Short: "Apply the first free window to the stdin schedule",
		Long: `Find the first stretch of time without a schedule inside the search
range and apply it to the schedule read from stdin, writing the result
to stdout. A nonzero input duration is kept; the window must fit it. A
zero input duration adopts the free window's length. Everything after
the first stdin line passes through untouched.

Example:
  echo "0:0:caption" | tm unoccupied
  1517188474:3600:caption`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Unoccupied(*flags)
		},
	}

	cmd.Flags().Int64VarP(&flags.Begin, "begin", "b", -1, "search start time, seconds since epoch (default now)")
	cmd.Flags().Int64VarP(&flags.Range, "range", "r", 3600, "search range in seconds")

	return cmd
}

// createCrontabCommand creates the crontab subcommand.
func createCrontabCommand(tmCommand *command, flags *CrontabFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crontab <expression>",
		Short: "Set the stdin schedule's start from a crontab expression",
		Long: `Resolve the positional five-field crontab expression to its first
firing time inside the search range and apply it as the start of the
schedule read from stdin, writing the result to stdout. Everything after
the first stdin line passes through untouched.

Example:
  echo "0:600:news" | tm crontab "10 7 20 8 *"
  1503180600:600:news`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Crontab(*flags, args[0])
		},
	}

	cmd.Flags().Int64VarP(&flags.RangeBackward, "range-backward", "r", 0, "seconds before now to search")
	cmd.Flags().Int64VarP(&flags.RangeForward, "range-forward", "R", 86400, "seconds past now to search")

	return cmd
}
