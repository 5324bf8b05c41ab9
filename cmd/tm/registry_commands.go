package main

import "github.com/spf13/cobra"

// createLockCommand creates the lock subcommand.
func createLockCommand(tmCommand *command, flags *LockFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Take the registry write lock",
		Long: `Lock the registry against writes by other process groups. When
another group already holds the lock, wait until it is released or the
timeout expires; a timeout exits with status 3. A second lock from the
holding group succeeds immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Lock(*flags)
		},
	}

	cmd.Flags().Int64VarP(&flags.Timeout, "timeout", "t", 0, "seconds to wait for the lock (default 5)")

	return cmd
}

// createUnlockCommand creates the unlock subcommand.
func createUnlockCommand(tmCommand *command) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Release the registry write lock",
		Long: `Release the registry write lock held by the caller's process group.
Releasing a lock the group does not hold succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Unlock()
		},
	}
}

// createResetCommand creates the reset subcommand.
func createResetCommand(tmCommand *command) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove the registry and its lock",
		Long: `Remove the shared memory segment and the semaphore backing the
selected database. Objects that do not exist are ignored.

Example:
  tm reset -d 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Reset()
		},
	}
}

// createTerminateCommand creates the terminate subcommand.
func createTerminateCommand(tmCommand *command) *cobra.Command {
	return &cobra.Command{
		Use:   "terminate",
		Short: "Send SIGTERM to the caller's process group",
		Long: `Send SIGTERM to the process group the caller belongs to, ending the
scheduled pipeline early.

Example:
  sh -c 'echo "1517188474:600:cap" | tm set && myprogram; tm terminate'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.Terminate()
		},
	}
}

// createHistoryCommand creates the history subcommand.
func createHistoryCommand(tmCommand *command, flags *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded schedule events",
		Long: `List schedule lifecycle events recorded in the history database,
most recent first. Requires history_dsn to be configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tmCommand.History(*flags)
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", 100, "maximum number of events to list")

	return cmd
}
