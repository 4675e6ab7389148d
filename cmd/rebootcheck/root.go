package main

import (
	"github.com/spf13/cobra"

	"github.com/smnsjas/rebootcheck"
)

// globalOpts holds options parsed before subcommand dispatch.
type globalOpts struct {
	ConfigPath string
	Verbose    bool
}

var opts globalOpts

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rebootcheck",
		Short: "Detect pending reboots on Windows hosts",
		Long: `rebootcheck - pending-reboot detection for Windows hosts

Checks one or more hosts for OS-level work queued behind a restart,
using the pending-file-rename registry queue and the component
servicing marker as independent signals. Remote hosts are reached over
WinRM, with an optional degraded fallback over direct registry and
admin-share access. Each host reports a tri-state verdict: True, False,
or Unknown when no signal could be determined.`,
		Version:       rebootcheck.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&opts.Verbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(
		newCheckCmd(),
		newHistoryCmd(),
	)
	return rootCmd
}
