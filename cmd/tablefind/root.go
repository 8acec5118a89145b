package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tablefind",
	Short: "Locate record table bases in a running game process",
	Long: `tablefind rediscovers the base addresses of the player, team, staff
and stadium record tables after a game update has moved them.

It scans the process read-only: known record names are encoded into
byte patterns, every eligible memory region inside the planned search
windows is scanned, matches vote for base-address candidates via
stride back-stepping, and the winners are validated by sampling
multiple records. The result is a JSON report plus an optional
offsets-override document for the editor.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newRegionsCmd())
	rootCmd.AddCommand(newCaptureCmd())
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
