/*
Copyright © 2026 mizzouse
*/
package cmd

import (
	"github.com/mizzouse/WeBot/internal/bootstrap"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the trading bot",
	Long: `Logs in to the broker, restores any persisted monitor state, and runs the
session monitor loop until interrupted. Trade templates are managed over
the HTTP API while the loop runs, and signals arrive over jetstream.`,
	Run: bootstrap.StartBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}
