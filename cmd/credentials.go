/*
Copyright © 2026 mizzouse
*/
package cmd

import (
	"github.com/mizzouse/WeBot/internal/bootstrap"
	"github.com/spf13/cobra"
)

// credentialsCmd represents the credentials command
var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Create or update the broker credentials file",
	Long: `Writes the credentials file the bot reads at login. Without flags an empty
template is created for manual editing; with flags the given values are
stored directly.`,
	Run: bootstrap.StartCredentials,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.PersistentFlags().String("user", "", "login username (email or phone)")
	credentialsCmd.PersistentFlags().String("pass", "", "login password")
	credentialsCmd.PersistentFlags().String("token", "", "six digit trade token")
}
