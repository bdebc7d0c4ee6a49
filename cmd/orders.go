/*
Copyright © 2026 mizzouse
*/
package cmd

import (
	"github.com/mizzouse/WeBot/internal/bootstrap"
	"github.com/spf13/cobra"
)

// ordersCmd represents the orders command
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List open orders on the brokerage account",
	Long: `Logs in to the broker with the stored credentials and prints the orders
currently open on the account.`,
	Run: bootstrap.StartListOrders,
}

func init() {
	rootCmd.AddCommand(ordersCmd)
}
