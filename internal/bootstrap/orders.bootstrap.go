package bootstrap

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mizzouse/WeBot/internal/config"
	"github.com/mizzouse/WeBot/internal/util"
	"github.com/spf13/cobra"
)

func StartListOrders(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := newBrokerSession(ctx)
	defer session.Logout(ctx)

	orders, err := session.CurrentOrders(ctx)
	util.ContinueOrFatal(err)

	if len(orders) == 0 {
		fmt.Println("no open orders")
		return
	}

	payload, err := json.MarshalIndent(orders, "", "  ")
	util.ContinueOrFatal(err)

	fmt.Println(string(payload))
}

func StartCredentials(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	pass, _ := cmd.Flags().GetString("pass")
	token, _ := cmd.Flags().GetString("token")

	path := config.Env.Broker.CredentialsPath
	if path == "" {
		path = config.DefaultCredentialsFile
	}

	if user == "" && pass == "" && token == "" {
		util.ContinueOrFatal(config.WriteCredentialsTemplate(path))
		fmt.Printf("credentials template written to %s\n", path)
		return
	}

	creds, _ := config.LoadCredentials(path)

	if user != "" {
		creds.Username = user
	}
	if pass != "" {
		creds.Password = pass
	}
	if token != "" {
		creds.TradeToken = token
	}

	util.ContinueOrFatal(config.SaveCredentials(path, creds))
	fmt.Printf("credentials saved to %s\n", path)
}
