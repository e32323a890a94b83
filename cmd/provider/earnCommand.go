package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mariusgiger/btc-feerate-provider/pkg/api"
	"github.com/mariusgiger/btc-feerate-provider/pkg/feerate"
	"github.com/mariusgiger/btc-feerate-provider/pkg/feerate/earn"
)

// earnCommand serves fee rates predicted by a fees/list REST endpoint.
// Optional positional args: capacity maxBlocks ttlMinutes.
var earnCommand = &cobra.Command{
	Use:   "earn [capacity] [maxBlocks] [ttlMinutes]",
	Short: "Serves fee rates from a fee prediction REST endpoint",
	Long:  `Serves fee rates from a fee prediction REST endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := feerate.ParseArgs(args)
		if err != nil {
			return err
		}

		source, err := earn.NewClient(options.feesURL)
		if err != nil {
			return err
		}

		cache := feerate.NewRateCache("BTC", source, cfg, logger)
		server := api.NewServer(options.listenAddr, cache, cfg, logger)
		return server.Run()
	},
}

func init() {
	RootCmd.AddCommand(earnCommand)
}
