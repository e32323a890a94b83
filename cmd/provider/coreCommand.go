package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mariusgiger/btc-feerate-provider/pkg/api"
	"github.com/mariusgiger/btc-feerate-provider/pkg/feerate"
	"github.com/mariusgiger/btc-feerate-provider/pkg/feerate/corerpc"
)

// coreCommand serves fee rates predicted by a bitcoin core node.
var coreCommand = &cobra.Command{
	Use:   "core [capacity] [maxBlocks] [ttlMinutes]",
	Short: "Serves fee rates from a bitcoin core node",
	Long:  `Serves fee rates from a bitcoin core node via estimatesmartfee.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := feerate.ParseArgs(args)
		if err != nil {
			return err
		}

		source, err := corerpc.NewClient(options.btcRPCURL, options.btcRPCUser, options.btcRPCPassword, logger)
		if err != nil {
			return err
		}

		cache := feerate.NewRateCache("BTC", source, cfg, logger)
		server := api.NewServer(options.listenAddr, cache, cfg, logger)
		return server.Run()
	},
}

func init() {
	RootCmd.AddCommand(coreCommand)
}
