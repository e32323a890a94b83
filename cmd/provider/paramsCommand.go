package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mariusgiger/btc-feerate-provider/pkg/feerate"
)

// paramsCommand prints the effective estimation parameters for diagnostics.
var paramsCommand = &cobra.Command{
	Use:   "params [capacity] [maxBlocks] [ttlMinutes]",
	Short: "Prints the effective estimation parameters",
	Long:  `Prints the effective estimation parameters as "capacity;maxBlocks;ttlMillis".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := feerate.ParseArgs(args)
		if err != nil {
			return err
		}

		fmt.Println(cfg.Params())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(paramsCommand)
}
