package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "provider",
	Short: "btcfeerateprovider",
	Long:  `Bitcoin fee rate provider.`,
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatalf("Something went terribly wrong: %v", err)
		os.Exit(-1)
	}
}

var (
	options struct {
		listenAddr     string
		feesURL        string
		btcRPCURL      string
		btcRPCUser     string
		btcRPCPassword string
	}
)

func init() {
	logger, _ = zap.NewDevelopment(zap.AddStacktrace(zapcore.FatalLevel))

	RootCmd.PersistentFlags().StringVarP(&options.listenAddr, "listen", "l", ":8080", "http listen address")

	earnCommand.Flags().StringVarP(&options.feesURL, "url", "", "https://bitcoinfees.earn.com/api/v1/fees/list", "fee prediction list endpoint")

	coreCommand.Flags().StringVarP(&options.btcRPCURL, "rpcurl", "", "127.0.0.1:8332", "bitcoin rpc url")
	coreCommand.Flags().StringVarP(&options.btcRPCUser, "user", "u", "bitcoinrpc", "bitcoin rpc username")
	coreCommand.Flags().StringVarP(&options.btcRPCPassword, "password", "p", "", "bitcoin rpc password")
}
