package main

import (
	cmd "github.com/mariusgiger/btc-feerate-provider/cmd/provider"
)

func main() {
	cmd.Execute()
}
