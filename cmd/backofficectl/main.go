package main

import (
	"fmt"
	"os"

	"github.com/erp/backoffice/cmd/backofficectl/commands"
)

// set during build
var version = "dev"

func main() {
	if err := commands.NewRootCmd(commands.WithVersion(version)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
