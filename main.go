package main

import (
	"os"

	"github.com/kunalsinghdadhwal/socratix/cli"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 25/02/2026
 * Time: 09:12
 */

func main() {
	defer os.Exit(0) // pairs with runtime.Goexit in the CLI error paths
	cmd := cli.CommandLine{}
	cmd.Run()
}
