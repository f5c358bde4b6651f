package main

import (
	"os"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
