package main

import (
	"os"

	"github.com/mcclellann/loanschedule/cmd/amortize/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
