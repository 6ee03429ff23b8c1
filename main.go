package main

import (
	"os"

	"github.com/promptconduit/dashctx/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
