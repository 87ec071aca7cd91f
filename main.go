package main

import (
	"os"

	"github.com/conneroisu/namesake/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
