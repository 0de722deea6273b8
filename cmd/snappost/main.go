package main

import (
	"os"

	"github.com/snapcnc/snappost/cmd/snappost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
