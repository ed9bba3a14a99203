package main

import (
	"os"

	"github.com/jobdeck/jobdeck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
