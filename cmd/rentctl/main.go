package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rentitout/backend/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(&cli.App{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
