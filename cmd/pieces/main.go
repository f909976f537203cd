// Package main provides the entry point for the pieces CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/pieces/cmd/pieces/commands"
	"github.com/Sumatoshi-tech/pieces/pkg/version"
)

func main() {
	version.Init()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
