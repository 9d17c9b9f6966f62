// Package main provides the graphgrad CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/born-ml/graphgrad/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:], os.Stdout); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "graphgrad:", exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "graphgrad:", err)
		os.Exit(1)
	}
}
