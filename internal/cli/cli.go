// Package cli implements the graphgrad command line.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/born-ml/graphgrad/internal/config"
)

// Version is reported by the version command.
const Version = "v0.1.0-dev"

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usage = `graphgrad - define-by-run reverse-mode automatic differentiation.

Usage:
  graphgrad <command> [options]

Commands:
  version     Show version
  config      Print the effective settings
  gradcheck   Compare every built-in function's gradient with finite differences

Run 'graphgrad <command> -h' for command options.
`

// Run executes the command named by args[0], writing its report to out.
func Run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return nil
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(out, "graphgrad %s\n", Version)
		return nil
	case "config":
		return runConfig(args[1:], out)
	case "gradcheck":
		return runGradcheck(args[1:], out)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", args[0])}
	}
}

// parse runs fs over args. It reports done when help was requested.
func parse(fs *flag.FlagSet, args []string) (done bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, &ExitError{Code: 2, Message: err.Error()}
	}
	if fs.NArg() > 0 {
		return false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument %q", fs.Arg(0))}
	}
	return false, nil
}

// loadGlobal reads file when given and falls back to the process defaults.
func loadGlobal(file string) (*config.Global, error) {
	if file == "" {
		return config.Default(), nil
	}
	g, err := config.LoadFile(file)
	if err != nil {
		return nil, &ExitError{Code: 1, Message: err.Error()}
	}
	return g, nil
}

func runConfig(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(out)
	file := fs.String("file", "", "HCL settings file layered over the built-in defaults")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}

	g, err := loadGlobal(*file)
	if err != nil {
		return err
	}
	settings := g.Snapshot()
	width := 0
	for name := range settings {
		width = max(width, len(name))
	}
	// The listing is itself a valid settings file.
	for _, name := range slices.Sorted(maps.Keys(settings)) {
		value := settings[name]
		if s, ok := value.(string); ok {
			value = fmt.Sprintf("%q", s)
		}
		fmt.Fprintf(out, "%-*s = %v\n", width, name, value)
	}
	return nil
}
