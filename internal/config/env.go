package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Environment variables read once by Default.
const (
	EnvDebug             = "GRAPHGRAD_DEBUG"
	EnvTypeCheck         = "GRAPHGRAD_TYPE_CHECK"
	EnvKeepGraphOnReport = "GRAPHGRAD_KEEP_GRAPH_ON_REPORT"
	EnvUseAccelerator    = "GRAPHGRAD_USE_ACCELERATOR"
)

var lookupEnv = os.LookupEnv

var envBools = []struct {
	env, key string
}{
	{EnvDebug, KeyDebug},
	{EnvTypeCheck, KeyTypeCheck},
	{EnvKeepGraphOnReport, KeyKeepGraphOnReport},
}

// FromEnv reads the option overrides present in the environment.
//
// Boolean variables use integer semantics: "0" is false, any other integer is
// true. Every malformed variable is reported; the returned map still holds the
// well-formed ones.
func FromEnv(lookup func(string) (string, bool)) (map[string]any, error) {
	values := map[string]any{}
	var errs error

	for _, e := range envBools {
		raw, ok := lookup(e.env)
		if !ok {
			continue
		}
		b, err := parseIntBool(raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("config: %s: %w", e.env, err))
			continue
		}
		values[e.key] = b
	}

	if raw, ok := lookup(EnvUseAccelerator); ok {
		mode := strings.TrimSpace(raw)
		if err := validateAcceleratorMode(mode); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("config: %s: %w", EnvUseAccelerator, err))
		} else {
			values[KeyUseAccelerator] = mode
		}
	}

	return values, errs
}

func parseIntBool(raw string) (bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid integer boolean %q", raw)
	}
	return n != 0, nil
}
