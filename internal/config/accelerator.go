package config

import "fmt"

// Accelerator use levels accepted by ShouldUseAccelerator.
const (
	LevelAlways = "==always"
	LevelAuto   = ">=auto"
)

var acceleratorLevels = map[string]map[string]bool{
	LevelAlways: {"always": true, "auto": false, "never": false},
	LevelAuto:   {"always": true, "auto": true, "never": false},
}

// ShouldUseAccelerator decides whether a function should take its accelerated
// path. LevelAlways requires use_accelerator == "always"; LevelAuto accepts
// "always" or "auto".
func ShouldUseAccelerator(l *Local, level string) (bool, error) {
	flags, ok := acceleratorLevels[level]
	if !ok {
		return false, fmt.Errorf("config: invalid accelerator use level %q (must be %q or %q)", level, LevelAlways, LevelAuto)
	}
	mode := l.String(KeyUseAccelerator)
	use, ok := flags[mode]
	if !ok {
		return false, fmt.Errorf("config: invalid %s value %q (must be always, auto or never)", KeyUseAccelerator, mode)
	}
	return use, nil
}

func validateAcceleratorMode(mode string) error {
	switch mode {
	case "always", "auto", "never":
		return nil
	default:
		return fmt.Errorf("invalid accelerator mode %q (must be always, auto or never)", mode)
	}
}
