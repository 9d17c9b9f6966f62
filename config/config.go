// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config exposes the settings consulted by the autograd engine.
//
// A Global holds process-wide defaults. Each goroutine layers its own Local
// on a Global and pushes scoped overrides onto it:
//
//	l := config.NewLocal(config.Default())
//	defer l.Push(map[string]any{config.KeyDebug: true}).Release()
//
// Defaults can be seeded from GRAPHGRAD_* environment variables or from an
// HCL attribute file:
//
//	debug           = true
//	use_accelerator = "never"
package config

import (
	"github.com/born-ml/graphgrad/internal/config"
)

// Global is the process-wide default layer.
type Global = config.Global

// Local is a goroutine-owned override stack over a Global.
type Local = config.Local

// Scope restores a Local when released.
type Scope = config.Scope

// Well-known setting names.
const (
	KeyDebug                    = config.KeyDebug
	KeyEnableBackprop           = config.KeyEnableBackprop
	KeyTypeCheck                = config.KeyTypeCheck
	KeyTrain                    = config.KeyTrain
	KeyKeepGraphOnReport        = config.KeyKeepGraphOnReport
	KeyUseAccelerator           = config.KeyUseAccelerator
	KeyAcceleratorDeterministic = config.KeyAcceleratorDeterministic
)

// Environment variables read by Default.
const (
	EnvDebug             = config.EnvDebug
	EnvTypeCheck         = config.EnvTypeCheck
	EnvKeepGraphOnReport = config.EnvKeepGraphOnReport
	EnvUseAccelerator    = config.EnvUseAccelerator
)

// Accelerator preference levels.
const (
	LevelAlways = config.LevelAlways
	LevelAuto   = config.LevelAuto
)

// Builtin returns a fresh copy of the built-in defaults.
func Builtin() map[string]any { return config.Builtin() }

// NewGlobal returns a Global holding a copy of values.
func NewGlobal(values map[string]any) *Global { return config.NewGlobal(values) }

// Default returns the process Global, built once from the built-in defaults
// and the environment.
func Default() *Global { return config.Default() }

// NewLocal returns an empty override stack over g.
func NewLocal(g *Global) *Local { return config.NewLocal(g) }

// Using runs fn with overrides pushed onto l and restores l afterwards.
func Using(l *Local, overrides map[string]any, fn func() error) error {
	return config.Using(l, overrides, fn)
}

// IsDebug reports whether debug mode is on for l.
func IsDebug(l *Local) bool { return config.IsDebug(l) }

// SetDebug sets debug mode in the innermost scope of l.
func SetDebug(l *Local, debug bool) { config.SetDebug(l, debug) }

// FromEnv parses the GRAPHGRAD_* variables visible through lookup.
func FromEnv(lookup func(string) (string, bool)) (map[string]any, error) {
	return config.FromEnv(lookup)
}

// LoadFile reads an HCL attribute file into a Global over the built-in defaults.
func LoadFile(path string) (*Global, error) { return config.LoadFile(path) }

// ParseHCL converts the attributes of an HCL body into setting values.
func ParseHCL(src []byte, filename string) (map[string]any, error) {
	return config.ParseHCL(src, filename)
}

// ShouldUseAccelerator resolves the use_accelerator setting against level.
func ShouldUseAccelerator(l *Local, level string) (bool, error) {
	return config.ShouldUseAccelerator(l, level)
}
