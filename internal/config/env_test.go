package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/born-ml/graphgrad/internal/config"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestFromEnv(t *testing.T) {
	values, err := config.FromEnv(lookupFrom(map[string]string{
		config.EnvDebug:          "1",
		config.EnvTypeCheck:      "0",
		config.EnvUseAccelerator: "never",
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		config.KeyDebug:          true,
		config.KeyTypeCheck:      false,
		config.KeyUseAccelerator: "never",
	}, values)
}

func TestFromEnv_IntegerSemantics(t *testing.T) {
	values, err := config.FromEnv(lookupFrom(map[string]string{config.EnvKeepGraphOnReport: " 2 "}))
	require.NoError(t, err)
	assert.Equal(t, true, values[config.KeyKeepGraphOnReport])
}

func TestFromEnv_Malformed(t *testing.T) {
	values, err := config.FromEnv(lookupFrom(map[string]string{
		config.EnvDebug:          "yes",
		config.EnvTypeCheck:      "1",
		config.EnvUseAccelerator: "sometimes",
	}))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), config.EnvDebug)
	assert.Equal(t, map[string]any{config.KeyTypeCheck: true}, values)
}
