package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graphgrad/internal/cli"
	"github.com/born-ml/graphgrad/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := cli.Run(args, &out)
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr.Code
}

func writeSettings(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphgrad.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestRun_Version(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "graphgrad "+cli.Version+"\n", out)
}

func TestRun_Usage(t *testing.T) {
	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "gradcheck")

	out, err = run(t, "train")
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, out, "Commands:")
}

func TestConfig_ListingIsASettingsFile(t *testing.T) {
	path := writeSettings(t, "debug = true\nuse_accelerator = \"never\"\nbatch = 8\n")

	out, err := run(t, "config", "-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, `use_accelerator           = "never"`)

	parsed, err := config.ParseHCL([]byte(out), "listing.hcl")
	require.NoError(t, err)
	assert.Equal(t, true, parsed[config.KeyDebug])
	assert.Equal(t, "never", parsed[config.KeyUseAccelerator])
	assert.Equal(t, 8, parsed["batch"])
	assert.Equal(t, true, parsed[config.KeyEnableBackprop])
}

func TestConfig_Errors(t *testing.T) {
	_, err := run(t, "config", "-file", filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Equal(t, 1, exitCode(t, err))

	_, err = run(t, "config", "-bogus")
	assert.Equal(t, 2, exitCode(t, err))

	_, err = run(t, "config", "extra")
	assert.Equal(t, 2, exitCode(t, err))

	_, err = run(t, "config", "-h")
	assert.NoError(t, err)
}

func TestGradcheck_AllBuiltinsPass(t *testing.T) {
	out, err := run(t, "gradcheck", "-seed", "7")
	require.NoError(t, err, out)
	for _, name := range []string{"Add", "Div", "Log", "PowConst", "SumTo", "BroadcastTo", "Reshape"} {
		assert.Contains(t, out, "ok    "+name)
	}
	assert.NotContains(t, out, "FAIL")
}

func TestGradcheck_Only(t *testing.T) {
	path := writeSettings(t, "debug = true\n")

	out, err := run(t, "gradcheck", "-only", "exp, mul", "-file", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "ok    Exp")
	assert.Contains(t, out, "ok    Mul")
	assert.NotContains(t, out, "Add")

	_, err = run(t, "gradcheck", "-only", "softmax")
	assert.Equal(t, 2, exitCode(t, err))
}

func TestGradcheck_ImpossibleToleranceFails(t *testing.T) {
	out, err := run(t, "gradcheck", "-only", "Exp", "-atol", "0", "-rtol", "0", "-eps", "0.5")
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, out, "FAIL  Exp")
	assert.Contains(t, out, "input 0 element")
}
