package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a0-lang/a0/internal/runtime/values"
)

func TestSHExecCapturesStdout(t *testing.T) {
	sh := NewSHExec()
	out, _, err := sh.Call(context.Background(), rec(
		"cmd", values.String("echo"),
		"args", values.List([]values.Value{values.String("hi")}),
	))
	require.NoError(t, err)
	stdout, _ := out.R.Get("stdout")
	assert.Contains(t, stdout.S, "hi")
	exitCode, _ := out.R.Get("exitCode")
	assert.Equal(t, float64(0), exitCode.N)
}

func TestSHExecNonZeroExitDoesNotError(t *testing.T) {
	sh := NewSHExec()
	out, _, err := sh.Call(context.Background(), rec(
		"cmd", values.String("sh"),
		"args", values.List([]values.Value{values.String("-c"), values.String("exit 3")}),
	))
	require.NoError(t, err)
	exitCode, _ := out.R.Get("exitCode")
	assert.Equal(t, float64(3), exitCode.N)
}
