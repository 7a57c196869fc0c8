package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/a0-lang/a0/internal/runtime/values"
)

// SHExec implements the single effect-mode `sh.exec` tool. Like
// http.get, the cancellation context is handed to exec.CommandContext
// so a deadline kills the subprocess rather than merely failing the
// next budget check.
type SHExec struct{}

// NewSHExec creates the sh.exec tool.
func NewSHExec() *SHExec { return &SHExec{} }

func (t *SHExec) Call(ctx context.Context, args *values.Record) (values.Value, int, error) {
	cmdV, ok := args.Get("cmd")
	if !ok || cmdV.Kind != values.KString {
		return values.Null, 0, fmt.Errorf("sh.exec requires a string argument 'cmd'")
	}
	var cmdArgs []string
	if argsV, ok := args.Get("args"); ok && argsV.Kind == values.KList {
		for _, a := range argsV.L {
			if a.Kind != values.KString {
				return values.Null, 0, fmt.Errorf("sh.exec 'args' must be a list of strings")
			}
			cmdArgs = append(cmdArgs, a.S)
		}
	}

	cmd := exec.CommandContext(ctx, cmdV.S, cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return values.Null, 0, err
		}
	}

	out := values.NewRecord()
	out.Set("stdout", values.String(stdout.String()))
	out.Set("stderr", values.String(stderr.String()))
	out.Set("exitCode", values.Number(float64(exitCode)))
	return values.RecordVal(out), 0, nil
}
