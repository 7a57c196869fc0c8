package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeProgram(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func runRunCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	runUnsafeAllowAll, runPretty, runTracePath, runEvidencePath = false, false, "", ""
	cmd := NewRunCommand()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestRunSimpleProgramPrintsResult(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "hello.a0", "return 1 + 2")

	stdout, _, err := runRunCommand(t, path)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if stdout != "3\n" {
		t.Errorf("expected \"3\\n\", got %q", stdout)
	}
}

func TestRunParseErrorExitsWithCodeTwo(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "bad.a0", "let x = ")

	_, stderr, err := runRunCommand(t, path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	ee, ok := err.(*ExitError)
	if !ok {
		t.Fatalf("expected *ExitError, got %T", err)
	}
	if ee.Code != 2 {
		t.Errorf("expected exit code 2, got %d", ee.Code)
	}
	if stderr == "" {
		t.Error("expected diagnostics written to stderr")
	}
}

func TestRunValidationErrorExitsWithCodeTwo(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "unbound.a0", "return missing")

	_, _, err := runRunCommand(t, path)
	ee, ok := err.(*ExitError)
	if !ok {
		t.Fatalf("expected *ExitError, got %T (%v)", err, err)
	}
	if ee.Code != 2 {
		t.Errorf("expected exit code 2, got %d", ee.Code)
	}
}

func TestRunCapabilityDeniedExitsWithCodeThree(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "denied.a0", `cap { fs.read: true }

return call? fs.read { path: "missing.txt" }`)

	_, _, err := runRunCommand(t, path)
	ee, ok := err.(*ExitError)
	if !ok {
		t.Fatalf("expected *ExitError, got %T (%v)", err, err)
	}
	if ee.Code != 3 {
		t.Errorf("expected exit code 3 (capability denied by default deny-all policy), got %d", ee.Code)
	}
}

func TestRunUnsafeAllowAllGrantsCapability(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(target, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	path := writeProgram(t, dir, "read.a0", `cap { fs.read: true }

return call? fs.read { path: "input.txt" }`)

	stdout, _, err := runRunCommand(t, "--unsafe-allow-all", path)
	if err != nil {
		t.Fatalf("expected success with --unsafe-allow-all, got %v", err)
	}
	if stdout == "" {
		t.Error("expected tool result printed")
	}
}

func TestRunPrettyFlagIndentsJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "rec.a0", `return { a: 1, b: 2 }`)

	stdout, _, err := runRunCommand(t, "--pretty", path)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !bytes.Contains([]byte(stdout), []byte("\n  \"a\"")) {
		t.Errorf("expected indented JSON, got %q", stdout)
	}
}

func TestRunReadsFromStdin(t *testing.T) {
	runUnsafeAllowAll, runPretty, runTracePath, runEvidencePath = false, false, "", ""
	cmd := NewRunCommand()
	var outBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetIn(bytes.NewBufferString("return 42"))
	cmd.SetArgs([]string{"-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if outBuf.String() != "42\n" {
		t.Errorf("expected \"42\\n\", got %q", outBuf.String())
	}
}
