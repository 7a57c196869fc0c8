package tool

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/a0-lang/a0/internal/runtime/values"
)

// FSRead implements `fs.read` / `fs.list` / `fs.exists` — the three
// read-mode filesystem operations, all gated by the single fs.read
// capability.
type FSRead struct{ op string }

// NewFSRead creates the fs.read tool.
func NewFSRead() *FSRead { return &FSRead{op: "read"} }

// NewFSList creates the fs.list tool.
func NewFSList() *FSRead { return &FSRead{op: "list"} }

// NewFSExists creates the fs.exists tool.
func NewFSExists() *FSRead { return &FSRead{op: "exists"} }

func (t *FSRead) Call(ctx context.Context, args *values.Record) (values.Value, int, error) {
	pathV, ok := args.Get("path")
	if !ok || pathV.Kind != values.KString {
		return values.Null, 0, fmt.Errorf("fs.%s requires a string argument 'path'", t.op)
	}
	switch t.op {
	case "read":
		data, err := os.ReadFile(pathV.S)
		if err != nil {
			return values.Null, 0, err
		}
		return values.String(string(data)), 0, nil
	case "exists":
		_, err := os.Stat(pathV.S)
		return values.Bool(err == nil), 0, nil
	case "list":
		entries, err := os.ReadDir(pathV.S)
		if err != nil {
			return values.Null, 0, err
		}
		out := make([]values.Value, len(entries))
		for i, e := range entries {
			out[i] = values.String(e.Name())
		}
		return values.List(out), 0, nil
	default:
		return values.Null, 0, fmt.Errorf("unknown fs read operation %q", t.op)
	}
}

// FSWrite implements `fs.write`, the single effect-mode filesystem
// tool. It returns an Artifact record — path, byte count, and a
// blake2b content hash — per SPEC_FULL.md's Artifact definition.
type FSWrite struct{}

// NewFSWrite creates the fs.write tool.
func NewFSWrite() *FSWrite { return &FSWrite{} }

func (t *FSWrite) Call(ctx context.Context, args *values.Record) (values.Value, int, error) {
	pathV, ok := args.Get("path")
	if !ok || pathV.Kind != values.KString {
		return values.Null, 0, fmt.Errorf("fs.write requires a string argument 'path'")
	}
	contentV, ok := args.Get("content")
	if !ok || contentV.Kind != values.KString {
		return values.Null, 0, fmt.Errorf("fs.write requires a string argument 'content'")
	}
	content := []byte(contentV.S)
	if err := os.WriteFile(pathV.S, content, 0o644); err != nil {
		return values.Null, 0, err
	}
	sum := blake2b.Sum256(content)

	artifact := values.NewRecord()
	artifact.Set("path", pathV)
	artifact.Set("bytes", values.Number(float64(len(content))))
	artifact.Set("hash", values.String(fmt.Sprintf("%x", sum)))
	return values.RecordVal(artifact), len(content), nil
}
