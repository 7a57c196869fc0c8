package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a0-lang/a0/internal/runtime/values"
)

func rec(pairs ...interface{}) *values.Record {
	r := values.NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].(values.Value))
	}
	return r
}

func TestFSWriteThenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	write := NewFSWrite()
	artifact, bytesWritten, err := write.Call(context.Background(), rec("path", values.String(path), "content", values.String("hello")))
	require.NoError(t, err)
	assert.Equal(t, 5, bytesWritten)
	hash, _ := artifact.R.Get("hash")
	assert.NotEmpty(t, hash.S)

	read := NewFSRead()
	got, _, err := read.Call(context.Background(), rec("path", values.String(path)))
	require.NoError(t, err)
	assert.Equal(t, "hello", got.S)
}

func TestFSExistsAndList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	exists := NewFSExists()
	got, _, err := exists.Call(context.Background(), rec("path", values.String(filepath.Join(dir, "a.txt"))))
	require.NoError(t, err)
	assert.True(t, got.B)

	missing, _, err := exists.Call(context.Background(), rec("path", values.String(filepath.Join(dir, "missing.txt"))))
	require.NoError(t, err)
	assert.False(t, missing.B)

	list := NewFSList()
	entries, _, err := list.Call(context.Background(), rec("path", values.String(dir)))
	require.NoError(t, err)
	assert.Equal(t, 1, len(entries.L))
	assert.Equal(t, "a.txt", entries.L[0].S)
}
