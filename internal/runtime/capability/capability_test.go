package capability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveAppliesDenyOverAllow(t *testing.T) {
	p := &Policy{Allow: []string{"fs.read", "fs.write"}, Deny: []string{"fs.write"}}
	eff := p.Effective()
	assert.True(t, eff["fs.read"])
	assert.False(t, eff["fs.write"])
}

func TestModeOfReferenceTools(t *testing.T) {
	assert.Equal(t, Read, ToolCapability["fs.read"].Mode)
	assert.Equal(t, Effect, ToolCapability["fs.write"].Mode)
	assert.Equal(t, Read, ToolCapability["http.get"].Mode)
	assert.Equal(t, Effect, ToolCapability["sh.exec"].Mode)
}

func TestResolveUnsafeAllowAllGrantsEverything(t *testing.T) {
	p, err := Resolve(t.TempDir(), true)
	require.NoError(t, err)
	eff := p.Effective()
	for name := range Known {
		assert.True(t, eff[name], "expected %s to be allowed", name)
	}
}

func TestResolvePrefersProjectPolicyOverUser(t *testing.T) {
	dir := t.TempDir()
	policy := Policy{Allow: []string{"fs.read"}}
	data, _ := json.Marshal(policy)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".a0policy.json"), data, 0o644))

	p, err := Resolve(dir, false)
	require.NoError(t, err)
	assert.True(t, p.Effective()["fs.read"])
	assert.False(t, p.Effective()["fs.write"])
}

func TestResolveDeniesByDefault(t *testing.T) {
	p, err := Resolve(t.TempDir(), false)
	require.NoError(t, err)
	assert.Empty(t, p.Effective())
}
