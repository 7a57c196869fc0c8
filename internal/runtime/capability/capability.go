// Package capability defines A0's closed capability set, the
// read/effect mode of each reference tool, and policy resolution
// (project -> user -> deny-all) for the effective allow-set a program
// runs under.
package capability

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Mode is whether a tool only reads external state or can mutate it.
type Mode int

const (
	Read Mode = iota
	Effect
)

// Known is the closed set of capability names a `cap {}` header or
// tool call may reference. Anything outside this set is E_UNKNOWN_CAP.
var Known = map[string]bool{
	"fs.read":  true,
	"fs.write": true,
	"http.get": true,
	"sh.exec":  true,
}

// ToolCapability maps a reference tool name to the capability name
// that gates it and the mode that capability requires.
var ToolCapability = map[string]struct {
	Capability string
	Mode       Mode
}{
	"fs.read":   {"fs.read", Read},
	"fs.list":   {"fs.read", Read},
	"fs.exists": {"fs.read", Read},
	"fs.write":  {"fs.write", Effect},
	"http.get":  {"http.get", Read},
	"sh.exec":   {"sh.exec", Effect},
}

// ModeOf reports the mode a capability name requires, defaulting to
// Effect for safety if the capability is somehow unknown to this
// table (should not happen once E_UNKNOWN_CAP has already rejected
// it).
func ModeOf(capName string) Mode {
	for _, tc := range ToolCapability {
		if tc.Capability == capName {
			return tc.Mode
		}
	}
	return Effect
}

// Policy is the resolved allow/deny capability policy for a run.
type Policy struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
	// Limits is carried through from the policy file for display only;
	// it is never applied as a budget.
	Limits map[string]interface{} `json:"limits,omitempty"`
}

// Effective returns the set of capability names this policy grants:
// Allow minus Deny.
func (p *Policy) Effective() map[string]bool {
	deny := map[string]bool{}
	for _, d := range p.Deny {
		deny[d] = true
	}
	out := map[string]bool{}
	for _, a := range p.Allow {
		if !deny[a] {
			out[a] = true
		}
	}
	return out
}

// Resolve loads the effective policy for a run: project policy file
// if present, else the user policy file, else deny-all. unsafeAllowAll
// bypasses resolution entirely and grants every known capability,
// for local development only (`a0 run --unsafe-allow-all`).
func Resolve(projectDir string, unsafeAllowAll bool) (*Policy, error) {
	if unsafeAllowAll {
		p := &Policy{}
		for name := range Known {
			p.Allow = append(p.Allow, name)
		}
		return p, nil
	}

	if p, ok, err := loadPolicyFile(filepath.Join(projectDir, ".a0policy.json")); err != nil {
		return nil, err
	} else if ok {
		return p, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		if p, ok, err := loadPolicyFile(filepath.Join(home, ".a0", "policy.json")); err != nil {
			return nil, err
		} else if ok {
			return p, nil
		}
	}

	return &Policy{}, nil
}

func loadPolicyFile(path string) (*Policy, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}
