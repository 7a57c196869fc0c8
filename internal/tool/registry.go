// Package tool implements A0's reference tool registry: the six
// built-in host operations (fs.read, fs.list, fs.exists, fs.write,
// http.get, sh.exec) that a program may invoke once its capability
// policy grants them.
package tool

import "github.com/a0-lang/a0/internal/runtime/evaluator"

// Default returns the reference tool registry wired to the real
// filesystem, network, and shell.
func Default() evaluator.Registry {
	return evaluator.Registry{
		"fs.read":   NewFSRead(),
		"fs.list":   NewFSList(),
		"fs.exists": NewFSExists(),
		"fs.write":  NewFSWrite(),
		"http.get":  NewHTTPGet(),
		"sh.exec":   NewSHExec(),
	}
}
