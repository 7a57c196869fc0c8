// Command a0 is the A0 language runner, validator, formatter, and
// trace viewer. It is a thin wrapper around internal/cli/commands;
// all subcommand logic lives there.
package main

import (
	"os"

	"github.com/a0-lang/a0/internal/cli/commands"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	commands.Version = version
	commands.GitCommit = gitCommit
	commands.BuildDate = buildDate

	os.Exit(commands.Execute())
}
