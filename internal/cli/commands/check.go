package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/a0-lang/a0/internal/diagnostics"
)

var (
	checkPretty bool
	checkWatch  bool
)

// NewCheckCommand creates the `a0 check` command: lex, parse, and
// validate a program without running it.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate an A0 program without running it",
		Long: `Lex, parse, and validate an A0 program, reporting diagnostics without
executing it.

Examples:
  a0 check hello.a0
  a0 check --watch hello.a0`,
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}

	cmd.Flags().BoolVar(&checkPretty, "pretty", false, "colored multi-line diagnostics")
	cmd.Flags().BoolVar(&checkWatch, "watch", false, "re-validate on every save")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	file := args[0]

	if checkWatch {
		return watchCheck(cmd, file)
	}

	return checkOnce(cmd, file)
}

func checkOnce(cmd *cobra.Command, file string) error {
	source, err := os.ReadFile(file)
	if err != nil {
		return exitf(1, fmt.Errorf("reading %s: %w", file, err))
	}

	_, diags, parseErr := loadProgram(file, string(source))
	if parseErr != nil {
		diags = []*diagnostics.Diagnostic{parseErr}
	}

	if len(diags) == 0 {
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", file)
		return nil
	}

	writeDiagnostics(cmd, diags, string(source), checkPretty)

	return exitf(diagnostics.ExitCode(diags[0].Code), fmt.Errorf("%s failed validation", file))
}

// watchCheck re-validates file on every fsnotify write event, printing
// a fresh report each time until the process is interrupted.
func watchCheck(cmd *cobra.Command, file string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return exitf(1, fmt.Errorf("creating watcher: %w", err))
	}
	defer watcher.Close()

	if err := watcher.Add(file); err != nil {
		return exitf(1, fmt.Errorf("watching %s: %w", file, err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes (ctrl-c to stop)\n", file)
	checkOnce(cmd, file)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				checkOnce(cmd, file)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		}
	}
}
