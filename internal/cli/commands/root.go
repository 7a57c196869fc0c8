package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "a0",
		Short: "A0 language runner, validator, and formatter",
		Long: color.CyanString(`A0 - a structured scripting language for agent-generated automation

A0 programs declare their required capabilities and resource budgets
up front, are validated before a single line runs, and execute with a
capability gate between the program and every tool call.

Features:
  • Closed capability set (fs.read, fs.write, http.get, sh.exec)
  • Validate-before-run: parse/validate errors never reach the evaluator
  • Per-run resource budgets (time, tool calls, bytes written, iterations)
  • Structured NDJSON execution trace with evidence for every assert/check`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewFormatCommand())
	rootCmd.AddCommand(NewTraceCommand())
	rootCmd.AddCommand(NewHelpCommand())
	rootCmd.AddCommand(NewPolicyCommand())
	rootCmd.AddCommand(NewLSPCommand())

	return rootCmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the a0 binary's version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Print("a0 version: ")
			valueColor.Println(Version)

			titleColor.Print("Git commit: ")
			valueColor.Println(GitCommit)

			titleColor.Print("Build date: ")
			valueColor.Println(BuildDate)

			titleColor.Print("Go version: ")
			valueColor.Println(goVer)
		},
	}
}

// Execute runs the root command and returns the process exit code,
// per SPEC_FULL.md §6: 0 success, 1 CLI usage, or the code carried by
// an *ExitError returned from a subcommand's RunE.
func Execute() int {
	rootCmd := NewRootCommand()
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	errorColor := color.New(color.FgRed, color.Bold)
	errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)

	if ee, ok := err.(*ExitError); ok {
		return ee.Code
	}
	return 1
}
