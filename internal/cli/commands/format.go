package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/a0-lang/a0/internal/format"
)

var (
	formatWrite  bool
	formatCheck  bool
	formatConfig string
)

// NewFormatCommand creates the `a0 fmt` command.
func NewFormatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [files...]",
		Short: "Format A0 source files",
		Long: `Format A0 source files (.a0) using the configured style rules.

By default, shows a diff preview of what would change without modifying files.
Use --write to apply formatting changes, or --check to verify formatting.

Examples:
  a0 fmt                    # Show diff for all .a0 files
  a0 fmt --write            # Format and save all files
  a0 fmt --check            # Exit with error if not formatted
  a0 fmt file.a0            # Format a specific file
  a0 fmt src/*.a0           # Format files matching a pattern`,
		RunE: runFormat,
	}

	cmd.Flags().BoolVarP(&formatWrite, "write", "w", false, "Write formatted output to files")
	cmd.Flags().BoolVarP(&formatCheck, "check", "c", false, "Check if files are formatted (exit 1 if not)")
	cmd.Flags().StringVar(&formatConfig, "config", ".a0-format.yml", "Path to formatting config file")

	return cmd
}

func runFormat(cmd *cobra.Command, args []string) error {
	config, err := format.LoadConfig(formatConfig)
	if err != nil {
		return exitf(1, fmt.Errorf("failed to load config: %w", err))
	}

	files, err := findA0Files(args)
	if err != nil {
		return exitf(1, fmt.Errorf("failed to find files: %w", err))
	}

	if len(files) == 0 {
		return exitf(1, fmt.Errorf("no .a0 files found"))
	}

	hasChanges := false
	errorCount := 0

	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen)
	errorColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow)

	for _, file := range files {
		original, err := os.ReadFile(file)
		if err != nil {
			errorColor.Fprintf(cmd.ErrOrStderr(), "Error reading %s: %v\n", file, err)
			errorCount++
			continue
		}

		if format.HasComments(string(original)) {
			warnColor.Fprintf(cmd.ErrOrStderr(), "warning: %s has comments; the formatter discards them\n", file)
		}

		formatter := format.New(config)
		formatted, err := formatter.Format(string(original))
		if err != nil {
			errorColor.Fprintf(cmd.ErrOrStderr(), "Error formatting %s: %v\n", file, err)
			errorCount++
			continue
		}

		diff := format.Diff(string(original), formatted)
		if !diff.Changed {
			if !formatCheck {
				successColor.Fprintf(cmd.OutOrStdout(), "✓ %s (no changes)\n", file)
			}
			continue
		}

		hasChanges = true

		switch {
		case formatCheck:
			errorColor.Fprintf(cmd.ErrOrStderr(), "✗ %s needs formatting\n", file)
		case formatWrite:
			if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
				errorColor.Fprintf(cmd.ErrOrStderr(), "Error writing %s: %v\n", file, err)
				errorCount++
				continue
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ %s formatted\n", file)
		default:
			titleColor.Fprintf(cmd.OutOrStdout(), "\n=== %s ===\n", file)
			fmt.Fprintln(cmd.OutOrStdout(), diff.String())
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", diff.Stats())
		}
	}

	if !formatWrite && !formatCheck && hasChanges {
		fmt.Fprintf(cmd.OutOrStdout(), "\n")
		titleColor.Fprintf(cmd.OutOrStdout(), "Run 'a0 fmt --write' to apply changes\n")
	}

	if formatCheck && hasChanges {
		return exitf(1, fmt.Errorf("files need formatting"))
	}

	if errorCount > 0 {
		return exitf(1, fmt.Errorf("%d files had errors", errorCount))
	}

	return nil
}

// findA0Files finds all .a0 files to format, resolving directories and
// glob patterns relative to the current working directory and
// rejecting any path that escapes it.
func findA0Files(patterns []string) ([]string, error) {
	var files []string

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	for _, pattern := range patterns {
		absPattern, err := filepath.Abs(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", pattern, err)
		}

		relPath, err := filepath.Rel(cwd, absPattern)
		if err != nil || strings.HasPrefix(relPath, "..") {
			return nil, fmt.Errorf("path %s is outside working directory", pattern)
		}

		info, err := os.Stat(absPattern)
		if err == nil && info.IsDir() {
			err := filepath.Walk(absPattern, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() && (strings.HasPrefix(info.Name(), ".") || info.Name() == "build" || info.Name() == "node_modules") {
					return filepath.SkipDir
				}
				if !info.IsDir() && strings.HasSuffix(path, ".a0") {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			matches, err := filepath.Glob(absPattern)
			if err != nil {
				return nil, err
			}
			for _, match := range matches {
				absMatch, err := filepath.Abs(match)
				if err != nil {
					continue
				}
				relMatch, err := filepath.Rel(cwd, absMatch)
				if err != nil || strings.HasPrefix(relMatch, "..") {
					continue
				}
				if strings.HasSuffix(match, ".a0") {
					files = append(files, match)
				}
			}
		}
	}

	seen := make(map[string]bool)
	unique := []string{}
	for _, file := range files {
		if !seen[file] {
			seen[file] = true
			unique = append(unique, file)
		}
	}

	return unique, nil
}
