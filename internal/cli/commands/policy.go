package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/a0-lang/a0/internal/cli/ui"
	"github.com/a0-lang/a0/internal/runtime/capability"
)

var policyJSON bool

// NewPolicyCommand creates the `a0 policy` command tree: `a0 policy`
// prints the effective policy for the current directory, `a0 policy
// edit` walks the user through an interactive allow/deny prompt and
// writes the result to .a0policy.json.
func NewPolicyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Show or edit the effective capability policy",
		Long: `Show the effective capability policy for the current directory: the
project's .a0policy.json if present, else the user's ~/.a0/policy.json,
else deny-all. Policy "limits" are shown with --json but not enforced;
program budgets (cap/budget headers) are authoritative.`,
		RunE: runPolicyShow,
	}

	cmd.Flags().BoolVar(&policyJSON, "json", false, "print the raw policy as JSON instead of a table")
	cmd.AddCommand(newPolicyEditCommand())
	return cmd
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return exitf(1, err)
	}

	policy, err := capability.Resolve(cwd, false)
	if err != nil {
		return exitf(1, fmt.Errorf("resolving policy: %w", err))
	}

	if policyJSON {
		data, err := json.MarshalIndent(policy, "", "  ")
		if err != nil {
			return exitf(1, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	names := make([]string, 0, len(capability.Known))
	for name := range capability.Known {
		names = append(names, name)
	}
	sort.Strings(names)

	effective := policy.Effective()
	table := ui.NewTable(cmd.OutOrStdout(), []string{"capability", "mode", "status"}, nil)
	for _, name := range names {
		mode := "read"
		if capability.ModeOf(name) == capability.Effect {
			mode = "effect"
		}
		status := "deny"
		if effective[name] {
			status = "allow"
		}
		table.AddRow(name, mode, status)
	}
	table.Render()
	return nil
}

func newPolicyEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Interactively choose allowed capabilities for this project",
		RunE:  runPolicyEdit,
	}
}

func runPolicyEdit(cmd *cobra.Command, args []string) error {
	names := make([]string, 0, len(capability.Known))
	for name := range capability.Known {
		names = append(names, name)
	}
	sort.Strings(names)

	var allowed []string
	prompt := &survey.MultiSelect{
		Message: "Allow which capabilities for this project?",
		Options: names,
	}
	if err := survey.AskOne(prompt, &allowed); err != nil {
		return exitf(1, fmt.Errorf("prompt canceled: %w", err))
	}

	var deny []string
	for _, name := range names {
		found := false
		for _, a := range allowed {
			if a == name {
				found = true
				break
			}
		}
		if !found {
			deny = append(deny, name)
		}
	}

	policy := capability.Policy{Allow: allowed, Deny: deny}

	data, err := json.MarshalIndent(policy, "", "  ")
	if err != nil {
		return exitf(1, err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return exitf(1, err)
	}
	path := filepath.Join(cwd, ".a0policy.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return exitf(1, fmt.Errorf("writing %s: %w", path, err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
