package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/a0-lang/a0/internal/cli/ui"
	"github.com/a0-lang/a0/internal/runtime/stdlibdoc"
)

var helpIndex bool

// NewHelpCommand creates the `a0 help` command: with no argument it
// lists every stdlib category, with a category name it lists that
// category's functions, and with a function name it prints that
// function's signature and description.
func NewHelpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "help [topic]",
		Short: "Show help for an A0 stdlib category or function",
		Long: `Show help for A0's standard library.

a0 help             lists every stdlib category
a0 help strings     lists the functions in the "strings" category
a0 help str.split   shows str.split's signature and description`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHelp,
	}

	cmd.Flags().BoolVar(&helpIndex, "index", false, "print every function across every category")

	return cmd
}

func runHelp(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgCyan, color.Bold)
	nameColor := color.New(color.FgGreen)

	if helpIndex {
		printIndex(cmd, titleColor, nameColor)
		return nil
	}

	if len(args) == 0 {
		titleColor.Fprintln(cmd.OutOrStdout(), "A0 stdlib categories:")
		for _, ns := range stdlibdoc.GetNamespaces() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", ns)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nRun 'a0 help <category>' or 'a0 help <fn.name>' for details.")
		return nil
	}

	topic := args[0]

	if fns := stdlibdoc.GetFunctions(topic); fns != nil {
		titleColor.Fprintf(cmd.OutOrStdout(), "%s:\n", topic)
		for _, fn := range fns {
			printFunction(cmd, nameColor, fn)
		}
		return nil
	}

	if fn, ok := stdlibdoc.Find(topic); ok {
		printFunction(cmd, nameColor, fn)
		return nil
	}

	if suggestions := ui.FindSimilar(topic, helpTopics(), nil); len(suggestions) > 0 {
		return exitf(1, fmt.Errorf("no help topic %q (did you mean: %s?)", topic, strings.Join(suggestions, ", ")))
	}
	return exitf(1, fmt.Errorf("no help topic %q (try 'a0 help' for a list of categories)", topic))
}

// helpTopics returns every category and function name, for fuzzy
// "did you mean" suggestions on an unrecognized help topic.
func helpTopics() []string {
	var topics []string
	for category, fns := range stdlibdoc.GetAllFunctions() {
		topics = append(topics, category)
		for _, fn := range fns {
			topics = append(topics, fn.Name)
		}
	}
	return topics
}

func printIndex(cmd *cobra.Command, titleColor, nameColor *color.Color) {
	all := stdlibdoc.GetAllFunctions()
	categories := make([]string, 0, len(all))
	for c := range all {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		titleColor.Fprintf(cmd.OutOrStdout(), "%s:\n", category)
		for _, fn := range all[category] {
			printFunction(cmd, nameColor, fn)
		}
	}
}

func printFunction(cmd *cobra.Command, nameColor *color.Color, fn stdlibdoc.FunctionDef) {
	nameColor.Fprintf(cmd.OutOrStdout(), "  %s\n", fn.Signature)
	fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", fn.Description)
}
