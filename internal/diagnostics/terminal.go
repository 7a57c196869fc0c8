package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	codeColor   = color.New(color.FgRed, color.Bold)
	fileColor   = color.New(color.FgCyan)
	hintColor   = color.New(color.FgYellow)
	warnColor   = color.New(color.FgYellow, color.Bold)
)

// WritePretty renders d as a colored, multi-line diagnostic — used
// when the CLI is run with --pretty instead of the default JSON
// encoding.
func WritePretty(w io.Writer, d *Diagnostic, source string) {
	severityColor := codeColor
	if d.Severity == Warning {
		severityColor = warnColor
	}

	fileColor.Fprintf(w, "%s:%d:%d: ", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	severityColor.Fprintf(w, "%s", d.Code)
	fmt.Fprintf(w, ": %s\n", d.Message)

	if line := sourceLine(source, d.Span.StartLine); line != "" {
		fmt.Fprintf(w, "  %s\n", line)
		fmt.Fprintf(w, "  %s\n", caret(d.Span.StartCol))
	}

	if d.Hint != "" {
		hintColor.Fprintf(w, "  hint: %s\n", d.Hint)
	}
}

func sourceLine(source string, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func caret(col int) string {
	if col < 1 {
		col = 1
	}
	return strings.Repeat(" ", col-1) + "^"
}
