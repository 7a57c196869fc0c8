package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/a0-lang/a0/internal/cli/ui"
	"github.com/a0-lang/a0/internal/diagnostics"
	"github.com/a0-lang/a0/internal/runtime/ast"
	"github.com/a0-lang/a0/internal/runtime/capability"
	"github.com/a0-lang/a0/internal/runtime/evaluator"
	"github.com/a0-lang/a0/internal/runtime/lexer"
	"github.com/a0-lang/a0/internal/runtime/parser"
	"github.com/a0-lang/a0/internal/runtime/trace"
	"github.com/a0-lang/a0/internal/runtime/validator"
	"github.com/a0-lang/a0/internal/runtime/values"
	"github.com/a0-lang/a0/internal/tool"
)

var (
	runUnsafeAllowAll bool
	runPretty         bool
	runTracePath      string
	runEvidencePath   string
)

// NewRunCommand creates the `a0 run` command: lex, parse, validate,
// and evaluate a program, printing its return value as JSON.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file|->",
		Short: "Run an A0 program",
		Long: `Run an A0 program and print its return value as JSON.

Use "-" to read the program from stdin.

Examples:
  a0 run hello.a0
  a0 run --pretty hello.a0
  cat hello.a0 | a0 run -`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}

	cmd.Flags().BoolVar(&runUnsafeAllowAll, "unsafe-allow-all", false, "grant every known capability, bypassing policy resolution")
	cmd.Flags().BoolVar(&runPretty, "pretty", false, "colored multi-line diagnostics and indented JSON output")
	cmd.Flags().StringVar(&runTracePath, "trace", "", "write an NDJSON execution trace to this path")
	cmd.Flags().StringVar(&runEvidencePath, "evidence", "", "write accumulated assert/check evidence as JSON to this path")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	source, projectDir, err := readProgramSource(args[0], cmd.InOrStdin())
	if err != nil {
		return exitf(1, err)
	}

	prog, diags, parseErr := loadProgram(args[0], source)
	if parseErr != nil {
		writeDiagnostics(cmd, []*diagnostics.Diagnostic{parseErr}, source, runPretty)
		return exitf(diagnostics.ExitCode(parseErr.Code), parseErr)
	}
	if len(diags) > 0 {
		writeDiagnostics(cmd, diags, source, runPretty)
		return exitf(diagnostics.ExitCode(diags[0].Code), diags[0])
	}

	policy, err := capability.Resolve(projectDir, runUnsafeAllowAll)
	if err != nil {
		return exitf(1, fmt.Errorf("resolving capability policy: %w", err))
	}

	var traceFile *os.File
	var traceWriter io.Writer
	if runTracePath != "" {
		traceFile, err = os.Create(runTracePath)
		if err != nil {
			return exitf(1, fmt.Errorf("opening trace file: %w", err))
		}
		defer traceFile.Close()
		traceWriter = traceFile
	}
	tracer := trace.NewTracer(traceWriter)

	ctx := context.Background()
	var cancel context.CancelFunc
	if prog.Budget != nil && prog.Budget.TimeMs != nil {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*prog.Budget.TimeMs)*time.Millisecond)
		defer cancel()
	}

	ev := evaluator.New(ctx, prog, evaluator.Options{
		Tools:  tool.Default(),
		Policy: policy,
		Tracer: tracer,
	})

	var result values.Value
	var fault *evaluator.Fault
	if runPretty {
		ui.WithSpinner(cmd.ErrOrStderr(), "running "+args[0], false, func() error {
			result, fault = ev.Run()
			if fault != nil {
				return fault
			}
			return nil
		})
	} else {
		result, fault = ev.Run()
	}

	if runEvidencePath != "" {
		if err := writeEvidence(runEvidencePath, tracer); err != nil {
			return exitf(1, fmt.Errorf("writing evidence file: %w", err))
		}
	}

	if fault != nil {
		d := diagnostics.New(fault.Code, fault.Message, fault.Span)
		writeDiagnostics(cmd, []*diagnostics.Diagnostic{d}, source, runPretty)
		return exitf(diagnostics.ExitCode(fault.Code), d)
	}

	return writeResult(cmd, result)
}

// readProgramSource reads program source from a file path or, for
// "-", from stdin. It also returns the project directory used for
// capability policy resolution: the source file's directory, or the
// current working directory when reading from stdin.
func readProgramSource(path string, stdin io.Reader) (source, projectDir string, err error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", err
		}
		return string(data), cwd, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	return string(data), filepath.Dir(abs), nil
}

// loadProgram lexes, parses, and validates source, short-circuiting on
// the first lex/parse error since there is no AST to validate yet.
func loadProgram(file, source string) (*ast.Program, []*diagnostics.Diagnostic, *diagnostics.Diagnostic) {
	lx := lexer.New(file, source)
	tokens := lx.ScanAll()
	if errs := lx.Errors(); len(errs) > 0 {
		e := errs[0]
		sp := ast.Span{File: file, StartLine: e.Line, StartCol: e.Column, EndLine: e.Line, EndCol: e.Column}
		return nil, nil, diagnostics.New(diagnostics.E_LEX, e.Error(), sp)
	}

	p := parser.New(file, tokens)
	prog, perr := p.Parse()
	if perr != nil {
		return nil, nil, diagnostics.New(diagnostics.E_PARSE, perr.Error(), perr.Span)
	}

	return prog, validator.Validate(prog), nil
}

func writeDiagnostics(cmd *cobra.Command, diags []*diagnostics.Diagnostic, source string, pretty bool) {
	w := cmd.ErrOrStderr()
	if pretty {
		for _, d := range diags {
			if box := domainErrorBox(d); box != "" {
				fmt.Fprint(w, box)
				continue
			}
			diagnostics.WritePretty(w, d, source)
		}
		return
	}
	data, err := json.Marshal(diags)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintln(w, string(data))
}

// domainErrorBox renders a diagnostic through ui's capability/budget
// error boxes when its code has a domain-specific rendering, or
// returns "" to fall back to diagnostics.WritePretty.
func domainErrorBox(d *diagnostics.Diagnostic) string {
	switch d.Code {
	case diagnostics.E_CAP_DENIED:
		return ui.CapabilityDeniedError(quotedName(d.Message), false)
	case diagnostics.E_UNKNOWN_CAP:
		name := quotedName(d.Message)
		names := make([]string, 0, len(capability.Known))
		for known := range capability.Known {
			names = append(names, known)
		}
		return ui.UnknownCapabilityError(name, ui.FindSimilar(name, names, nil), false)
	case diagnostics.E_BUDGET:
		return ui.BudgetExceededError(d.Message, false)
	default:
		return ""
	}
}

var quotedNameRe = regexp.MustCompile(`"([^"]+)"`)

func quotedName(message string) string {
	m := quotedNameRe.FindStringSubmatch(message)
	if m == nil {
		return message
	}
	return m[1]
}

func writeResult(cmd *cobra.Command, v values.Value) error {
	data, err := values.MarshalJSON(v)
	if err != nil {
		return exitf(4, err)
	}
	if runPretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return exitf(4, err)
		}
		data = buf.Bytes()
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func writeEvidence(path string, tracer *trace.Tracer) error {
	data, err := json.MarshalIndent(tracer.Evidence(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
