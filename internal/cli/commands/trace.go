package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/a0-lang/a0/internal/runtime/trace"
	"github.com/a0-lang/a0/internal/traceserve"
)

var (
	traceJSON      bool
	traceText      bool
	traceServePort int
)

// Report is the summary `a0 trace` prints for a completed run's NDJSON
// trace file, per SPEC_FULL.md §6.
type Report struct {
	RunID           string         `json:"runId"`
	TotalEvents     int            `json:"totalEvents"`
	ToolInvocations int            `json:"toolInvocations"`
	ToolsByName     map[string]int `json:"toolsByName"`
	EvidenceCount   int            `json:"evidenceCount"`
	Failures        int            `json:"failures"`
	BudgetExceeded  bool           `json:"budgetExceeded"`
	StartTime       string         `json:"startTime"`
	EndTime         string         `json:"endTime"`
	DurationMs      int64          `json:"durationMs"`
}

// NewTraceCommand creates the `a0 trace` command.
func NewTraceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <file.jsonl>",
		Short: "Summarize or tail an NDJSON execution trace",
		Long: `Read an NDJSON execution trace (produced by "a0 run --trace") and print
a summary, or serve it to a browser over a websocket as it grows.

Examples:
  a0 trace run.jsonl
  a0 trace --text run.jsonl
  a0 trace --serve 8085 run.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: runTrace,
	}

	cmd.Flags().BoolVar(&traceJSON, "json", true, "print the summary as JSON")
	cmd.Flags().BoolVar(&traceText, "text", false, "print the summary as a human-readable table")
	cmd.Flags().IntVar(&traceServePort, "serve", 0, "serve the trace over a websocket on this port instead of summarizing")

	return cmd
}

func runTrace(cmd *cobra.Command, args []string) error {
	path := args[0]

	if traceServePort != 0 {
		return serveTrace(cmd, path, traceServePort)
	}

	report, err := summarizeTraceFile(path)
	if err != nil {
		return exitf(1, err)
	}

	if traceText {
		printTraceText(cmd, report)
		return nil
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return exitf(1, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func serveTrace(cmd *cobra.Command, path string, port int) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "serving %s on http://localhost:%d\n", path, port)
	return traceserve.Serve(ctx, port, path)
}

// summarizeTraceFile reads path line by line, unmarshaling each NDJSON
// line as a trace.Event and folding it into a Report.
func summarizeTraceFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	report := &Report{ToolsByName: map[string]int{}}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e trace.Event
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parsing trace line: %w", err)
		}

		report.TotalEvents++
		if report.RunID == "" {
			report.RunID = e.RunID
		}
		if report.StartTime == "" {
			report.StartTime = e.Time
		}
		report.EndTime = e.Time

		switch e.Tag {
		case trace.ToolStart:
			report.ToolInvocations++
			report.ToolsByName[e.Tool]++
		case trace.Evidence:
			report.EvidenceCount++
			if !e.Ok {
				report.Failures++
			}
		case trace.BudgetExceeded:
			report.BudgetExceeded = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if report.StartTime != "" && report.EndTime != "" {
		start, errStart := time.Parse(time.RFC3339Nano, report.StartTime)
		end, errEnd := time.Parse(time.RFC3339Nano, report.EndTime)
		if errStart == nil && errEnd == nil {
			report.DurationMs = end.Sub(start).Milliseconds()
		}
	}

	return report, nil
}

func printTraceText(cmd *cobra.Command, r *Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run id:           %s\n", r.RunID)
	fmt.Fprintf(w, "total events:     %d\n", r.TotalEvents)
	fmt.Fprintf(w, "tool invocations: %d\n", r.ToolInvocations)
	for name, count := range r.ToolsByName {
		fmt.Fprintf(w, "  %-16s %d\n", name, count)
	}
	fmt.Fprintf(w, "evidence count:   %d\n", r.EvidenceCount)
	fmt.Fprintf(w, "failures:         %d\n", r.Failures)
	fmt.Fprintf(w, "budget exceeded:  %t\n", r.BudgetExceeded)
	fmt.Fprintf(w, "start:            %s\n", r.StartTime)
	fmt.Fprintf(w, "end:              %s\n", r.EndTime)
	fmt.Fprintf(w, "duration:         %dms\n", r.DurationMs)
}
