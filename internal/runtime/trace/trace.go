// Package trace implements A0's structured execution trace: one
// NDJSON event per line emitted as the evaluator walks the program,
// plus a separate evidence accumulator for assert/check outcomes. The
// event-struct-to-JSON-line shape is grounded on the donor's
// compiler/errors error type, which the same way marshals a typed Go
// struct straight to JSON for machine consumption.
package trace

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a0-lang/a0/internal/runtime/ast"
)

// Tag identifies the kind of a trace Event.
type Tag string

const (
	RunStart      Tag = "run_start"
	RunEnd        Tag = "run_end"
	StmtStart     Tag = "stmt_start"
	StmtEnd       Tag = "stmt_end"
	ToolStart     Tag = "tool_start"
	ToolEnd       Tag = "tool_end"
	Evidence      Tag = "evidence"
	BudgetExceeded Tag = "budget_exceeded"
	ForStart      Tag = "for_start"
	ForEnd        Tag = "for_end"
	FnCallStart   Tag = "fn_call_start"
	FnCallEnd     Tag = "fn_call_end"
	MatchStart    Tag = "match_start"
	MatchEnd      Tag = "match_end"
	MapStart      Tag = "map_start"
	MapEnd        Tag = "map_end"
	TryStart      Tag = "try_start"
	TryEnd        Tag = "try_end"
)

// Event is one NDJSON line of the trace. Field names on the wire
// follow SPEC_FULL.md §4.7/§6 ("event", not "tag"; an evidence
// record's pass/fail is "ok"/"msg", not "passed"/"message").
type Event struct {
	RunID   string          `json:"runId,omitempty"`
	Tag     Tag             `json:"event"`
	Time    string          `json:"ts,omitempty"`
	Tool    string          `json:"tool,omitempty"`
	Fn      string          `json:"fn,omitempty"`
	Code    string          `json:"code,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Ok      bool            `json:"ok"`
	Msg     string          `json:"msg,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
	Span    ast.Span        `json:"span,omitempty"`
}

// Tracer emits Events as NDJSON to an io.Writer (a nil writer
// silently discards everything) and separately accumulates evidence
// events, readable through Evidence and Summarize. Every event it
// emits is stamped with the same runId, minted once per Tracer.
type Tracer struct {
	mu       sync.Mutex
	w        io.Writer
	runID    string
	evidence []Event
}

// NewTracer creates a Tracer that writes NDJSON lines to w. w may be
// nil to collect evidence without emitting a trace stream.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w, runID: uuid.NewString()}
}

// RunID returns the run identifier stamped into every event this
// Tracer emits.
func (t *Tracer) RunID() string {
	return t.runID
}

// Emit records an event, stamping its run id and time, writing it to
// the configured writer, and appending it to the evidence list if it
// is an evidence event.
func (t *Tracer) Emit(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e.RunID = t.runID
	e.Time = time.Now().UTC().Format(time.RFC3339Nano)

	if e.Tag == Evidence {
		t.evidence = append(t.evidence, e)
	}

	if t.w == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	t.w.Write(append(data, '\n'))
}

// Evidence returns every evidence event recorded so far, in order.
func (t *Tracer) Evidence() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.evidence))
	copy(out, t.evidence)
	return out
}

// Summary counts the passed and failed evidence events of a Tracer.
// It is separate from the report `a0 trace` builds from a trace file.
type Summary struct {
	TotalChecks  int `json:"totalChecks"`
	PassedChecks int `json:"passedChecks"`
	FailedChecks int `json:"failedChecks"`
}

// Summarize reduces a Tracer's accumulated evidence into a Summary.
func (t *Tracer) Summarize() Summary {
	var s Summary
	for _, e := range t.Evidence() {
		s.TotalChecks++
		if e.Ok {
			s.PassedChecks++
		} else {
			s.FailedChecks++
		}
	}
	return s
}
