package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEmitStampsRunIDAndTime(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracer(&buf)
	tr.Emit(Event{Tag: RunStart})

	var got Event
	if err := json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.RunID != tr.RunID() {
		t.Errorf("expected runId %q, got %q", tr.RunID(), got.RunID)
	}
	if got.Time == "" {
		t.Errorf("expected time to be stamped")
	}
}

func TestNewTracerNilWriterStillAccumulatesEvidence(t *testing.T) {
	tr := NewTracer(nil)
	tr.Emit(Event{Tag: Evidence, Code: "E_ASSERT", Ok: false})

	ev := tr.Evidence()
	if len(ev) != 1 {
		t.Fatalf("expected 1 evidence event, got %d", len(ev))
	}
	if ev[0].RunID != tr.RunID() {
		t.Errorf("expected evidence to carry the tracer's runId")
	}
}

func TestSummarizeCountsPassAndFail(t *testing.T) {
	tr := NewTracer(nil)
	tr.Emit(Event{Tag: Evidence, Ok: true})
	tr.Emit(Event{Tag: Evidence, Ok: false})
	tr.Emit(Event{Tag: Evidence, Ok: true})

	s := tr.Summarize()
	if s.TotalChecks != 3 || s.PassedChecks != 2 || s.FailedChecks != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestEventTagsRoundTripAsJSONStrings(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracer(&buf)
	tr.Emit(Event{Tag: ToolStart, Tool: "fs.read"})

	if !strings.Contains(buf.String(), `"tool_start"`) {
		t.Errorf("expected tag to serialize as tool_start, got %s", buf.String())
	}
}
