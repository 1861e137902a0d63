package trace

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecord_CloneIsDeep(t *testing.T) {
	orig := rec("a", "N", 0).with(func(m *Metadata) {
		m.LoopIndex = IntPtr(2)
		m.AgentLog = []AgentLogEntry{{ID: "x", Data: json.RawMessage(`{"k":1}`)}}
	})
	orig.Outputs = json.RawMessage(`{"text":"hi"}`)
	orig.RetryDetail = []*Record{rec("r", "N", 0)}
	orig.Details = [][]*Record{{rec("c", "C", 1)}}

	c := orig.Clone()
	if diff := cmp.Diff(orig, c); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	*c.Metadata.LoopIndex = 9
	c.Metadata.AgentLog[0].Data[2] = 'X'
	c.Outputs[0] = '['
	c.RetryDetail[0].ID = "changed"
	c.Details[0][0].ID = "changed"

	if *orig.Metadata.LoopIndex != 2 {
		t.Errorf("expected loop index 2, got %d", *orig.Metadata.LoopIndex)
	}
	if string(orig.Metadata.AgentLog[0].Data) != `{"k":1}` {
		t.Errorf("agent log data aliased: %s", orig.Metadata.AgentLog[0].Data)
	}
	if string(orig.Outputs) != `{"text":"hi"}` {
		t.Errorf("outputs aliased: %s", orig.Outputs)
	}
	if orig.RetryDetail[0].ID != "r" || orig.Details[0][0].ID != "c" {
		t.Error("nested records aliased")
	}
}

func TestRecord_CloneNil(t *testing.T) {
	var r *Record
	if r.Clone() != nil {
		t.Error("expected nil clone of nil record")
	}
}

func TestRecord_DecodeWireFormat(t *testing.T) {
	data := `{
		"id": "exec-1",
		"index": 3,
		"node_id": "llm-1",
		"node_type": "llm",
		"status": "succeeded",
		"execution_metadata": {
			"parallel_id": "p1",
			"parallel_start_node_id": "llm-1",
			"loop_index": 0
		}
	}`
	var r Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if r.NodeType != NodeLLM {
		t.Errorf("expected node type llm, got %s", r.NodeType)
	}
	if r.ParallelID() != "p1" {
		t.Errorf("expected parallel id p1, got %s", r.ParallelID())
	}
	if r.Metadata.LoopIndex == nil || *r.Metadata.LoopIndex != 0 {
		t.Errorf("expected loop index 0, got %v", r.Metadata.LoopIndex)
	}
	if r.Metadata.IterationIndex != nil {
		t.Errorf("expected no iteration index, got %d", *r.Metadata.IterationIndex)
	}
}

func TestNodeType_IsContainer(t *testing.T) {
	if !NodeLoop.IsContainer() || !NodeIteration.IsContainer() {
		t.Error("loop and iteration should be containers")
	}
	if NodeAgent.IsContainer() {
		t.Error("agent should not be a container")
	}
}
