// Package trace reconciles the flat, index-ordered node execution records a
// workflow run emits into the nested tree a trace viewer displays.
//
// Retry attempts are folded under their final attempt, loop and iteration
// children are bucketed into per-round rows under their container, concurrent
// branches are grouped under a labelled parallel start node, and each agent or
// tool record's embedded call log is rebuilt into an acyclic tree.
package trace

import "encoding/json"

// NodeType is the kind of block a record executed.
type NodeType string

const (
	NodeStart       NodeType = "start"
	NodeEnd         NodeType = "end"
	NodeAnswer      NodeType = "answer"
	NodeLLM         NodeType = "llm"
	NodeAgent       NodeType = "agent"
	NodeTool        NodeType = "tool"
	NodeCode        NodeType = "code"
	NodeIfElse      NodeType = "if-else"
	NodeHTTPRequest NodeType = "http-request"
	NodeLoop        NodeType = "loop"
	NodeIteration   NodeType = "iteration"
)

// IsContainer reports whether records of this type own child records.
func (t NodeType) IsContainer() bool {
	return t == NodeLoop || t == NodeIteration
}

// Status is the execution outcome of a record.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRetry     Status = "retry"
	StatusException Status = "exception"
	StatusStopped   Status = "stopped"
)

// Record is one node execution. The display fields at the bottom are
// populated by Reconcile and are empty on input.
type Record struct {
	ID                string          `json:"id"`
	Index             int             `json:"index"`
	PredecessorNodeID string          `json:"predecessor_node_id,omitempty"`
	NodeID            string          `json:"node_id"`
	NodeType          NodeType        `json:"node_type"`
	Title             string          `json:"title,omitempty"`
	Inputs            json.RawMessage `json:"inputs,omitempty"`
	ProcessData       json.RawMessage `json:"process_data,omitempty"`
	Outputs           json.RawMessage `json:"outputs,omitempty"`
	Status            Status          `json:"status"`
	Error             string          `json:"error,omitempty"`
	ElapsedTime       float64         `json:"elapsed_time,omitempty"`
	Metadata          *Metadata       `json:"execution_metadata,omitempty"`
	CreatedAt         int64           `json:"created_at,omitempty"`
	FinishedAt        int64           `json:"finished_at,omitempty"`

	RetryDetail    []*Record       `json:"retryDetail,omitempty"`
	Details        [][]*Record     `json:"details,omitempty"`
	AgentLog       []*AgentLogNode `json:"agentLog,omitempty"`
	ParallelDetail *ParallelDetail `json:"parallelDetail,omitempty"`
}

// Metadata carries the grouping keys the engine reads.
type Metadata struct {
	TotalTokens int     `json:"total_tokens,omitempty"`
	TotalPrice  float64 `json:"total_price,omitempty"`
	Currency    string  `json:"currency,omitempty"`

	ParallelID                string `json:"parallel_id,omitempty"`
	ParentParallelID          string `json:"parent_parallel_id,omitempty"`
	ParallelStartNodeID       string `json:"parallel_start_node_id,omitempty"`
	ParentParallelStartNodeID string `json:"parent_parallel_start_node_id,omitempty"`
	ParallelModeRunID         string `json:"parallel_mode_run_id,omitempty"`

	IterationID    string `json:"iteration_id,omitempty"`
	IterationIndex *int   `json:"iteration_index,omitempty"`
	LoopID         string `json:"loop_id,omitempty"`
	LoopIndex      *int   `json:"loop_index,omitempty"`

	AgentLog []AgentLogEntry `json:"agent_log,omitempty"`
}

// AgentLogEntry is one flat entry of an agent or tool call log.
// A missing ParentID marks a root.
type AgentLogEntry struct {
	ID              string          `json:"id"`
	ParentID        string          `json:"parent_id,omitempty"`
	NodeID          string          `json:"node_id,omitempty"`
	NodeExecutionID string          `json:"node_execution_id,omitempty"`
	Label           string          `json:"label,omitempty"`
	Status          string          `json:"status,omitempty"`
	Error           string          `json:"error,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

// AgentLogNode is an entry placed in the rebuilt call tree.
type AgentLogNode struct {
	AgentLogEntry
	Children []*AgentLogNode `json:"children"`
	// HasCircle is set on the ancestor at which a repeated id was cut.
	HasCircle bool `json:"hasCircle,omitempty"`
}

// ParallelDetail is attached to records taking part in a parallel group.
type ParallelDetail struct {
	IsParallelStartNode bool      `json:"isParallelStartNode,omitempty"`
	ParallelTitle       string    `json:"parallelTitle,omitempty"`
	BranchTitle         string    `json:"branchTitle,omitempty"`
	Children            []*Record `json:"children,omitempty"`
}

// IntPtr returns a pointer to v, for building metadata indexes.
func IntPtr(v int) *int {
	return &v
}

func (r *Record) meta() *Metadata {
	if r.Metadata == nil {
		return &Metadata{}
	}
	return r.Metadata
}

// ParallelID returns the parallel group the record ran in, if any.
func (r *Record) ParallelID() string {
	return r.meta().ParallelID
}

// inParallel reports whether the parallel stage should consider r.
// End nodes carry the id of the group they close but never join it.
func (r *Record) inParallel() bool {
	return r.ParallelID() != "" && r.NodeType != NodeEnd
}

// scoped reports whether r claims membership of a loop or iteration.
func (r *Record) scoped() bool {
	m := r.meta()
	return m.IterationID != "" || m.LoopID != ""
}

func cloneRaw(m json.RawMessage) json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(json.RawMessage, len(m))
	copy(out, m)
	return out
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	return IntPtr(*p)
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	c.IterationIndex = cloneIntPtr(m.IterationIndex)
	c.LoopIndex = cloneIntPtr(m.LoopIndex)
	if m.AgentLog != nil {
		c.AgentLog = make([]AgentLogEntry, len(m.AgentLog))
		for i := range m.AgentLog {
			c.AgentLog[i] = m.AgentLog[i].Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of e.
func (e AgentLogEntry) Clone() AgentLogEntry {
	e.Data = cloneRaw(e.Data)
	e.Metadata = cloneRaw(e.Metadata)
	return e
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *AgentLogNode) Clone() *AgentLogNode {
	if n == nil {
		return nil
	}
	c := &AgentLogNode{
		AgentLogEntry: n.AgentLogEntry.Clone(),
		Children:      cloneAgentLog(n.Children),
		HasCircle:     n.HasCircle,
	}
	return c
}

func cloneAgentLog(nodes []*AgentLogNode) []*AgentLogNode {
	if nodes == nil {
		return nil
	}
	out := make([]*AgentLogNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Clone returns a deep copy of d, including its children.
func (d *ParallelDetail) Clone() *ParallelDetail {
	if d == nil {
		return nil
	}
	c := *d
	c.Children = cloneRecords(d.Children)
	return &c
}

// Clone returns a deep copy of r, display fields included.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Inputs = cloneRaw(r.Inputs)
	c.ProcessData = cloneRaw(r.ProcessData)
	c.Outputs = cloneRaw(r.Outputs)
	c.Metadata = r.Metadata.Clone()
	c.RetryDetail = cloneRecords(r.RetryDetail)
	if r.Details != nil {
		c.Details = make([][]*Record, len(r.Details))
		for i, row := range r.Details {
			c.Details[i] = cloneRecords(row)
		}
	}
	c.AgentLog = cloneAgentLog(r.AgentLog)
	c.ParallelDetail = r.ParallelDetail.Clone()
	return &c
}

func cloneRecords(records []*Record) []*Record {
	if records == nil {
		return nil
	}
	out := make([]*Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
