package trace

import (
	"sort"
	"time"

	"github.com/vinayprograms/runtrace/internal/logging"
)

// Label keys passed to a LabelFunc.
const (
	LabelParallel = "parallel"
	LabelBranch   = "branch"
)

// LabelFunc maps a label key to its display text.
type LabelFunc func(key string) string

// Stage names, in execution order.
const (
	StageAgentLog  = "agent-log"
	StageRetry     = "retry"
	StageContainer = "container"
	StageParallel  = "parallel"
)

type stage struct {
	name string
	run  func(p *pipeline, records []*Record) []*Record
}

// stages is the fixed order Reconcile applies. Each stage relies on the
// shape the previous one leaves behind.
var stages = []stage{
	{StageAgentLog, func(_ *pipeline, rs []*Record) []*Record { return attachAgentLogs(rs) }},
	{StageRetry, func(_ *pipeline, rs []*Record) []*Record { return groupRetries(rs) }},
	{StageContainer, func(p *pipeline, rs []*Record) []*Record { return groupContainers(rs, p.labels) }},
	{StageParallel, func(p *pipeline, rs []*Record) []*Record { return branchParallel(rs, p.labels) }},
}

// Stages returns the stage names in the order Reconcile runs them.
func Stages() []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.name
	}
	return names
}

type pipeline struct {
	labels LabelFunc
	log    *logging.Logger
}

// Option configures Reconcile.
type Option func(*pipeline)

// WithLogger logs a debug line after each stage.
func WithLogger(l *logging.Logger) Option {
	return func(p *pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// Reconcile turns a flat list of node execution records into the display
// tree. records is not modified; it need not be sorted. A nil labels
// returns each key unchanged.
func Reconcile(records []*Record, labels LabelFunc, opts ...Option) []*Record {
	if labels == nil {
		labels = func(key string) string { return key }
	}
	p := &pipeline{labels: labels, log: logging.Nop()}
	for _, opt := range opts {
		opt(p)
	}

	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	for _, s := range stages {
		start := time.Now()
		out = s.run(p, out)
		p.log.StageComplete(s.name, len(out), time.Since(start))
	}
	return out
}
