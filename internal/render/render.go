package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/vinayprograms/runtrace/internal/trace"
)

// Renderer writes a reconciled trace as an indented timeline.
type Renderer struct {
	output         io.Writer
	verbosity      int // 0=normal, 1=verbose (-v), 2=very verbose (-vv)
	maxPayloadSize int // Maximum bytes of inputs/outputs shown (0 = unlimited)
	title          string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMaxPayloadSize limits how much of each input/output payload is shown.
func WithMaxPayloadSize(size int) Option {
	return func(r *Renderer) {
		r.maxPayloadSize = size
	}
}

// WithTitle sets the header line.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		r.title = title
	}
}

// New creates a new Renderer.
func New(output io.Writer, verbosity int, opts ...Option) *Renderer {
	r := &Renderer{
		output:         output,
		verbosity:      verbosity,
		maxPayloadSize: 2 * 1024,
		title:          "EXECUTION TRACE",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the header and every top-level record.
func (r *Renderer) Render(records []*trace.Record) error {
	fmt.Fprintln(r.output, divider)
	fmt.Fprintf(r.output, "%s %s\n", titleStyle.Render(r.title), dimStyle.Render(fmt.Sprintf("(%d top-level nodes)", len(records))))
	fmt.Fprintln(r.output, divider)

	for _, rec := range records {
		r.record(rec, fmt.Sprintf("%d", rec.Index), 0)
	}

	fmt.Fprintln(r.output, divider)
	return nil
}

// RenderString renders records into a string, for the pager.
func (r *Renderer) RenderString(records []*trace.Record) (string, error) {
	var buf strings.Builder
	saved := r.output
	r.output = &buf
	defer func() { r.output = saved }()

	if err := r.Render(records); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// line writes one row. seq is the index column; empty for nested rows.
func (r *Renderer) line(seq string, depth int, text string) {
	fmt.Fprintf(r.output, "%s │ %s%s\n", seqStyle.Render(seq), strings.Repeat("  ", depth), text)
}

func (r *Renderer) record(rec *trace.Record, seq string, depth int) {
	if d := rec.ParallelDetail; d != nil && d.IsParallelStartNode {
		r.group(rec, seq, depth)
		return
	}

	style, glyph := statusStyle(rec.Status)
	text := style.Render(glyph) + " " + valueStyle.Render(displayName(rec)) + " " + dimStyle.Render(string(rec.NodeType))
	if rec.ElapsedTime > 0 {
		text += " " + dimStyle.Render(formatSeconds(rec.ElapsedTime))
	}
	if m := rec.Metadata; m != nil && m.TotalTokens > 0 && !rec.NodeType.IsContainer() {
		text += " " + dimStyle.Render(fmt.Sprintf("%d tok", m.TotalTokens))
	}
	if n := len(rec.RetryDetail); n > 0 {
		text += " " + warnStyle.Render(fmt.Sprintf("↻ %d %s", n, plural(n, "retry", "retries")))
	}
	r.line(seq, depth, text)

	if r.verbosity >= 1 && rec.Error != "" {
		r.block(depth+1, errorStyle.Render(rec.Error))
	}
	if r.verbosity >= 1 {
		r.retries(rec.RetryDetail, depth+1)
	}
	if r.verbosity >= 2 {
		r.payload("inputs", rec.Inputs, depth+1)
		r.payload("outputs", rec.Outputs, depth+1)
	}
	if rec.NodeType.IsContainer() || len(rec.Details) > 0 {
		r.rounds(rec, depth+1)
	}
	if r.verbosity >= 1 && len(rec.AgentLog) > 0 {
		r.line("", depth+1, blockHeaderStyle.Render("── AGENT LOG ──"))
		r.agentLog(rec.AgentLog, depth+1, "")
	}
}

// group writes a parallel group header followed by its branches.
func (r *Renderer) group(rec *trace.Record, seq string, depth int) {
	d := rec.ParallelDetail
	branches := 0
	for _, c := range d.Children {
		if c.ParallelDetail != nil && c.ParallelDetail.BranchTitle != "" {
			branches++
		}
	}
	title := d.ParallelTitle
	if title == "" {
		title = rec.ParallelID()
	}
	r.line(seq, depth, parallelStyle.Render("⇉ "+title)+" "+dimStyle.Render(fmt.Sprintf("(%d %s)", branches, plural(branches, "branch", "branches"))))

	inBranch := false
	for _, c := range d.Children {
		if cd := c.ParallelDetail; cd != nil && cd.BranchTitle != "" {
			r.line("", depth+1, branchStyle.Render("├─ "+cd.BranchTitle))
			inBranch = true
		}
		childDepth := depth + 1
		if inBranch {
			childDepth++
		}
		r.record(c, "", childDepth)
	}
}

func (r *Renderer) rounds(rec *trace.Record, depth int) {
	noun := "round"
	if rec.NodeType == trace.NodeIteration {
		noun = "iteration"
	}
	if len(rec.Details) == 0 {
		r.line("", depth, dimStyle.Render("(no "+noun+"s recorded)"))
		return
	}
	for i, row := range rec.Details {
		if len(row) == 0 {
			r.line("", depth, roundStyle.Render(fmt.Sprintf("%s %d", noun, i+1))+" "+dimStyle.Render("(empty)"))
			continue
		}
		r.line("", depth, roundStyle.Render(fmt.Sprintf("%s %d", noun, i+1)))
		for _, c := range row {
			r.record(c, "", depth+1)
		}
	}
}

func (r *Renderer) retries(attempts []*trace.Record, depth int) {
	for i, a := range attempts {
		text := warnStyle.Render(fmt.Sprintf("attempt #%d", i+1))
		if a.ElapsedTime > 0 {
			text += " " + dimStyle.Render(formatSeconds(a.ElapsedTime))
		}
		if a.Error != "" {
			text += " " + errorStyle.Render(truncateContent(a.Error, 120))
		}
		r.line("", depth, text)
	}
}

func (r *Renderer) agentLog(nodes []*trace.AgentLogNode, depth int, indent string) {
	for i, n := range nodes {
		last := i == len(nodes)-1
		branch := "├─ "
		next := indent + "│  "
		if last {
			branch = "└─ "
			next = indent + "   "
		}
		label := n.Label
		if label == "" {
			label = n.ID
		}
		text := agentStyle.Render(indent+branch) + valueStyle.Render(label)
		if n.Status != "" {
			text += " " + dimStyle.Render("["+n.Status+"]")
		}
		if n.HasCircle {
			text += " " + warnStyle.Render("⟲ cycle")
		}
		r.line("", depth, text)
		if n.Error != "" {
			r.line("", depth, agentStyle.Render(next)+errorStyle.Render(truncateContent(n.Error, 120)))
		}
		r.agentLog(n.Children, depth, next)
	}
}

func (r *Renderer) payload(name string, data json.RawMessage, depth int) {
	if len(data) == 0 || string(data) == "null" {
		return
	}
	content := string(data)
	var v interface{}
	if err := json.Unmarshal(data, &v); err == nil {
		if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
			content = string(pretty)
		}
	}
	if r.maxPayloadSize > 0 && len(content) > r.maxPayloadSize {
		content = cutBytes(content, r.maxPayloadSize) + fmt.Sprintf("\n... [truncated, %d bytes total]", len(data))
	}
	r.line("", depth, labelStyle.Render(name+":"))
	r.block(depth+1, content)
}

// block writes multi-line content, one row per line.
func (r *Renderer) block(depth int, content string) {
	for _, l := range strings.Split(content, "\n") {
		r.line("", depth, l)
	}
}

func displayName(rec *trace.Record) string {
	if rec.Title != "" {
		return rec.Title
	}
	if rec.NodeID != "" {
		return rec.NodeID
	}
	return rec.ID
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatSeconds formats an elapsed time in seconds.
func formatSeconds(s float64) string {
	return formatDuration(int64(s * 1000))
}

// formatDuration formats milliseconds as human-readable duration.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.2fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm%ds", mins, secs)
}

// truncateContent flattens s to one line of at most maxLen bytes.
func truncateContent(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return cutBytes(s, maxLen) + "..."
}

// cutBytes returns the longest prefix of s that fits in n bytes without
// splitting a rune.
func cutBytes(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
