package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vinayprograms/runtrace/internal/trace"
)

// Stats holds aggregate counts for a reconciled trace.
type Stats struct {
	Records   int
	Succeeded int
	Failed    int
	Running   int
	ByType    map[string]int

	Retries        int
	Containers     int
	Rounds         int
	EmptyRounds    int
	ParallelGroups int
	Branches       int

	AgentLogEntries int
	AgentLogCycles  int

	TotalTokens int
	TotalPrice  float64
	Currency    string

	// Wall clock from the first start to the last finish, when timestamps are present.
	WallDurationMs int64
	// Sum of reported elapsed times of non-container records.
	NodeDurationMs int64
}

// ComputeStats walks a reconciled tree.
func ComputeStats(records []*trace.Record) *Stats {
	s := &Stats{ByType: make(map[string]int)}
	var first, last int64
	var visit func(rec *trace.Record)
	visit = func(rec *trace.Record) {
		if d := rec.ParallelDetail; d != nil && d.IsParallelStartNode {
			s.ParallelGroups++
			for _, c := range d.Children {
				if c.ParallelDetail != nil && c.ParallelDetail.BranchTitle != "" {
					s.Branches++
				}
				visit(c)
			}
			return
		}

		s.Records++
		s.ByType[string(rec.NodeType)]++
		switch rec.Status {
		case trace.StatusSucceeded:
			s.Succeeded++
		case trace.StatusFailed, trace.StatusException:
			s.Failed++
		case trace.StatusRunning:
			s.Running++
		}
		s.Retries += len(rec.RetryDetail)

		if rec.CreatedAt > 0 && (first == 0 || rec.CreatedAt < first) {
			first = rec.CreatedAt
		}
		if rec.FinishedAt > last {
			last = rec.FinishedAt
		}

		if rec.NodeType.IsContainer() {
			s.Containers++
		} else {
			s.NodeDurationMs += int64(rec.ElapsedTime * 1000)
			if m := rec.Metadata; m != nil {
				s.TotalTokens += m.TotalTokens
				s.TotalPrice += m.TotalPrice
				if s.Currency == "" {
					s.Currency = m.Currency
				}
			}
		}
		for _, row := range rec.Details {
			s.Rounds++
			if len(row) == 0 {
				s.EmptyRounds++
			}
			for _, c := range row {
				visit(c)
			}
		}
		countAgentLog(s, rec.AgentLog)
	}
	for _, rec := range records {
		visit(rec)
	}
	if first > 0 && last >= first {
		s.WallDurationMs = (last - first) * 1000
	}
	return s
}

func countAgentLog(s *Stats, nodes []*trace.AgentLogNode) {
	for _, n := range nodes {
		s.AgentLogEntries++
		if n.HasCircle {
			s.AgentLogCycles++
		}
		countAgentLog(s, n.Children)
	}
}

// PrintStats outputs the statistics to the writer.
func PrintStats(w io.Writer, stats *Stats) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	row := func(indent, label string, value interface{}) {
		fmt.Fprintf(w, "%s%s %s\n", indent, labelStyle.Render(label+":"), valueStyle.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("═══════════════════════════════════════════════════════════════════"))
	fmt.Fprintln(w, headerStyle.Render("                          TRACE STATISTICS                          "))
	fmt.Fprintln(w, headerStyle.Render("═══════════════════════════════════════════════════════════════════"))
	fmt.Fprintln(w)

	if stats.WallDurationMs > 0 {
		row("", "Wall Duration", formatDuration(stats.WallDurationMs))
	}
	row("", "Node Time", formatDuration(stats.NodeDurationMs))
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render("Nodes:"))
	row("  ", "Total", stats.Records)
	row("  ", "Succeeded", stats.Succeeded)
	if stats.Failed > 0 {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Failed:"), errorStyle.Render(fmt.Sprint(stats.Failed)))
	}
	if stats.Running > 0 {
		row("  ", "Running", stats.Running)
	}
	if len(stats.ByType) > 0 {
		var types []string
		for t := range stats.ByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			row("    ", t, stats.ByType[t])
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render("Structure:"))
	row("  ", "Retries", stats.Retries)
	row("  ", "Containers", stats.Containers)
	if stats.Rounds > 0 {
		fmt.Fprintf(w, "  %s %s %s\n", labelStyle.Render("Rounds:"), valueStyle.Render(fmt.Sprint(stats.Rounds)),
			labelStyle.Render(fmt.Sprintf("(%d empty)", stats.EmptyRounds)))
	}
	row("  ", "Parallel Groups", stats.ParallelGroups)
	row("  ", "Branches", stats.Branches)
	fmt.Fprintln(w)

	if stats.AgentLogEntries > 0 {
		fmt.Fprintln(w, headerStyle.Render("Agent Logs:"))
		row("  ", "Entries", stats.AgentLogEntries)
		if stats.AgentLogCycles > 0 {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Cycles cut:"), warnStyle.Render(fmt.Sprint(stats.AgentLogCycles)))
		}
		fmt.Fprintln(w)
	}

	if stats.TotalTokens > 0 {
		fmt.Fprintln(w, headerStyle.Render("Usage:"))
		row("  ", "Tokens", stats.TotalTokens)
		if stats.TotalPrice > 0 {
			row("  ", "Price", fmt.Sprintf("%.6f %s", stats.TotalPrice, stats.Currency))
		}
		fmt.Fprintln(w)
	}
}

// WriteTextfile writes stats as Prometheus gauges in the textfile
// collector format.
func WriteTextfile(path string, stats *Stats) error {
	reg := prometheus.NewRegistry()

	records := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "runtrace",
		Name:      "records",
		Help:      "Node execution records by status.",
	}, []string{"status"})
	records.WithLabelValues("succeeded").Set(float64(stats.Succeeded))
	records.WithLabelValues("failed").Set(float64(stats.Failed))
	records.WithLabelValues("running").Set(float64(stats.Running))
	records.WithLabelValues("other").Set(float64(stats.Records - stats.Succeeded - stats.Failed - stats.Running))

	byType := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "runtrace",
		Name:      "records_by_type",
		Help:      "Node execution records by node type.",
	}, []string{"node_type"})
	for t, n := range stats.ByType {
		byType.WithLabelValues(t).Set(float64(n))
	}

	gauge := func(name, help string, v float64) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "runtrace", Name: name, Help: help})
		g.Set(v)
		return g
	}

	collectors := []prometheus.Collector{
		records,
		byType,
		gauge("retries", "Retry attempts folded under terminal records.", float64(stats.Retries)),
		gauge("containers", "Loop and iteration containers.", float64(stats.Containers)),
		gauge("rounds", "Container rounds, empty ones included.", float64(stats.Rounds)),
		gauge("parallel_groups", "Parallel groups.", float64(stats.ParallelGroups)),
		gauge("branches", "Parallel branches.", float64(stats.Branches)),
		gauge("agent_log_entries", "Agent log entries after cycle removal.", float64(stats.AgentLogEntries)),
		gauge("agent_log_cycles", "Agent log nodes where a cycle was cut.", float64(stats.AgentLogCycles)),
		gauge("tokens", "Tokens reported by non-container records.", float64(stats.TotalTokens)),
		gauge("wall_seconds", "Wall clock from first start to last finish.", float64(stats.WallDurationMs)/1000),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write textfile: %w", err)
	}
	return nil
}
