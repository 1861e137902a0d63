package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func member(id, nodeID string, index int, parallelID, startNode string) *Record {
	return rec(id, nodeID, index).with(func(m *Metadata) {
		m.ParallelID = parallelID
		m.ParallelStartNodeID = startNode
	})
}

func nested(r *Record, parentID, parentStart string) *Record {
	return r.with(func(m *Metadata) {
		m.ParentParallelID = parentID
		m.ParentParallelStartNodeID = parentStart
	})
}

func branchTitles(records []*Record) map[string]string {
	out := map[string]string{}
	for _, r := range records {
		if r.ParallelDetail != nil && r.ParallelDetail.BranchTitle != "" {
			out[r.ID] = r.ParallelDetail.BranchTitle
		}
	}
	return out
}

func TestBranchParallel_SingleGroup(t *testing.T) {
	records := []*Record{
		rec("before", "s", 0),
		member("1", "B1", 1, "P1", "B1"),
		member("2", "B2", 2, "P1", "B2"),
		member("3", "C", 3, "P1", "B1"),
		rec("after", "e", 4),
	}
	got := branchParallel(records, english)

	if diff := cmp.Diff([]string{"before", "1", "after"}, ids(got)); diff != "" {
		t.Fatalf("unexpected top level (-want +got):\n%s", diff)
	}
	d := got[1].ParallelDetail
	if !d.IsParallelStartNode {
		t.Error("expected start node")
	}
	if d.ParallelTitle != "Parallel-1" {
		t.Errorf("expected Parallel-1, got %s", d.ParallelTitle)
	}
	// Members stay contiguous per branch.
	if diff := cmp.Diff([]string{"1", "3", "2"}, ids(d.Children)); diff != "" {
		t.Errorf("unexpected children (-want +got):\n%s", diff)
	}
	want := map[string]string{"1": "Branch-1-A", "2": "Branch-1-B"}
	if diff := cmp.Diff(want, branchTitles(d.Children)); diff != "" {
		t.Errorf("unexpected branch titles (-want +got):\n%s", diff)
	}
	if d.Children[0].ParallelDetail.IsParallelStartNode {
		t.Error("self copy should not be a start node")
	}
}

func TestBranchParallel_EndNodeUntouched(t *testing.T) {
	end := member("end", "end", 2, "P1", "").kind(NodeEnd)
	got := branchParallel([]*Record{member("1", "A", 1, "P1", "A"), end}, english)
	if diff := cmp.Diff([]string{"1", "end"}, ids(got)); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
	if end.ParallelDetail != nil {
		t.Error("end node should not join the group")
	}
}

func TestBranchParallel_NestedGroup(t *testing.T) {
	records := []*Record{
		member("a", "A", 1, "P1", "A"),
		member("b", "B", 2, "P1", "B"),
		nested(member("x", "X", 3, "P2", "X"), "P1", "A"),
		nested(member("y", "Y", 4, "P2", "Y"), "P1", "A"),
		member("b2", "B2", 5, "P1", "B"),
		member("q", "Q", 6, "P3", "Q"),
	}
	got := branchParallel(records, english)

	if diff := cmp.Diff([]string{"a", "q"}, ids(got)); diff != "" {
		t.Fatalf("unexpected top level (-want +got):\n%s", diff)
	}
	outer := got[0].ParallelDetail
	if diff := cmp.Diff([]string{"a", "x", "b", "b2"}, ids(outer.Children)); diff != "" {
		t.Fatalf("unexpected outer children (-want +got):\n%s", diff)
	}
	inner := outer.Children[1].ParallelDetail
	if diff := cmp.Diff([]string{"x", "y"}, ids(inner.Children)); diff != "" {
		t.Errorf("unexpected inner children (-want +got):\n%s", diff)
	}

	if outer.ParallelTitle != "Parallel-1" {
		t.Errorf("expected Parallel-1, got %s", outer.ParallelTitle)
	}
	if inner.ParallelTitle != "Parallel-2B" {
		t.Errorf("expected Parallel-2B, got %s", inner.ParallelTitle)
	}
	if title := got[1].ParallelDetail.ParallelTitle; title != "Parallel-3A" {
		t.Errorf("expected Parallel-3A, got %s", title)
	}

	wantOuter := map[string]string{"a": "Branch-1-A", "b": "Branch-1-B"}
	if diff := cmp.Diff(wantOuter, branchTitles(outer.Children)); diff != "" {
		t.Errorf("unexpected outer branches (-want +got):\n%s", diff)
	}
	wantInner := map[string]string{"x": "Branch-2B-A", "y": "Branch-2B-B"}
	if diff := cmp.Diff(wantInner, branchTitles(inner.Children)); diff != "" {
		t.Errorf("unexpected inner branches (-want +got):\n%s", diff)
	}
}

func TestBranchParallel_UnknownParentStaysInline(t *testing.T) {
	records := []*Record{
		rec("s", "s", 0),
		nested(member("x", "X", 1, "P2", "X"), "missing", "A"),
	}
	got := branchParallel(records, english)
	if diff := cmp.Diff([]string{"s", "x"}, ids(got)); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
	if !got[1].ParallelDetail.IsParallelStartNode {
		t.Error("expected x to start its own group")
	}
}

func collectTitles(t *testing.T, list []*Record, level int, seen map[string]bool) {
	t.Helper()
	for _, r := range list {
		d := r.ParallelDetail
		if d == nil || !d.IsParallelStartNode {
			continue
		}
		if seen[d.ParallelTitle] {
			t.Errorf("duplicate parallel title %s", d.ParallelTitle)
		}
		seen[d.ParallelTitle] = true
		collectTitles(t, d.Children, level+1, seen)
	}
}

func TestBranchParallel_TitlesUnique(t *testing.T) {
	var records []*Record
	index := 0
	for _, g := range []string{"G1", "G2", "G3"} {
		for _, br := range []string{"a", "b"} {
			node := g + br
			records = append(records, member(node, node, index, g, node))
			index++
			child := g + br + "-n"
			records = append(records, nested(member(child, child, index, g+"-"+br, child), g, node))
			index++
		}
	}
	got := branchParallel(records, english)
	if len(got) != 3 {
		t.Fatalf("expected 3 root groups, got %v", ids(got))
	}
	collectTitles(t, got, 1, map[string]bool{})
}

func TestLetters(t *testing.T) {
	tests := map[int]string{1: "A", 2: "B", 26: "Z", 27: "AA", 28: "AB", 52: "AZ", 53: "BA"}
	for n, want := range tests {
		if got := letters(n); got != want {
			t.Errorf("letters(%d): expected %s, got %s", n, want, got)
		}
	}
}
