package trace

// BuildAgentLog rebuilds a flat agent call log into an acyclic tree.
//
// Entries attach to the first entry carrying their parent id. Entries whose
// parent is missing become roots. Entries without an id are skipped. A
// component with no root at all (a parent cycle) is rooted at the cycle
// member that comes first in list order, and the cycle edge back into that
// entry is cut. Entries hanging off the new root stay attached.
func BuildAgentLog(entries []AgentLogEntry) []*AgentLogNode {
	b := &logBuilder{
		byID:   make(map[string]*AgentLogNode),
		parent: make(map[*AgentLogNode]*AgentLogNode),
		order:  make(map[*AgentLogNode]int),
	}
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		n := &AgentLogNode{AgentLogEntry: e.Clone(), Children: []*AgentLogNode{}}
		b.order[n] = len(b.nodes)
		b.nodes = append(b.nodes, n)
		if _, ok := b.byID[e.ID]; !ok {
			b.byID[e.ID] = n
		}
	}

	var roots []*AgentLogNode
	for _, n := range b.nodes {
		p, ok := b.byID[n.ParentID]
		if n.ParentID == "" || !ok {
			roots = append(roots, n)
			continue
		}
		p.Children = append(p.Children, n)
		b.parent[n] = p
	}

	consumed := make(map[*AgentLogNode]bool)
	for _, r := range roots {
		markSubtree(r, consumed)
	}
	for _, n := range b.nodes {
		if consumed[n] {
			continue
		}
		roots = append(roots, b.promote(n, consumed)...)
	}

	out := pruneNodes(roots, make(map[string]*AgentLogNode))
	if out == nil {
		out = []*AgentLogNode{}
	}
	return out
}

// PruneAgentLog returns a copy of nodes with duplicate siblings dropped and
// every id that repeats one of its ancestors cut, flagging that ancestor.
// Applied to the output of BuildAgentLog it changes nothing.
func PruneAgentLog(nodes []*AgentLogNode) []*AgentLogNode {
	return pruneNodes(cloneAgentLog(nodes), make(map[string]*AgentLogNode))
}

type logBuilder struct {
	nodes  []*AgentLogNode
	byID   map[string]*AgentLogNode
	parent map[*AgentLogNode]*AgentLogNode
	order  map[*AgentLogNode]int
}

// promote roots the part of the log that n belongs to, which no root
// reaches. If n's parent chain ends in a cycle, that cycle is rooted first.
// n itself becomes a root only if that left it unreached.
func (b *logBuilder) promote(n *AgentLogNode, consumed map[*AgentLogNode]bool) []*AgentLogNode {
	var roots []*AgentLogNode
	if r := b.cycleRoot(n, consumed); r != nil {
		b.cutCycle(r, consumed)
		roots = append(roots, r)
	}
	if !consumed[n] {
		if p := b.parent[n]; p != nil {
			p.Children = removeChild(p.Children, n)
			delete(b.parent, n)
		}
		markSubtree(n, consumed)
		roots = append(roots, n)
	}
	return roots
}

// cycleRoot returns the earliest listed member of the cycle n's parent chain
// runs into, or nil if the chain reaches a consumed entry first.
func (b *logBuilder) cycleRoot(n *AgentLogNode, consumed map[*AgentLogNode]bool) *AgentLogNode {
	step := make(map[*AgentLogNode]int)
	var chain []*AgentLogNode
	for cur := n; cur != nil && !consumed[cur]; cur = b.parent[cur] {
		if i, ok := step[cur]; ok {
			root := chain[i]
			for _, c := range chain[i+1:] {
				if b.order[c] < b.order[root] {
					root = c
				}
			}
			return root
		}
		step[cur] = len(chain)
		chain = append(chain, cur)
	}
	return nil
}

// cutCycle makes cycle member r a root. The member hanging off r that closes
// the cycle is cut along with the rest of the cycle, and r is flagged.
func (b *logBuilder) cutCycle(r *AgentLogNode, consumed map[*AgentLogNode]bool) {
	last := r
	for cur := b.parent[r]; cur != nil && cur != r; cur = b.parent[cur] {
		consumed[cur] = true
		last = cur
	}
	r.Children = removeChild(r.Children, last)
	delete(b.parent, last)
	delete(b.parent, r)
	r.HasCircle = true
	markSubtree(r, consumed)
}

func removeChild(children []*AgentLogNode, target *AgentLogNode) []*AgentLogNode {
	out := children[:0]
	for _, c := range children {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

func markSubtree(n *AgentLogNode, consumed map[*AgentLogNode]bool) {
	if consumed[n] {
		return
	}
	consumed[n] = true
	for _, c := range n.Children {
		markSubtree(c, consumed)
	}
}

// pruneNodes dedupes a sibling list by id and prunes each kept subtree.
// path maps the ids of the current ancestors to their nodes.
func pruneNodes(nodes []*AgentLogNode, path map[string]*AgentLogNode) []*AgentLogNode {
	if nodes == nil {
		return nil
	}
	out := make([]*AgentLogNode, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		if anc, ok := path[n.ID]; ok {
			anc.HasCircle = true
			continue
		}
		path[n.ID] = n
		n.Children = pruneNodes(n.Children, path)
		if n.Children == nil {
			n.Children = []*AgentLogNode{}
		}
		delete(path, n.ID)
		out = append(out, n)
	}
	return out
}

// attachAgentLogs rebuilds the call log of every agent and tool record.
func attachAgentLogs(records []*Record) []*Record {
	for _, r := range records {
		if r.NodeType != NodeAgent && r.NodeType != NodeTool {
			continue
		}
		r.AgentLog = BuildAgentLog(r.meta().AgentLog)
	}
	return records
}
