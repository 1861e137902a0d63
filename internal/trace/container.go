package trace

// groupContainers moves the children of loop and iteration records out of
// the list and into their container's Details, one row per round.
func groupContainers(records []*Record, labels LabelFunc) []*Record {
	idx := newContainerIndex(records)
	if len(idx.containers) == 0 {
		return records
	}

	children := make(map[*Record][]*Record)
	moved := make(map[*Record]bool)
	for pos, r := range records {
		c := idx.containerOf(r, pos)
		if c == nil {
			continue
		}
		children[c] = append(children[c], r)
		moved[r] = true
	}

	// Inner containers come later in index order. Walking backwards settles
	// their status before the enclosing container inspects it.
	for i := len(idx.containers) - 1; i >= 0; i-- {
		c := idx.containers[i]
		kids := children[c]
		if len(kids) == 0 {
			continue
		}
		propagateFailure(c, kids)
		rows := buildRounds(c.NodeType, kids)
		for j, row := range rows {
			if len(row) == 0 {
				continue
			}
			rows[j] = branchParallel(foldRoundRetries(row), labels)
		}
		c.Details = rows
	}

	out := make([]*Record, 0, len(records)-len(moved))
	for _, r := range records {
		if !moved[r] {
			out = append(out, r)
		}
	}
	return out
}

// instance is one container record and its position in the sorted list.
type instance struct {
	pos int
	rec *Record
}

// containerIndex holds every loop and iteration record by node id. A node
// id repeats when its container runs once per round of an outer container.
type containerIndex struct {
	containers []*Record
	loops      map[string][]instance
	iterations map[string][]instance
}

func newContainerIndex(records []*Record) *containerIndex {
	idx := &containerIndex{
		loops:      make(map[string][]instance),
		iterations: make(map[string][]instance),
	}
	for pos, r := range records {
		switch r.NodeType {
		case NodeLoop:
			idx.loops[r.NodeID] = append(idx.loops[r.NodeID], instance{pos, r})
		case NodeIteration:
			idx.iterations[r.NodeID] = append(idx.iterations[r.NodeID], instance{pos, r})
		default:
			continue
		}
		idx.containers = append(idx.containers, r)
	}
	return idx
}

// containerOf returns the container instance r at pos belongs to, or nil.
// When r names both an iteration and a loop, the one nested inside the
// other wins; otherwise iteration membership wins.
func (idx *containerIndex) containerOf(r *Record, pos int) *Record {
	m := r.meta()
	var iter, loop *Record
	if m.IterationID != "" && !(r.NodeType == NodeIteration && m.IterationID == r.NodeID) {
		iter = pick(idx.iterations[m.IterationID], r, pos, func(c *Metadata) bool {
			return sameRound(m.LoopID, m.LoopIndex, c.LoopID, c.LoopIndex)
		})
	}
	if m.LoopID != "" && !(r.NodeType == NodeLoop && m.LoopID == r.NodeID) {
		loop = pick(idx.loops[m.LoopID], r, pos, func(c *Metadata) bool {
			return sameRound(m.IterationID, m.IterationIndex, c.IterationID, c.IterationIndex)
		})
	}
	switch {
	case iter != nil && loop != nil:
		if loop.meta().IterationID == iter.NodeID {
			return loop
		}
		return iter
	case iter != nil:
		return iter
	}
	return loop
}

// pick returns the closest instance before pos in the same enclosing round
// as r. It falls back to the closest earlier instance, then, for records
// that are not containers themselves, to the first.
func pick(instances []instance, r *Record, pos int, inRound func(c *Metadata) bool) *Record {
	var near, nearInRound *Record
	for _, in := range instances {
		if in.rec == r {
			continue
		}
		if in.pos >= pos {
			break
		}
		near = in.rec
		if inRound(in.rec.meta()) {
			nearInRound = in.rec
		}
	}
	switch {
	case nearInRound != nil:
		return nearInRound
	case near != nil:
		return near
	case r.NodeType.IsContainer():
		return nil
	}
	for _, in := range instances {
		if in.rec != r {
			return in.rec
		}
	}
	return nil
}

// sameRound reports whether a child and a container instance ran in the
// same round of an outer container. Missing information never excludes.
func sameRound(childOuter string, childIndex *int, outer string, index *int) bool {
	if childOuter == "" || childIndex == nil || outer != childOuter || index == nil {
		return true
	}
	return *childIndex == *index
}

func propagateFailure(c *Record, kids []*Record) {
	for _, k := range kids {
		if k.Status == StatusFailed {
			c.Status = StatusFailed
			c.Error = k.Error
			return
		}
	}
}

// buildRounds buckets kids into rows. Integer round indexes address rows
// directly, with skipped rounds left as empty rows. Loop children that carry
// a parallel run id are grouped per run after the indexed rows.
func buildRounds(kind NodeType, kids []*Record) [][]*Record {
	var rows [][]*Record
	var runRows [][]*Record
	runIndex := make(map[string]int)

	for pos, k := range kids {
		m := k.meta()
		idx := pos
		if kind == NodeLoop {
			if id := m.ParallelModeRunID; id != "" {
				i, ok := runIndex[id]
				if !ok {
					i = len(runRows)
					runIndex[id] = i
					runRows = append(runRows, nil)
				}
				runRows[i] = append(runRows[i], k)
				continue
			}
			if m.LoopIndex != nil && *m.LoopIndex >= 0 {
				idx = *m.LoopIndex
			}
		} else if m.IterationIndex != nil && *m.IterationIndex >= 0 {
			idx = *m.IterationIndex
		}
		for len(rows) <= idx {
			rows = append(rows, []*Record{})
		}
		rows[idx] = append(rows[idx], k)
	}
	return append(rows, runRows...)
}
