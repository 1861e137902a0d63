package trace

import "strconv"

// groupCounter numbers parallel groups across one labelling pass.
type groupCounter struct {
	n int
}

// branchParallel folds records sharing a parallel id under the group's
// first record and labels the resulting groups. Records outside any group
// keep their position.
func branchParallel(records []*Record, labels LabelFunc) []*Record {
	groups := make(map[string]*Record)
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if !r.inParallel() {
			out = append(out, r)
			continue
		}
		m := r.meta()
		if g, ok := groups[m.ParallelID]; ok {
			insertMember(g, r, m.ParallelStartNodeID)
			continue
		}

		self := r.Clone()
		self.ParallelDetail = nil
		r.ParallelDetail = &ParallelDetail{
			IsParallelStartNode: true,
			Children:            []*Record{self},
		}
		groups[m.ParallelID] = r

		if m.ParentParallelID != "" {
			if parent, ok := groups[m.ParentParallelID]; ok {
				insertMember(parent, r, m.ParentParallelStartNodeID)
				continue
			}
		}
		out = append(out, r)
	}

	labelGroups(out, 1, &groupCounter{}, labels)
	return out
}

// insertMember places r after the last child of group g on the same branch,
// or appends it as a new branch.
func insertMember(g, r *Record, branch string) {
	d := g.ParallelDetail
	gid := g.ParallelID()
	at := -1
	for i, c := range d.Children {
		if branchKey(c, gid) == branch {
			at = i
		}
	}
	if at < 0 {
		d.Children = append(d.Children, r)
		return
	}
	d.Children = append(d.Children, nil)
	copy(d.Children[at+2:], d.Children[at+1:])
	d.Children[at+1] = r
}

// branchKey returns the branch c runs on within group gid. A nested group's
// start node runs on the branch of the enclosing group it forked from.
func branchKey(c *Record, gid string) string {
	m := c.meta()
	if c.ParallelDetail != nil && c.ParallelDetail.IsParallelStartNode && m.ParallelID != gid {
		return m.ParentParallelStartNodeID
	}
	return m.ParallelStartNodeID
}

func labelGroups(list []*Record, level int, counter *groupCounter, labels LabelFunc) {
	for _, r := range list {
		d := r.ParallelDetail
		if d == nil || !d.IsParallelStartNode {
			continue
		}
		counter.n++
		label := groupLabel(counter.n, level)
		d.ParallelTitle = labels(LabelParallel) + "-" + label

		gid := r.ParallelID()
		branch := 0
		for _, c := range d.Children {
			if branchKey(c, gid) != c.NodeID {
				continue
			}
			branch++
			if c.ParallelDetail == nil {
				c.ParallelDetail = &ParallelDetail{}
			}
			c.ParallelDetail.BranchTitle = labels(LabelBranch) + "-" + label + "-" + letters(branch)
		}
		labelGroups(d.Children, level+1, counter, labels)
	}
}

// groupLabel is the group number, suffixed with the nesting level's letter
// once more than one group has been seen.
func groupLabel(n, level int) string {
	if n == 1 {
		return "1"
	}
	return strconv.Itoa(n) + letters(level)
}

// letters maps 1, 2, ... 26, 27 to A, B, ... Z, AA.
func letters(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
