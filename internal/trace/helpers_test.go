package trace

// rec builds a succeeded record with the given id, node and index.
func rec(id, nodeID string, index int) *Record {
	return &Record{ID: id, NodeID: nodeID, Index: index, NodeType: NodeCode, Status: StatusSucceeded}
}

func (r *Record) with(fn func(m *Metadata)) *Record {
	if r.Metadata == nil {
		r.Metadata = &Metadata{}
	}
	fn(r.Metadata)
	return r
}

func (r *Record) status(s Status) *Record {
	r.Status = s
	return r
}

func (r *Record) kind(t NodeType) *Record {
	r.NodeType = t
	return r
}

func ids(records []*Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func find(records []*Record, id string) *Record {
	for _, r := range records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func english(key string) string {
	switch key {
	case LabelParallel:
		return "Parallel"
	case LabelBranch:
		return "Branch"
	}
	return key
}
