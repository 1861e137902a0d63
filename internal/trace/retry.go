package trace

// isRetryCandidate reports whether the retry stage lifts r out of the list.
// Loop and iteration scoped attempts are folded per round by the container
// stage.
func isRetryCandidate(r *Record) bool {
	return r.Status == StatusRetry && !r.scoped() && r.NodeType != NodeIteration
}

// groupRetries removes retry attempts from records and attaches copies of
// every attempt for a node, in order, to that node's terminal record.
// Terminal records inside a loop or iteration are left to the container
// stage.
func groupRetries(records []*Record) []*Record {
	attempts := make(map[string][]*Record)
	lifted := make(map[string]bool)
	for _, r := range records {
		if r.Status != StatusRetry {
			continue
		}
		attempts[r.NodeID] = append(attempts[r.NodeID], r)
		if isRetryCandidate(r) {
			lifted[r.NodeID] = true
		}
	}
	if len(lifted) == 0 {
		return records
	}

	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if isRetryCandidate(r) {
			continue
		}
		if r.Status != StatusRetry && !r.scoped() && lifted[r.NodeID] {
			r.RetryDetail = cloneRecords(attempts[r.NodeID])
		}
		out = append(out, r)
	}
	return out
}

// foldRoundRetries folds retry attempts inside one container round into the
// round's terminal record for the same node. Attempts without a terminal
// record in the round stay where they are.
func foldRoundRetries(row []*Record) []*Record {
	terminal := make(map[string]bool)
	for _, r := range row {
		if r.Status != StatusRetry {
			terminal[r.NodeID] = true
		}
	}
	attempts := make(map[string][]*Record)
	out := make([]*Record, 0, len(row))
	for _, r := range row {
		if r.Status == StatusRetry && terminal[r.NodeID] {
			attempts[r.NodeID] = append(attempts[r.NodeID], r)
			continue
		}
		out = append(out, r)
	}
	for _, r := range out {
		if a, ok := attempts[r.NodeID]; ok && r.Status != StatusRetry && len(r.RetryDetail) == 0 {
			r.RetryDetail = cloneRecords(a)
		}
	}
	return out
}
