package schedule

// readyHeap orders ready nodes by decreasing delay (longest path to the
// leaf sentinel), breaking ties by out-degree (a proxy for "frees up more
// successors sooner", standing in for spec.md §4.4's "has a last-use of
// some live variable" tie-break, which needs liveness information this
// package does not carry), then by node id for stability (spec.md §4.4
// "Priority").
type readyHeap []*Node

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.Delay != b.Delay {
		return a.Delay > b.Delay
	}
	if len(a.Out) != len(b.Out) {
		return len(a.Out) > len(b.Out)
	}
	return a.ID < b.ID
}

func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *readyHeap) Push(x interface{}) { *h = append(*h, x.(*Node)) }

func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
