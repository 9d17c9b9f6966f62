package autograd

import "container/heap"

// rankQueue is a max-heap of nodes ordered by rank. Nodes of equal rank pop
// in the order they were pushed.
type rankQueue struct {
	items nodeHeap
	seq   uint64
}

type queueItem struct {
	node *FunctionNode
	seq  uint64
}

func (q *rankQueue) push(n *FunctionNode) {
	heap.Push(&q.items, queueItem{node: n, seq: q.seq})
	q.seq++
}

func (q *rankQueue) pop() *FunctionNode {
	return heap.Pop(&q.items).(queueItem).node
}

func (q *rankQueue) len() int {
	return q.items.Len()
}

// nodeHeap implements heap.Interface.
type nodeHeap []queueItem

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].node.rank != h[j].node.rank {
		return h[i].node.rank > h[j].node.rank
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(queueItem)) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queueItem{}
	*h = old[:n-1]
	return item
}
