package scheduler

import (
	"container/heap"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"time"
)

type scheduledCommand struct {
	command  command.Command
	deadline time.Time
	sequence uint64
}

// scheduledQueue is a min-heap ordered by deadline, then by submission sequence
type scheduledQueue []*scheduledCommand

var _ heap.Interface = (*scheduledQueue)(nil)

func (q scheduledQueue) Len() int { return len(q) }

func (q scheduledQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].sequence < q[j].sequence
	}
	return q[i].deadline.Before(q[j].deadline)
}

func (q scheduledQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *scheduledQueue) Push(x interface{}) {
	*q = append(*q, x.(*scheduledCommand))
}

func (q *scheduledQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

func (q scheduledQueue) peek() *scheduledCommand {
	return q[0]
}
