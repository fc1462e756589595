package coordinator

import "github.com/wastore/tocmover/common"

// workQueue is a FIFO seeded in size-descending order (spec §4.3.1 step 4);
// retries are re-queued at the head (spec §9, pinning the open question),
// so a retried file is attempted again before other queued work.
type workQueue struct {
	items []common.WorkItem
}

func (q *workQueue) enqueueTail(item common.WorkItem) {
	q.items = append(q.items, item)
}

func (q *workQueue) enqueueHead(item common.WorkItem) {
	q.items = append([]common.WorkItem{item}, q.items...)
}

func (q *workQueue) dequeue() (common.WorkItem, bool) {
	if len(q.items) == 0 {
		return common.WorkItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

func (q *workQueue) len() int { return len(q.items) }
