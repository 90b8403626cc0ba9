package scheduler

import (
	"sync"

	"github.com/tanq16/tubegrab/internal/session"
)

// ProgressSink receives status changes per entry. Final statuses arrive in
// position order; running statuses arrive as entries start.
type ProgressSink interface {
	Report(position int, status session.Status)
}

// StreamSink is optionally implemented by a ProgressSink to receive the
// tool's output lines.
type StreamSink interface {
	Stream(position int, line string)
}

type noopSink struct{}

func (noopSink) Report(int, session.Status) {}

// lockedSink serializes every call into the wrapped sink.
type lockedSink struct {
	mu     sync.Mutex
	sink   ProgressSink
	stream StreamSink
}

func newLockedSink(sink ProgressSink) *lockedSink {
	if sink == nil {
		sink = noopSink{}
	}
	stream, _ := sink.(StreamSink)
	return &lockedSink{sink: sink, stream: stream}
}

func (l *lockedSink) Report(position int, status session.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink.Report(position, status)
}

func (l *lockedSink) Stream(position int, line string) {
	if l.stream == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stream.Stream(position, line)
}

// reorderBuffer holds final statuses until every earlier position has been reported.
type reorderBuffer struct {
	order   []int
	next    int
	pending map[int]session.Status
	sink    ProgressSink
}

func newReorderBuffer(order []int, sink ProgressSink) *reorderBuffer {
	return &reorderBuffer{
		order:   order,
		pending: make(map[int]session.Status),
		sink:    sink,
	}
}

func (r *reorderBuffer) Done(position int, status session.Status) {
	r.pending[position] = status
	for r.next < len(r.order) {
		status, ok := r.pending[r.order[r.next]]
		if !ok {
			return
		}
		r.sink.Report(r.order[r.next], status)
		delete(r.pending, r.order[r.next])
		r.next++
	}
}
