package console

// DefaultQueueSize bounds the number of undelivered messages.
const DefaultQueueSize = 100

// Queue is a bounded multi-producer message queue. Producers block when it is
// full; the consumer drains it without blocking on every render tick.
type Queue struct {
	ch chan Message
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Message, size)}
}

// Send enqueues m, waiting for room. A nil queue discards messages.
func (q *Queue) Send(m Message) {
	if q == nil {
		return
	}
	q.ch <- m
}

// Drain returns every message currently queued without waiting.
func (q *Queue) Drain() []Message {
	if q == nil {
		return nil
	}
	var out []Message
	for {
		select {
		case m := <-q.ch:
			out = append(out, m)
		default:
			return out
		}
	}
}

// C exposes the receive side for consumers that prefer select. A nil queue
// yields a nil channel, which never delivers.
func (q *Queue) C() <-chan Message {
	if q == nil {
		return nil
	}
	return q.ch
}

func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.ch)
}
