package stream

import (
	"sync"

	"github.com/chaincodec/chaincodec/internal/chain"
)

// defaultSubscriberBuffer is the per-subscriber ring capacity used
// when a Pipeline is not configured with one explicitly.
const defaultSubscriberBuffer = 256

// subscriber is one broadcast fan-out target: a bounded channel with
// drop-oldest overflow semantics, per spec.md §4.10 — "the broadcast
// drops the oldest message for that subscriber and marks it Lagged(n)."
type subscriber struct {
	mu         sync.Mutex
	ch         chan Message
	pendingLag int
	closed     bool
}

func newSubscriber(capacity int) *subscriber {
	if capacity <= 0 {
		capacity = defaultSubscriberBuffer
	}
	return &subscriber{ch: make(chan Message, capacity)}
}

// deliver enqueues ev, dropping the oldest queued message (and
// counting it against pendingLag) as many times as needed to make
// room. The lag count is attached to whichever message ends up being
// delivered next, then reset.
func (s *subscriber) deliver(ev *chain.DecodedEvent) (laggedBy int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	for {
		select {
		case s.ch <- Message{Event: ev, Lagged: s.pendingLag}:
			laggedBy = s.pendingLag
			s.pendingLag = 0
			return laggedBy
		default:
		}
		select {
		case <-s.ch:
			s.pendingLag++
		default:
			// channel drained by a concurrent reader between the two
			// selects; retry the send immediately.
		}
	}
}

// closeSub marks the subscriber closed and closes its channel, which
// its reader observes as end-of-stream.
func (s *subscriber) closeSub() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Subscription is the caller-facing handle returned by Pipeline.Subscribe.
type Subscription struct {
	id  uint64
	sub *subscriber
	p   *Pipeline
}

// C returns the channel of delivered messages. It closes when the
// pipeline shuts down or Unsubscribe is called.
func (s *Subscription) C() <-chan Message { return s.sub.ch }

// Unsubscribe removes this subscription from the pipeline's fan-out
// and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.p.removeSubscriber(s.id)
}
