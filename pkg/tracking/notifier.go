package tracking

import "sync"

// notification is everything one state change has to tell the outside world
type notification struct {
	board       Board
	transitions []Transition
	listeners   []func(Board)
}

// notifier delivers notifications one at a time in the order they were queued. Queueing
// never blocks, so it can be done with the view lock held.
type notifier struct {
	deliver func(notification)

	mu      sync.Mutex
	pending []notification
	closed  bool

	wake chan struct{}
	done chan struct{}
}

func newNotifier(deliver func(notification)) *notifier {
	n := &notifier{
		deliver: deliver,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go n.run()

	return n
}

func (n *notifier) enqueue(item notification) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.pending = append(n.pending, item)
	n.mu.Unlock()

	n.signal()
}

func (n *notifier) signal() {
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// close delivers whatever is still queued and waits for the last delivery to return
func (n *notifier) close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	n.signal()
	<-n.done
}

func (n *notifier) run() {
	defer close(n.done)

	for range n.wake {
		n.mu.Lock()
		batch, closed := n.pending, n.closed
		n.pending = nil
		n.mu.Unlock()

		for _, item := range batch {
			n.deliver(item)
		}

		if closed {
			return
		}
	}
}
