package cart

import "sync"

// Notifier fans the current cart out to UI subscribers after every
// mutation, local or remote-origin. Delivery is synchronous and
// carries the full cart; subscribers re-render from the payload and
// there is no acknowledgment or backpressure.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Cart)
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(Cart))}
}

// Subscribe registers fn and returns a cancel func that removes it.
func (n *Notifier) Subscribe(fn func(Cart)) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *Notifier) Publish(c Cart) {
	n.mu.Lock()
	fns := make([]func(Cart), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(c.Clone())
	}
}
