package memory

import (
	"sync"

	"election/contexts/election/election-ledger/ports"
)

// Notifier broadcasts commit signals by closing and replacing a channel, so
// any number of waiters wake on a single Notify.
type Notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{})}
}

func (n *Notifier) Wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	close(n.ch)
	n.ch = make(chan struct{})
}

var _ ports.EventNotifier = (*Notifier)(nil)
