package dispatch

import "sync"

// Signal is a one-shot cooperative cancellation signal. Triggering is a
// notification only: it never interrupts in-flight work, and a handler is
// free to ignore it.
type Signal struct {
	once sync.Once
	done chan struct{}
}

func newSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Done returns a channel that is closed when the signal triggers. Handlers
// may select on it to observe the end of their execution window.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Aborted reports whether the signal has triggered.
func (s *Signal) Aborted() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// trigger fires the signal. Safe to call more than once; only the first
// call has any effect.
func (s *Signal) trigger() {
	s.once.Do(func() { close(s.done) })
}
