package dispatch

import "sync"

// registry is the insertion-ordered type→handler map. It may be mutated at
// any time, including while dispatches are in flight; a dispatch keeps the
// handler reference it captured at lookup time, so a concurrent unregister
// never affects it.
type registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	order    []string
}

func newRegistry() *registry {
	return &registry{handlers: make(map[string]HandlerFunc)}
}

// register adds or replaces the handler for msgType. A replaced key keeps
// its original position in the listing order.
func (r *registry) register(msgType string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[msgType]; !exists {
		r.order = append(r.order, msgType)
	}
	r.handlers[msgType] = h
}

// unregister removes the handler for msgType and reports whether one was
// registered.
func (r *registry) unregister(msgType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[msgType]; !exists {
		return false
	}
	delete(r.handlers, msgType)
	for i, t := range r.order {
		if t == msgType {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry) lookup(msgType string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[msgType]
	return h, ok
}

func (r *registry) has(msgType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[msgType]
	return ok
}

// types returns the registered type names in registration order.
func (r *registry) types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
