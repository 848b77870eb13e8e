package pubsub

// MessageHandler is the callback signature for delivered messages.
//
// Handlers run in the processing context, one message at a time, in
// registration order. The overlay does not recover handler panics; each
// handler is responsible for not propagating faults.
type MessageHandler func(topic string, payload []byte)

// Subscription pairs a topic pattern with its handler. Created at setup
// time and immutable for the process lifetime.
type Subscription struct {
	Pattern string
	Handler MessageHandler
}

// Registry is the ordered, append-only collection of subscriptions.
//
// Registration happens during setup, before the transport is bound;
// iteration happens in the processing context. Neither path overlaps, so
// the registry carries no lock.
//
// Patterns are not validated or de-duplicated at registration: a pattern
// with a non-final `#` is accepted and simply never matches, and a
// pattern registered twice invokes its handlers twice.
type Registry struct {
	subs []Subscription
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a subscription.
func (r *Registry) Add(pattern string, handler MessageHandler) {
	r.subs = append(r.subs, Subscription{Pattern: pattern, Handler: handler})
}

// All returns the subscriptions in registration order. The returned slice
// is the registry's own backing store; callers must not mutate it.
func (r *Registry) All() []Subscription {
	return r.subs
}

// Len returns the number of registered subscriptions.
func (r *Registry) Len() int {
	return len(r.subs)
}

// Patterns returns the registered patterns in order, for diagnostics.
func (r *Registry) Patterns() []string {
	patterns := make([]string, len(r.subs))
	for i, sub := range r.subs {
		patterns[i] = sub.Pattern
	}
	return patterns
}
