package pubsub

// Dispatcher matches messages against the subscription registry and
// invokes the handlers of every matching subscription.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Process delivers one message: every subscription is tested in
// registration order and every match has its handler invoked with the
// concrete topic and payload. Dispatch does not stop at the first match.
// It reports whether at least one subscription matched.
func (d *Dispatcher) Process(topic string, payload []byte) bool {
	matched := false
	for _, sub := range d.registry.All() {
		if Matches(sub.Pattern, topic) {
			matched = true
			sub.Handler(topic, payload)
		}
	}
	return matched
}
