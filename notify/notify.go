// Package notify provides the change-notification primitive used by every form
// in liveform.
//
// A Notifier delivers a field name to its observers synchronously and in
// registration order. Subscriptions are explicit values owned by whoever
// composes the view; there is no global bus.
//
// Example:
//
//	var n notify.Notifier
//	sub := n.Subscribe(func(field string) {
//	    fmt.Println("changed:", field)
//	})
//	defer sub.Unsubscribe()
//
//	var name string
//	notify.Set(&n, &name, "gopher", "name") // prints "changed: name"
//	notify.Set(&n, &name, "gopher", "name") // no-op, value unchanged
package notify

// Handler receives the name of the field that changed.
type Handler func(name string)

type entry struct {
	id      uint64
	handler Handler
}

// Notifier is a list of observers. The zero value is ready to use.
// It is not safe for concurrent use; all calls must come from the goroutine
// that owns the form.
type Notifier struct {
	entries []entry
	nextID  uint64
}

// Subscription ties a registered Handler to its Notifier.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Subscribe registers h and returns the subscription that removes it.
// A nil handler is ignored and yields an inert subscription.
func (n *Notifier) Subscribe(h Handler) *Subscription {
	if h == nil {
		return &Subscription{}
	}
	n.nextID++
	n.entries = append(n.entries, entry{id: n.nextID, handler: h})
	return &Subscription{id: n.nextID, notifier: n}
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.notifier == nil {
		return
	}
	n := s.notifier
	for i, e := range n.entries {
		if e.id == s.id {
			n.entries = append(n.entries[:i:i], n.entries[i+1:]...)
			break
		}
	}
	s.notifier = nil
}

// Len reports the number of registered observers.
func (n *Notifier) Len() int {
	return len(n.entries)
}

// Notify calls every observer with name before returning.
// Observers added or removed during delivery take effect on the next call.
// A panicking observer is not recovered.
func (n *Notifier) Notify(name string) {
	if len(n.entries) == 0 {
		return
	}
	snapshot := make([]entry, len(n.entries))
	copy(snapshot, n.entries)
	for _, e := range snapshot {
		e.handler(name)
	}
}

// Set stores value into *field and notifies n with name when the value
// differs from the current one. It reports whether a change happened.
func Set[T comparable](n *Notifier, field *T, value T, name string) bool {
	if *field == value {
		return false
	}
	*field = value
	n.Notify(name)
	return true
}

// SetFunc is Set for types whose == is not value equality, such as
// time.Time or decimal.Decimal.
func SetFunc[T any](n *Notifier, field *T, value T, name string, equal func(a, b T) bool) bool {
	if equal(*field, value) {
		return false
	}
	*field = value
	n.Notify(name)
	return true
}
