package form

import (
	"github.com/kdsmith18542/liveform/notify"
)

// ErrorState is the per-form error store.
//
// A field key is present iff it has at least one message, so HasErrors is
// simply "the mapping is non-empty". Every mutation fires OnErrorsChanged
// observers with the affected field name.
type ErrorState struct {
	known   map[string]struct{}
	order   []string
	errors  map[string][]string
	changed notify.Notifier
}

// NewErrorState creates a store that accepts the given field names.
// Operations on any other name are no-ops.
func NewErrorState(fields ...string) *ErrorState {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}
	return &ErrorState{
		known:  known,
		errors: make(map[string][]string),
	}
}

// OnErrorsChanged registers h for error-set changes.
func (s *ErrorState) OnErrorsChanged(h notify.Handler) *notify.Subscription {
	return s.changed.Subscribe(h)
}

// Known reports whether field belongs to this store.
func (s *ErrorState) Known(field string) bool {
	_, ok := s.known[field]
	return ok
}

// AddError appends message to field unless it is already present.
// It reports whether the store changed.
func (s *ErrorState) AddError(field, message string) bool {
	if !s.Known(field) {
		return false
	}
	existing, ok := s.errors[field]
	for _, m := range existing {
		if m == message {
			return false
		}
	}
	if !ok {
		s.order = append(s.order, field)
	}
	s.errors[field] = append(existing, message)
	s.changed.Notify(field)
	return true
}

// ClearErrors removes every message for field. Observers are notified only
// when the field actually had errors.
func (s *ErrorState) ClearErrors(field string) {
	if _, ok := s.errors[field]; !ok {
		return
	}
	delete(s.errors, field)
	s.removeFromOrder(field)
	s.changed.Notify(field)
}

// ClearAll empties the store, notifying once per previously failing field
// in the order those fields first gained errors.
func (s *ErrorState) ClearAll() {
	fields := s.order
	s.order = nil
	s.errors = make(map[string][]string)
	for _, f := range fields {
		s.changed.Notify(f)
	}
}

// HasErrors reports whether any field has errors.
func (s *ErrorState) HasErrors() bool {
	return len(s.errors) > 0
}

// GetErrors returns a copy of field's messages, or nil.
func (s *ErrorState) GetErrors(field string) []string {
	msgs, ok := s.errors[field]
	if !ok {
		return nil
	}
	out := make([]string, len(msgs))
	copy(out, msgs)
	return out
}

// Fields lists failing fields in insertion order.
func (s *ErrorState) Fields() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Snapshot copies the current error set.
func (s *ErrorState) Snapshot() ValidationErrors {
	out := make(ValidationErrors, len(s.errors))
	for _, f := range s.order {
		out[f] = s.GetErrors(f)
	}
	return out
}

func (s *ErrorState) removeFromOrder(field string) {
	for i, f := range s.order {
		if f == field {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			return
		}
	}
}
