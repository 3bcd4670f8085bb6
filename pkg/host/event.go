package host

// Event is a host event travelling from its target towards the root.
type Event struct {
	// Type is the event name without the "on" prefix (e.g. "click").
	Type string

	// Data is the event payload handed to decoders.
	Data map[string]any

	stopped   bool
	prevented bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string, data map[string]any) *Event {
	return &Event{Type: typ, Data: data}
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// PreventDefault marks the host's default action as cancelled.
func (e *Event) PreventDefault() { e.prevented = true }

// Stopped reports whether StopPropagation was called.
func (e *Event) Stopped() bool { return e.stopped }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// String returns the data value at key as a string, or "" if absent.
func (e *Event) String(key string) string {
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}
