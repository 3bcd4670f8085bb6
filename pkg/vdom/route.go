package vdom

import (
	"log/slog"

	"github.com/vango-dev/vtree/pkg/host"
)

// Sink receives messages that reach the root of the routing chain. sync is
// true when the handler stopped propagation, which asks the application to
// process the message before the next frame.
type Sink func(msg any, sync bool)

// Route is a link in the event-routing chain: the mappers installed by one
// group of nested Map nodes and the enclosing link. The root link has no
// mappers and carries the sink instead.
type Route struct {
	mappers []*Mapper
	parent  *Route
	sink    Sink
}

// NewRoute creates a root routing link delivering to sink.
func NewRoute(sink Sink) *Route {
	return &Route{sink: sink}
}

// Mappers returns the link's mappers, outermost first.
func (r *Route) Mappers() []*Mapper {
	return r.mappers
}

// Parent returns the enclosing link, or nil for the root.
func (r *Route) Parent() *Route {
	return r.parent
}

// Send transforms msg through every mapper between r and the root, innermost
// first, and delivers it to the root sink.
func (r *Route) Send(msg any, sync bool) {
	for r != nil && r.sink == nil {
		for i := len(r.mappers) - 1; i >= 0; i-- {
			msg = r.mappers[i].Apply(msg)
		}
		r = r.parent
	}
	if r != nil {
		r.sink(msg, sync)
	}
}

// linkFor returns the link of the tagged node rendered onto n directly
// below route, found by walking n's slot chain outwards. It returns nil
// when no such link exists.
func linkFor(n host.Node, route *Route) *Route {
	r, _ := n.Slot().Route.(*Route)
	for ; r != nil; r = r.parent {
		if r.parent == route {
			return r
		}
	}
	return nil
}

// callback is the host listener behind an event fact. The handler is
// latched: a new handler of the same kind replaces it without touching the
// host listener.
type callback struct {
	handler Handler
	route   *Route
	logger  *slog.Logger
}

// HandleEvent implements host.Listener.
func (c *callback) HandleEvent(ev *host.Event) {
	h := c.handler
	if h.Decoder == nil {
		return
	}
	out, err := h.Decoder.Decode(ev)
	if err != nil {
		c.logger.Debug("vdom: event not decoded",
			"event", ev.Type,
			"decoder", h.Decoder.Name(),
			"error", err)
		return
	}

	stop := out.StopPropagation && (h.Kind == HandlerMayStopPropagation || h.Kind == HandlerCustom)
	prevent := out.PreventDefault && (h.Kind == HandlerMayPreventDefault || h.Kind == HandlerCustom)
	if stop {
		ev.StopPropagation()
	}
	if prevent {
		ev.PreventDefault()
	}

	c.route.Send(out.Message, stop)
}
