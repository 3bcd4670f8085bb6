package vdom

import (
	"fmt"

	"github.com/vango-dev/vtree/pkg/host"
)

// Render builds a live host node from a view tree, routing events to the
// patcher's root route.
func (p *Patcher) Render(v *Node) (host.Node, error) {
	return p.render(v, p.route)
}

func (p *Patcher) render(v *Node, route *Route) (host.Node, error) {
	switch v.Kind {
	case KindTagged:
		// Nested mappers share one routing link. A tagged node below a lazy
		// one renders onto the same host node first; the slot keeps that
		// innermost link, and r stays reachable through its parents.
		mappers, sub := unwrap(v)
		r := &Route{mappers: mappers, parent: route}
		n, err := p.render(sub, r)
		if err != nil {
			return nil, err
		}
		if n.Slot().Route == nil {
			n.Slot().Route = r
		}
		return n, nil

	case KindLazy:
		return p.render(v.Forced(), route)

	case KindText:
		n, err := p.adapter.CreateText(v.Text)
		if err != nil {
			return nil, fmt.Errorf("vdom: render text: %w", err)
		}
		return n, nil

	case KindCustom:
		n, err := v.Widget.Render(p.adapter)
		if err != nil {
			return nil, fmt.Errorf("vdom: render widget %T: %w", v.Widget, err)
		}
		if err := p.applyFacts(n, route, DiffFacts(Facts{}, v.Facts)); err != nil {
			return nil, err
		}
		return n, nil

	case KindElement, KindKeyed:
		n, err := p.adapter.CreateElement(v.Tag, v.Namespace)
		if err != nil {
			return nil, fmt.Errorf("vdom: render <%s>: %w", v.Tag, err)
		}
		if err := p.applyFacts(n, route, DiffFacts(Facts{}, v.Facts)); err != nil {
			return nil, err
		}
		for _, kid := range v.kids() {
			c, err := p.render(kid, route)
			if err != nil {
				return nil, err
			}
			if err := p.adapter.InsertBefore(n, c, nil); err != nil {
				return nil, fmt.Errorf("vdom: render <%s>: %w", v.Tag, err)
			}
		}
		return n, nil
	}
	return nil, fmt.Errorf("vdom: cannot render %s node", v.Kind)
}

// kids returns the children of an element or keyed element in order.
func (n *Node) kids() []*Node {
	if n.Kind != KindKeyed {
		return n.Children
	}
	out := make([]*Node, len(n.Keyed))
	for i, c := range n.Keyed {
		out[i] = c.Node
	}
	return out
}

// applyFacts writes a facts delta onto a host node.
func (p *Patcher) applyFacts(n host.Node, route *Route, d *FactsDiff) error {
	if d == nil {
		return nil
	}
	a := p.adapter

	for _, k := range sortedKeys(d.Props) {
		v := d.Props[k].Value
		if k == "value" || k == "checked" {
			if cur, ok := a.Property(n, k); ok && sameRef(cur, v) {
				continue
			}
		}
		if err := a.SetProperty(n, k, v); err != nil {
			return fmt.Errorf("vdom: property %s: %w", k, err)
		}
	}

	for _, k := range sortedKeys(d.Attrs) {
		c := d.Attrs[k]
		var err error
		if c.Removed {
			err = a.RemoveAttribute(n, k)
		} else {
			err = a.SetAttribute(n, k, c.Value)
		}
		if err != nil {
			return fmt.Errorf("vdom: attribute %s: %w", k, err)
		}
	}

	for _, k := range sortedKeys(d.AttrsNS) {
		c := d.AttrsNS[k]
		var err error
		if c.Removed {
			err = a.RemoveAttributeNS(n, c.Value.Namespace, k)
		} else {
			err = a.SetAttributeNS(n, c.Value.Namespace, k, c.Value.Value)
		}
		if err != nil {
			return fmt.Errorf("vdom: attribute %s:%s: %w", c.Value.Namespace, k, err)
		}
	}

	for _, k := range sortedKeys(d.Styles) {
		if err := a.SetStyle(n, k, d.Styles[k].Value); err != nil {
			return fmt.Errorf("vdom: style %s: %w", k, err)
		}
	}

	if len(d.Events) > 0 {
		return p.applyEvents(n, route, d.Events)
	}
	return nil
}

func (p *Patcher) applyEvents(n host.Node, route *Route, events map[string]Change[Handler]) error {
	slot := n.Slot()
	if slot.Listeners == nil {
		slot.Listeners = make(map[string]host.Listener)
	}
	a := p.adapter

	for _, name := range sortedKeys(events) {
		c := events[name]
		old, _ := slot.Listeners[name].(*callback)

		if c.Removed {
			if old != nil {
				if err := a.RemoveEventListener(n, name, old); err != nil {
					return fmt.Errorf("vdom: event %s: %w", name, err)
				}
			}
			delete(slot.Listeners, name)
			continue
		}

		if old != nil {
			if old.handler.Kind == c.Value.Kind {
				old.handler = c.Value
				continue
			}
			if err := a.RemoveEventListener(n, name, old); err != nil {
				return fmt.Errorf("vdom: event %s: %w", name, err)
			}
		}

		cb := &callback{handler: c.Value, route: route, logger: p.logger}
		if err := a.AddEventListener(n, name, cb, c.Value.Kind.Passive()); err != nil {
			return fmt.Errorf("vdom: event %s: %w", name, err)
		}
		slot.Listeners[name] = cb
	}
	return nil
}
