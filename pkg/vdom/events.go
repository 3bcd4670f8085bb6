package vdom

// On attaches a handler for the named host event.
func On(name string, kind HandlerKind, d *Decoder) Fact {
	return Fact{Kind: FactEvent, Key: name, Value: Handler{Kind: kind, Decoder: d}}
}

// event creates a normal handler fact.
func event(name string, d *Decoder) Fact {
	return On(name, HandlerNormal, d)
}

// Mouse events

// OnClick handles click events.
func OnClick(d *Decoder) Fact { return event("click", d) }

// OnDblClick handles double-click events.
func OnDblClick(d *Decoder) Fact { return event("dblclick", d) }

// OnMouseEnter handles mouseenter events.
func OnMouseEnter(d *Decoder) Fact { return event("mouseenter", d) }

// OnMouseLeave handles mouseleave events.
func OnMouseLeave(d *Decoder) Fact { return event("mouseleave", d) }

// Keyboard events

// OnKeyDown handles keydown events.
func OnKeyDown(d *Decoder) Fact { return event("keydown", d) }

// Form events

// OnInput handles input events. The decoder may stop propagation, which
// also makes the message synchronous.
func OnInput(d *Decoder) Fact { return On("input", HandlerMayStopPropagation, d) }

// OnChange handles change events.
func OnChange(d *Decoder) Fact { return event("change", d) }

// OnSubmit handles form submit events. The decoder may prevent the default
// submission.
func OnSubmit(d *Decoder) Fact { return On("submit", HandlerMayPreventDefault, d) }

// OnFocus handles focus events.
func OnFocus(d *Decoder) Fact { return event("focus", d) }

// OnBlur handles blur events.
func OnBlur(d *Decoder) Fact { return event("blur", d) }
