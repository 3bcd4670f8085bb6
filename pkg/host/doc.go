// Package host defines the boundary between the reconciler and a live node
// tree.
//
// The reconciler never touches a concrete rendering backend. Everything it
// needs (node creation, attribute and property writes, listener registration
// and child list surgery) goes through an Adapter. Adapters report failures
// as errors; the reconciler propagates them to its caller without retrying.
//
// Every Node carries a Slot. The slot is storage owned by the reconciler: it
// holds the event-routing record installed for mapped subtrees and the
// latched listener callbacks, so handler updates can be applied without
// re-registering listeners.
//
// See package memhost for an in-memory implementation.
package host
