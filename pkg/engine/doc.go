// Package engine drives render cycles for a single host tree.
//
// An Engine owns the adapter, the live root and the view that produced it.
// Mount renders a view from scratch; Update diffs the next view against the
// current one and applies the patches. Adopt takes over markup that is
// already in the host, reading the view back from it, so the first Update
// patches it in place. Cycles are serialised: one diff and
// apply always finishes before the next begins.
//
// If an apply fails part way through, the host tree no longer matches any
// view. The engine marks itself stale and Update returns ErrStale until the
// next Mount or Adopt.
//
// Every completed cycle is reported to the registered observers, traced with
// OpenTelemetry and counted in Prometheus metrics:
//
//	eng := engine.New(doc, sink,
//	    engine.WithLogger(logger),
//	    engine.WithMetrics(engine.NewMetrics(engine.WithRegistry(reg))),
//	)
//	root, err := eng.Mount(ctx, view)
//	patches, err := eng.Update(ctx, next)
package engine
