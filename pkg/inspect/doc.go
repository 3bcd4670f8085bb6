// Package inspect serves a live view of an engine over HTTP.
//
// A Hub observes the engine, encodes every cycle as a protocol frame, keeps
// the most recent ones in a ring buffer and fans them out to websocket
// clients. Each client first receives a mount frame for the current view,
// then every later cycle, rate limited per client.
//
// Routes:
//
//	GET /healthz        engine status as JSON
//	GET /tree           current host tree as an HTML page (?format=dump for text)
//	GET /cycles         recent cycles as JSON (?after=N)
//	GET /cycles/{seq}   the encoded frame of one cycle
//	GET /metrics        Prometheus metrics
//	GET /ws             websocket stream of encoded frames
package inspect
