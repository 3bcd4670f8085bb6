// Package protocol implements the binary wire format for render cycles.
//
// A Frame describes one cycle of an engine: the full tree after a mount,
// the patch records of an update, or the error of a failed cycle. Frames
// are what the inspector streams to its websocket clients and what the CLI
// writes when asked for binary output.
//
// # Wire Format
//
//	[Version: 1 byte][Type: 1 byte][Seq: varint][Payload]
//
// WriteFrame and ReadFrame add a 4-byte big-endian length prefix for
// streams holding several frames.
//
// # Encoding
//
//   - Varint: compact unsigned integers (protobuf-style)
//   - ZigZag: signed integers as unsigned varints
//   - Length-prefixed: strings, lists and maps carry a varint count
//   - Sorted maps: map entries are written in key order, so equal inputs
//     encode to equal bytes
//
// # Records
//
// A Record mirrors a vdom.Patch with its closures reduced to names:
// handlers become their kind, mappers their name, widgets their Go type.
// Lazy and keyed sub-lists nest as records.
//
// # Limits
//
// Decoding enforces allocation, collection and depth limits (see Limits)
// so a hostile payload cannot exhaust memory or the stack.
package protocol
