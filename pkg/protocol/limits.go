package protocol

import "errors"

// Allocation and depth limits guard the decoder against hostile length
// prefixes and deeply nested payloads.
const (
	// DefaultMaxAllocation is the default maximum size of a single string (4MB).
	DefaultMaxAllocation = 4 * 1024 * 1024

	// HardMaxAllocation caps every allocation, whatever the configured limit (16MB).
	HardMaxAllocation = 16 * 1024 * 1024

	// MaxCollectionCount is the default maximum number of items in a list or map.
	MaxCollectionCount = 100_000

	// MaxNodeDepth limits the nesting of encoded view trees.
	MaxNodeDepth = 256

	// MaxRecordDepth limits the nesting of records (lazy and keyed sub-lists).
	MaxRecordDepth = 128

	// MaxValueDepth limits the nesting of property values.
	MaxValueDepth = 64
)

// ErrMaxDepthExceeded is returned when a payload nests deeper than allowed.
var ErrMaxDepthExceeded = errors.New("protocol: maximum nesting depth exceeded")

// Limits bounds what a Decoder will allocate.
type Limits struct {
	MaxAllocation int
	MaxCollection int
	NodeDepth     int
	RecordDepth   int
	ValueDepth    int
}

// DefaultLimits returns the default decoding limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAllocation: DefaultMaxAllocation,
		MaxCollection: MaxCollectionCount,
		NodeDepth:     MaxNodeDepth,
		RecordDepth:   MaxRecordDepth,
		ValueDepth:    MaxValueDepth,
	}
}

func (l Limits) normalize() Limits {
	def := DefaultLimits()
	if l.MaxAllocation <= 0 {
		l.MaxAllocation = def.MaxAllocation
	}
	if l.MaxAllocation > HardMaxAllocation {
		l.MaxAllocation = HardMaxAllocation
	}
	if l.MaxCollection <= 0 {
		l.MaxCollection = def.MaxCollection
	}
	if l.NodeDepth <= 0 {
		l.NodeDepth = def.NodeDepth
	}
	if l.RecordDepth <= 0 {
		l.RecordDepth = def.RecordDepth
	}
	if l.ValueDepth <= 0 {
		l.ValueDepth = def.ValueDepth
	}
	return l
}

func checkDepth(current, max int) error {
	if current > max {
		return ErrMaxDepthExceeded
	}
	return nil
}
