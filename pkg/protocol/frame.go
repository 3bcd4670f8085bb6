package protocol

import (
	"errors"
	"fmt"
	"io"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Version is the wire format version written at the start of every frame.
const Version = 0x01

// FrameHeaderSize is the size of the length prefix used by WriteFrame.
const FrameHeaderSize = 4

// FrameType identifies what a frame carries.
type FrameType uint8

const (
	FrameMount   FrameType = 0x01 // Full tree after a mount
	FramePatches FrameType = 0x02 // Patch records of an update
	FrameError   FrameType = 0x03 // A failed cycle
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameMount:
		return "Mount"
	case FramePatches:
		return "Patches"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
	ErrVersion          = errors.New("protocol: unsupported version")
	ErrTrailingBytes    = errors.New("protocol: trailing bytes after frame")
)

// Frame is one render cycle on the wire.
//
//	┌─────────┬──────────┬──────────────┬─────────────────────────────┐
//	│ Version │ Type     │ Seq (varint) │ Payload                     │
//	│ 1 byte  │ 1 byte   │              │ tree | records | message    │
//	└─────────┴──────────┴──────────────┴─────────────────────────────┘
type Frame struct {
	Type    FrameType
	Seq     uint64
	Tree    *NodeWire // FrameMount
	Records []Record  // FramePatches
	Error   string    // FrameError
}

// MountFrame builds the frame announcing a freshly rendered view.
func MountFrame(seq uint64, view *vdom.Node) *Frame {
	return &Frame{Type: FrameMount, Seq: seq, Tree: NodeToWire(view)}
}

// PatchesFrame builds the frame for an applied patch list.
func PatchesFrame(seq uint64, patches []vdom.Patch) *Frame {
	return &Frame{Type: FramePatches, Seq: seq, Records: FromPatches(patches)}
}

// ErrorFrame builds the frame for a failed cycle.
func ErrorFrame(seq uint64, err error) *Frame {
	return &Frame{Type: FrameError, Seq: seq, Error: err.Error()}
}

// EncodeFrame encodes f to bytes.
func EncodeFrame(f *Frame) []byte {
	e := NewEncoder()
	EncodeFrameTo(e, f)
	return e.Bytes()
}

// EncodeFrameTo encodes f using the provided encoder.
func EncodeFrameTo(e *Encoder, f *Frame) {
	e.WriteByte(Version)
	e.WriteByte(byte(f.Type))
	e.WriteUvarint(f.Seq)

	switch f.Type {
	case FrameMount:
		EncodeNode(e, f.Tree)
	case FramePatches:
		EncodeRecords(e, f.Records)
	case FrameError:
		e.WriteString(f.Error)
	}
}

// DecodeFrame decodes a frame with the default limits. The whole input must
// be consumed.
func DecodeFrame(data []byte) (*Frame, error) {
	return DecodeFrameWithLimits(data, DefaultLimits())
}

// DecodeFrameWithLimits decodes a frame with custom limits.
func DecodeFrameWithLimits(data []byte, limits Limits) (*Frame, error) {
	d := NewDecoderWithLimits(data, limits)

	version, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, version)
	}
	ft, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	f := &Frame{Type: FrameType(ft)}
	if f.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}

	switch f.Type {
	case FrameMount:
		f.Tree, err = DecodeNode(d)
	case FramePatches:
		f.Records, err = DecodeRecords(d)
	case FrameError:
		f.Error, err = d.ReadString()
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidFrameType, ft)
	}
	if err != nil {
		return nil, fmt.Errorf("protocol: decode %s frame %d: %w", f.Type, f.Seq, err)
	}
	if !d.EOF() {
		return nil, ErrTrailingBytes
	}
	return f, nil
}

// WriteFrame writes f to w behind a 4-byte big-endian length prefix.
func WriteFrame(w io.Writer, f *Frame) error {
	e := NewEncoderWithCap(256)
	e.WriteUint32(0)
	EncodeFrameTo(e, f)
	buf := e.Bytes()

	length := len(buf) - FrameHeaderSize
	if length > HardMaxAllocation {
		return ErrFrameTooLarge
	}
	buf[0], buf[1], buf[2], buf[3] = byte(length>>24), byte(length>>16), byte(length>>8), byte(length)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length-prefixed frame from r. It returns io.EOF when
// r is exhausted at a frame boundary.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := int(header[0])<<24 | int(header[1])<<16 | int(header[2])<<8 | int(header[3])
	if length > HardMaxAllocation {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return DecodeFrame(payload)
}
