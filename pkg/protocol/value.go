package protocol

import (
	"fmt"
	"sort"
)

// ValueType tags an encoded property value.
type ValueType uint8

const (
	ValueNull   ValueType = 0x00
	ValueBool   ValueType = 0x01
	ValueInt    ValueType = 0x02
	ValueFloat  ValueType = 0x03
	ValueString ValueType = 0x04
	ValueArray  ValueType = 0x05
	ValueObject ValueType = 0x06
)

// EncodeValue appends a property value. Integers of any width become int64;
// types with no wire form are written as their fmt representation.
func EncodeValue(enc *Encoder, v any) {
	switch val := v.(type) {
	case nil:
		enc.WriteByte(byte(ValueNull))
	case bool:
		enc.WriteByte(byte(ValueBool))
		enc.WriteBool(val)
	case int:
		enc.WriteByte(byte(ValueInt))
		enc.WriteSvarint(int64(val))
	case int32:
		enc.WriteByte(byte(ValueInt))
		enc.WriteSvarint(int64(val))
	case int64:
		enc.WriteByte(byte(ValueInt))
		enc.WriteSvarint(val)
	case float32:
		enc.WriteByte(byte(ValueFloat))
		enc.WriteFloat64(float64(val))
	case float64:
		enc.WriteByte(byte(ValueFloat))
		enc.WriteFloat64(val)
	case string:
		enc.WriteByte(byte(ValueString))
		enc.WriteString(val)
	case []any:
		enc.WriteByte(byte(ValueArray))
		enc.WriteUvarint(uint64(len(val)))
		for _, item := range val {
			EncodeValue(enc, item)
		}
	case map[string]any:
		enc.WriteByte(byte(ValueObject))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		enc.WriteUvarint(uint64(len(keys)))
		for _, k := range keys {
			enc.WriteString(k)
			EncodeValue(enc, val[k])
		}
	default:
		enc.WriteByte(byte(ValueString))
		enc.WriteString(fmt.Sprint(val))
	}
}

// DecodeValue reads a value written by EncodeValue.
func DecodeValue(d *Decoder) (any, error) {
	return decodeValue(d, 0)
}

func decodeValue(d *Decoder, depth int) (any, error) {
	if err := checkDepth(depth, d.limits.ValueDepth); err != nil {
		return nil, err
	}

	typeByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch ValueType(typeByte) {
	case ValueNull:
		return nil, nil

	case ValueBool:
		return d.ReadBool()

	case ValueInt:
		return d.ReadSvarint()

	case ValueFloat:
		return d.ReadFloat64()

	case ValueString:
		return d.ReadString()

	case ValueArray:
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		arr := make([]any, count)
		for i := range arr {
			if arr[i], err = decodeValue(d, depth+1); err != nil {
				return nil, err
			}
		}
		return arr, nil

	case ValueObject:
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		obj := make(map[string]any, count)
		for i := 0; i < count; i++ {
			key, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			if obj[key], err = decodeValue(d, depth+1); err != nil {
				return nil, err
			}
		}
		return obj, nil

	default:
		return nil, fmt.Errorf("value type 0x%02x: %w", typeByte, ErrInvalidTag)
	}
}
