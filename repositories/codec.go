package repositories

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"whisperwall/errors"
)

// record is a decoded protobuf message: every length-delimited and varint
// field by number, in wire order. Other wire types are skipped.
type record struct {
	bytes   map[protowire.Number][][]byte
	varints map[protowire.Number]uint64
}

func parseRecord(b []byte) (record, error) {
	r := record{
		bytes:   make(map[protowire.Number][][]byte),
		varints: make(map[protowire.Number]uint64),
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return record{}, fmt.Errorf("%w: %v", errors.ErrCorruptedRecord, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return record{}, fmt.Errorf("%w: %v", errors.ErrCorruptedRecord, protowire.ParseError(m))
			}
			r.bytes[num] = append(r.bytes[num], v)
			n = m
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return record{}, fmt.Errorf("%w: %v", errors.ErrCorruptedRecord, protowire.ParseError(m))
			}
			r.varints[num] = v
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return record{}, fmt.Errorf("%w: %v", errors.ErrCorruptedRecord, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return r, nil
}

func (r record) str(num protowire.Number) string {
	values := r.bytes[num]
	if len(values) == 0 {
		return ""
	}
	return string(values[len(values)-1])
}

func (r record) strs(num protowire.Number) []string {
	values := r.bytes[num]
	if len(values) == 0 {
		return nil
	}
	res := make([]string, len(values))
	for i, v := range values {
		res[i] = string(v)
	}
	return res
}

func (r record) messages(num protowire.Number) [][]byte {
	return r.bytes[num]
}

func (r record) integer(num protowire.Number) int64 {
	return int64(r.varints[num])
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendStrings(b []byte, num protowire.Number, values []string) []byte {
	for _, v := range values {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	return b
}

func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}
