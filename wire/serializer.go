// Package wire implements the struct-tag driven binary serializer used to
// turn Go structs into Minecraft Java Edition packet payloads and back.
// Unlike a self-describing format, the wire layout of a value is entirely
// determined by its Go type (and the occasional `mc:"..."` override); the
// bytes carry no type information of their own.
package wire

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-mclib/mcserver/varint"
)

// tag options recognized in an `mc:"..."` struct tag.
type tag struct {
	fixed bool // mc:"fixed": int32/int64 encode as 4/8-byte big-endian instead of VarInt/VarLong
	seq   bool // mc:"seq": [N]T encodes as a VarInt-count-prefixed sequence instead of concatenation
}

func parseTag(raw string) tag {
	var t tag
	for _, part := range splitComma(raw) {
		switch part {
		case "fixed":
			t.fixed = true
		case "seq":
			t.seq = true
		}
	}
	return t
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// Marshal encodes v, which must be a struct or a pointer to one, in wire
// format.
func Marshal(v any) ([]byte, error) {
	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, fmt.Errorf("wire: cannot marshal nil %s", val.Type())
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("wire: cannot marshal %s: %w", val.Kind(), ErrUnsupported)
	}
	var buf []byte
	buf, err := marshalStruct(buf, val)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Size reports the exact number of bytes Marshal(v) would produce, without
// allocating or writing those bytes. Callers use it to pre-reserve an
// outgoing buffer of the right size instead of letting it grow.
func Size(v any) (int, error) {
	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return 0, fmt.Errorf("wire: cannot size nil %s", val.Type())
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return 0, fmt.Errorf("wire: cannot size %s: %w", val.Kind(), ErrUnsupported)
	}
	return sizeStruct(val)
}

// Unmarshal decodes wire-format bytes into v, which must be a non-nil
// pointer to a struct. It returns the number of bytes consumed from b.
func Unmarshal(b []byte, v any) (int, error) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.IsNil() {
		return 0, fmt.Errorf("wire: Unmarshal requires a non-nil pointer, got %T", v)
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return 0, fmt.Errorf("wire: cannot unmarshal into %s: %w", elem.Kind(), ErrUnsupported)
	}
	return unmarshalStruct(elem, b)
}

func marshalStruct(buf []byte, val reflect.Value) ([]byte, error) {
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)
		if !field.CanInterface() {
			continue
		}
		raw := sf.Tag.Get("mc")
		if raw == "-" {
			continue
		}
		var err error
		buf, err = marshalField(buf, field, parseTag(raw))
		if err != nil {
			return nil, fmt.Errorf("wire: field %s: %w", sf.Name, err)
		}
	}
	return buf, nil
}

func marshalField(buf []byte, field reflect.Value, t tag) ([]byte, error) {
	switch field.Kind() {
	case reflect.Bool:
		if field.Bool() {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil

	case reflect.Int8:
		return append(buf, byte(field.Int())), nil
	case reflect.Uint8:
		return append(buf, byte(field.Uint())), nil

	case reflect.Int16:
		v := uint16(field.Int())
		return append(buf, byte(v>>8), byte(v)), nil
	case reflect.Uint16:
		v := uint16(field.Uint())
		return append(buf, byte(v>>8), byte(v)), nil

	case reflect.Int32:
		v := int32(field.Int())
		if t.fixed {
			u := uint32(v)
			return append(buf, byte(u>>24), byte(u>>16), byte(u>>8), byte(u)), nil
		}
		return varint.AppendInt32(buf, v), nil
	case reflect.Uint32:
		v := uint32(field.Uint())
		return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)), nil

	case reflect.Int64:
		v := field.Int()
		if t.fixed {
			u := uint64(v)
			return appendU64BE(buf, u), nil
		}
		return varint.AppendInt64(buf, v), nil
	case reflect.Uint64:
		return appendU64BE(buf, field.Uint()), nil

	case reflect.Float32:
		bits := math.Float32bits(float32(field.Float()))
		return append(buf, byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits)), nil
	case reflect.Float64:
		bits := math.Float64bits(field.Float())
		return appendU64BE(buf, bits), nil

	case reflect.String:
		s := field.String()
		if len(s) > math.MaxInt32 {
			return nil, fmt.Errorf("string length %d: %w", len(s), ErrLengthRequired)
		}
		buf = varint.AppendInt32(buf, int32(len(s)))
		return append(buf, s...), nil

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.Uint8 {
			b := field.Bytes()
			if len(b) > math.MaxInt32 {
				return nil, fmt.Errorf("byte slice length %d: %w", len(b), ErrLengthRequired)
			}
			buf = varint.AppendInt32(buf, int32(len(b)))
			return append(buf, b...), nil
		}
		n := field.Len()
		if n > math.MaxInt32 {
			return nil, fmt.Errorf("sequence length %d: %w", n, ErrLengthRequired)
		}
		buf = varint.AppendInt32(buf, int32(n))
		var err error
		for i := 0; i < n; i++ {
			buf, err = marshalField(buf, field.Index(i), tag{})
			if err != nil {
				return nil, err
			}
		}
		return buf, nil

	case reflect.Array:
		n := field.Len()
		if t.seq {
			if n > math.MaxInt32 {
				return nil, fmt.Errorf("sequence length %d: %w", n, ErrLengthRequired)
			}
			buf = varint.AppendInt32(buf, int32(n))
		}
		var err error
		for i := 0; i < n; i++ {
			buf, err = marshalField(buf, field.Index(i), tag{})
			if err != nil {
				return nil, err
			}
		}
		return buf, nil

	case reflect.Struct:
		return marshalStruct(buf, field)

	default:
		return nil, fmt.Errorf("%s: %w", field.Type(), ErrUnsupported)
	}
}

func sizeStruct(val reflect.Value) (int, error) {
	typ := val.Type()
	total := 0
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)
		if !field.CanInterface() {
			continue
		}
		raw := sf.Tag.Get("mc")
		if raw == "-" {
			continue
		}
		n, err := sizeField(field, parseTag(raw))
		if err != nil {
			return 0, fmt.Errorf("wire: field %s: %w", sf.Name, err)
		}
		total += n
	}
	return total, nil
}

// sizeField mirrors marshalField's cases exactly, but accumulates only the
// byte count each case would have produced instead of appending bytes.
func sizeField(field reflect.Value, t tag) (int, error) {
	switch field.Kind() {
	case reflect.Bool:
		return 1, nil

	case reflect.Int8, reflect.Uint8:
		return 1, nil

	case reflect.Int16, reflect.Uint16:
		return 2, nil

	case reflect.Int32:
		if t.fixed {
			return 4, nil
		}
		return varint.Len32(int32(field.Int())), nil
	case reflect.Uint32:
		return 4, nil

	case reflect.Int64:
		if t.fixed {
			return 8, nil
		}
		return varint.Len64(field.Int()), nil
	case reflect.Uint64:
		return 8, nil

	case reflect.Float32:
		return 4, nil
	case reflect.Float64:
		return 8, nil

	case reflect.String:
		n := len(field.String())
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("string length %d: %w", n, ErrLengthRequired)
		}
		return varint.Len32(int32(n)) + n, nil

	case reflect.Slice:
		n := field.Len()
		if field.Type().Elem().Kind() == reflect.Uint8 {
			if n > math.MaxInt32 {
				return 0, fmt.Errorf("byte slice length %d: %w", n, ErrLengthRequired)
			}
			return varint.Len32(int32(n)) + n, nil
		}
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("sequence length %d: %w", n, ErrLengthRequired)
		}
		total := varint.Len32(int32(n))
		for i := 0; i < n; i++ {
			s, err := sizeField(field.Index(i), tag{})
			if err != nil {
				return 0, err
			}
			total += s
		}
		return total, nil

	case reflect.Array:
		n := field.Len()
		total := 0
		if t.seq {
			if n > math.MaxInt32 {
				return 0, fmt.Errorf("sequence length %d: %w", n, ErrLengthRequired)
			}
			total += varint.Len32(int32(n))
		}
		for i := 0; i < n; i++ {
			s, err := sizeField(field.Index(i), tag{})
			if err != nil {
				return 0, err
			}
			total += s
		}
		return total, nil

	case reflect.Struct:
		return sizeStruct(field)

	default:
		return 0, fmt.Errorf("%s: %w", field.Type(), ErrUnsupported)
	}
}

func appendU64BE(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func unmarshalStruct(val reflect.Value, b []byte) (int, error) {
	typ := val.Type()
	offset := 0
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)
		if !field.CanSet() {
			continue
		}
		raw := sf.Tag.Get("mc")
		if raw == "-" {
			continue
		}
		n, err := unmarshalField(field, b[offset:], parseTag(raw))
		if err != nil {
			return offset, fmt.Errorf("wire: field %s: %w", sf.Name, err)
		}
		offset += n
	}
	return offset, nil
}

func unmarshalField(field reflect.Value, b []byte, t tag) (int, error) {
	switch field.Kind() {
	case reflect.Bool:
		if len(b) < 1 {
			return 0, ErrUnexpectedEOF
		}
		switch b[0] {
		case 0:
			field.SetBool(false)
		case 1:
			field.SetBool(true)
		default:
			return 0, ErrInvalidData
		}
		return 1, nil

	case reflect.Int8:
		if len(b) < 1 {
			return 0, ErrUnexpectedEOF
		}
		field.SetInt(int64(int8(b[0])))
		return 1, nil
	case reflect.Uint8:
		if len(b) < 1 {
			return 0, ErrUnexpectedEOF
		}
		field.SetUint(uint64(b[0]))
		return 1, nil

	case reflect.Int16:
		if len(b) < 2 {
			return 0, ErrUnexpectedEOF
		}
		field.SetInt(int64(int16(uint16(b[0])<<8 | uint16(b[1]))))
		return 2, nil
	case reflect.Uint16:
		if len(b) < 2 {
			return 0, ErrUnexpectedEOF
		}
		field.SetUint(uint64(uint16(b[0])<<8 | uint16(b[1])))
		return 2, nil

	case reflect.Int32:
		if t.fixed {
			if len(b) < 4 {
				return 0, ErrUnexpectedEOF
			}
			u := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
			field.SetInt(int64(int32(u)))
			return 4, nil
		}
		v, n, err := varint.PeekInt32(b)
		if err != nil {
			return 0, mapVarintErr(err)
		}
		field.SetInt(int64(v))
		return n, nil
	case reflect.Uint32:
		if len(b) < 4 {
			return 0, ErrUnexpectedEOF
		}
		u := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		field.SetUint(uint64(u))
		return 4, nil

	case reflect.Int64:
		if t.fixed {
			u, n, err := readU64BE(b)
			if err != nil {
				return 0, err
			}
			field.SetInt(int64(u))
			return n, nil
		}
		v, n, err := varint.PeekInt64(b)
		if err != nil {
			return 0, mapVarintErr(err)
		}
		field.SetInt(v)
		return n, nil
	case reflect.Uint64:
		u, n, err := readU64BE(b)
		if err != nil {
			return 0, err
		}
		field.SetUint(u)
		return n, nil

	case reflect.Float32:
		if len(b) < 4 {
			return 0, ErrUnexpectedEOF
		}
		u := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		field.SetFloat(float64(math.Float32frombits(u)))
		return 4, nil
	case reflect.Float64:
		u, n, err := readU64BE(b)
		if err != nil {
			return 0, err
		}
		field.SetFloat(math.Float64frombits(u))
		return n, nil

	case reflect.String:
		l, n, err := varint.PeekInt32(b)
		if err != nil {
			return 0, mapVarintErr(err)
		}
		if l < 0 {
			return 0, ErrInvalidData
		}
		end := n + int(l)
		if end > len(b) || end < n {
			return 0, ErrUnexpectedEOF
		}
		field.SetString(string(b[n:end]))
		return end, nil

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.Uint8 {
			l, n, err := varint.PeekInt32(b)
			if err != nil {
				return 0, mapVarintErr(err)
			}
			if l < 0 {
				return 0, ErrInvalidData
			}
			end := n + int(l)
			if end > len(b) || end < n {
				return 0, ErrUnexpectedEOF
			}
			cp := make([]byte, l)
			copy(cp, b[n:end])
			field.SetBytes(cp)
			return end, nil
		}
		l, n, err := varint.PeekInt32(b)
		if err != nil {
			return 0, mapVarintErr(err)
		}
		if l < 0 {
			return 0, ErrInvalidData
		}
		offset := n
		slice := reflect.MakeSlice(field.Type(), int(l), int(l))
		for i := 0; i < int(l); i++ {
			consumed, err := unmarshalField(slice.Index(i), b[offset:], tag{})
			if err != nil {
				return 0, err
			}
			offset += consumed
		}
		field.Set(slice)
		return offset, nil

	case reflect.Array:
		offset := 0
		if t.seq {
			l, n, err := varint.PeekInt32(b)
			if err != nil {
				return 0, mapVarintErr(err)
			}
			if int(l) != field.Len() {
				return 0, ErrInvalidData
			}
			offset = n
		}
		for i := 0; i < field.Len(); i++ {
			consumed, err := unmarshalField(field.Index(i), b[offset:], tag{})
			if err != nil {
				return 0, err
			}
			offset += consumed
		}
		return offset, nil

	case reflect.Struct:
		return unmarshalStruct(field, b)

	default:
		return 0, fmt.Errorf("%s: %w", field.Type(), ErrUnsupported)
	}
}

func readU64BE(b []byte) (uint64, int, error) {
	if len(b) < 8 {
		return 0, 0, ErrUnexpectedEOF
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v, 8, nil
}

func mapVarintErr(err error) error {
	if err == varint.ErrShortBuffer {
		return ErrUnexpectedEOF
	}
	return err
}
