package wire

import "errors"

// ErrUnexpectedEOF means the supplied buffer ran out before a value
// finished decoding.
var ErrUnexpectedEOF = errors.New("wire: unexpected end of buffer")

// ErrUnsupported means the value's shape falls outside the wire format
// this package implements (maps, pointers-as-optionals, data-carrying
// enums, interface/any fields).
var ErrUnsupported = errors.New("wire: unsupported type")

// ErrLengthRequired means a string, byte slice, or length-prefixed sequence
// is too long to carry a non-negative VarInt length prefix (its length
// exceeds math.MaxInt32). Marshal and Size both refuse such a value rather
// than silently truncating it into a wrapped, wrong length prefix.
var ErrLengthRequired = errors.New("wire: length exceeds representable VarInt range")

// ErrInvalidData means the bytes are structurally well-formed VarInts but
// the decoded value itself is invalid for its Go type (a boolean byte that
// is neither 0 nor 1, a negative length prefix, a sequence/string longer
// than fits in an int32).
var ErrInvalidData = errors.New("wire: invalid data")
