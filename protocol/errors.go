package protocol

import "errors"

// ErrInvalidData means a packet's structure decoded but failed protocol
// validation: unknown packet id for the current state, wrong protocol
// version, an empty required field, or a mis-sized encrypted blob.
var ErrInvalidData = errors.New("protocol: invalid data")

// ErrUnsupported means the codec was asked to encode a packet variant that
// does not belong to the current connection state.
var ErrUnsupported = errors.New("protocol: unsupported in this state")
