// Package frame defines the immutable CAN frame value type ingested by the
// monitor engine.
package frame

import (
	"fmt"
	"time"
)

// MaxPayload is the maximum CAN frame payload size in bytes (classic CAN).
const MaxPayload = 8

// Frame is one timestamped, keyed binary payload received from the bus.
//
// Frame is a plain value type: it is copied into the state store and the
// change ledger, never aliased. Only the first Length bytes of Data are
// meaningful; the rest are zero.
type Frame struct {
	ID         uint32
	Length     uint8
	Data       [MaxPayload]byte
	ObservedAt time.Time
}

// New builds a Frame from a raw payload, stamping it with the given
// observation time.
//
// This is the validation boundary: payloads longer than MaxPayload are
// rejected here so that everything downstream (state store, ledger, engine)
// can assume Length <= MaxPayload as a precondition.
func New(id uint32, payload []byte, observedAt time.Time) (Frame, error) {
	if len(payload) > MaxPayload {
		return Frame{}, fmt.Errorf("frame 0x%X: payload length %d exceeds %d bytes", id, len(payload), MaxPayload)
	}

	f := Frame{
		ID:         id,
		Length:     uint8(len(payload)),
		ObservedAt: observedAt,
	}
	copy(f.Data[:], payload)
	return f, nil
}

// Payload returns the meaningful prefix of Data.
//
// The returned slice aliases the receiver's array; callers that retain it
// must copy. Frame values passed around by value keep their own arrays, so
// in practice this only matters for the caller's local copy.
func (f Frame) Payload() []byte {
	return f.Data[:f.Length]
}

// String renders the frame for logs: hex ID, length and payload bytes.
func (f Frame) String() string {
	return fmt.Sprintf("0x%X len=%d % X", f.ID, f.Length, f.Payload())
}
