package kda

import (
	"errors"
	"fmt"
)

// ErrNilSender is returned by New when no ChunkSender is supplied.
var ErrNilSender = errors.New("nil chunk sender")

// InvalidInputError reports a hash or path argument that cannot be sent to
// the device.
type InvalidInputError struct {
	Reason string
	Err    error // Decoding error, if any
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// TransmissionError reports a device response too short to carry a status word.
type TransmissionError struct {
	Response []byte
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("malformed device response: got %d bytes, need at least 2", len(e.Response))
}
