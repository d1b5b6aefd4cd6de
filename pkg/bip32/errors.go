package bip32

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPath is returned by ParsePath when the path has no components.
	ErrEmptyPath = errors.New("empty derivation path")
	// ErrMalformedPayload is returned when a key path payload cannot be decoded.
	ErrMalformedPayload = errors.New("malformed key path payload")
)

// PathFormatError reports a derivation path segment that could not be parsed.
type PathFormatError struct {
	Path    string // Full path as supplied by the caller
	Segment string // Offending segment
	Index   int    // Position of the segment in the slash-separated list
	Err     error  // Underlying cause, if any
}

func (e *PathFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid derivation path %q: segment %d (%q): %v", e.Path, e.Index, e.Segment, e.Err)
	}
	return fmt.Sprintf("invalid derivation path %q: segment %d (%q)", e.Path, e.Index, e.Segment)
}

func (e *PathFormatError) Unwrap() error { return e.Err }

// PayloadEncodingError reports a path whose component count does not fit the
// single count byte of the key path payload.
type PayloadEncodingError struct {
	Components int
}

func (e *PayloadEncodingError) Error() string {
	return fmt.Sprintf("derivation path has %d components, at most %d can be encoded", e.Components, MaxComponents)
}
