package bip32

import (
	"encoding/binary"
	"fmt"
)

const componentSize = 4

// BuildKeyPayload splits path with SplitPath and encodes the result as a key
// path payload: one count byte followed by each component as a little-endian
// uint32. It fails with a *PayloadEncodingError when the path has more than
// MaxComponents components.
func BuildKeyPayload(path string) ([]byte, error) {
	return SplitPath(path).MarshalBinary()
}

// MarshalBinary encodes p as a key path payload of exactly 1 + 4*len(p) bytes.
func (p Path) MarshalBinary() ([]byte, error) {
	if len(p) > MaxComponents {
		return nil, &PayloadEncodingError{Components: len(p)}
	}

	payload := make([]byte, 1+componentSize*len(p))
	payload[0] = byte(len(p))
	for i, component := range p {
		binary.LittleEndian.PutUint32(payload[1+componentSize*i:], component)
	}
	return payload, nil
}

// DecodeKeyPayload reverses MarshalBinary. The payload length must match its
// count byte exactly.
func DecodeKeyPayload(payload []byte) (Path, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: missing count byte", ErrMalformedPayload)
	}

	count := int(payload[0])
	if want := 1 + componentSize*count; len(payload) != want {
		return nil, fmt.Errorf("%w: count %d needs %d bytes, got %d", ErrMalformedPayload, count, want, len(payload))
	}

	path := make(Path, count)
	for i := range path {
		path[i] = binary.LittleEndian.Uint32(payload[1+componentSize*i:])
	}
	return path, nil
}
