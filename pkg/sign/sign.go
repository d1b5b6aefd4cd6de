package sign

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Signer produces signatures over transaction hashes.
type Signer interface {
	Sign(ctx context.Context, hash []byte) (Signature, error)
}

// Signature is a raw signature as returned by the device.
type Signature []byte

// String returns the signature as lowercase hex without a 0x prefix.
func (s Signature) String() string {
	return hex.EncodeToString(s)
}

// ParseSignature decodes a hex string, with or without a 0x prefix.
func ParseSignature(s string) (Signature, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid signature hex: %w", err)
	}
	return decoded, nil
}

// MarshalJSON encodes the signature as a hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	decoded, err := ParseSignature(hexStr)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// MarshalYAML encodes the signature as a hex string.
func (s Signature) MarshalYAML() (any, error) {
	return s.String(), nil
}
