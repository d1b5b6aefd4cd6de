package kda

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// HashLength is the size of a Kadena transaction hash.
const HashLength = 32

const hexHashLength = 2 * HashLength

// base64 variants tried in order for non-hex hash strings. Kadena hashes are
// usually unpadded base64url.
var hashEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// NormalizeHash converts a hash argument into its 32 raw bytes.
//
// hash may be a []byte, a [32]byte or a string. A 64-character string is
// decoded as hex; any other string is decoded as base64. The decoded value must
// be exactly HashLength bytes. Failures are reported as *InvalidInputError.
func NormalizeHash(hash any) ([]byte, error) {
	var raw []byte
	switch h := hash.(type) {
	case []byte:
		raw = append([]byte(nil), h...)
	case [HashLength]byte:
		raw = h[:]
	case string:
		decoded, err := decodeHashString(h)
		if err != nil {
			return nil, err
		}
		raw = decoded
	default:
		return nil, &InvalidInputError{Reason: fmt.Sprintf("unsupported hash type %T", hash)}
	}

	if len(raw) != HashLength {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("hash is not %d bytes", HashLength)}
	}
	return raw, nil
}

func decodeHashString(s string) ([]byte, error) {
	if len(s) == hexHashLength {
		decoded, err := hex.DecodeString(s)
		if err != nil {
			return nil, &InvalidInputError{Reason: "hash is not valid hex", Err: err}
		}
		return decoded, nil
	}

	var firstErr error
	for _, enc := range hashEncodings {
		decoded, err := enc.DecodeString(s)
		if err == nil {
			return decoded, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, &InvalidInputError{Reason: "hash is not valid base64", Err: firstErr}
}
