// Package bip32 parses hierarchical deterministic derivation paths and encodes
// them in the binary layout expected by the Kadena Ledger application.
//
// A derivation path is a slash-delimited list of decimal indices. An index
// followed by an apostrophe is hardened, which sets bit 31 of the encoded
// component:
//
//	44'/626'/0'/0/0  ->  [0x8000002C, 0x80000272, 0x80000000, 0, 0]
//
// # Parsing
//
// Two parsers are provided:
//
//   - SplitPath is lenient. Segments that do not start with a decimal number are
//     skipped and never cause an error.
//   - ParsePath is strict. Any malformed segment fails with a *PathFormatError.
//
// # Key Path Payload
//
// The payload embedded in device commands is a count-prefixed array:
//
//	+-------+-----------+-----------+-----+
//	| count | comp[0]   | comp[1]   | ... |
//	| 1 B   | 4 B (LE)  | 4 B (LE)  |     |
//	+-------+-----------+-----------+-----+
//
// Its length is always 1 + 4*count. Paths with more than MaxComponents
// components cannot be encoded and fail with a *PayloadEncodingError.
//
// Usage
//
//	payload, err := bip32.BuildKeyPayload("44'/626'/0'/0/0")
//	if err != nil {
//	    return err
//	}
//	// payload[0] == 5, len(payload) == 21
package bip32
