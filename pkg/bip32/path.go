package bip32

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// HardenedOffset is added to an index to mark hardened derivation.
	HardenedOffset uint32 = 0x80000000
	// MaxComponents is the largest component count the payload count byte can hold.
	MaxComponents = math.MaxUint8

	// KadenaCoinType is the SLIP-0044 coin type registered for Kadena.
	KadenaCoinType uint32 = 626

	separator     = "/"
	hardenedMark  = "'"
	rootMarker    = "m"
	altHardenMark = "h"
)

var errIndexOutOfRange = errors.New("index out of range")

// Path is a parsed derivation path. Hardened components already carry HardenedOffset.
type Path []uint32

// KadenaPath returns the standard Kadena account path 44'/626'/account'/0/0.
func KadenaPath(account uint32) Path {
	return Path{
		Harden(44),
		Harden(KadenaCoinType),
		Harden(account),
		0,
		0,
	}
}

// Harden returns index with the hardened bit set.
func Harden(index uint32) uint32 {
	return index | HardenedOffset
}

// IsHardened reports whether the component has the hardened bit set.
func IsHardened(component uint32) bool {
	return component&HardenedOffset != 0
}

// String renders the path in apostrophe notation, e.g. 44'/626'/0'/0/0.
func (p Path) String() string {
	var sb strings.Builder
	for i, c := range p {
		if i > 0 {
			sb.WriteString(separator)
		}
		if IsHardened(c) {
			sb.WriteString(strconv.FormatUint(uint64(c&^HardenedOffset), 10))
			sb.WriteString(hardenedMark)
			continue
		}
		sb.WriteString(strconv.FormatUint(uint64(c), 10))
	}
	return sb.String()
}

// SplitPath converts a derivation path string into its components.
//
// Each slash-separated segment is read for a leading decimal number, so "44'"
// reads as 44 and "7abc" as 7. Segments with no leading number ("m", "", "x1")
// are skipped. A segment longer than one character that ends with an
// apostrophe is hardened. Components that would not fit in 32 bits are skipped
// as well. SplitPath never fails; use ParsePath to reject malformed input.
func SplitPath(path string) Path {
	segments := strings.Split(path, separator)
	result := make(Path, 0, len(segments))

	for _, segment := range segments {
		value, ok := leadingUint(segment)
		if !ok || value > math.MaxUint32 {
			continue
		}

		if len(segment) > 1 && strings.HasSuffix(segment, hardenedMark) {
			value += uint64(HardenedOffset)
		}
		if value > math.MaxUint32 {
			continue
		}

		result = append(result, uint32(value))
	}

	return result
}

// ParsePath strictly parses a derivation path string.
//
// An optional leading "m" root marker is ignored. Every other segment must be a
// decimal index below 2^31, optionally followed by ' or h to mark it hardened.
// Malformed segments fail with a *PathFormatError; a path with no components
// fails with ErrEmptyPath.
func ParsePath(path string) (Path, error) {
	segments := strings.Split(path, separator)
	result := make(Path, 0, len(segments))

	for i, segment := range segments {
		if i == 0 && segment == rootMarker {
			continue
		}

		digits, hardened := segment, false
		if strings.HasSuffix(digits, hardenedMark) || strings.HasSuffix(digits, altHardenMark) {
			digits, hardened = digits[:len(digits)-1], true
		}
		if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
			return nil, &PathFormatError{Path: path, Segment: segment, Index: i}
		}

		index, err := strconv.ParseUint(digits, 10, 32)
		if err != nil || uint32(index) >= HardenedOffset {
			return nil, &PathFormatError{Path: path, Segment: segment, Index: i, Err: errIndexOutOfRange}
		}

		component := uint32(index)
		if hardened {
			component = Harden(component)
		}
		result = append(result, component)
	}

	if len(result) == 0 {
		return nil, ErrEmptyPath
	}
	return result, nil
}

// leadingUint reads the decimal number at the start of s, skipping leading
// whitespace and an optional plus sign. ok is false when no digit is found.
func leadingUint(s string) (value uint64, ok bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	s = strings.TrimPrefix(s, "+")

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	value, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return math.MaxUint64, true
	}
	return value, true
}
