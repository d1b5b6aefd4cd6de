package apdu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// StatusWordLength is the size of the status word trailing every response.
const StatusWordLength = 2

// ErrShortResponse is returned when a response is too short to hold a status word.
var ErrShortResponse = errors.New("response shorter than status word")

// StatusWord is the two byte status code trailing a device response.
type StatusWord uint16

// Status words reported by Ledger device applications.
const (
	StatusOK                     StatusWord = 0x9000
	StatusUserRefused            StatusWord = 0x5501
	StatusLockedDevice           StatusWord = 0x5515
	StatusWrongLength            StatusWord = 0x6700
	StatusSecurityNotSatisfied   StatusWord = 0x6982
	StatusConditionsNotSatisfied StatusWord = 0x6985
	StatusIncorrectData          StatusWord = 0x6a80
	StatusNotEnoughMemory        StatusWord = 0x6a84
	StatusReferencedDataNotFound StatusWord = 0x6a88
	StatusIncorrectP1P2          StatusWord = 0x6b00
	StatusUnknownAPDU            StatusWord = 0x6d02
	StatusINSNotSupported        StatusWord = 0x6d00
	StatusCLANotSupported        StatusWord = 0x6e00
	StatusAppNotOpen             StatusWord = 0x6e01
	StatusTechnicalProblem       StatusWord = 0x6f00
	StatusHalted                 StatusWord = 0x6faa
)

var statusText = map[StatusWord]string{
	StatusOK:                     "ok",
	StatusUserRefused:            "user refused on device",
	StatusLockedDevice:           "device is locked",
	StatusWrongLength:            "incorrect length",
	StatusSecurityNotSatisfied:   "security status not satisfied",
	StatusConditionsNotSatisfied: "conditions of use not satisfied",
	StatusIncorrectData:          "incorrect data",
	StatusNotEnoughMemory:        "not enough memory space",
	StatusReferencedDataNotFound: "referenced data not found",
	StatusIncorrectP1P2:          "incorrect p1 or p2",
	StatusUnknownAPDU:            "unknown apdu",
	StatusINSNotSupported:        "instruction not supported",
	StatusCLANotSupported:        "class not supported",
	StatusAppNotOpen:             "application not open",
	StatusTechnicalProblem:       "technical problem",
	StatusHalted:                 "device halted",
}

// String returns the hex code followed by a description when the code is known.
func (s StatusWord) String() string {
	if text, ok := statusText[s]; ok {
		return fmt.Sprintf("0x%04x (%s)", uint16(s), text)
	}
	return fmt.Sprintf("0x%04x", uint16(s))
}

// StatusError is returned when the device answers with a status word that was
// not accepted by the caller.
type StatusError struct {
	Code StatusWord
	INS  byte // Instruction the device was answering
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device rejected instruction 0x%02x with status %s", e.INS, e.Code)
}

// IsStatus reports whether err carries a *StatusError with the given code.
func IsStatus(err error, code StatusWord) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

// ParseResponse splits a raw response into its data and trailing status word.
func ParseResponse(resp []byte) ([]byte, StatusWord, error) {
	if len(resp) < StatusWordLength {
		return nil, 0, fmt.Errorf("%w: got %d bytes", ErrShortResponse, len(resp))
	}
	offset := len(resp) - StatusWordLength
	return resp[:offset], StatusWord(binary.BigEndian.Uint16(resp[offset:])), nil
}
