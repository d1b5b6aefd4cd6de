package apdu

import (
	"errors"
	"fmt"
)

const (
	headerSize = 5
	// MaxDataLength is the largest data field a short APDU can carry.
	MaxDataLength = 255
)

// ErrDataTooLong is returned when a command's data does not fit a short APDU.
var ErrDataTooLong = errors.New("apdu data too long")

// Command is a single command APDU sent to the device.
type Command struct {
	CLA  byte   // Instruction class
	INS  byte   // Instruction code
	P1   byte   // First parameter
	P2   byte   // Second parameter
	Data []byte // Command data, Lc is derived from its length
}

// MarshalBinary encodes the command as CLA INS P1 P2 Lc Data.
func (c Command) MarshalBinary() ([]byte, error) {
	if len(c.Data) > MaxDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrDataTooLong, len(c.Data))
	}

	raw := make([]byte, headerSize, headerSize+len(c.Data))
	raw[0] = c.CLA
	raw[1] = c.INS
	raw[2] = c.P1
	raw[3] = c.P2
	raw[4] = byte(len(c.Data))

	return append(raw, c.Data...), nil
}

// String implements fmt.Stringer with a compact header description.
func (c Command) String() string {
	return fmt.Sprintf("CLA=0x%02x INS=0x%02x P1=0x%02x P2=0x%02x Lc=%d", c.CLA, c.INS, c.P1, c.P2, len(c.Data))
}
