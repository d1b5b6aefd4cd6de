package ledgerhid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	packetSize   = 64
	headerSize   = 5
	lengthSize   = 2
	channelID    = 0x0101
	tagAPDU      = 0x05
	maxFrameSize = 0xffff
)

var (
	// ErrInvalidReplyHeader is returned when a reply packet has the wrong
	// channel or tag, usually because the device is in another mode.
	ErrInvalidReplyHeader = errors.New("invalid reply header")
	// ErrUnexpectedSequence is returned when reply packets arrive out of order.
	ErrUnexpectedSequence = errors.New("unexpected reply sequence index")
	// ErrCommandTooLong is returned for commands that exceed the 16-bit length prefix.
	ErrCommandTooLong = errors.New("command too long for HID framing")
)

// framePackets splits msg into zero-padded HID packets.
func framePackets(msg []byte) ([][]byte, error) {
	if len(msg) > maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCommandTooLong, len(msg))
	}

	stream := make([]byte, lengthSize, lengthSize+len(msg))
	binary.BigEndian.PutUint16(stream, uint16(len(msg)))
	stream = append(stream, msg...)

	space := packetSize - headerSize
	packets := make([][]byte, 0, (len(stream)+space-1)/space)
	for seq := 0; len(stream) > 0; seq++ {
		packet := make([]byte, packetSize)
		binary.BigEndian.PutUint16(packet[0:], channelID)
		packet[2] = tagAPDU
		binary.BigEndian.PutUint16(packet[3:], uint16(seq))

		n := copy(packet[headerSize:], stream)
		stream = stream[n:]
		packets = append(packets, packet)
	}
	return packets, nil
}

// readReply reads packets from r until the announced reply length is filled.
func readReply(r io.Reader) ([]byte, error) {
	var reply []byte
	packet := make([]byte, packetSize)

	for seq := 0; ; seq++ {
		if _, err := io.ReadFull(r, packet); err != nil {
			return nil, err
		}
		if binary.BigEndian.Uint16(packet[0:]) != channelID || packet[2] != tagAPDU {
			return nil, ErrInvalidReplyHeader
		}
		if got := int(binary.BigEndian.Uint16(packet[3:])); got != seq {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrUnexpectedSequence, got, seq)
		}

		payload := packet[headerSize:]
		if seq == 0 {
			reply = make([]byte, 0, int(binary.BigEndian.Uint16(payload)))
			payload = payload[lengthSize:]
		}

		left := cap(reply) - len(reply)
		if left <= len(payload) {
			return append(reply, payload[:left]...), nil
		}
		reply = append(reply, payload...)
	}
}
