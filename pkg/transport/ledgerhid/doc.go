// Package ledgerhid talks to Ledger devices over raw USB HID.
//
// Every command is framed into 64-byte reports:
//
//	Description                     | Length
//	--------------------------------+---------------
//	Channel ID (big endian, 0x0101) | 2 bytes
//	Command tag (0x05, APDU)        | 1 byte
//	Sequence index (big endian)     | 2 bytes
//	Payload                         | up to 59 bytes
//
// The payload stream is the APDU prefixed with its length as a big endian
// uint16. Replies use the same framing; the final two bytes of the reassembled
// reply are the status word, which Exchange returns along with the data.
package ledgerhid
