// Package apdu implements the command/response exchange used to talk to a
// Ledger device application.
//
// A command APDU is the five byte header CLA INS P1 P2 Lc followed by at most
// 255 bytes of data. Every response ends with a two byte status word; 0x9000
// means success.
//
// # Transport
//
// Transport turns an Exchanger (anything able to send one raw APDU and return
// the raw response) into a chunked sender. Payloads longer than the configured
// chunk size are split and sent as consecutive APDUs sharing the same header.
// The status word of every response is checked, and the last response is
// returned intact, status word included:
//
//	tr, err := apdu.NewTransport(device, apdu.DefaultTransportConfig)
//	if err != nil {
//	    return err
//	}
//	resp, err := tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, payload)
//
// A device processes one command at a time, so Transport serializes all
// exchanges issued through it.
//
// # Errors
//
// A status word outside the accepted list surfaces as a *StatusError. Use
// IsStatus to test for a specific code:
//
//	if apdu.IsStatus(err, apdu.StatusConditionsNotSatisfied) {
//	    // the user rejected the request on the device
//	}
package apdu
