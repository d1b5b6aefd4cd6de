// Package kda signs Kadena transaction hashes on a Ledger device running the
// Kadena application.
//
// A Client wraps a ChunkSender, usually an *apdu.Transport opened on a
// device, and exposes SignHash. SignHash accepts the hash as raw bytes, a
// 64-character hex string or a base64 string, builds the command payload
//
//	hash (32 B) || count (1 B) || component[0] (4 B LE) || ...
//
// and sends it with CLA 0x00, INS 0x04, P1 0x00 and P2 0x00. The signature is
// the device response without its trailing status word, hex encoded.
//
// Usage
//
//	tr, err := apdu.NewTransport(dev, apdu.DefaultTransportConfig)
//	if err != nil {
//	    return err
//	}
//	client, err := kda.New(tr, kda.WithLogger(lg))
//	if err != nil {
//	    return err
//	}
//	res, err := client.SignHash(ctx, "44'/626'/0'/0/0", hashHex)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Signature)
package kda
