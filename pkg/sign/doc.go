// Package sign defines a device-agnostic signing interface.
//
// A Signer turns a 32-byte transaction hash into a Signature. Implementations
// may delegate to a hardware wallet, which means Sign can block until the user
// confirms on the device, so it always takes a context.
//
// Usage
//
//	var signer sign.Signer = kda.NewPathSigner(client, "44'/626'/0'/0/0")
//	sig, err := signer.Sign(ctx, hash)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(sig) // lowercase hex, no prefix
package sign
