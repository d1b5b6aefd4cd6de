package sign

import (
	"context"
	"crypto/sha256"
	"errors"
)

var _ Signer = (*MockSigner)(nil)

// ErrMockHashLength is returned by MockSigner for hashes that are not 32 bytes.
var ErrMockHashLength = errors.New("mock signer: hash is not 32 bytes")

// MockSigner signs deterministically without a device. The signature is
// sha256(id || hash) repeated twice, giving the 64-byte length of a real one.
type MockSigner struct {
	id string
}

// NewMockSigner returns a MockSigner whose signatures depend on id.
func NewMockSigner(id string) *MockSigner {
	return &MockSigner{id: id}
}

func (m *MockSigner) Sign(ctx context.Context, hash []byte) (Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(hash) != 32 {
		return nil, ErrMockHashLength
	}

	digest := sha256.Sum256(append([]byte(m.id), hash...))
	sig := make(Signature, 0, 2*len(digest))
	sig = append(sig, digest[:]...)
	return append(sig, digest[:]...), nil
}
