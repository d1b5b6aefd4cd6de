package kda

import (
	"context"

	"github.com/obsidiansystems/hw-app-kda/pkg/sign"
)

var _ sign.Signer = (*PathSigner)(nil)

// PathSigner signs with the key at a fixed derivation path.
type PathSigner struct {
	client *Client
	path   string
}

// NewPathSigner binds client to path.
func NewPathSigner(client *Client, path string) *PathSigner {
	return &PathSigner{client: client, path: path}
}

// Path returns the derivation path the signer uses.
func (s *PathSigner) Path() string {
	return s.path
}

func (s *PathSigner) Sign(ctx context.Context, hash []byte) (sign.Signature, error) {
	res, err := s.client.SignHash(ctx, s.path, hash)
	if err != nil {
		return nil, err
	}
	return sign.ParseSignature(res.Signature)
}
