package kda

import (
	"context"
	"encoding/hex"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/obsidiansystems/hw-app-kda/pkg/apdu"
	"github.com/obsidiansystems/hw-app-kda/pkg/bip32"
	"github.com/obsidiansystems/hw-app-kda/pkg/log"
)

// AppName is the name of the Kadena application on the device.
const AppName = "KDA"

// Command header of the sign hash instruction.
const (
	CLA         byte = 0x00
	InsSignHash byte = 0x04
	P1SignHash  byte = 0x00
	P2SignHash  byte = 0x00
)

const tracerName = "github.com/obsidiansystems/hw-app-kda/pkg/kda"

// ChunkSender sends a payload of any length to the device, split into as
// many commands as needed, and returns the final raw response including its
// status word. *apdu.Transport implements it.
type ChunkSender interface {
	SendChunks(ctx context.Context, cla, ins, p1, p2 byte, payload []byte) ([]byte, error)
}

var _ ChunkSender = (*apdu.Transport)(nil)

// HashInput is a transaction hash as accepted by SignHash: []byte, [32]byte
// or string. See NormalizeHash.
type HashInput = any

// SignTransactionResult is the outcome of a successful SignHash call.
type SignTransactionResult struct {
	Signature string `json:"signature" yaml:"signature"` // Hex encoded
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for the client and for the sender it calls.
// By default the logger stored in the call context is used.
func WithLogger(lg log.Logger) Option {
	return func(c *Client) {
		c.lg = lg
	}
}

// WithLenientPaths parses derivation paths with bip32.SplitPath, which skips
// malformed segments instead of rejecting them.
func WithLenientPaths() Option {
	return func(c *Client) {
		c.lenient = true
	}
}

// WithTracer sets the tracer used for the kda.SignHash span.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithMetrics records every SignHash call into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client signs transaction hashes through a ChunkSender. It keeps no
// per-call state.
type Client struct {
	sender  ChunkSender
	lg      log.Logger
	lenient bool
	tracer  trace.Tracer
	metrics *Metrics
}

// New creates a Client that talks to the device through sender.
func New(sender ChunkSender, opts ...Option) (*Client, error) {
	if sender == nil {
		return nil, ErrNilSender
	}

	c := &Client{
		sender: sender,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SignHash asks the device to sign hash with the key at path.
//
// The hash is normalized with NormalizeHash and must decode to exactly 32
// bytes. The path is parsed strictly unless WithLenientPaths was given. The
// command payload is the hash followed by the serialized path. The returned
// signature is the response data without the status word, hex encoded.
//
// Errors returned by the sender, such as *apdu.StatusError when the user
// rejects the request, are returned unchanged.
func (c *Client) SignHash(ctx context.Context, path string, hash HashInput) (result SignTransactionResult, err error) {
	ctx, span := c.tracer.Start(ctx, "kda.SignHash", trace.WithAttributes(attribute.String("kda.path", path)))
	start := time.Now()
	defer func() {
		c.metrics.record(err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	lg := log.FromContext(ctx)
	if c.lg != nil {
		lg = c.lg
	}
	ctx = log.SetContextLogger(ctx, lg)
	lg = log.FromContext(ctx)

	rawHash, err := NormalizeHash(hash)
	if err != nil {
		lg.Warn("rejected hash", "path", path, "error", err)
		return SignTransactionResult{}, err
	}

	keyPayload, err := c.keyPayload(path)
	if err != nil {
		lg.Warn("rejected derivation path", "path", path, "error", err)
		return SignTransactionResult{}, err
	}

	payload := make([]byte, 0, len(rawHash)+len(keyPayload))
	payload = append(payload, rawHash...)
	payload = append(payload, keyPayload...)
	span.SetAttributes(attribute.Int("kda.payload_len", len(payload)))

	lg.Info("requesting signature", "path", path, "hash", hex.EncodeToString(rawHash))
	resp, err := c.sender.SendChunks(ctx, CLA, InsSignHash, P1SignHash, P2SignHash, payload)
	if err != nil {
		lg.Error("sign hash failed", "path", path, "error", err)
		return SignTransactionResult{}, err
	}
	if len(resp) < apdu.StatusWordLength {
		err = &TransmissionError{Response: resp}
		lg.Error("sign hash failed", "path", path, "error", err)
		return SignTransactionResult{}, err
	}

	sig := hex.EncodeToString(resp[:len(resp)-apdu.StatusWordLength])
	lg.Info("hash signed", "path", path, "signatureLen", len(resp)-apdu.StatusWordLength)
	return SignTransactionResult{Signature: sig}, nil
}

func (c *Client) keyPayload(path string) ([]byte, error) {
	if c.lenient {
		return bip32.BuildKeyPayload(path)
	}

	parsed, err := bip32.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return parsed.MarshalBinary()
}
