package apdu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/obsidiansystems/hw-app-kda/pkg/log"
)

// DefaultChunkSize is the payload size of each APDU sent by SendChunks.
const DefaultChunkSize = 230

var (
	ErrNilExchanger     = errors.New("nil exchanger")
	ErrInvalidChunkSize = errors.New("invalid chunk size")
)

// Exchanger sends one raw command APDU to a device and returns the raw
// response, status word included.
type Exchanger interface {
	Exchange(command []byte) ([]byte, error)
}

// TransportConfig contains configuration options for Transport.
type TransportConfig struct {
	// ChunkSize is the maximum data length of each APDU, between 1 and MaxDataLength.
	ChunkSize int

	// AcceptedStatus lists the status words treated as success.
	// An empty list accepts StatusOK only.
	AcceptedStatus []StatusWord
}

// DefaultTransportConfig provides the chunk size and status list used by the
// Ledger JS transports.
var DefaultTransportConfig = TransportConfig{
	ChunkSize:      DefaultChunkSize,
	AcceptedStatus: []StatusWord{StatusOK},
}

// TransportOption configures optional Transport behavior.
type TransportOption func(*Transport)

// WithMetrics records every exchange into m.
func WithMetrics(m *Metrics) TransportOption {
	return func(t *Transport) {
		t.metrics = m
	}
}

// Transport sends commands to a single device, one at a time.
type Transport struct {
	dev     Exchanger
	cfg     TransportConfig
	metrics *Metrics
	mu      sync.Mutex // Serializes device exchanges
}

// NewTransport creates a Transport on top of dev.
func NewTransport(dev Exchanger, cfg TransportConfig, opts ...TransportOption) (*Transport, error) {
	if dev == nil {
		return nil, ErrNilExchanger
	}
	if cfg.ChunkSize < 1 || cfg.ChunkSize > MaxDataLength {
		return nil, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidChunkSize, cfg.ChunkSize, MaxDataLength)
	}
	if len(cfg.AcceptedStatus) == 0 {
		cfg.AcceptedStatus = []StatusWord{StatusOK}
	} else {
		cfg.AcceptedStatus = slices.Clone(cfg.AcceptedStatus)
	}

	t := &Transport{
		dev: dev,
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Exchange sends a single command and returns the raw response.
func (t *Transport) Exchange(ctx context.Context, cmd Command) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.exchange(ctx, cmd)
}

// SendChunks splits payload into ChunkSize pieces and sends each one with the
// same CLA, INS, P1 and P2. It stops at the first failing exchange and
// otherwise returns the last raw response, status word included. An empty
// payload is sent as a single command without data.
//
// The context is checked before every chunk. A chunk already handed to the
// device cannot be aborted.
func (t *Transport) SendChunks(ctx context.Context, cla, ins, p1, p2 byte, payload []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lg := log.FromContext(ctx)
	chunks := Chunk(payload, t.cfg.ChunkSize)
	if len(chunks) > 1 {
		lg.Debug("sending chunked payload", "ins", ins, "payloadLen", len(payload), "chunks", len(chunks))
	}

	var resp []byte
	for i, chunk := range chunks {
		var err error
		resp, err = t.exchange(ctx, Command{CLA: cla, INS: ins, P1: p1, P2: p2, Data: chunk})
		if err != nil {
			lg.Debug("chunk exchange failed", "ins", ins, "chunk", i, "error", err)
			return nil, err
		}
	}
	return resp, nil
}

// Close closes the underlying device when it implements io.Closer.
func (t *Transport) Close() error {
	if c, ok := t.dev.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *Transport) exchange(ctx context.Context, cmd Command) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := cmd.MarshalBinary()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := t.dev.Exchange(raw)
	elapsed := time.Since(start)
	if err != nil {
		t.metrics.recordFailure(cmd, len(raw), elapsed)
		return nil, err
	}

	_, sw, err := ParseResponse(resp)
	if err != nil {
		t.metrics.recordFailure(cmd, len(raw), elapsed)
		return nil, err
	}
	t.metrics.recordExchange(cmd, sw, len(raw), elapsed)

	log.FromContext(ctx).Debug("apdu exchanged",
		"command", cmd.String(),
		"status", sw.String(),
		"responseLen", len(resp),
		"elapsed", elapsed,
	)

	if !slices.Contains(t.cfg.AcceptedStatus, sw) {
		return nil, &StatusError{Code: sw, INS: cmd.INS}
	}
	return resp, nil
}

// Chunk splits payload into consecutive pieces of at most size bytes.
// An empty payload yields one empty chunk.
func Chunk(payload []byte, size int) [][]byte {
	if len(payload) == 0 {
		return [][]byte{{}}
	}

	chunks := make([][]byte, 0, (len(payload)+size-1)/size)
	for len(payload) > size {
		chunks = append(chunks, payload[:size])
		payload = payload[size:]
	}
	return append(chunks, payload)
}
