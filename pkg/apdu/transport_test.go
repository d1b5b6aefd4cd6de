package apdu_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidiansystems/hw-app-kda/pkg/apdu"
)

func TestNewTransport(t *testing.T) {
	t.Run("Nil exchanger", func(t *testing.T) {
		_, err := apdu.NewTransport(nil, apdu.DefaultTransportConfig)
		assert.ErrorIs(t, err, apdu.ErrNilExchanger)
	})

	t.Run("Chunk size bounds", func(t *testing.T) {
		for _, size := range []int{-1, 0, apdu.MaxDataLength + 1} {
			cfg := apdu.DefaultTransportConfig
			cfg.ChunkSize = size
			_, err := apdu.NewTransport(NewMockExchanger(), cfg)
			assert.ErrorIs(t, err, apdu.ErrInvalidChunkSize)
		}
	})

	t.Run("Empty status list accepts OK", func(t *testing.T) {
		tr, err := apdu.NewTransport(NewMockExchanger(), apdu.TransportConfig{ChunkSize: 10})
		require.NoError(t, err)

		resp, err := tr.SendChunks(context.Background(), 0x00, 0x04, 0x00, 0x00, []byte{0x01})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x90, 0x00}, resp)
	})

	t.Run("Status list is copied", func(t *testing.T) {
		cfg := apdu.TransportConfig{ChunkSize: 10, AcceptedStatus: []apdu.StatusWord{apdu.StatusOK}}
		tr, err := apdu.NewTransport(NewMockExchanger(), cfg)
		require.NoError(t, err)

		cfg.AcceptedStatus[0] = apdu.StatusWord(0x6985)

		resp, err := tr.SendChunks(context.Background(), 0x00, 0x04, 0x00, 0x00, []byte{0x01})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x90, 0x00}, resp)
	})
}

func TestTransportSendChunks(t *testing.T) {
	ctx := context.Background()

	t.Run("Single chunk", func(t *testing.T) {
		dev := NewMockExchanger().Respond([]byte{0xaa, 0xbb, 0x90, 0x00}, nil)
		tr, err := apdu.NewTransport(dev, apdu.DefaultTransportConfig)
		require.NoError(t, err)

		payload := bytes.Repeat([]byte{0x11}, 53)
		resp, err := tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, payload)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xaa, 0xbb, 0x90, 0x00}, resp)

		commands := dev.Commands()
		require.Len(t, commands, 1)
		assert.Equal(t, append([]byte{0x00, 0x04, 0x00, 0x00, 53}, payload...), commands[0])
	})

	t.Run("Multiple chunks return the last response", func(t *testing.T) {
		dev := NewMockExchanger().
			Respond([]byte{0x90, 0x00}, nil).
			Respond([]byte{0x90, 0x00}, nil).
			Respond([]byte{0x01, 0x02, 0x90, 0x00}, nil)

		cfg := apdu.DefaultTransportConfig
		cfg.ChunkSize = 4
		tr, err := apdu.NewTransport(dev, cfg)
		require.NoError(t, err)

		payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		resp, err := tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, payload)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02, 0x90, 0x00}, resp)

		commands := dev.Commands()
		require.Len(t, commands, 3)
		assert.Equal(t, []byte{0x00, 0x04, 0x00, 0x00, 4, 1, 2, 3, 4}, commands[0])
		assert.Equal(t, []byte{0x00, 0x04, 0x00, 0x00, 4, 5, 6, 7, 8}, commands[1])
		assert.Equal(t, []byte{0x00, 0x04, 0x00, 0x00, 2, 9, 10}, commands[2])
	})

	t.Run("Empty payload sends one command", func(t *testing.T) {
		dev := NewMockExchanger()
		tr, err := apdu.NewTransport(dev, apdu.DefaultTransportConfig)
		require.NoError(t, err)

		_, err = tr.SendChunks(ctx, 0x00, 0x00, 0x00, 0x00, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{0x00, 0x00, 0x00, 0x00, 0x00}}, dev.Commands())
	})

	t.Run("Rejected status stops sending", func(t *testing.T) {
		dev := NewMockExchanger().Respond([]byte{0x69, 0x85}, nil)
		cfg := apdu.DefaultTransportConfig
		cfg.ChunkSize = 2
		tr, err := apdu.NewTransport(dev, cfg)
		require.NoError(t, err)

		resp, err := tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, []byte{1, 2, 3, 4})
		assert.Nil(t, resp)
		assert.True(t, apdu.IsStatus(err, apdu.StatusConditionsNotSatisfied))

		var statusErr *apdu.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, byte(0x04), statusErr.INS)
		assert.Len(t, dev.Commands(), 1)
	})

	t.Run("Extra accepted status", func(t *testing.T) {
		dev := NewMockExchanger().Respond([]byte{0x6a, 0x88}, nil)
		cfg := apdu.TransportConfig{
			ChunkSize:      apdu.DefaultChunkSize,
			AcceptedStatus: []apdu.StatusWord{apdu.StatusOK, apdu.StatusReferencedDataNotFound},
		}
		tr, err := apdu.NewTransport(dev, cfg)
		require.NoError(t, err)

		resp, err := tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, []byte{1})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x6a, 0x88}, resp)
	})

	t.Run("Device errors are returned unchanged", func(t *testing.T) {
		deviceErr := errors.New("hid: device disconnected")
		dev := NewMockExchanger().Respond(nil, deviceErr)
		tr, err := apdu.NewTransport(dev, apdu.DefaultTransportConfig)
		require.NoError(t, err)

		_, err = tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, []byte{1})
		assert.Same(t, deviceErr, err)
	})

	t.Run("Short response", func(t *testing.T) {
		dev := NewMockExchanger().Respond([]byte{0x90}, nil)
		tr, err := apdu.NewTransport(dev, apdu.DefaultTransportConfig)
		require.NoError(t, err)

		_, err = tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, []byte{1})
		assert.ErrorIs(t, err, apdu.ErrShortResponse)
	})

	t.Run("Cancelled context sends nothing", func(t *testing.T) {
		dev := NewMockExchanger()
		tr, err := apdu.NewTransport(dev, apdu.DefaultTransportConfig)
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = tr.SendChunks(cancelled, 0x00, 0x04, 0x00, 0x00, []byte{1})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, dev.Commands())
	})
}

func TestTransportSerializesCallers(t *testing.T) {
	dev := NewMockExchanger()
	cfg := apdu.DefaultTransportConfig
	cfg.ChunkSize = 1
	tr, err := apdu.NewTransport(dev, cfg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(marker byte) {
			defer wg.Done()
			_, err := tr.SendChunks(context.Background(), 0x00, marker, 0x00, 0x00, []byte{marker, marker, marker})
			assert.NoError(t, err)
		}(byte(i))
	}
	wg.Wait()

	// Chunks of one call must never interleave with another call's chunks.
	commands := dev.Commands()
	require.Len(t, commands, 24)
	for i := 0; i < len(commands); i += 3 {
		ins := commands[i][1]
		assert.Equal(t, ins, commands[i+1][1])
		assert.Equal(t, ins, commands[i+2][1])
	}
}

func TestTransportExchangeAndClose(t *testing.T) {
	dev := NewMockExchanger().Respond([]byte{0x01, 0x00, 0x03, 0x90, 0x00}, nil)
	tr, err := apdu.NewTransport(dev, apdu.DefaultTransportConfig)
	require.NoError(t, err)

	resp, err := tr.Exchange(context.Background(), apdu.Command{CLA: 0x00, INS: 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x03, 0x90, 0x00}, resp)

	require.NoError(t, tr.Close())
	assert.True(t, dev.closed)
}

func TestTransportMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := apdu.NewMetricsWithRegistry(registry)

	dev := NewMockExchanger().
		Respond([]byte{0x90, 0x00}, nil).
		Respond([]byte{0x69, 0x85}, nil).
		Respond(nil, errors.New("unplugged"))
	tr, err := apdu.NewTransport(dev, apdu.DefaultTransportConfig, apdu.WithMetrics(metrics))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, []byte{1, 2, 3})
	require.NoError(t, err)
	_, err = tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, []byte{1})
	require.Error(t, err)
	_, err = tr.SendChunks(ctx, 0x00, 0x04, 0x00, 0x00, nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exchanges.WithLabelValues("0x04", "0x9000")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exchanges.WithLabelValues("0x04", "0x6985")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exchanges.WithLabelValues("0x04", "transport_error")))
	assert.Equal(t, float64(8+6+5), testutil.ToFloat64(metrics.BytesSent))
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]byte{{}}, apdu.Chunk(nil, 4))
	assert.Equal(t, [][]byte{{1, 2, 3}}, apdu.Chunk([]byte{1, 2, 3}, 4))
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}}, apdu.Chunk([]byte{1, 2, 3, 4}, 2))
	assert.Equal(t, [][]byte{{1, 2}, {3}}, apdu.Chunk([]byte{1, 2, 3}, 2))
}
