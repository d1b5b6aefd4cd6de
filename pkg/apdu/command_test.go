package apdu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMarshalBinary(t *testing.T) {
	t.Run("Header and data", func(t *testing.T) {
		cmd := Command{CLA: 0x00, INS: 0x04, P1: 0x01, P2: 0x02, Data: []byte{0xaa, 0xbb}}
		raw, err := cmd.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x04, 0x01, 0x02, 0x02, 0xaa, 0xbb}, raw)
	})

	t.Run("Empty data", func(t *testing.T) {
		raw, err := Command{CLA: 0xe0, INS: 0x01}.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xe0, 0x01, 0x00, 0x00, 0x00}, raw)
	})

	t.Run("Maximum data length", func(t *testing.T) {
		data := bytes.Repeat([]byte{0x01}, MaxDataLength)
		raw, err := Command{Data: data}.MarshalBinary()
		require.NoError(t, err)
		assert.Len(t, raw, headerSize+MaxDataLength)
		assert.Equal(t, byte(0xff), raw[4])
	})

	t.Run("Data too long", func(t *testing.T) {
		_, err := Command{Data: make([]byte, MaxDataLength+1)}.MarshalBinary()
		assert.ErrorIs(t, err, ErrDataTooLong)
	})
}

func TestCommandString(t *testing.T) {
	cmd := Command{CLA: 0x00, INS: 0x04, Data: make([]byte, 53)}
	assert.Equal(t, "CLA=0x00 INS=0x04 P1=0x00 P2=0x00 Lc=53", cmd.String())
}

func TestParseResponse(t *testing.T) {
	t.Run("Data and status", func(t *testing.T) {
		data, sw, err := ParseResponse([]byte{0xaa, 0xbb, 0x90, 0x00})
		require.NoError(t, err)
		assert.Equal(t, []byte{0xaa, 0xbb}, data)
		assert.Equal(t, StatusOK, sw)
	})

	t.Run("Status only", func(t *testing.T) {
		data, sw, err := ParseResponse([]byte{0x69, 0x85})
		require.NoError(t, err)
		assert.Empty(t, data)
		assert.Equal(t, StatusConditionsNotSatisfied, sw)
	})

	t.Run("Too short", func(t *testing.T) {
		for _, resp := range [][]byte{nil, {0x90}} {
			_, _, err := ParseResponse(resp)
			assert.ErrorIs(t, err, ErrShortResponse)
		}
	})
}

func TestStatusWord(t *testing.T) {
	assert.Equal(t, "0x9000 (ok)", StatusOK.String())
	assert.Equal(t, "0x6985 (conditions of use not satisfied)", StatusConditionsNotSatisfied.String())
	assert.Equal(t, "0x1234", StatusWord(0x1234).String())

	err := &StatusError{Code: StatusINSNotSupported, INS: 0x04}
	assert.Equal(t, "device rejected instruction 0x04 with status 0x6d00 (instruction not supported)", err.Error())
	assert.True(t, IsStatus(err, StatusINSNotSupported))
	assert.False(t, IsStatus(err, StatusOK))
	assert.False(t, IsStatus(ErrShortResponse, StatusOK))
}
