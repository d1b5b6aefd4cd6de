package kda_test

import (
	"context"
	"sync"

	"github.com/obsidiansystems/hw-app-kda/pkg/kda"
	"github.com/obsidiansystems/hw-app-kda/pkg/log"
)

var _ kda.ChunkSender = (*MockSender)(nil)

// sentChunks is one recorded SendChunks call.
type sentChunks struct {
	CLA, INS, P1, P2 byte
	Payload          []byte
}

// MockSender records SendChunks calls and answers with a fixed response.
type MockSender struct {
	mu    sync.Mutex
	calls []sentChunks
	resp  []byte
	err   error
}

// NewMockSender creates a sender that answers every call with resp and err.
func NewMockSender(resp []byte, err error) *MockSender {
	return &MockSender{resp: resp, err: err}
}

func (m *MockSender) SendChunks(_ context.Context, cla, ins, p1, p2 byte, payload []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, sentChunks{CLA: cla, INS: ins, P1: p1, P2: p2, Payload: append([]byte(nil), payload...)})
	if m.err != nil {
		return nil, m.err
	}
	return append([]byte(nil), m.resp...), nil
}

// Calls returns the recorded calls.
func (m *MockSender) Calls() []sentChunks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// exchangerFunc adapts a function to apdu.Exchanger.
type exchangerFunc func(command []byte) ([]byte, error)

func (f exchangerFunc) Exchange(command []byte) ([]byte, error) {
	return f(command)
}

// entryLogger records the key/value pairs of every Info, Warn and Error entry.
type entryLogger struct {
	log.NoopLogger
	mu      sync.Mutex
	entries map[string][]any
}

func newEntryLogger() *entryLogger {
	return &entryLogger{entries: make(map[string][]any)}
}

func (l *entryLogger) Info(msg string, keysAndValues ...any) { l.record(msg, keysAndValues) }
func (l *entryLogger) Warn(msg string, keysAndValues ...any) { l.record(msg, keysAndValues) }
func (l *entryLogger) Error(msg string, keysAndValues ...any) { l.record(msg, keysAndValues) }
func (l *entryLogger) AddCallerSkip(int) log.Logger { return l }

func (l *entryLogger) record(msg string, keysAndValues []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[msg] = append([]any(nil), keysAndValues...)
}

// keyCount reports how many times key appears as a key in the entry msg.
func (l *entryLogger) keyCount(msg, key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	kv := l.entries[msg]
	for i := 0; i < len(kv); i += 2 {
		if kv[i] == key {
			n++
		}
	}
	return n
}
