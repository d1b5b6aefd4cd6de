package apdu_test

import (
	"sync"

	"github.com/obsidiansystems/hw-app-kda/pkg/apdu"
)

var _ apdu.Exchanger = (*MockExchanger)(nil)

// MockExchanger records every raw command and answers from a queue of
// canned responses. When the queue runs dry it answers with the fallback.
type MockExchanger struct {
	mu        sync.Mutex
	commands  [][]byte
	responses [][]byte
	errs      []error
	fallback  []byte
	closed    bool
}

// NewMockExchanger creates a mock that answers 0x9000 unless told otherwise.
func NewMockExchanger() *MockExchanger {
	return &MockExchanger{fallback: []byte{0x90, 0x00}}
}

// Respond queues a response for the next unanswered command.
func (m *MockExchanger) Respond(resp []byte, err error) *MockExchanger {
	m.responses = append(m.responses, resp)
	m.errs = append(m.errs, err)
	return m
}

// Exchange records the command and pops the next queued response.
func (m *MockExchanger) Exchange(command []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commands = append(m.commands, append([]byte(nil), command...))
	if len(m.responses) == 0 {
		return m.fallback, nil
	}

	resp, err := m.responses[0], m.errs[0]
	m.responses, m.errs = m.responses[1:], m.errs[1:]
	return resp, err
}

// Close marks the mock as closed.
func (m *MockExchanger) Close() error {
	m.closed = true
	return nil
}

// Commands returns all commands received so far.
func (m *MockExchanger) Commands() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commands
}
