package llmcomplete

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Mock replies with the value for the first key (in sorted order) contained in the last user message, case-insensitively. It records every request it receives.
type Mock struct {
	responses map[string]string

	mu       sync.Mutex
	requests []Request
}

var _ Completer = (*Mock)(nil)

func NewMock(responses map[string]string) *Mock {
	return &Mock{responses: responses}
}

func (m *Mock) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	last := req.Messages[len(req.Messages)-1]
	if last.Role != RoleUser {
		return nil, fmt.Errorf("in order to send, the last message must be a user message")
	}

	keys := make([]string, 0, len(m.responses))
	for k := range m.responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lower := strings.ToLower(last.Content)
	for _, k := range keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			return &Response{Text: m.responses[k], Metadata: ResponseMetadata{Model: req.Model, StopReason: "stop"}}, nil
		}
	}
	return nil, &ResponseError{Message: fmt.Sprintf("no mock response for %q", last.Content)}
}

// Calls returns how many requests the mock has received.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the received requests.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
