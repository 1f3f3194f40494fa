// internal/agent/mocks_test.go
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/hackparv/operator-cli/api/schemas"
	"github.com/hackparv/operator-cli/internal/humanoid"
)

// scriptedStep is one queued model exchange: either a raw response or an
// error.
type scriptedStep struct {
	response string
	err      error
}

// mockVisionClient replays a fixed script of responses and records every
// request it received.
type mockVisionClient struct {
	mu       sync.Mutex
	script   []scriptedStep
	requests []schemas.VisionRequest
}

func respond(raw string) scriptedStep { return scriptedStep{response: raw} }
func fail(err error) scriptedStep     { return scriptedStep{err: err} }

func (m *mockVisionClient) Generate(_ context.Context, req schemas.VisionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		return "", fmt.Errorf("mock script exhausted after %d calls", len(m.requests))
	}
	step := m.script[0]
	m.script = m.script[1:]
	return step.response, step.err
}

func (m *mockVisionClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockVisionClient) request(i int) schemas.VisionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

// mockCapturer returns a fixed path, or an error when set.
type mockCapturer struct {
	path string
	err  error
}

func (m *mockCapturer) Capture() (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.path, nil
}

// mockEncoder returns a fixed base64 payload for any path.
type mockEncoder struct {
	b64 string
	err error
}

func (m *mockEncoder) Encode(string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.b64, nil
}

// executedCall records one executor dispatch for assertions.
type executedCall struct {
	kind    schemas.ActionKind
	x, y    float64
	content string
	keys    []string
}

// mockExecutor records every dispatched action and answers with configurable
// per-kind results (OK by default).
type mockExecutor struct {
	mu      sync.Mutex
	calls   []executedCall
	results map[schemas.ActionKind]humanoid.Result
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{results: map[schemas.ActionKind]humanoid.Result{}}
}

func (m *mockExecutor) result(kind schemas.ActionKind) humanoid.Result {
	if res, ok := m.results[kind]; ok {
		return res
	}
	return humanoid.Result{Kind: kind, Outcome: humanoid.OutcomeOK}
}

func (m *mockExecutor) Click(_ context.Context, xFrac, yFrac float64) humanoid.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, executedCall{kind: schemas.ActionClick, x: xFrac, y: yFrac})
	return m.result(schemas.ActionClick)
}

func (m *mockExecutor) Write(_ context.Context, content string) humanoid.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, executedCall{kind: schemas.ActionWrite, content: content})
	return m.result(schemas.ActionWrite)
}

func (m *mockExecutor) Press(_ context.Context, keys []string) humanoid.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, executedCall{kind: schemas.ActionPress, keys: keys})
	return m.result(schemas.ActionPress)
}

func (m *mockExecutor) executed() []executedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]executedCall, len(m.calls))
	copy(out, m.calls)
	return out
}
