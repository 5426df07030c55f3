package mock

import (
	"context"
	"strings"
	"sync"
)

// Rule maps a prompt fragment to a canned reply.
type Rule struct {
	// Contains is matched against the user prompt with strings.Contains.
	Contains string
	// Reply is returned when Contains matches.
	Reply string
	// Err is returned instead of Reply when set.
	Err error
}

// MockCompleter is a test double for ai.Completer.
// Rules are checked in order; the first match wins. Unmatched prompts get DefaultReply.
type MockCompleter struct {
	// CompleteFunc replaces all rule handling if set.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	Rules        []Rule
	DefaultReply string

	mu      sync.Mutex
	prompts []string
}

// NewMockCompleter creates a completer that answers with the given rules.
func NewMockCompleter(rules ...Rule) *MockCompleter {
	return &MockCompleter{Rules: rules, DefaultReply: "{}"}
}

// WithCompleteFunc replaces the completion behavior and returns the mock for chaining.
func (m *MockCompleter) WithCompleteFunc(fn func(ctx context.Context, systemPrompt, userPrompt string) (string, error)) *MockCompleter {
	m.CompleteFunc = fn
	return m
}

// Complete records the prompt and returns the first matching rule's reply.
func (m *MockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, userPrompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for _, r := range m.Rules {
		if strings.Contains(userPrompt, r.Contains) {
			if r.Err != nil {
				return "", r.Err
			}
			return r.Reply, nil
		}
	}
	return m.DefaultReply, nil
}

// CallCount returns the number of Complete calls.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every user prompt received, in call order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
