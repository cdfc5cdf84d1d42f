package mocks

import (
	"context"
	"fmt"
	"sync"
)

// MockStructuredChat is a mock implementation of StructuredChat for testing.
// Responses are canned per schema name; unknown schemas return an empty
// object unless FailUnknown is set. Safe for concurrent block fan-out.
type MockStructuredChat struct {
	mu sync.Mutex

	// Responses maps schemaName to the object to return
	Responses map[string]map[string]any

	// Errors maps schemaName to an error to return instead
	Errors map[string]error

	// Calls records the schema names invoked, in order
	Calls []string

	// LastSystem and LastUser capture the most recent prompt pair
	LastSystem string
	LastUser   string

	// FailUnknown makes calls for schemas without a canned response fail
	FailUnknown bool
}

// NewMockStructuredChat creates a new MockStructuredChat
func NewMockStructuredChat() *MockStructuredChat {
	return &MockStructuredChat{
		Responses: map[string]map[string]any{},
		Errors:    map[string]error{},
	}
}

func (m *MockStructuredChat) Chat(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, schemaName)
	m.LastSystem = system
	m.LastUser = user

	if err, ok := m.Errors[schemaName]; ok {
		return nil, err
	}
	if resp, ok := m.Responses[schemaName]; ok {
		return resp, nil
	}
	if m.FailUnknown {
		return nil, fmt.Errorf("no canned response for schema %s", schemaName)
	}
	return map[string]any{}, nil
}

func (m *MockStructuredChat) Model() string {
	return "mock-chat-model"
}

func (m *MockStructuredChat) Ping(ctx context.Context) error {
	return nil
}

func (m *MockStructuredChat) Close() error {
	return nil
}

// CallCount returns how many chat calls were made.
func (m *MockStructuredChat) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockFileChat is a mock implementation of FileChat for testing.
type MockFileChat struct {
	mu sync.Mutex

	// Responses maps schemaName to the object to return
	Responses map[string]map[string]any

	// Errors maps schemaName to an error to return instead
	Errors map[string]error

	// UploadErr fails Upload when set
	UploadErr error

	// Uploads records uploaded paths
	Uploads []string

	// Calls records the schema names invoked, in order
	Calls []string
}

// NewMockFileChat creates a new MockFileChat
func NewMockFileChat() *MockFileChat {
	return &MockFileChat{
		Responses: map[string]map[string]any{},
		Errors:    map[string]error{},
	}
}

func (m *MockFileChat) Upload(ctx context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	m.Uploads = append(m.Uploads, path)
	return fmt.Sprintf("file-%d", len(m.Uploads)), nil
}

func (m *MockFileChat) Respond(ctx context.Context, fileRef, system, instruction, schemaName string, schema map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, schemaName)

	if err, ok := m.Errors[schemaName]; ok {
		return nil, err
	}
	if resp, ok := m.Responses[schemaName]; ok {
		return resp, nil
	}
	return map[string]any{}, nil
}
