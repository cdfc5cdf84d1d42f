package driven

import (
	"context"
)

// StructuredChat invokes a chat model constrained to a JSON schema.
// Implementations must return the parsed object exactly as the provider
// produced it; schema validation happens at the caller's boundary.
type StructuredChat interface {
	// Chat sends a system and user message pair and returns the structured
	// response parsed from JSON. schemaName labels the schema for the
	// provider's structured-output constraint.
	Chat(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the chat service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the chat service
	Close() error
}

// FileChat answers schema-constrained questions grounded on an uploaded
// file. Used by the PDF-native branch, which bypasses parsing and retrieval.
type FileChat interface {
	// Upload stores the local file with the provider and returns a file
	// reference usable in Respond calls.
	Upload(ctx context.Context, path string) (string, error)

	// Respond sends an instruction against an uploaded file and returns the
	// structured response.
	Respond(ctx context.Context, fileRef, system, instruction, schemaName string, schema map[string]any) (map[string]any, error)
}
