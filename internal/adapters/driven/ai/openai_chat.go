package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Ensure OpenAIChat implements StructuredChat
var _ driven.StructuredChat = (*OpenAIChat)(nil)

// OpenAIChat implements StructuredChat using OpenAI chat completions with a
// json_schema response format.
type OpenAIChat struct {
	client openai.Client
	model  string
}

// NewOpenAIChat creates a new structured chat service.
func NewOpenAIChat(apiKey, model, baseURL string) (*OpenAIChat, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIChat{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Chat sends a system/user pair constrained to schema and returns the parsed
// object.
func (c *OpenAIChat) Chat(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		ResponseFormat: responseFormat(schemaName, schema),
	}

	comp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(comp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return parseStructured(comp.Choices[0].Message.Content)
}

// Model returns the model name being used
func (c *OpenAIChat) Model() string {
	return c.model
}

// Ping verifies the chat service is available
func (c *OpenAIChat) Ping(ctx context.Context) error {
	_, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("ping"),
		},
		MaxTokens: openai.Int(1),
	})
	return err
}

// Close releases resources held by the chat service
func (c *OpenAIChat) Close() error {
	return nil
}

// responseFormat builds the json_schema response-format constraint.
func responseFormat(name string, schema map[string]any) openai.ChatCompletionNewParamsResponseFormatUnion {
	prepared, _ := ensureStrictJSONSchema(schema).(map[string]any)
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   name,
				Schema: prepared,
				// Non-strict mode: strict would require "required" to list
				// every key in properties, which the block schemas do not.
				Strict: openai.Bool(false),
			},
		},
	}
}

// parseStructured decodes the message content into a JSON object.
func parseStructured(content string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return out, nil
}

// ensureStrictJSONSchema enforces additionalProperties:false wherever a
// schema defines an object, recursing into properties, items and the
// composition keywords.
func ensureStrictJSONSchema(in any) any {
	switch v := in.(type) {
	case map[string]any:
		if t, ok := v["type"].(string); ok && t == "object" {
			if _, ok := v["additionalProperties"]; !ok {
				v["additionalProperties"] = false
			}
		}
		if props, ok := v["properties"].(map[string]any); ok {
			for k, child := range props {
				props[k] = ensureStrictJSONSchema(child)
			}
		}
		if items, ok := v["items"]; ok {
			v["items"] = ensureStrictJSONSchema(items)
		}
		for _, kw := range []string{"allOf", "anyOf", "oneOf"} {
			if list, ok := v[kw].([]any); ok {
				for i, child := range list {
					list[i] = ensureStrictJSONSchema(child)
				}
			}
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = ensureStrictJSONSchema(child)
		}
		return v
	}
	return in
}
