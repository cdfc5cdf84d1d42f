package ai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Ensure OpenAIFileChat implements FileChat
var _ driven.FileChat = (*OpenAIFileChat)(nil)

// OpenAIFileChat implements FileChat: the raw PDF is uploaded to the
// provider's file store and each block question references it as a file
// content part, so no local parsing or retrieval happens.
type OpenAIFileChat struct {
	client openai.Client
	model  string
}

// NewOpenAIFileChat creates a new multi-modal file chat service.
func NewOpenAIFileChat(apiKey, model, baseURL string) (*OpenAIFileChat, error) {
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

	return &OpenAIFileChat{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Upload stores the local file with the provider and returns its reference.
func (c *OpenAIFileChat) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	file, err := c.client.Files.New(ctx, openai.FileNewParams{
		File:    f,
		Purpose: openai.FilePurposeUserData,
	})
	if err != nil {
		return "", fmt.Errorf("file upload failed: %w", err)
	}
	return file.ID, nil
}

// Respond asks one schema-constrained question against an uploaded file.
func (c *OpenAIFileChat) Respond(ctx context.Context, fileRef, system, instruction, schemaName string, schema map[string]any) (map[string]any, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		{
			OfFile: &openai.ChatCompletionContentPartFileParam{
				File: openai.ChatCompletionContentPartFileFileParam{
					FileID: openai.String(fileRef),
				},
			},
		},
		{
			OfText: &openai.ChatCompletionContentPartTextParam{Text: instruction},
		},
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: parts,
					},
				},
			},
		},
		ResponseFormat: responseFormat(schemaName, schema),
	}

	comp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("file chat completion failed: %w", err)
	}
	if len(comp.Choices) == 0 {
		return nil, errors.New("file chat completion returned no choices")
	}

	return parseStructured(comp.Choices[0].Message.Content)
}
