package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// blockSystemPrompt fixes the extraction role and output rules for every
// block call.
const blockSystemPrompt = "Você é um especialista em licitações públicas brasileiras. " +
	"Responda sempre em português. Retorne apenas JSON válido conforme o schema fornecido; " +
	"use string vazia quando a informação não constar do documento."

// BlockGenerator invokes the LLM under a per-block JSON schema and validates
// the parsed result at the boundary.
type BlockGenerator struct {
	chat     driven.StructuredChat
	fileChat driven.FileChat
	logger   *slog.Logger
}

// NewBlockGenerator creates a BlockGenerator. fileChat may be nil when the
// PDF-native branch is not configured.
func NewBlockGenerator(chat driven.StructuredChat, fileChat driven.FileChat, logger *slog.Logger) *BlockGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlockGenerator{chat: chat, fileChat: fileChat, logger: logger}
}

// Generate runs one block against its retrieved context chunks.
func (g *BlockGenerator) Generate(ctx context.Context, block domain.ChecklistBlock, chunks []domain.NormalizedChunk) (*domain.BlockResult, error) {
	user := block.Instruction + "\n\nContexto do edital:\n\n" + contextFromChunks(chunks)

	raw, err := g.chat.Chat(ctx, blockSystemPrompt, user, block.Key, block.Schema)
	if err != nil {
		return nil, domain.NewBlockError(domain.StageBlockGenerate, block.Key, err)
	}
	if err := ValidateSchema(block.Schema, raw); err != nil {
		return nil, domain.NewBlockError(domain.StageBlockGenerate, block.Key,
			fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err))
	}
	return &domain.BlockResult{Key: block.Key, Raw: raw}, nil
}

// GenerateFromFile runs one block against an uploaded PDF reference,
// bypassing chunking and retrieval.
func (g *BlockGenerator) GenerateFromFile(ctx context.Context, fileRef string, block domain.ChecklistBlock) (*domain.BlockResult, error) {
	if g.fileChat == nil {
		return nil, domain.NewBlockError(domain.StageBlockGenerate, block.Key,
			fmt.Errorf("pdf-native mode requested but no file chat configured"))
	}

	raw, err := g.fileChat.Respond(ctx, fileRef, blockSystemPrompt, block.Instruction, block.Key, block.Schema)
	if err != nil {
		return nil, domain.NewBlockError(domain.StageBlockGenerate, block.Key, err)
	}
	if err := ValidateSchema(block.Schema, raw); err != nil {
		return nil, domain.NewBlockError(domain.StageBlockGenerate, block.Key,
			fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err))
	}
	return &domain.BlockResult{Key: block.Key, Raw: raw}, nil
}

// contextFromChunks concatenates chunk texts, labelling each with its page
// when known so the model can fill evidence page numbers.
func contextFromChunks(chunks []domain.NormalizedChunk) string {
	var sb strings.Builder
	for i, ch := range chunks {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		if ch.PageNumber != nil {
			fmt.Fprintf(&sb, "[página %d] ", *ch.PageNumber)
		}
		sb.WriteString(ch.Text)
	}
	return sb.String()
}
