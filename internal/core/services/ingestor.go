package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Ingestor orchestrates one ingestion job end to end: download, parse,
// chunk, embed, block-wise retrieval + generation (or the PDF-native
// branch), merge, default, normalise and persist. It is the single catch
// point that translates pipeline errors into a failed document status.
type Ingestor struct {
	documents  driven.DocumentStore
	checklists driven.ChecklistStore
	parser     driven.Parser
	embedder   driven.EmbeddingService
	downloader driven.Downloader
	artifacts  driven.ArtifactStore
	fileChat   driven.FileChat

	chunker   *Chunker
	retriever *Retriever
	generator *BlockGenerator
	chat      driven.StructuredChat

	cfg    Config
	logger *slog.Logger
}

// IngestorConfig holds the collaborators for an Ingestor.
type IngestorConfig struct {
	Documents  driven.DocumentStore
	Checklists driven.ChecklistStore
	Parser     driven.Parser
	Embedder   driven.EmbeddingService
	Chat       driven.StructuredChat
	FileChat   driven.FileChat
	Downloader driven.Downloader
	Artifacts  driven.ArtifactStore // optional debug artifact uploads
	Logger     *slog.Logger
	Pipeline   Config
}

// NewIngestor creates a new Ingestor.
func NewIngestor(cfg IngestorConfig) *Ingestor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pipeline := cfg.Pipeline
	if pipeline.ChunkMaxChars == 0 {
		pipeline = DefaultConfig()
	}

	return &Ingestor{
		documents:  cfg.Documents,
		checklists: cfg.Checklists,
		parser:     cfg.Parser,
		embedder:   cfg.Embedder,
		downloader: cfg.Downloader,
		artifacts:  cfg.Artifacts,
		fileChat:   cfg.FileChat,
		chunker:    NewChunker(pipeline),
		retriever:  NewRetriever(cfg.Embedder, pipeline),
		generator:  NewBlockGenerator(cfg.Chat, cfg.FileChat, logger),
		chat:       cfg.Chat,
		cfg:        pipeline,
		logger:     logger,
	}
}

// Ingest processes one queued job. Invalid payloads and absent documents are
// dropped without error; any pipeline failure transitions the document to
// failed and is returned for logging. A document already done short-circuits
// so duplicate deliveries never mutate state.
func (s *Ingestor) Ingest(ctx context.Context, job *domain.IngestJob) error {
	logger := s.logger.With("document_id", job.DocumentID, "user_id", job.UserID)

	if err := job.Validate(); err != nil {
		logger.Warn("dropping job with invalid payload")
		return nil
	}

	doc, err := s.documents.Get(ctx, job.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("dropping job for absent document")
			return nil
		}
		return s.fail(ctx, job.DocumentID, logger, domain.NewStageError(domain.StagePersist, err))
	}
	if doc.Status == domain.DocumentStatusDone {
		logger.Info("document already done, skipping")
		return nil
	}

	if err := s.documents.TransitionStatus(ctx, job.DocumentID, domain.DocumentStatusProcessing); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			logger.Info("document not claimable, skipping", "status", doc.Status)
			return nil
		}
		return domain.NewStageError(domain.StagePersist, err)
	}

	localPath, err := s.downloader.Download(ctx, job.FileURL)
	if err != nil {
		return s.fail(ctx, job.DocumentID, logger, domain.NewStageError(domain.StageDownload, err))
	}
	defer os.Remove(localPath)

	var checklist domain.Checklist
	if job.UsePDFFile {
		checklist, err = s.generatePDFNative(ctx, job, localPath, logger)
	} else {
		checklist, err = s.generateFromText(ctx, job, localPath, logger)
	}
	if err != nil {
		return s.fail(ctx, job.DocumentID, logger, err)
	}

	fileName := job.FileName
	if fileName == "" {
		fileName = doc.FileName
	}
	row := domain.NewChecklistRow(uuid.NewString(), job.UserID, fileName, job.DocumentID, checklist)
	if err := s.checklists.Insert(ctx, row); err != nil {
		return s.fail(ctx, job.DocumentID, logger, domain.NewStageError(domain.StagePersist, err))
	}
	if err := s.documents.TransitionStatus(ctx, job.DocumentID, domain.DocumentStatusDone); err != nil {
		return s.fail(ctx, job.DocumentID, logger, domain.NewStageError(domain.StagePersist, err))
	}

	logger.Info("ingestion complete", "pontuacao", checklist.IntAt(domain.KeyPontuacao))
	return nil
}

// fail transitions the document to failed (best effort) and returns err.
func (s *Ingestor) fail(ctx context.Context, documentID string, logger *slog.Logger, err error) error {
	logger.Error("ingestion failed",
		"stage", domain.StageOf(err),
		"block_key", domain.BlockKeyOf(err),
		"error", err,
	)
	if terr := s.documents.TransitionStatus(ctx, documentID, domain.DocumentStatusFailed); terr != nil {
		logger.Error("failed to mark document failed", "error", terr)
	}
	return err
}

// generateFromText runs the parsed-text pipeline: parse, chunk, embed, then
// block-wise retrieval and generation (or the legacy single call).
func (s *Ingestor) generateFromText(ctx context.Context, job *domain.IngestJob, localPath string, logger *slog.Logger) (domain.Checklist, error) {
	segments, err := s.parser.Parse(ctx, localPath, job.FileName, "por")
	if err != nil {
		return nil, domain.NewStageError(domain.StageParse, err)
	}
	if len(segments) == 0 {
		return nil, domain.NewStageError(domain.StageParse, domain.ErrEmptyDocument)
	}
	s.uploadArtifact(ctx, job, "parse.json", segments)

	chunks := s.chunker.Chunk(segments)
	if len(chunks) == 0 {
		return nil, domain.NewStageError(domain.StageChunk, domain.ErrEmptyDocument)
	}
	logger.Info("document chunked", "segments", len(segments), "chunks", len(chunks))

	if !s.cfg.UseChecklistBlocks {
		return s.generateLegacy(ctx, segments)
	}

	if err := s.embedChunks(ctx, chunks); err != nil {
		return nil, domain.NewStageError(domain.StageEmbed, err)
	}

	blocks := domain.Blocks()
	results := make([]*domain.BlockResult, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BlockConcurrency)
	for i, block := range blocks {
		g.Go(func() error {
			selected, err := s.retriever.RetrieveForBlock(gctx, chunks, block)
			if err != nil {
				return domain.NewBlockError(domain.StageRetrieve, block.Key, err)
			}
			result, err := s.generator.Generate(gctx, block, selected)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.assemble(ctx, job, results), nil
}

// generatePDFNative uploads the raw PDF to the provider and runs each block
// against the file reference, bypassing parsing and retrieval.
func (s *Ingestor) generatePDFNative(ctx context.Context, job *domain.IngestJob, localPath string, logger *slog.Logger) (domain.Checklist, error) {
	if s.fileChat == nil {
		return nil, domain.NewStageError(domain.StageFileUpload,
			fmt.Errorf("pdf-native mode requested but no file chat configured"))
	}

	fileRef, err := s.fileChat.Upload(ctx, localPath)
	if err != nil {
		return nil, domain.NewStageError(domain.StageFileUpload, err)
	}
	logger.Info("pdf uploaded to provider", "file_ref", fileRef)

	blocks := domain.Blocks()
	results := make([]*domain.BlockResult, 0, len(blocks))
	for i, block := range blocks {
		if i > 0 && s.cfg.PDFBlockDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, domain.NewBlockError(domain.StageBlockGenerate, block.Key, ctx.Err())
			case <-time.After(s.cfg.PDFBlockDelay):
			}
		}
		result, err := s.generator.GenerateFromFile(ctx, fileRef, block)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return s.assemble(ctx, job, results), nil
}

// generateLegacy makes a single structured call over the full document text
// and coerces the result into the v2 shape.
func (s *Ingestor) generateLegacy(ctx context.Context, segments []domain.Segment) (domain.Checklist, error) {
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg.Text)
		sb.WriteByte('\n')
	}

	raw, err := s.chat.Chat(ctx, blockSystemPrompt,
		domain.LegacyInstruction+"\n\nTexto do edital:\n\n"+sb.String(),
		"checklist", domain.FullChecklistSchema())
	if err != nil {
		return nil, domain.NewStageError(domain.StageBlockGenerate, err)
	}
	if err := ValidateSchema(domain.FullChecklistSchema(), raw); err != nil {
		return nil, domain.NewStageError(domain.StageBlockGenerate,
			fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err))
	}

	checklist := domain.FlattenLegacy(raw)
	return Normalise(ApplyDefaults(checklist)), nil
}

// assemble merges block results, attaches the evidence tree and applies
// defaults and normalisation in merge order.
func (s *Ingestor) assemble(ctx context.Context, job *domain.IngestJob, results []*domain.BlockResult) domain.Checklist {
	flat := make([]domain.BlockResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			flat = append(flat, *r)
		}
	}
	merged, evidence := MergeBlockResults(flat)
	merged[domain.KeyEvidence] = evidence

	if job != nil {
		s.uploadArtifact(ctx, job, "blocks.json", flat)
	}
	return Normalise(ApplyDefaults(merged))
}

// embedChunks fills chunk vectors, batching provider calls and rejecting
// mismatched dimensions within one job.
func (s *Ingestor) embedChunks(ctx context.Context, chunks []domain.NormalizedChunk) error {
	batch := s.cfg.EmbedBatchSize
	if batch <= 0 {
		batch = 2048
	}

	dims := -1
	for start := 0; start < len(chunks); start += batch {
		end := start + batch
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Text)
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(texts), len(vectors))
		}
		for i, vec := range vectors {
			if dims == -1 {
				dims = len(vec)
			} else if len(vec) != dims {
				return domain.ErrDimensionMismatch
			}
			chunks[start+i].Vector = vec
		}
	}
	return nil
}

// uploadArtifact stores a debug artifact under {userId}/{documentId}/name.
// Failures are logged and never fail the job.
func (s *Ingestor) uploadArtifact(ctx context.Context, job *domain.IngestJob, name string, payload any) {
	if s.artifacts == nil || job == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	key := path.Join(job.UserID, job.DocumentID, name)
	if err := s.artifacts.Put(ctx, key, "application/json", body); err != nil {
		s.logger.Warn("debug artifact upload failed", "key", key, "error", err)
	}
}
